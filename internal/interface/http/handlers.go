package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/skillswap/skillswap-hub/internal/application/command"
	"github.com/skillswap/skillswap-hub/internal/application/query"
	"github.com/skillswap/skillswap-hub/internal/domain/skill"
	"github.com/skillswap/skillswap-hub/internal/interface/http/handlers"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeJSON(w, r, http.StatusOK, map[string]interface{}{
			"status":  "healthy",
			"uptime":  s.Uptime().String(),
			"version": s.config.Version,
		})
		return
	}

	status := s.deps.HealthChecker.Check(r.Context())
	code := http.StatusOK
	if !status.Ready {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, r, code, status)
}

// handleReady handles the readiness probe endpoint.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// MATCH HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRankMatches handles GET /api/v1/matches?limit=&fair_only=&only_validated=
func (s *Server) handleRankMatches(w http.ResponseWriter, r *http.Request) {
	if s.deps.RankMatches == nil {
		notConfigured(w, "matches")
		return
	}

	limit, err := queryInt(r, "limit", query.DefaultMatchLimit)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	result, err := s.deps.RankMatches.Handle(r.Context(), query.RankMatchesQuery{
		UserID:        currentUser(r),
		Limit:         limit,
		FairOnly:      queryBool(r, "fair_only"),
		OnlyValidated: queryBool(r, "only_validated"),
	})
	if err != nil {
		s.writeDomainError(w, r, "rank_matches", err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// SKILL HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type skillRequest struct {
	Title       *string        `json:"title"`
	Category    *string        `json:"category"`
	Level       *string        `json:"level"`
	Description *string        `json:"description"`
	Direction   string         `json:"direction"`
	Answers     []skill.Answer `json:"answers"`
}

type assessmentRequest struct {
	Answers []skill.Answer `json:"answers"`
}

type skillResponse struct {
	Skill    *query.SkillDTO `json:"skill"`
	Assessed bool            `json:"assessed"`
}

// handleListSkills handles GET /api/v1/skills?owner= (default: current user).
func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	if s.deps.Skills == nil {
		notConfigured(w, "skills")
		return
	}
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		owner = currentUser(r)
	}

	items, err := s.deps.Skills.ListByOwner(r.Context(), owner)
	if err != nil {
		s.writeDomainError(w, r, "list_skills", err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]interface{}{"skills": items})
}

// handleGetSkill handles GET /api/v1/skills/{id}
func (s *Server) handleGetSkill(w http.ResponseWriter, r *http.Request) {
	if s.deps.Skills == nil {
		notConfigured(w, "skills")
		return
	}
	dto, err := s.deps.Skills.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, r, "get_skill", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto)
}

// handleCreateSkill handles POST /api/v1/skills
func (s *Server) handleCreateSkill(w http.ResponseWriter, r *http.Request) {
	if s.deps.SkillListings == nil {
		notConfigured(w, "skill listings")
		return
	}
	var req skillRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.SkillListings.Create(r.Context(), command.CreateSkillListingCommand{
		OwnerID:     currentUser(r),
		Title:       deref(req.Title),
		Category:    deref(req.Category),
		Level:       deref(req.Level),
		Description: deref(req.Description),
		Direction:   req.Direction,
		Answers:     req.Answers,
	})
	if err != nil {
		s.writeDomainError(w, r, "create_skill", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, skillResponse{
		Skill:    query.NewSkillDTO(result.Listing),
		Assessed: result.Assessed,
	})
}

// handleUpdateSkill handles PUT /api/v1/skills/{id}. Omitted fields keep
// their value; answers re-run the assessment.
func (s *Server) handleUpdateSkill(w http.ResponseWriter, r *http.Request) {
	if s.deps.SkillListings == nil {
		notConfigured(w, "skill listings")
		return
	}
	var req skillRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.SkillListings.Update(r.Context(), command.UpdateSkillListingCommand{
		ListingID:   r.PathValue("id"),
		ActorID:     currentUser(r),
		Title:       req.Title,
		Category:    req.Category,
		Level:       req.Level,
		Description: req.Description,
		Answers:     req.Answers,
	})
	if err != nil {
		s.writeDomainError(w, r, "update_skill", err)
		return
	}
	writeJSON(w, r, http.StatusOK, skillResponse{
		Skill:    query.NewSkillDTO(result.Listing),
		Assessed: result.Assessed,
	})
}

// handleDeleteSkill handles DELETE /api/v1/skills/{id}
func (s *Server) handleDeleteSkill(w http.ResponseWriter, r *http.Request) {
	if s.deps.SkillListings == nil {
		notConfigured(w, "skill listings")
		return
	}
	err := s.deps.SkillListings.Delete(r.Context(), command.DeleteSkillListingCommand{
		ListingID: r.PathValue("id"),
		ActorID:   currentUser(r),
	})
	if err != nil {
		s.writeDomainError(w, r, "delete_skill", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSubmitAssessment handles POST /api/v1/skills/{id}/assessment
func (s *Server) handleSubmitAssessment(w http.ResponseWriter, r *http.Request) {
	if s.deps.SubmitAssessment == nil {
		notConfigured(w, "assessment")
		return
	}
	var req assessmentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.SubmitAssessment.Handle(r.Context(), command.SubmitAssessmentCommand{
		ListingID: r.PathValue("id"),
		ActorID:   currentUser(r),
		Answers:   req.Answers,
	})
	if err != nil {
		s.writeDomainError(w, r, "submit_assessment", err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"skill":      query.NewSkillDTO(result.Listing),
		"assessment": result.Assessment,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// AVAILABILITY HANDLER
// ══════════════════════════════════════════════════════════════════════════════

type availabilityRequest struct {
	HoursPerWeek float64 `json:"hours_per_week"`
	MarketDemand string  `json:"market_demand"`
}

// handleSetAvailability handles PUT /api/v1/availability
func (s *Server) handleSetAvailability(w http.ResponseWriter, r *http.Request) {
	if s.deps.SetAvailability == nil {
		notConfigured(w, "availability")
		return
	}
	var req availabilityRequest
	if !decodeBody(w, r, &req) {
		return
	}

	a, err := s.deps.SetAvailability.Handle(r.Context(), command.SetAvailabilityCommand{
		UserID:       currentUser(r),
		HoursPerWeek: req.HoursPerWeek,
		MarketDemand: req.MarketDemand,
	})
	if err != nil {
		s.writeDomainError(w, r, "set_availability", err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"user_id":        a.UserID.String(),
		"hours_per_week": a.HoursPerWeek,
		"market_demand":  string(a.Demand),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// SWAP REQUEST HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type createSwapRequest struct {
	ToUserID         string `json:"to_user_id"`
	OfferedSkillID   string `json:"offered_skill_id"`
	RequestedSkillID string `json:"requested_skill_id"`
	Message          string `json:"message"`
}

// handleCreateSwapRequest handles POST /api/v1/swap-requests
func (s *Server) handleCreateSwapRequest(w http.ResponseWriter, r *http.Request) {
	if s.deps.CreateSwapRequest == nil {
		notConfigured(w, "swap requests")
		return
	}
	var req createSwapRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.CreateSwapRequest.Handle(r.Context(), command.CreateSwapRequestCommand{
		FromUserID:       currentUser(r),
		ToUserID:         req.ToUserID,
		OfferedSkillID:   req.OfferedSkillID,
		RequestedSkillID: req.RequestedSkillID,
		Message:          req.Message,
		CorrelationID:    getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, "create_swap_request", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, query.NewSwapRequestDTO(result.Request, s.config.RequestTTL))
}

// handleListSwapRequests handles GET /api/v1/swap-requests?box=&status=&page=&page_size=
func (s *Server) handleListSwapRequests(w http.ResponseWriter, r *http.Request) {
	if s.deps.SwapRequests == nil {
		notConfigured(w, "swap requests")
		return
	}
	page, err := queryInt(r, "page", 1)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	pageSize, err := queryInt(r, "page_size", 0)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	result, err := s.deps.SwapRequests.List(r.Context(), query.ListSwapRequestsQuery{
		UserID:   currentUser(r),
		Box:      r.URL.Query().Get("box"),
		Status:   r.URL.Query().Get("status"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		s.writeDomainError(w, r, "list_swap_requests", err)
		return
	}
	writeJSONWithMeta(w, r, http.StatusOK, result.Requests, &ResponseMeta{
		Page:     result.Page,
		PageSize: result.PageSize,
	})
}

// handleGetSwapRequest handles GET /api/v1/swap-requests/{id}
func (s *Server) handleGetSwapRequest(w http.ResponseWriter, r *http.Request) {
	if s.deps.SwapRequests == nil {
		notConfigured(w, "swap requests")
		return
	}
	dto, err := s.deps.SwapRequests.Get(r.Context(), query.GetSwapRequestQuery{
		RequestID: r.PathValue("id"),
		ViewerID:  currentUser(r),
	})
	if err != nil {
		s.writeDomainError(w, r, "get_swap_request", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto)
}

// handleRespond handles POST /api/v1/swap-requests/{id}/{accept|decline|cancel}
func (s *Server) handleRespond(action command.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.RespondSwapRequest == nil {
			notConfigured(w, "swap requests")
			return
		}
		result, err := s.deps.RespondSwapRequest.Handle(r.Context(), command.RespondSwapRequestCommand{
			RequestID:     r.PathValue("id"),
			ActorID:       currentUser(r),
			Action:        action,
			CorrelationID: getRequestID(r.Context()),
		})
		if err != nil {
			s.writeDomainError(w, r, string(action)+"_swap_request", err)
			return
		}
		writeJSON(w, r, http.StatusOK, query.NewSwapRequestDTO(result.Request, s.config.RequestTTL))
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION & BADGE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleBadgeCounts handles GET /api/v1/badges
func (s *Server) handleBadgeCounts(w http.ResponseWriter, r *http.Request) {
	if s.deps.BadgeCounts == nil {
		notConfigured(w, "badges")
		return
	}
	result, err := s.deps.BadgeCounts.Handle(r.Context(), query.BadgeCountsQuery{UserID: currentUser(r)})
	if err != nil {
		s.writeDomainError(w, r, "badge_counts", err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// handleListNotifications handles GET /api/v1/notifications?unread=&page=&page_size=
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	if s.deps.Notifications == nil {
		notConfigured(w, "notifications")
		return
	}
	page, err := queryInt(r, "page", 1)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	pageSize, err := queryInt(r, "page_size", 0)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	result, err := s.deps.Notifications.Handle(r.Context(), query.ListNotificationsQuery{
		UserID:     currentUser(r),
		UnreadOnly: queryBool(r, "unread"),
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		s.writeDomainError(w, r, "list_notifications", err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

type markReadRequest struct {
	// IDs empty marks every notification read.
	IDs []string `json:"ids"`
}

// handleMarkNotificationsRead handles POST /api/v1/notifications/read
func (s *Server) handleMarkNotificationsRead(w http.ResponseWriter, r *http.Request) {
	if s.deps.MarkNotificationsRead == nil {
		notConfigured(w, "notifications")
		return
	}
	var req markReadRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.MarkNotificationsRead.Handle(r.Context(), command.MarkNotificationsReadCommand{
		UserID: currentUser(r),
		IDs:    req.IDs,
	})
	if err != nil {
		s.writeDomainError(w, r, "mark_notifications_read", err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]int{
		"updated": result.Updated,
		"unread":  result.Unread,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func currentUser(r *http.Request) string {
	id, _ := handlers.UserIDFromContext(r.Context())
	return id
}

// decodeBody decodes a JSON body into dst. An empty body leaves dst zero.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")
			return false
		}
		writeJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return v, nil
}

func queryBool(r *http.Request, key string) bool {
	switch strings.ToLower(r.URL.Query().Get(key)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func notConfigured(w http.ResponseWriter, what string) {
	writeJSONError(w, http.StatusNotImplemented, "not_implemented", what+" handler not configured")
}

