package http

import (
	"bytes"
	"fmt"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillswap/skillswap-hub/internal/application/command"
	"github.com/skillswap/skillswap-hub/internal/application/eventhandler"
	"github.com/skillswap/skillswap-hub/internal/application/query"
	"github.com/skillswap/skillswap-hub/internal/domain/matching"
	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/internal/domain/skill"
	"github.com/skillswap/skillswap-hub/internal/infrastructure/messaging"
	"github.com/skillswap/skillswap-hub/internal/infrastructure/persistence/memory"
	"github.com/skillswap/skillswap-hub/internal/infrastructure/service"
	"github.com/skillswap/skillswap-hub/internal/interface/http/handlers"
	"github.com/skillswap/skillswap-hub/pkg/logger"
)

type testEnv struct {
	server *Server
	auth   *handlers.Authenticator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	bus := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{AsyncMode: false})
	t.Cleanup(func() { _ = bus.Close() })

	skills := memory.NewSkillRepository()
	requests := memory.NewSwapRequestRepository()
	notifications := memory.NewNotificationRepository()
	profiles := memory.NewProfileRepository(skills)

	log := logger.Nop()
	sink := service.NewNotificationService(notifications, bus, service.NotificationServiceOptions{Logger: log})
	conversations := service.NewConversationService(memory.NewConversationRepository(), bus, log)
	require.NoError(t, eventhandler.NewOnSwapRequestEventHandler(sink, conversations, nil).Subscribe(bus))

	validator := skill.NewValidator(service.NewHeuristicScorer(), nil)
	compat := skill.NewCompatibility(skill.DefaultAffinityTable())
	ranker := matching.NewRanker(compat, matching.NewFairnessScorer(compat, matching.DefaultFairnessWeights()))

	auth, err := handlers.NewAuthenticator(handlers.AuthConfig{Secret: []byte("test-secret")})
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.RateLimitPerSecond = 0

	srv, err := NewServer(cfg, Dependencies{
		CreateSwapRequest:     command.NewCreateSwapRequestHandler(skills, requests, bus, nil),
		RespondSwapRequest:    command.NewRespondSwapRequestHandler(requests, bus, nil, nil, command.DefaultRespondConfig()),
		SkillListings:         command.NewSkillListingHandler(skills, validator, bus),
		SubmitAssessment:      command.NewSubmitAssessmentHandler(skills, validator, bus),
		SetAvailability:       command.NewSetAvailabilityHandler(profiles),
		MarkNotificationsRead: command.NewMarkNotificationsReadHandler(notifications, nil),
		RankMatches:           query.NewRankMatchesHandler(profiles, ranker, 100),
		Skills:                query.NewSkillQueries(skills),
		SwapRequests:          query.NewSwapRequestQueries(requests, 0),
		Notifications:         query.NewListNotificationsHandler(notifications),
		BadgeCounts:           query.NewBadgeCountsHandler(requests, notifications),
		Authenticator:         auth,
		Logger:                log,
	})
	require.NoError(t, err)

	return &testEnv{server: srv, auth: auth}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path, user string, body interface{}) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		token, err := e.auth.Issue(user, time.Hour, time.Now())
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec.Code, env
}

func (e *testEnv) createSkill(t *testing.T, user, title, direction string) string {
	t.Helper()
	code, env := e.do(t, http.MethodPost, "/api/v1/skills", user, map[string]interface{}{
		"title":     title,
		"category":  "Programming",
		"level":     "Intermediate",
		"direction": direction,
	})
	require.Equal(t, http.StatusCreated, code, "create skill: %+v", env.Error)

	var out skillResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out.Skill.ID
}

func TestServer_HealthIsPublic(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, body.Success)

	code, _ = env.do(t, http.MethodGet, "/live", "", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestServer_APIRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodGet, "/api/v1/badges", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "unauthenticated", body.Error.Code)
}

func TestServer_SwapLifecycle(t *testing.T) {
	env := newTestEnv(t)

	aliceGo := env.createSkill(t, "alice", "Go", "offered")
	bobSQL := env.createSkill(t, "bob", "SQL", "offered")

	code, body := env.do(t, http.MethodPost, "/api/v1/swap-requests", "alice", map[string]string{
		"offered_skill_id":   aliceGo,
		"requested_skill_id": bobSQL,
		"message":            "let's trade",
	})
	require.Equal(t, http.StatusCreated, code, "%+v", body.Error)

	var created query.SwapRequestDTO
	require.NoError(t, json.Unmarshal(body.Data, &created))
	assert.Equal(t, "bob", created.ToUserID)
	assert.Equal(t, "pending", created.Status)
	assert.NotNil(t, created.ExpiresAt)

	// Same pair again while pending.
	code, body = env.do(t, http.MethodPost, "/api/v1/swap-requests", "alice", map[string]string{
		"offered_skill_id":   aliceGo,
		"requested_skill_id": bobSQL,
	})
	assert.Equal(t, http.StatusConflict, code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "already_exists", body.Error.Code)

	code, body = env.do(t, http.MethodGet, "/api/v1/badges", "bob", nil)
	require.Equal(t, http.StatusOK, code)
	var badges query.BadgeCountsDTO
	require.NoError(t, json.Unmarshal(body.Data, &badges))
	assert.Equal(t, 1, badges.PendingRequests)
	assert.Equal(t, 1, badges.UnreadNotifications)

	// Only the recipient may accept.
	code, _ = env.do(t, http.MethodPost, "/api/v1/swap-requests/"+created.ID+"/accept", "alice", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = env.do(t, http.MethodPost, "/api/v1/swap-requests/"+created.ID+"/accept", "bob", nil)
	require.Equal(t, http.StatusOK, code, "%+v", body.Error)
	var accepted query.SwapRequestDTO
	require.NoError(t, json.Unmarshal(body.Data, &accepted))
	assert.Equal(t, "accepted", accepted.Status)
	assert.Nil(t, accepted.ExpiresAt)

	// Terminal requests cannot change again.
	code, body = env.do(t, http.MethodPost, "/api/v1/swap-requests/"+created.ID+"/decline", "bob", nil)
	assert.Equal(t, http.StatusConflict, code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "invalid_transition", body.Error.Code)

	code, body = env.do(t, http.MethodGet, "/api/v1/notifications?unread=true", "alice", nil)
	require.Equal(t, http.StatusOK, code)
	var list query.NotificationListDTO
	require.NoError(t, json.Unmarshal(body.Data, &list))
	require.Len(t, list.Notifications, 1)
	assert.Equal(t, created.ID, list.Notifications[0].SwapRequestID)

	code, body = env.do(t, http.MethodPost, "/api/v1/notifications/read", "alice", map[string]interface{}{})
	require.Equal(t, http.StatusOK, code)
	var marked map[string]int
	require.NoError(t, json.Unmarshal(body.Data, &marked))
	assert.Equal(t, 1, marked["updated"])
	assert.Equal(t, 0, marked["unread"])
}

func TestServer_SwapRequestHiddenFromOutsiders(t *testing.T) {
	env := newTestEnv(t)

	aliceGo := env.createSkill(t, "alice", "Go", "offered")
	bobSQL := env.createSkill(t, "bob", "SQL", "offered")

	code, body := env.do(t, http.MethodPost, "/api/v1/swap-requests", "alice", map[string]string{
		"offered_skill_id":   aliceGo,
		"requested_skill_id": bobSQL,
	})
	require.Equal(t, http.StatusCreated, code)
	var created query.SwapRequestDTO
	require.NoError(t, json.Unmarshal(body.Data, &created))

	code, _ = env.do(t, http.MethodGet, "/api/v1/swap-requests/"+created.ID, "carol", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = env.do(t, http.MethodGet, "/api/v1/swap-requests/"+created.ID, "bob", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestServer_SkillValidationErrors(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodPost, "/api/v1/skills", "alice", map[string]interface{}{
		"title":     "Go",
		"category":  "Programming",
		"level":     "Guru",
		"direction": "offered",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "invalid_input", body.Error.Code)

	code, body = env.do(t, http.MethodPost, "/api/v1/skills", "alice", map[string]interface{}{
		"title":   "Go",
		"unknown": true,
	})
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "invalid_json", body.Error.Code)

	code, _ = env.do(t, http.MethodGet, "/api/v1/skills/missing", "alice", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestServer_SkillOwnershipAndDelete(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSkill(t, "alice", "Go", "offered")

	code, _ := env.do(t, http.MethodDelete, "/api/v1/skills/"+id, "bob", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = env.do(t, http.MethodDelete, "/api/v1/skills/"+id, "alice", nil)
	assert.Equal(t, http.StatusNoContent, code)

	code, body := env.do(t, http.MethodGet, "/api/v1/skills", "alice", nil)
	require.Equal(t, http.StatusOK, code)
	var out map[string][]query.SkillDTO
	require.NoError(t, json.Unmarshal(body.Data, &out))
	assert.Empty(t, out["skills"])
}

func TestServer_RankMatches(t *testing.T) {
	env := newTestEnv(t)

	env.createSkill(t, "alice", "Go", "offered")
	env.createSkill(t, "alice", "Design", "wanted")
	env.createSkill(t, "bob", "Design", "offered")
	env.createSkill(t, "bob", "Go", "wanted")

	code, body := env.do(t, http.MethodPut, "/api/v1/availability", "alice", map[string]interface{}{
		"hours_per_week": 5,
		"market_demand":  "High",
	})
	require.Equal(t, http.StatusOK, code, "%+v", body.Error)

	code, body = env.do(t, http.MethodGet, "/api/v1/matches?limit=5", "alice", nil)
	require.Equal(t, http.StatusOK, code, "%+v", body.Error)

	var result query.RankMatchesResult
	require.NoError(t, json.Unmarshal(body.Data, &result))
	assert.Equal(t, 1, result.PoolSize)
	assert.Len(t, result.Candidates, 1)

	code, _ = env.do(t, http.MethodGet, "/api/v1/matches?limit=abc", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"plain", assert.AnError, http.StatusInternalServerError},
		{"missing skill", fmt.Errorf("get_skill: %w", shared.ErrSkillNotFound), http.StatusNotFound},
		{"lock", shared.ErrLockNotAcquired, http.StatusConflict},
		{"no answers", shared.ErrInsufficientAnswers, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := statusForError(tt.err)
			assert.Equal(t, tt.want, got)
		})
	}
}
