package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/internal/domain/swap"
)

// ══════════════════════════════════════════════════════════════════════════════
// SWAP REQUEST REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// SwapRequestRepository implements swap.RequestRepository for PostgreSQL.
// Transitions use a conditional UPDATE on the version column, so exactly one
// of several concurrent writers commits.
type SwapRequestRepository struct {
	conn *Connection
}

// NewSwapRequestRepository creates a new SwapRequestRepository.
func NewSwapRequestRepository(conn *Connection) *SwapRequestRepository {
	return &SwapRequestRepository{conn: conn}
}

const swapColumns = `id, from_user_id, to_user_id, offered_skill_id, requested_skill_id,
	status, message, version, created_at, responded_at, updated_at`

// Create inserts a new request. The partial unique index on pending
// requests turns a duplicate into shared.ErrSwapRequestExists.
func (r *SwapRequestRepository) Create(ctx context.Context, req *swap.Request) error {
	query := `INSERT INTO swap_requests (` + swapColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.conn.Exec(ctx, query,
		req.ID,
		string(req.FromUserID),
		string(req.ToUserID),
		req.OfferedSkillID,
		req.RequestedSkillID,
		string(req.Status),
		req.Message,
		req.Version,
		req.CreatedAt,
		req.RespondedAt,
		req.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrSwapRequestExists
		}
		return fmt.Errorf("failed to create swap request: %w", err)
	}
	return nil
}

// GetByID returns a request or shared.ErrSwapRequestNotFound.
func (r *SwapRequestRepository) GetByID(ctx context.Context, id string) (*swap.Request, error) {
	query := `SELECT ` + swapColumns + ` FROM swap_requests WHERE id = $1`

	req, err := scanSwapRequest(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrSwapRequestNotFound
		}
		return nil, fmt.Errorf("failed to get swap request: %w", err)
	}
	return req, nil
}

// Update writes the transition only if the stored version still equals
// expectedVersion, then bumps req.Version.
func (r *SwapRequestRepository) Update(ctx context.Context, req *swap.Request, expectedVersion int) error {
	query := `
		UPDATE swap_requests SET
			status = $1,
			responded_at = $2,
			updated_at = $3,
			version = version + 1
		WHERE id = $4 AND version = $5
	`

	result, err := r.conn.Exec(ctx, query,
		string(req.Status),
		req.RespondedAt,
		req.UpdatedAt,
		req.ID,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update swap request: %w", err)
	}

	if result.RowsAffected() == 0 {
		var exists bool
		if err := r.conn.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM swap_requests WHERE id = $1)`, req.ID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check swap request: %w", err)
		}
		if !exists {
			return shared.ErrSwapRequestNotFound
		}
		return shared.ErrConcurrentModification
	}

	req.Version = expectedVersion + 1
	return nil
}

// List returns the user's requests, newest first.
func (r *SwapRequestRepository) List(ctx context.Context, opts swap.ListOptions) ([]*swap.Request, error) {
	query, args := buildSwapListQuery(opts)

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list swap requests: %w", err)
	}
	return collectSwapRequests(rows)
}

// ListOverdue returns pending requests created before cutoff, oldest first.
func (r *SwapRequestRepository) ListOverdue(ctx context.Context, cutoff time.Time, limit int) ([]*swap.Request, error) {
	query := `SELECT ` + swapColumns + ` FROM swap_requests
		WHERE status = 'pending' AND created_at < $1
		ORDER BY created_at, id`
	args := []interface{}{cutoff}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue swap requests: %w", err)
	}
	return collectSwapRequests(rows)
}

// CountPendingIncoming counts pending requests addressed to the user.
func (r *SwapRequestRepository) CountPendingIncoming(ctx context.Context, userID shared.UserID) (int, error) {
	var n int
	err := r.conn.QueryRow(ctx,
		`SELECT count(*) FROM swap_requests WHERE to_user_id = $1 AND status = 'pending'`,
		string(userID),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending requests: %w", err)
	}
	return n, nil
}

func buildSwapListQuery(opts swap.ListOptions) (string, []interface{}) {
	args := []interface{}{string(opts.UserID)}

	var conds []string
	switch opts.Box {
	case swap.BoxIncoming:
		conds = append(conds, "to_user_id = $1")
	case swap.BoxOutgoing:
		conds = append(conds, "from_user_id = $1")
	default:
		conds = append(conds, "(from_user_id = $1 OR to_user_id = $1)")
	}

	if opts.Status != "" {
		args = append(args, string(opts.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	args = append(args, opts.Pagination.Limit(), opts.Pagination.Offset())
	query := `SELECT ` + swapColumns + ` FROM swap_requests WHERE ` +
		strings.Join(conds, " AND ") +
		fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	return query, args
}

func collectSwapRequests(rows pgx.Rows) ([]*swap.Request, error) {
	defer rows.Close()

	out := make([]*swap.Request, 0)
	for rows.Next() {
		req, err := scanSwapRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan swap request: %w", err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func scanSwapRequest(row rowScanner) (*swap.Request, error) {
	var (
		req              swap.Request
		from, to, status string
	)

	err := row.Scan(
		&req.ID,
		&from,
		&to,
		&req.OfferedSkillID,
		&req.RequestedSkillID,
		&status,
		&req.Message,
		&req.Version,
		&req.CreatedAt,
		&req.RespondedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.FromUserID = shared.UserID(from)
	req.ToUserID = shared.UserID(to)
	req.Status = swap.Status(status)
	return &req, nil
}
