package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/internal/domain/skill"
)

// ══════════════════════════════════════════════════════════════════════════════
// SKILL REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// SkillRepository implements skill.Repository for PostgreSQL.
type SkillRepository struct {
	conn *Connection
}

// NewSkillRepository creates a new SkillRepository.
func NewSkillRepository(conn *Connection) *SkillRepository {
	return &SkillRepository{conn: conn}
}

const skillColumns = `id, owner_id, title, category, level, description, direction,
	assessment, created_at, updated_at`

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// Save inserts or fully replaces a listing, assessment included.
func (r *SkillRepository) Save(ctx context.Context, l *skill.Listing) error {
	var assessment []byte
	if l.Assessment != nil {
		data, err := json.Marshal(l.Assessment)
		if err != nil {
			return fmt.Errorf("failed to marshal assessment: %w", err)
		}
		assessment = data
	}

	query := `
		INSERT INTO skill_listings (` + skillColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			category = EXCLUDED.category,
			level = EXCLUDED.level,
			description = EXCLUDED.description,
			direction = EXCLUDED.direction,
			assessment = EXCLUDED.assessment,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.conn.Exec(ctx, query,
		l.ID,
		string(l.OwnerID),
		l.Title,
		string(l.Category),
		string(l.Level),
		l.Description,
		string(l.Direction),
		assessment,
		l.CreatedAt,
		l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save skill listing: %w", err)
	}
	return nil
}

// GetByID returns a listing or shared.ErrSkillNotFound.
func (r *SkillRepository) GetByID(ctx context.Context, id string) (*skill.Listing, error) {
	query := `SELECT ` + skillColumns + ` FROM skill_listings WHERE id = $1`

	l, err := scanListing(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrSkillNotFound
		}
		return nil, fmt.Errorf("failed to get skill listing: %w", err)
	}
	return l, nil
}

// Delete removes a listing.
func (r *SkillRepository) Delete(ctx context.Context, id string) error {
	result, err := r.conn.Exec(ctx, `DELETE FROM skill_listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete skill listing: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrSkillNotFound
	}
	return nil
}

// ListByOwner returns the owner's listings, oldest first.
func (r *SkillRepository) ListByOwner(ctx context.Context, ownerID shared.UserID) ([]*skill.Listing, error) {
	query := `SELECT ` + skillColumns + ` FROM skill_listings
		WHERE owner_id = $1
		ORDER BY created_at, id`

	rows, err := r.conn.Query(ctx, query, string(ownerID))
	if err != nil {
		return nil, fmt.Errorf("failed to list skill listings: %w", err)
	}
	return collectListings(rows)
}

func collectListings(rows pgx.Rows) ([]*skill.Listing, error) {
	defer rows.Close()

	out := make([]*skill.Listing, 0)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan skill listing: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanListing(row rowScanner) (*skill.Listing, error) {
	var (
		l                                 skill.Listing
		owner, category, level, direction string
		assessment                        []byte
	)

	err := row.Scan(
		&l.ID,
		&owner,
		&l.Title,
		&category,
		&level,
		&l.Description,
		&direction,
		&assessment,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.OwnerID = shared.UserID(owner)
	l.Category = skill.Category(category)
	l.Level = skill.Level(level)
	l.Direction = skill.Direction(direction)

	if len(assessment) > 0 {
		var a skill.Assessment
		if err := json.Unmarshal(assessment, &a); err != nil {
			return nil, fmt.Errorf("failed to unmarshal assessment: %w", err)
		}
		l.Assessment = &a
	}

	return &l, nil
}
