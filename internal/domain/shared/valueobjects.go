package shared

import (
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// Identity Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UserID identifies a marketplace user. Identifiers are issued by the
// identity provider and are opaque to the domain.
type UserID string

// maxUserIDLength bounds identifiers coming from token subjects.
const maxUserIDLength = 128

// IsValid checks that the identifier is non-empty and of sane length.
func (u UserID) IsValid() bool {
	return len(u) > 0 && len(u) <= maxUserIDLength
}

// String returns the string representation.
func (u UserID) String() string {
	return string(u)
}

// IsEmpty checks if the ID is empty.
func (u UserID) IsEmpty() bool {
	return u == ""
}

// NewUserID creates a new UserID with validation.
func NewUserID(id string) (UserID, error) {
	uid := UserID(strings.TrimSpace(id))
	if !uid.IsValid() {
		return "", NewDomainError("shared", "NewUserID", ErrInvalidID, "invalid user ID")
	}
	return uid, nil
}

// UserPair is an unordered pair of users, normalized so that Low <= High.
type UserPair struct {
	Low  UserID
	High UserID
}

// NewUserPair normalizes two user IDs into an unordered pair.
func NewUserPair(a, b UserID) UserPair {
	if a > b {
		a, b = b, a
	}
	return UserPair{Low: a, High: b}
}

// Key returns a stable string key for the pair.
func (p UserPair) Key() string {
	return string(p.Low) + ":" + string(p.High)
}

// Contains reports whether the user is one side of the pair.
func (p UserPair) Contains(id UserID) bool {
	return p.Low == id || p.High == id
}

// ═══════════════════════════════════════════════════════════════════════════
// Clock
// ═══════════════════════════════════════════════════════════════════════════

// Clock abstracts the current time so lifecycle rules can be tested.
type Clock interface {
	Now() time.Time
}

// SystemClock returns the current UTC time.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns the same instant.
type FixedClock struct {
	At time.Time
}

// Now implements Clock.
func (c FixedClock) Now() time.Time {
	return c.At
}

// ═══════════════════════════════════════════════════════════════════════════
// Pagination Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Pagination represents pagination parameters.
type Pagination struct {
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Offset returns the offset for database queries.
func (p Pagination) Offset() int {
	if p.Page <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

// Limit returns the limit for database queries.
func (p Pagination) Limit() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return p.PageSize
}

// NewPagination creates a new Pagination with defaults.
func NewPagination(page, pageSize int) Pagination {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Pagination{Page: page, PageSize: pageSize}
}

// DefaultPagination returns default pagination.
func DefaultPagination() Pagination {
	return NewPagination(1, DefaultPageSize)
}
