package postgres

// GetMigrations returns all embedded migrations in version order.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_skill_listings", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "create_swap_requests", UpSQL: migration002Up, DownSQL: migration002Down},
		{Version: 3, Name: "create_notifications", UpSQL: migration003Up, DownSQL: migration003Down},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: SKILL LISTINGS AND PROFILES
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS skill_listings (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    title VARCHAR(200) NOT NULL,
    category VARCHAR(100) NOT NULL,
    level VARCHAR(20) NOT NULL
        CHECK (level IN ('Beginner', 'Intermediate', 'Advanced', 'Expert')),
    description TEXT NOT NULL DEFAULT '',
    direction VARCHAR(10) NOT NULL
        CHECK (direction IN ('Offered', 'Wanted')),
    -- latest level check, replaced on every submission
    assessment JSONB,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_skill_listings_owner ON skill_listings (owner_id, created_at);
CREATE INDEX IF NOT EXISTS idx_skill_listings_offered_category
    ON skill_listings (lower(category)) WHERE direction = 'Offered';

CREATE TABLE IF NOT EXISTS user_profiles (
    user_id TEXT PRIMARY KEY,
    hours_per_week DOUBLE PRECISION NOT NULL DEFAULT 0
        CHECK (hours_per_week >= 0 AND hours_per_week <= 168),
    market_demand VARCHAR(20) NOT NULL DEFAULT 'Medium'
        CHECK (market_demand IN ('Low', 'Medium', 'Medium-High', 'High')),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`

const migration001Down = `
DROP TABLE IF EXISTS user_profiles;
DROP TABLE IF EXISTS skill_listings;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: SWAP REQUESTS AND CONVERSATIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS swap_requests (
    id TEXT PRIMARY KEY,
    from_user_id TEXT NOT NULL,
    to_user_id TEXT NOT NULL,
    offered_skill_id TEXT NOT NULL,
    requested_skill_id TEXT NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'pending'
        CHECK (status IN ('pending', 'accepted', 'declined', 'cancelled', 'expired')),
    message TEXT NOT NULL DEFAULT '',
    version INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    responded_at TIMESTAMP WITH TIME ZONE,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT swap_requests_not_self CHECK (from_user_id <> to_user_id)
);

-- at most one pending request per sender, recipient and skill pair
CREATE UNIQUE INDEX IF NOT EXISTS uq_swap_requests_pending
    ON swap_requests (from_user_id, to_user_id, offered_skill_id, requested_skill_id)
    WHERE status = 'pending';

CREATE INDEX IF NOT EXISTS idx_swap_requests_to ON swap_requests (to_user_id, status, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_swap_requests_from ON swap_requests (from_user_id, status, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_swap_requests_pending_created
    ON swap_requests (created_at) WHERE status = 'pending';

CREATE TABLE IF NOT EXISTS conversations (
    id TEXT PRIMARY KEY,
    user_low TEXT NOT NULL,
    user_high TEXT NOT NULL,
    swap_request_id TEXT NOT NULL REFERENCES swap_requests (id),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT conversations_pair_ordered CHECK (user_low < user_high),
    CONSTRAINT uq_conversations_pair UNIQUE (user_low, user_high)
);
`

const migration002Down = `
DROP TABLE IF EXISTS conversations;
DROP TABLE IF EXISTS swap_requests;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: NOTIFICATIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
CREATE TABLE IF NOT EXISTS notifications (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    type VARCHAR(40) NOT NULL,
    swap_request_id TEXT,
    title TEXT NOT NULL,
    body TEXT NOT NULL DEFAULT '',
    data JSONB NOT NULL DEFAULT '{}'::jsonb,
    read_at TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications (user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_notifications_unread ON notifications (user_id) WHERE read_at IS NULL;
`

const migration003Down = `
DROP TABLE IF EXISTS notifications;
`
