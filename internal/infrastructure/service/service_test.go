package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillswap/skillswap-hub/internal/domain/notification"
	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/internal/domain/skill"
	"github.com/skillswap/skillswap-hub/internal/infrastructure/persistence/memory"
	"github.com/skillswap/skillswap-hub/pkg/circuitbreaker"
	"github.com/skillswap/skillswap-hub/pkg/logger"
	"github.com/skillswap/skillswap-hub/pkg/retry"
)

var now = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

type lifecycleEvent struct {
	typ     shared.EventType
	payload map[string]interface{}
}

func (e lifecycleEvent) EventType() shared.EventType     { return e.typ }
func (e lifecycleEvent) OccurredAt() time.Time           { return now }
func (e lifecycleEvent) AggregateID() string             { return "req-1" }
func (e lifecycleEvent) Payload() map[string]interface{} { return e.payload }

func createdEvent() lifecycleEvent {
	return lifecycleEvent{
		typ: shared.EventSwapRequestCreated,
		payload: map[string]interface{}{
			"request_id":         "req-1",
			"from_user_id":       "alice",
			"to_user_id":         "bob",
			"offered_skill_id":   "alice-go",
			"requested_skill_id": "bob-ux",
			"status":             "pending",
		},
	}
}

type capturePublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *capturePublisher) Publish(e shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

// flakyRepo fails the first failures Save calls with a driver-like error.
type flakyRepo struct {
	notification.Repository
	failures int
	calls    int
}

func (r *flakyRepo) Save(ctx context.Context, n *notification.Notification) error {
	r.calls++
	if r.calls <= r.failures {
		return errors.New("connection reset by peer")
	}
	return r.Repository.Save(ctx, n)
}

func fastRetrier() *retry.Retrier {
	return retry.New(
		retry.WithInitialDelay(time.Millisecond),
		retry.WithMaxDelay(2*time.Millisecond),
		retry.WithRetryIf(isTransientStoreError),
	)
}

func TestNotificationService_StoresAndPublishes(t *testing.T) {
	repo := memory.NewNotificationRepository()
	pub := &capturePublisher{}
	svc := NewNotificationService(repo, pub, NotificationServiceOptions{
		Clock:       shared.FixedClock{At: now},
		IDGenerator: func() string { return "n-1" },
		Logger:      logger.Nop(),
	})

	require.NoError(t, svc.Notify(context.Background(), "bob", createdEvent()))

	stored, err := repo.GetByID(context.Background(), "n-1")
	require.NoError(t, err)
	assert.Equal(t, shared.UserID("bob"), stored.UserID)
	assert.Equal(t, notification.TypeSwapRequestReceived, stored.Type)
	assert.Equal(t, "req-1", stored.SwapRequestID)
	assert.False(t, stored.IsRead())

	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, shared.EventNotificationCreated, ev.EventType())
	assert.Equal(t, "bob", shared.PayloadString(ev, "user_id"))
	assert.Equal(t, "n-1", shared.PayloadString(ev, "notification_id"))
}

func TestNotificationService_RetriesTransientStoreErrors(t *testing.T) {
	repo := &flakyRepo{Repository: memory.NewNotificationRepository(), failures: 2}
	svc := NewNotificationService(repo, nil, NotificationServiceOptions{
		IDGenerator: func() string { return "n-1" },
		Retrier:     fastRetrier(),
		Logger:      logger.Nop(),
	})

	require.NoError(t, svc.Notify(context.Background(), "bob", createdEvent()))
	assert.Equal(t, 3, repo.calls)
}

func TestNotificationService_RejectsNonLifecycleEvent(t *testing.T) {
	repo := &flakyRepo{Repository: memory.NewNotificationRepository()}
	svc := NewNotificationService(repo, nil, NotificationServiceOptions{Logger: logger.Nop()})

	err := svc.Notify(context.Background(), "bob", lifecycleEvent{typ: shared.EventSkillListed})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	assert.Zero(t, repo.calls)
}

func TestNotificationService_OpenBreakerSkipsStore(t *testing.T) {
	repo := &flakyRepo{Repository: memory.NewNotificationRepository(), failures: 100}
	breaker := circuitbreaker.New("test", circuitbreaker.WithFailureThreshold(1), circuitbreaker.WithTimeout(time.Hour))
	svc := NewNotificationService(repo, nil, NotificationServiceOptions{
		Retrier: retry.New(retry.WithMaxAttempts(1)),
		Breaker: breaker,
		Logger:  logger.Nop(),
	})
	ctx := context.Background()

	require.Error(t, svc.Notify(ctx, "bob", createdEvent()))
	require.Equal(t, 1, repo.calls)

	err := svc.Notify(ctx, "bob", createdEvent())
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.Equal(t, 1, repo.calls)
}

func TestConversationService_IdempotentByPair(t *testing.T) {
	repo := memory.NewConversationRepository()
	pub := &capturePublisher{}
	svc := NewConversationService(repo, pub, logger.Nop())
	ctx := context.Background()

	first, err := svc.OpenConversation(ctx, "alice", "bob", "req-1")
	require.NoError(t, err)
	second, err := svc.OpenConversation(ctx, "bob", "alice", "req-2")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Len(t, pub.events, 1)
	assert.Equal(t, shared.EventConversationOpened, pub.events[0].EventType())
	assert.Equal(t, "req-1", shared.PayloadString(pub.events[0], "request_id"))
}

func TestConversationService_RejectsSelfPair(t *testing.T) {
	svc := NewConversationService(memory.NewConversationRepository(), nil, logger.Nop())
	_, err := svc.OpenConversation(context.Background(), "alice", "alice", "req-1")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestHeuristicScorer(t *testing.T) {
	ctx := context.Background()
	s := NewHeuristicScorer()

	t.Run("empty answer", func(t *testing.T) {
		score, err := s.ScoreAnswer(ctx, skill.LevelBeginner, skill.Answer{Text: "   "})
		require.NoError(t, err)
		assert.Zero(t, score)
	})

	t.Run("short answer with a marker", func(t *testing.T) {
		// 3/20 words of length (6) plus one marker (15).
		score, err := s.ScoreAnswer(ctx, skill.LevelBeginner, skill.Answer{Text: "I used Go."})
		require.NoError(t, err)
		assert.Equal(t, 21.0, score)
	})

	t.Run("detail beats vagueness", func(t *testing.T) {
		vague := skill.Answer{Text: "I know it pretty well and like it a lot."}
		detailed := skill.Answer{Text: "For example, in production I implemented a PostgreSQL " +
			"connection pool with pgxpool, tuned MaxConns to 25 and added context deadlines " +
			"to every query. I also built retries with exponential backoff."}

		v, err := s.ScoreAnswer(ctx, skill.LevelAdvanced, vague)
		require.NoError(t, err)
		d, err := s.ScoreAnswer(ctx, skill.LevelAdvanced, detailed)
		require.NoError(t, err)

		assert.Greater(t, d, v)
		assert.LessOrEqual(t, d, 100.0)
	})

	t.Run("higher claims expect longer answers", func(t *testing.T) {
		a := skill.Answer{Text: strings.Repeat("word ", 30)}
		beginner, _ := s.ScoreAnswer(ctx, skill.LevelBeginner, a)
		expert, _ := s.ScoreAnswer(ctx, skill.LevelExpert, a)
		assert.Greater(t, beginner, expert)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.ScoreAnswer(cctx, skill.LevelBeginner, skill.Answer{Text: "x"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestParseAffinityTable(t *testing.T) {
	table, err := ParseAffinityTable(strings.NewReader(`{
		"same_category": {"Programming": 0.6},
		"cross_category": [{"a": "Programming", "b": "Data Science", "affinity": 0.9}]
	}`))
	require.NoError(t, err)

	assert.Equal(t, 0.6, table.SameCategory("programming"))
	assert.Equal(t, 0.9, table.CrossCategory("Data Science", "Programming"))
	assert.Equal(t, skill.DefaultSameCategoryAffinity, table.SameCategory("Music"))

	_, err = ParseAffinityTable(strings.NewReader(`{"same_category": {"Music": 1.5}}`))
	assert.ErrorIs(t, err, shared.ErrInvalidAffinity)

	_, err = ParseAffinityTable(strings.NewReader(`{"same": {}}`))
	assert.Error(t, err)

	def, err := LoadAffinityTable("")
	require.NoError(t, err)
	assert.Equal(t, 0.9, def.CrossCategory("Programming", "Data Science"))
}
