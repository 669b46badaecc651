package command

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/internal/domain/skill"
	"github.com/skillswap/skillswap-hub/internal/infrastructure/persistence/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *recordingPublisher) Publish(e shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) count(t shared.EventType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.EventType() == t {
			n++
		}
	}
	return n
}

func seedListing(t *testing.T, repo *memory.SkillRepository, id string, owner shared.UserID, title, category string, dir skill.Direction) *skill.Listing {
	t.Helper()
	l, err := skill.NewListing(skill.NewListingParams{
		ID:        id,
		OwnerID:   owner,
		Title:     title,
		Category:  skill.Category(category),
		Level:     skill.LevelIntermediate,
		Direction: dir,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), l))
	return l
}

func sequentialIDs(prefix string) IDGenerator {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return prefix + string(rune('0'+n))
	}
}
