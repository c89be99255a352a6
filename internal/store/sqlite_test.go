package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	assert.Nil(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func TestAgentCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateAgent(ctx, "mirror", "a mirror agent", 10)
	assert.Nil(t, err)
	assert.NotEmpty(t, created.ID)

	fetched, err := s.GetAgent(ctx, created.ID)
	assert.Nil(t, err)
	assert.EqualValues(t, "mirror", fetched.Name)
	assert.EqualValues(t, 10, fetched.TrustScore)

	updated, err := s.UpdateAgent(ctx, created.ID, AgentUpdate{Name: strPtr("renamed")})
	assert.Nil(t, err)
	assert.EqualValues(t, "renamed", updated.Name)
	// Unset fields stay untouched on partial update.
	assert.EqualValues(t, "a mirror agent", updated.Description)
	assert.EqualValues(t, 10, updated.TrustScore)

	scored, err := s.UpdateTrustScore(ctx, created.ID, 95)
	assert.Nil(t, err)
	assert.EqualValues(t, 95, scored.TrustScore)

	assert.Nil(t, s.DeleteAgent(ctx, created.ID))
	_, err = s.GetAgent(ctx, created.ID)
	assert.EqualValues(t, ErrNotFound, err)
	assert.EqualValues(t, ErrNotFound, s.DeleteAgent(ctx, created.ID))
}

func TestListAgentsOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateAgent(ctx, "low", "", 5)
	assert.Nil(t, err)
	_, err = s.CreateAgent(ctx, "high", "", 90)
	assert.Nil(t, err)
	_, err = s.CreateAgent(ctx, "mid", "", 50)
	assert.Nil(t, err)

	agents, err := s.ListAgents(ctx)
	assert.Nil(t, err)
	assert.EqualValues(t, 3, len(agents))
	assert.EqualValues(t, "high", agents[0].Name)
	assert.EqualValues(t, "mid", agents[1].Name)
	assert.EqualValues(t, "low", agents[2].Name)
}

func TestUpsertProfileIdempotentByUserID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, created, err := s.UpsertProfile(ctx, ProfileUpsert{UserID: "user-1", Name: strPtr("Ada")})
	assert.Nil(t, err)
	assert.True(t, created)
	assert.EqualValues(t, "Ada", first.Name)

	second, created, err := s.UpsertProfile(ctx, ProfileUpsert{UserID: "user-1", Name: strPtr("Grace")})
	assert.Nil(t, err)
	assert.False(t, created)
	assert.EqualValues(t, "Grace", second.Name)
	assert.EqualValues(t, first.ID, second.ID)

	// Exactly one row for the natural key.
	fetched, err := s.GetProfile(ctx, "user-1")
	assert.Nil(t, err)
	assert.EqualValues(t, "Grace", fetched.Name)
}

func TestUpsertProfileKeepsUnsetFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, _, err := s.UpsertProfile(ctx, ProfileUpsert{
		UserID:    "user-2",
		Name:      strPtr("Ada"),
		XUsername: strPtr("ada"),
		Image:     strPtr("https://example.com/ada.png"),
	})
	assert.Nil(t, err)

	updated, _, err := s.UpsertProfile(ctx, ProfileUpsert{UserID: "user-2", Name: strPtr("Ada L.")})
	assert.Nil(t, err)
	assert.EqualValues(t, "Ada L.", updated.Name)
	assert.EqualValues(t, "ada", updated.XUsername)
	assert.EqualValues(t, "https://example.com/ada.png", updated.Image)
}

func TestProfileNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetProfile(ctx, "missing")
	assert.EqualValues(t, ErrNotFound, err)

	_, err = s.UpdateProfile(ctx, "missing", ProfileUpsert{Name: strPtr("x")})
	assert.EqualValues(t, ErrNotFound, err)

	// Deleting an absent profile is not an error.
	assert.Nil(t, s.DeleteProfile(ctx, "missing"))
}

func TestProfileAgentLink(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	agent, err := s.CreateAgent(ctx, "mirror", "", 0)
	assert.Nil(t, err)
	_, _, err = s.UpsertProfile(ctx, ProfileUpsert{UserID: "user-3", Name: strPtr("Ada")})
	assert.Nil(t, err)

	linked, err := s.SetProfileAgent(ctx, "user-3", agent.ID)
	assert.Nil(t, err)
	assert.NotNil(t, linked.AgentID)
	assert.EqualValues(t, agent.ID, *linked.AgentID)

	byAgent, err := s.GetProfileByAgentID(ctx, agent.ID)
	assert.Nil(t, err)
	assert.EqualValues(t, "user-3", byAgent.UserID)
}

func TestShortLinks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	link, err := s.CreateShortLink(ctx, "abc12345", "https://example.com/very/long")
	assert.Nil(t, err)
	assert.EqualValues(t, "abc12345", link.Code)

	url, err := s.ResolveShortLink(ctx, "abc12345")
	assert.Nil(t, err)
	assert.EqualValues(t, "https://example.com/very/long", url)

	_, err = s.ResolveShortLink(ctx, "missing")
	assert.EqualValues(t, ErrNotFound, err)
}

func TestTrustScoreBoundsAreCallerEnforced(t *testing.T) {
	// The store accepts any integer; bounds are validated at the API edge.
	s := newTestStore(t)
	agent, err := s.CreateAgent(context.Background(), "mirror", "", 0)
	assert.Nil(t, err)
	_, err = s.UpdateTrustScore(context.Background(), agent.ID, 100)
	assert.Nil(t, err)
}
