package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists agents, profiles and short links in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (creating when needed) a SQLite store at the given path.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS agents (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		trust_score INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_agents_trust ON agents(trust_score DESC, created_at DESC);

	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		x_username TEXT NOT NULL DEFAULT '',
		image TEXT NOT NULL DEFAULT '',
		agent_id TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_profiles_agent ON profiles(agent_id);

	CREATE TABLE IF NOT EXISTS short_links (
		code TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ----------------------------------------------------------------- agents

const agentColumns = "id, name, description, trust_score, created_at, updated_at"

func scanAgent(row interface{ Scan(...interface{}) error }) (*Agent, error) {
	var agent Agent
	var createdAt, updatedAt int64
	err := row.Scan(&agent.ID, &agent.Name, &agent.Description, &agent.TrustScore, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	agent.CreatedAt = time.Unix(createdAt, 0).UTC()
	agent.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &agent, nil
}

// ListAgents returns all agents, most trusted and newest first.
func (s *SQLiteStore) ListAgents(ctx context.Context) ([]*Agent, error) {
	query := "SELECT " + agentColumns + " FROM agents ORDER BY trust_score DESC, created_at DESC"
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	ret := []*Agent{}
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agent row: %w", err)
		}
		ret = append(ret, agent)
	}
	return ret, rows.Err()
}

// GetAgent retrieves an agent by id.
func (s *SQLiteStore) GetAgent(ctx context.Context, id string) (*Agent, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+agentColumns+" FROM agents WHERE id = ?", id)
	agent, err := scanAgent(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan agent row: %w", err)
	}
	return agent, nil
}

// CreateAgent inserts a new agent and returns the stored row.
func (s *SQLiteStore) CreateAgent(ctx context.Context, name, description string, trustScore int) (*Agent, error) {
	now := time.Now().UTC()
	agent := &Agent{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		TrustScore:  trustScore,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO agents (id, name, description, trust_score, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		agent.ID, agent.Name, agent.Description, agent.TrustScore, now.Unix(), now.Unix())
	if err != nil {
		return nil, fmt.Errorf("insert agent: %w", err)
	}
	return agent, nil
}

// UpdateAgent applies a partial update and returns the stored row.
func (s *SQLiteStore) UpdateAgent(ctx context.Context, id string, update AgentUpdate) (*Agent, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE agents SET
			name = COALESCE(?, name),
			description = COALESCE(?, description),
			trust_score = COALESCE(?, trust_score),
			updated_at = ?
		WHERE id = ?`,
		update.Name, update.Description, update.TrustScore, time.Now().UTC().Unix(), id)
	if err != nil {
		return nil, fmt.Errorf("update agent: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return nil, ErrNotFound
	}
	return s.GetAgent(ctx, id)
}

// UpdateTrustScore sets the trust score for an agent.
func (s *SQLiteStore) UpdateTrustScore(ctx context.Context, id string, trustScore int) (*Agent, error) {
	return s.UpdateAgent(ctx, id, AgentUpdate{TrustScore: &trustScore})
}

// DeleteAgent removes an agent by id.
func (s *SQLiteStore) DeleteAgent(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM agents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// --------------------------------------------------------------- profiles

const profileColumns = "id, user_id, name, description, x_username, image, agent_id, created_at, updated_at"

func scanProfile(row interface{ Scan(...interface{}) error }) (*Profile, error) {
	var profile Profile
	var agentID sql.NullString
	var createdAt, updatedAt int64
	err := row.Scan(&profile.ID, &profile.UserID, &profile.Name, &profile.Description,
		&profile.XUsername, &profile.Image, &agentID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if agentID.Valid {
		profile.AgentID = &agentID.String
	}
	profile.CreatedAt = time.Unix(createdAt, 0).UTC()
	profile.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &profile, nil
}

// GetProfile retrieves a profile by user id.
func (s *SQLiteStore) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+profileColumns+" FROM profiles WHERE user_id = ?", userID)
	profile, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile row: %w", err)
	}
	return profile, nil
}

// GetProfileByAgentID retrieves the profile linked to an agent.
func (s *SQLiteStore) GetProfileByAgentID(ctx context.Context, agentID string) (*Profile, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+profileColumns+" FROM profiles WHERE agent_id = ?", agentID)
	profile, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile row: %w", err)
	}
	return profile, nil
}

// UpsertProfile creates or updates a profile keyed by user_id in a single
// atomic statement; the unique index on user_id guarantees one row per user
// even under concurrent upserts. The returned flag is true when a new row
// was created and is advisory only.
func (s *SQLiteStore) UpsertProfile(ctx context.Context, upsert ProfileUpsert) (*Profile, bool, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM profiles WHERE user_id = ?)", upsert.UserID).Scan(&exists); err != nil {
		return nil, false, fmt.Errorf("upsert profile: %w", err)
	}
	now := time.Now().UTC().Unix()
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO profiles (id, user_id, name, description, x_username, image, agent_id, created_at, updated_at)
		VALUES (?, ?, COALESCE(?, ''), COALESCE(?, ''), COALESCE(?, ''), COALESCE(?, ''), ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			name = COALESCE(?, name),
			description = COALESCE(?, description),
			x_username = COALESCE(?, x_username),
			image = COALESCE(?, image),
			agent_id = COALESCE(?, agent_id),
			updated_at = ?
		RETURNING `+profileColumns,
		uuid.NewString(), upsert.UserID, upsert.Name, upsert.Description,
		upsert.XUsername, upsert.Image, upsert.AgentID, now, now,
		upsert.Name, upsert.Description, upsert.XUsername, upsert.Image,
		upsert.AgentID, now)
	profile, err := scanProfile(row)
	if err != nil {
		return nil, false, fmt.Errorf("upsert profile: %w", err)
	}
	return profile, !exists, nil
}

// UpdateProfile applies a partial update to an existing profile.
func (s *SQLiteStore) UpdateProfile(ctx context.Context, userID string, update ProfileUpsert) (*Profile, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE profiles SET
			name = COALESCE(?, name),
			description = COALESCE(?, description),
			x_username = COALESCE(?, x_username),
			image = COALESCE(?, image),
			agent_id = COALESCE(?, agent_id),
			updated_at = ?
		WHERE user_id = ?`,
		update.Name, update.Description, update.XUsername, update.Image,
		update.AgentID, time.Now().UTC().Unix(), userID)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return nil, ErrNotFound
	}
	return s.GetProfile(ctx, userID)
}

// SetProfileAgent links a profile to a mirror agent.
func (s *SQLiteStore) SetProfileAgent(ctx context.Context, userID, agentID string) (*Profile, error) {
	return s.UpdateProfile(ctx, userID, ProfileUpsert{AgentID: &agentID})
}

// DeleteProfile removes a profile by user id. Deleting an absent profile is
// not an error.
func (s *SQLiteStore) DeleteProfile(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM profiles WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}

// ------------------------------------------------------------ short links

// CreateShortLink stores a short code to URL mapping.
func (s *SQLiteStore) CreateShortLink(ctx context.Context, code, url string) (*ShortLink, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO short_links (code, url, created_at) VALUES (?, ?, ?)",
		code, url, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("insert short link: %w", err)
	}
	return &ShortLink{Code: code, URL: url, CreatedAt: now}, nil
}

// ResolveShortLink returns the destination URL for a short code.
func (s *SQLiteStore) ResolveShortLink(ctx context.Context, code string) (string, error) {
	var url string
	err := s.db.QueryRowContext(ctx, "SELECT url FROM short_links WHERE code = ?", code).Scan(&url)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolve short link: %w", err)
	}
	return url, nil
}
