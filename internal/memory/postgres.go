package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists conversation history in PostgreSQL. Expiry is
// enforced at read time via the bucket deadline column; AppendMessage renews
// the deadline for the whole session and trims overflow rows.
type PostgresStore struct {
	pool     *pgxpool.Pool
	ttl      time.Duration
	maxTurns int
}

func NewPostgresStore(ctx context.Context, databaseURL string, opts Options) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	opts = opts.withDefaults()
	return &PostgresStore{pool: pool, ttl: opts.TTL, maxTurns: opts.MaxTurns}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS support_memory (
			id TEXT PRIMARY KEY,
			session_key TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			expires_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_support_memory_session_created
			ON support_memory (session_key, created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) AppendMessage(ctx context.Context, sessionKey, role, content string) error {
	now := time.Now().UTC()
	expires := now.Add(s.ttl)

	_, err := s.pool.Exec(ctx,
		`INSERT INTO support_memory (id, session_key, role, content, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.NewString(), sessionKey, role, content, now, expires,
	)
	if err != nil {
		return fmt.Errorf("append memory entry: %w", err)
	}

	// Renew the whole-bucket deadline, then drop rows beyond the turn bound.
	if _, err := s.pool.Exec(ctx,
		`UPDATE support_memory SET expires_at = $2 WHERE session_key = $1`,
		sessionKey, expires,
	); err != nil {
		return fmt.Errorf("renew memory ttl: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`DELETE FROM support_memory
		 WHERE session_key = $1 AND id NOT IN (
			SELECT id FROM support_memory
			WHERE session_key = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		 )`,
		sessionKey, s.maxTurns*2,
	)
	if err != nil {
		return fmt.Errorf("trim memory entries: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecentMessages(ctx context.Context, sessionKey string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = s.maxTurns
	}

	rows, err := s.pool.Query(ctx,
		`SELECT role, content, created_at
		 FROM support_memory
		 WHERE session_key = $1 AND expires_at > now()
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		sessionKey, limit*2,
	)
	if err != nil {
		return nil, fmt.Errorf("query memory entries: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit*2)
	for rows.Next() {
		var (
			e       Entry
			created time.Time
		)
		if err := rows.Scan(&e.Role, &e.Content, &created); err != nil {
			return nil, fmt.Errorf("scan memory row: %w", err)
		}
		e.Timestamp = created.UTC().Format(time.RFC3339)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memory rows: %w", err)
	}

	// Rows arrive newest first; callers expect chronological order.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

func (s *PostgresStore) Clear(ctx context.Context, sessionKey string) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM support_memory WHERE session_key = $1`, sessionKey,
	); err != nil {
		return fmt.Errorf("clear memory: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
