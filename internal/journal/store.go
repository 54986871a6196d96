// Package journal persists learner progress, content sources and generated
// insights in a local SQLite database.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

// defaultUser keys the single-learner rows. The schema carries the column so
// a multi-user deployment only needs to start passing other IDs.
const defaultUser = "default"

// DefaultQueryLimit caps insight queries that do not ask for a limit.
const DefaultQueryLimit = 10

// Store wraps the SQLite connection and provides journal operations.
type Store struct {
	conn *sql.DB
}

// Open opens (creating if needed) the journal database at path and
// initializes the schema.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	// WAL keeps the scheduler's writes from blocking MCP reads.
	if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS user_progress (
		user_id TEXT PRIMARY KEY,
		current_week INTEGER NOT NULL,
		current_topics TEXT NOT NULL DEFAULT '[]',
		learning_goals TEXT NOT NULL DEFAULT '',
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS content_sources (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_url TEXT NOT NULL,
		source_type TEXT NOT NULL,
		tags TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS daily_insights (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL DEFAULT 'default',
		insight TEXT NOT NULL,
		content_id TEXT NOT NULL,
		relevance_score REAL NOT NULL,
		week INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_daily_insights_created_at ON daily_insights(created_at);
	CREATE INDEX IF NOT EXISTS idx_content_sources_type ON content_sources(source_type);
	`

	_, err := s.conn.Exec(schema)
	return err
}

// Progress returns the learner's current progress, or ErrNotFound if none
// has been recorded yet.
func (s *Store) Progress(ctx context.Context) (*Progress, error) {
	query := `
	SELECT current_week, current_topics, learning_goals, updated_at
	FROM user_progress WHERE user_id = ?
	`

	p := &Progress{}
	var topicsJSON string
	err := s.conn.QueryRowContext(ctx, query, defaultUser).Scan(
		&p.Week,
		&topicsJSON,
		&p.Goals,
		&p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(topicsJSON), &p.Topics); err != nil {
		return nil, fmt.Errorf("unmarshal topics: %w", err)
	}
	if p.Topics == nil {
		p.Topics = []string{}
	}
	return p, nil
}

// SetProgress replaces the learner's progress and returns the stored state.
func (s *Store) SetProgress(ctx context.Context, week int, topics []string, goals string) (*Progress, error) {
	if topics == nil {
		topics = []string{}
	}
	topicsJSON, err := json.Marshal(topics)
	if err != nil {
		return nil, fmt.Errorf("marshal topics: %w", err)
	}

	now := time.Now().UTC()
	query := `
	INSERT INTO user_progress (user_id, current_week, current_topics, learning_goals, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		current_week = excluded.current_week,
		current_topics = excluded.current_topics,
		learning_goals = excluded.learning_goals,
		updated_at = excluded.updated_at
	`

	if _, err := s.conn.ExecContext(ctx, query, defaultUser, week, string(topicsJSON), goals, now); err != nil {
		return nil, err
	}
	return &Progress{Week: week, Topics: topics, Goals: goals, UpdatedAt: now}, nil
}

// AddSource registers a content source and returns it with its assigned ID.
func (s *Store) AddSource(ctx context.Context, url, sourceType string, tags []string) (*Source, error) {
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}

	now := time.Now().UTC()
	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO content_sources (source_url, source_type, tags, created_at) VALUES (?, ?, ?, ?)`,
		url, sourceType, string(tagsJSON), now,
	)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &Source{ID: id, URL: url, Type: sourceType, Tags: tags, CreatedAt: now}, nil
}

// Sources lists registered sources, newest first. An empty sourceType
// returns all of them.
func (s *Store) Sources(ctx context.Context, sourceType string) ([]Source, error) {
	builder := sq.Select("id", "source_url", "source_type", "tags", "created_at").
		From("content_sources").
		OrderBy("created_at DESC, id DESC")
	if sourceType != "" {
		builder = builder.Where(sq.Eq{"source_type": sourceType})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sources query: %w", err)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var src Source
		var tagsJSON string
		if err := rows.Scan(&src.ID, &src.URL, &src.Type, &tagsJSON, &src.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tagsJSON), &src.Tags); err != nil {
			return nil, fmt.Errorf("unmarshal tags: %w", err)
		}
		if src.Tags == nil {
			src.Tags = []string{}
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// CountSources returns the number of registered content sources.
func (s *Store) CountSources(ctx context.Context) (int, error) {
	var count int
	err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM content_sources`).Scan(&count)
	return count, err
}

// SaveInsight persists a generated insight. A zero CreatedAt is filled with
// the current time; the assigned row ID is written back to rec.
func (s *Store) SaveInsight(ctx context.Context, rec *InsightRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO daily_insights (user_id, insight, content_id, relevance_score, week, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		defaultUser, rec.Insight, rec.ContentID, rec.Relevance, rec.Week, rec.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = id
	return nil
}

// QueryInsights returns stored insights matching q, newest first.
func (s *Store) QueryInsights(ctx context.Context, q InsightQuery) ([]InsightRecord, error) {
	builder := sq.Select("id", "insight", "content_id", "relevance_score", "week", "created_at").
		From("daily_insights").
		OrderBy("created_at DESC, id DESC")

	if q.Day != "" {
		day, err := time.ParseInLocation("2006-01-02", q.Day, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse day %q: %w", q.Day, err)
		}
		builder = builder.
			Where(sq.GtOrEq{"created_at": day}).
			Where(sq.Lt{"created_at": day.Add(24 * time.Hour)})
	}
	if q.Contains != "" {
		builder = builder.Where(sq.Like{"insight": "%" + q.Contains + "%"})
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	builder = builder.Limit(uint64(limit))

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insights query: %w", err)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var insights []InsightRecord
	for rows.Next() {
		var rec InsightRecord
		if err := rows.Scan(&rec.ID, &rec.Insight, &rec.ContentID, &rec.Relevance, &rec.Week, &rec.CreatedAt); err != nil {
			return nil, err
		}
		insights = append(insights, rec)
	}
	return insights, rows.Err()
}

// CountInsights returns the number of stored insights.
func (s *Store) CountInsights(ctx context.Context) (int, error) {
	var count int
	err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM daily_insights`).Scan(&count)
	return count, err
}
