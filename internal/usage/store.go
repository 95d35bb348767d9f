package usage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/azeddinshr/realtime-arabic-voice-agent/internal/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS session_usage (
	session_id          TEXT PRIMARY KEY,
	started_at          TEXT NOT NULL,
	ended_at            TEXT NOT NULL,
	responses           INTEGER NOT NULL,
	total_tokens        INTEGER NOT NULL,
	input_tokens        INTEGER NOT NULL,
	output_tokens       INTEGER NOT NULL,
	input_text_tokens   INTEGER NOT NULL,
	input_audio_tokens  INTEGER NOT NULL,
	input_cached_tokens INTEGER NOT NULL,
	output_text_tokens  INTEGER NOT NULL,
	output_audio_tokens INTEGER NOT NULL
);
`

// Store persists session usage summaries in a local sqlite database.
type Store struct {
	db     *sql.DB
	logger log.Logger
}

// OpenStore opens (creating if needed) the usage database at path.
func OpenStore(ctx context.Context, path string, logger log.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store path is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening usage database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing usage schema: %w", err)
	}

	return &Store{db: db, logger: logger.With("component", "usage-store")}, nil
}

// RecordSummary upserts one session's aggregate usage.
func (s *Store) RecordSummary(ctx context.Context, sum Summary) error {
	const q = `
INSERT INTO session_usage (
	session_id, started_at, ended_at, responses,
	total_tokens, input_tokens, output_tokens,
	input_text_tokens, input_audio_tokens, input_cached_tokens,
	output_text_tokens, output_audio_tokens
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(session_id) DO UPDATE SET
	ended_at            = excluded.ended_at,
	responses           = excluded.responses,
	total_tokens        = excluded.total_tokens,
	input_tokens        = excluded.input_tokens,
	output_tokens       = excluded.output_tokens,
	input_text_tokens   = excluded.input_text_tokens,
	input_audio_tokens  = excluded.input_audio_tokens,
	input_cached_tokens = excluded.input_cached_tokens,
	output_text_tokens  = excluded.output_text_tokens,
	output_audio_tokens = excluded.output_audio_tokens
`

	_, err := s.db.ExecContext(ctx, q,
		sum.SessionID,
		sum.StartedAt.Format(time.RFC3339),
		sum.EndedAt.Format(time.RFC3339),
		sum.Responses,
		sum.TotalTokens,
		sum.InputTokens,
		sum.OutputTokens,
		sum.InputTextTokens,
		sum.InputAudioTokens,
		sum.InputCachedTokens,
		sum.OutputTextTokens,
		sum.OutputAudioTokens,
	)
	if err != nil {
		return fmt.Errorf("recording usage summary: %w", err)
	}

	s.logger.Debug("usage summary recorded", "session_id", sum.SessionID, "responses", sum.Responses)
	return nil
}

// GetSummary loads the stored summary for a session.
func (s *Store) GetSummary(ctx context.Context, sessionID string) (Summary, error) {
	const q = `
SELECT session_id, started_at, ended_at, responses,
	total_tokens, input_tokens, output_tokens,
	input_text_tokens, input_audio_tokens, input_cached_tokens,
	output_text_tokens, output_audio_tokens
FROM session_usage WHERE session_id = ?
`

	var (
		sum                Summary
		startedAt, endedAt string
	)
	err := s.db.QueryRowContext(ctx, q, sessionID).Scan(
		&sum.SessionID,
		&startedAt,
		&endedAt,
		&sum.Responses,
		&sum.TotalTokens,
		&sum.InputTokens,
		&sum.OutputTokens,
		&sum.InputTextTokens,
		&sum.InputAudioTokens,
		&sum.InputCachedTokens,
		&sum.OutputTextTokens,
		&sum.OutputAudioTokens,
	)
	if err != nil {
		return Summary{}, fmt.Errorf("loading usage summary: %w", err)
	}

	if sum.StartedAt, err = time.Parse(time.RFC3339, startedAt); err != nil {
		return Summary{}, fmt.Errorf("parsing started_at for session %s: %w", sessionID, err)
	}
	if sum.EndedAt, err = time.Parse(time.RFC3339, endedAt); err != nil {
		return Summary{}, fmt.Errorf("parsing ended_at for session %s: %w", sessionID, err)
	}
	return sum, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
