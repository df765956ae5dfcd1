package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS drafts (
			id TEXT PRIMARY KEY,
			content_type TEXT,
			mode TEXT,
			topic TEXT,
			raw_text TEXT,
			formatted TEXT,
			truncated INTEGER,
			citations JSON,
			status TEXT,
			verdict_outcome TEXT,
			verdict_reasons JSON,
			explanation TEXT,
			created_at TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS turns (
			conversation_id TEXT,
			seq INTEGER,
			role TEXT,
			text TEXT,
			citations JSON,
			created_at TIMESTAMP,
			PRIMARY KEY (conversation_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_drafts_status ON drafts(status);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) SaveDraft(ctx context.Context, record *DraftRecord) error {
	citations, _ := json.Marshal(record.Citations)
	reasons, _ := json.Marshal(record.VerdictReasons)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO drafts (id, content_type, mode, topic, raw_text, formatted, truncated, citations, status, verdict_outcome, verdict_reasons, explanation, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content_type=excluded.content_type,
			mode=excluded.mode,
			topic=excluded.topic,
			raw_text=excluded.raw_text,
			formatted=excluded.formatted,
			truncated=excluded.truncated,
			citations=excluded.citations,
			status=excluded.status,
			verdict_outcome=excluded.verdict_outcome,
			verdict_reasons=excluded.verdict_reasons,
			explanation=excluded.explanation
	`, record.ID, record.ContentType, record.Mode, record.Topic, record.RawText,
		record.Formatted, record.Truncated, citations, record.Status,
		record.VerdictOutcome, reasons, record.Explanation, record.CreatedAt)

	return err
}

func (s *SQLiteStore) GetDraft(ctx context.Context, id string) (*DraftRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, content_type, mode, topic, raw_text, formatted, truncated, citations, status, verdict_outcome, verdict_reasons, explanation, created_at
		FROM drafts WHERE id = ?
	`, id)

	var record DraftRecord
	var citations, reasons []byte
	err := row.Scan(&record.ID, &record.ContentType, &record.Mode, &record.Topic,
		&record.RawText, &record.Formatted, &record.Truncated, &citations,
		&record.Status, &record.VerdictOutcome, &reasons, &record.Explanation,
		&record.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("draft not found: %s", id)
	}
	if err != nil {
		return nil, err
	}

	if len(citations) > 0 {
		_ = json.Unmarshal(citations, &record.Citations)
	}
	if len(reasons) > 0 {
		_ = json.Unmarshal(reasons, &record.VerdictReasons)
	}
	return &record, nil
}

func (s *SQLiteStore) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE drafts SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("draft not found: %s", id)
	}
	return nil
}

func (s *SQLiteStore) AppendTurn(ctx context.Context, record *TurnRecord) error {
	citations, _ := json.Marshal(record.Citations)

	if record.Seq == 0 {
		row := s.db.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(seq), 0) + 1 FROM turns WHERE conversation_id = ?`,
			record.ConversationID)
		if err := row.Scan(&record.Seq); err != nil {
			return err
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO turns (conversation_id, seq, role, text, citations, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, record.ConversationID, record.Seq, record.Role, record.Text, citations, record.CreatedAt)

	return err
}

func (s *SQLiteStore) History(ctx context.Context, conversationID string) ([]*TurnRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT conversation_id, seq, role, text, citations, created_at
		FROM turns WHERE conversation_id = ? ORDER BY seq
	`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*TurnRecord
	for rows.Next() {
		var record TurnRecord
		var citations []byte
		if err := rows.Scan(&record.ConversationID, &record.Seq, &record.Role,
			&record.Text, &citations, &record.CreatedAt); err != nil {
			return nil, err
		}
		if len(citations) > 0 {
			_ = json.Unmarshal(citations, &record.Citations)
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}
