package interactions

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spigell/career-bot/internal/conversation"

	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

// SQLiteLog mirrors turns into an interactions table.
type SQLiteLog struct {
	db        *sql.DB
	sessionID string
	logger    *zap.Logger
	now       func() time.Time
}

// OpenSQLite opens or creates the database at path and prepares the schema.
func OpenSQLite(path string, logger *zap.Logger) (*SQLiteLog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS interactions (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_session ON interactions(session_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("initialize schema: %w", err)
		}
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &SQLiteLog{db: db, logger: logger, now: time.Now}, nil
}

// ForSession returns a view of the log that tags rows with sessionID.
func (s *SQLiteLog) ForSession(sessionID string) *SQLiteLog {
	view := *s
	view.sessionID = sessionID
	return &view
}

func (s *SQLiteLog) Record(role conversation.Role, content string) {
	_, err := s.db.Exec(
		`INSERT INTO interactions (id, session_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), s.sessionID, string(role), content, s.now().UTC(),
	)
	if err != nil {
		s.logger.Warn("writing interaction mirror failed",
			zap.String("role", string(role)),
			zap.Error(err),
		)
	}
}

// Entries returns the rows of one session in insertion order. An empty
// sessionID returns every row.
func (s *SQLiteLog) Entries(sessionID string) ([]Entry, error) {
	query := `SELECT role, content, created_at FROM interactions`
	args := []any{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY created_at, rowid`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry     Entry
			createdAt time.Time
		)
		if err := rows.Scan(&entry.Role, &entry.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		entry.Timestamp = createdAt.Format(time.RFC3339)
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func (s *SQLiteLog) Close() error {
	return s.db.Close()
}
