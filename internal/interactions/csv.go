package interactions

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/spigell/career-bot/internal/conversation"

	"go.uber.org/zap"
)

// DefaultPath is the log file used when none is configured.
const DefaultPath = "chat_logs.csv"

var header = []string{"Timestamp", "Role", "Content"}

// CSVLog appends turns to a CSV file. The header row is written only when the
// file does not exist yet.
type CSVLog struct {
	path   string
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

func NewCSVLog(path string, logger *zap.Logger) *CSVLog {
	if path == "" {
		path = DefaultPath
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &CSVLog{path: path, logger: logger, now: time.Now}
}

func (l *CSVLog) Path() string { return l.path }

func (l *CSVLog) Record(role conversation.Role, content string) {
	entry := Entry{
		Timestamp: l.now().Format(time.RFC3339),
		Role:      string(role),
		Content:   content,
	}

	if err := l.append(entry); err != nil {
		l.logger.Warn("writing interaction log failed",
			zap.String("path", l.path),
			zap.String("role", entry.Role),
			zap.Error(err),
		)
	}
}

func (l *CSVLog) append(entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := os.Stat(l.path)
	fresh := errors.Is(err, fs.ErrNotExist)

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(header); err != nil {
			f.Close()
			return fmt.Errorf("write header: %w", err)
		}
	}

	if err := w.Write([]string{entry.Timestamp, entry.Role, entry.Content}); err != nil {
		f.Close()
		return fmt.Errorf("write row: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush log: %w", err)
	}

	return f.Close()
}

// ReadEntries parses a CSV log, skipping the header row.
func ReadEntries(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	entries := make([]Entry, 0, len(records))
	for i, rec := range records {
		if i == 0 && rec[0] == header[0] && rec[1] == header[1] && rec[2] == header[2] {
			continue
		}
		entries = append(entries, Entry{Timestamp: rec[0], Role: rec[1], Content: rec[2]})
	}

	return entries, nil
}
