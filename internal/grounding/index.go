package grounding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spigell/career-bot/internal/ai/openai"
	"github.com/spigell/career-bot/internal/utils"

	"go.uber.org/zap"
)

const (
	defaultIndexName    = "Career Knowledge"
	defaultMaxPolls     = 60
	defaultPollInterval = time.Second
)

// IndexClient is the part of the completion service that hosts search indexes.
type IndexClient interface {
	UploadFile(ctx context.Context, path, purpose string) (*openai.File, error)
	CreateVectorStore(ctx context.Context, name string) (*openai.VectorStore, error)
	CreateFileBatch(ctx context.Context, storeID string, fileIDs []string) (*openai.FileBatch, error)
	GetFileBatch(ctx context.Context, storeID, batchID string) (*openai.FileBatch, error)
}

// IndexHandle identifies a managed index and what was uploaded to it.
type IndexHandle struct {
	ID        string
	Name      string
	FileIDs   []string
	Documents []DocumentRef
}

// Indexer uploads documents to a managed index. MaxPolls bounds the batch
// status checks; PollInterval separates them.
type Indexer struct {
	Client       IndexClient
	Name         string
	MaxPolls     int
	PollInterval time.Duration
	Logger       *zap.Logger
}

// BuildManagedIndex uploads refs as one batch to a new index. When existing is
// set it is returned untouched, so a session never uploads twice. No refs
// means no index and a nil handle.
func (ix *Indexer) BuildManagedIndex(ctx context.Context, refs []DocumentRef, existing *IndexHandle) (*IndexHandle, error) {
	if existing != nil {
		return existing, nil
	}

	if len(refs) == 0 {
		return nil, nil
	}

	if ix.Client == nil {
		return nil, errors.New("index client is not configured")
	}

	logger := ix.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	name := strings.TrimSpace(ix.Name)
	if name == "" {
		name = defaultIndexName
	}

	store, err := ix.Client.CreateVectorStore(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("create vector store: %w", err)
	}

	handle := &IndexHandle{ID: store.ID, Name: name, Documents: refs}

	for _, ref := range refs {
		file, err := ix.Client.UploadFile(ctx, ref.Path, openai.PurposeAssistants)
		if err != nil {
			return nil, fmt.Errorf("upload %s: %w", ref.Name, err)
		}
		handle.FileIDs = append(handle.FileIDs, file.ID)
	}

	batch, err := ix.Client.CreateFileBatch(ctx, store.ID, handle.FileIDs)
	if err != nil {
		return nil, fmt.Errorf("create file batch: %w", err)
	}

	batch, err = ix.waitForBatch(ctx, store.ID, batch)
	if err != nil {
		return nil, err
	}

	logger.Info("managed index ready",
		zap.String("index_id", store.ID),
		zap.Int("files", len(handle.FileIDs)),
		zap.Int("failed", batch.FileCounts.Failed),
	)

	return handle, nil
}

func (ix *Indexer) waitForBatch(ctx context.Context, storeID string, batch *openai.FileBatch) (*openai.FileBatch, error) {
	maxPolls := ix.MaxPolls
	if maxPolls <= 0 {
		maxPolls = defaultMaxPolls
	}

	interval := ix.PollInterval
	if interval < 0 {
		interval = defaultPollInterval
	}

	for attempt := 0; !batch.IsTerminal(); attempt++ {
		if attempt >= maxPolls {
			return nil, fmt.Errorf("file batch %s still %s after %d polls", batch.ID, batch.Status, maxPolls)
		}

		if err := utils.WaitFor(ctx, interval); err != nil {
			return nil, err
		}

		next, err := ix.Client.GetFileBatch(ctx, storeID, batch.ID)
		if err != nil {
			return nil, fmt.Errorf("poll file batch: %w", err)
		}
		batch = next
	}

	if batch.Status != openai.BatchCompleted {
		return nil, fmt.Errorf("file batch %s finished with status %s", batch.ID, batch.Status)
	}

	return batch, nil
}
