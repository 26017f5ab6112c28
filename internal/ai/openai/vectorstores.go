package openai

import (
	"context"
	"fmt"
	"net/url"
)

type VectorStore struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// FileBatch statuses.
const (
	BatchInProgress = "in_progress"
	BatchCompleted  = "completed"
	BatchFailed     = "failed"
	BatchCancelled  = "cancelled"
)

type FileBatch struct {
	ID            string     `json:"id"`
	VectorStoreID string     `json:"vector_store_id"`
	Status        string     `json:"status"`
	FileCounts    FileCounts `json:"file_counts"`
}

type FileCounts struct {
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Cancelled  int `json:"cancelled"`
	Total      int `json:"total"`
}

// IsTerminal reports whether the batch stopped processing.
func (b *FileBatch) IsTerminal() bool {
	return b.Status != BatchInProgress
}

func (c *Client) CreateVectorStore(ctx context.Context, name string) (*VectorStore, error) {
	var store VectorStore
	if err := c.postJSON(ctx, "/vector_stores", map[string]any{"name": name}, &store); err != nil {
		return nil, err
	}

	return &store, nil
}

// CreateFileBatch attaches already uploaded files to a vector store in one batch.
func (c *Client) CreateFileBatch(ctx context.Context, storeID string, fileIDs []string) (*FileBatch, error) {
	path := fmt.Sprintf("/vector_stores/%s/file_batches", url.PathEscape(storeID))

	var batch FileBatch
	if err := c.postJSON(ctx, path, map[string]any{"file_ids": fileIDs}, &batch); err != nil {
		return nil, err
	}

	return &batch, nil
}

func (c *Client) GetFileBatch(ctx context.Context, storeID, batchID string) (*FileBatch, error) {
	path := fmt.Sprintf("/vector_stores/%s/file_batches/%s", url.PathEscape(storeID), url.PathEscape(batchID))

	var batch FileBatch
	if err := c.getJSON(ctx, path, nil, &batch); err != nil {
		return nil, err
	}

	return &batch, nil
}
