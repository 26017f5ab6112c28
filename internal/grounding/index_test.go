package grounding

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/spigell/career-bot/internal/ai/openai"
)

type fakeIndexClient struct {
	uploads     []string
	stores      int
	batches     [][]string
	pollResults []*openai.FileBatch
	polls       int
	uploadErr   error
}

func (f *fakeIndexClient) UploadFile(_ context.Context, path, purpose string) (*openai.File, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.uploads = append(f.uploads, path)
	return &openai.File{ID: fmt.Sprintf("file-%d", len(f.uploads)), Purpose: purpose}, nil
}

func (f *fakeIndexClient) CreateVectorStore(_ context.Context, name string) (*openai.VectorStore, error) {
	f.stores++
	return &openai.VectorStore{ID: "vs-1", Name: name}, nil
}

func (f *fakeIndexClient) CreateFileBatch(_ context.Context, storeID string, fileIDs []string) (*openai.FileBatch, error) {
	f.batches = append(f.batches, fileIDs)
	return &openai.FileBatch{ID: "batch-1", VectorStoreID: storeID, Status: openai.BatchInProgress}, nil
}

func (f *fakeIndexClient) GetFileBatch(context.Context, string, string) (*openai.FileBatch, error) {
	if f.polls >= len(f.pollResults) {
		return &openai.FileBatch{ID: "batch-1", Status: openai.BatchInProgress}, nil
	}
	res := f.pollResults[f.polls]
	f.polls++
	return res, nil
}

func testRefs() []DocumentRef {
	return []DocumentRef{
		{Name: "cv.html", Path: "/docs/cv.html", Kind: KindHTML},
		{Name: "DVO.md", Path: "/docs/DVO.md", Kind: KindText},
	}
}

func TestBuildManagedIndexIsIdempotent(t *testing.T) {
	client := &fakeIndexClient{pollResults: []*openai.FileBatch{
		{ID: "batch-1", Status: openai.BatchInProgress},
		{ID: "batch-1", Status: openai.BatchCompleted, FileCounts: openai.FileCounts{Completed: 2, Total: 2}},
	}}
	ix := &Indexer{Client: client, Name: "Career Knowledge"}

	first, err := ix.BuildManagedIndex(context.Background(), testRefs(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := ix.BuildManagedIndex(context.Background(), testRefs(), first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if second != first {
		t.Fatalf("expected existing handle to be returned")
	}

	if client.stores != 1 || len(client.uploads) != 2 || len(client.batches) != 1 {
		t.Fatalf("expected one store, two uploads, one batch; got %d, %d, %d", client.stores, len(client.uploads), len(client.batches))
	}

	if first.ID != "vs-1" || len(first.FileIDs) != 2 || len(client.batches[0]) != 2 {
		t.Fatalf("unexpected handle: %+v", first)
	}
}

func TestBuildManagedIndexWithoutDocuments(t *testing.T) {
	client := &fakeIndexClient{}
	ix := &Indexer{Client: client}

	handle, err := ix.BuildManagedIndex(context.Background(), nil, nil)
	if err != nil || handle != nil {
		t.Fatalf("expected nil handle and no error, got %+v, %v", handle, err)
	}

	if client.stores != 0 {
		t.Fatalf("expected no remote calls")
	}
}

func TestBuildManagedIndexFailures(t *testing.T) {
	tests := []struct {
		name   string
		client *fakeIndexClient
	}{
		{
			name:   "upload error",
			client: &fakeIndexClient{uploadErr: errors.New("boom")},
		},
		{
			name: "batch failed",
			client: &fakeIndexClient{pollResults: []*openai.FileBatch{
				{ID: "batch-1", Status: openai.BatchFailed},
			}},
		},
		{
			name:   "batch never finishes",
			client: &fakeIndexClient{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix := &Indexer{Client: tt.client, MaxPolls: 3}

			handle, err := ix.BuildManagedIndex(context.Background(), testRefs(), nil)
			if err == nil {
				t.Fatalf("expected error, got handle %+v", handle)
			}
		})
	}
}
