package openai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// PurposeAssistants marks files uploaded for file_search.
const PurposeAssistants = "assistants"

type File struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Purpose  string `json:"purpose"`
	Bytes    int64  `json:"bytes"`
}

// UploadFile uploads a local file as multipart form data.
func (c *Client) UploadFile(ctx context.Context, path, purpose string) (*File, error) {
	src, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	if err := w.WriteField("purpose", purpose); err != nil {
		return nil, err
	}

	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}

	if _, err := io.Copy(part, src); err != nil {
		return nil, fmt.Errorf("copy %s: %w", path, err)
	}
	w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/files"), &b)
	if err != nil {
		return nil, err
	}

	c.setHeaders(req)
	req.Header.Set("Content-Type", w.FormDataContentType())

	var file File
	if err := c.do(req, &file); err != nil {
		return nil, err
	}

	return &file, nil
}
