package openai

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

// Run statuses.
const (
	RunQueued         = "queued"
	RunInProgress     = "in_progress"
	RunRequiresAction = "requires_action"
	RunCancelling     = "cancelling"
	RunCancelled      = "cancelled"
	RunFailed         = "failed"
	RunCompleted      = "completed"
	RunIncomplete     = "incomplete"
	RunExpired        = "expired"
)

type AssistantRequest struct {
	Name          string          `json:"name,omitempty"`
	Instructions  string          `json:"instructions,omitempty"`
	Model         string          `json:"model"`
	Temperature   *float32        `json:"temperature,omitempty"`
	Tools         []AssistantTool `json:"tools,omitempty"`
	ToolResources *ToolResources  `json:"tool_resources,omitempty"`
}

type AssistantTool struct {
	Type string `json:"type"`
}

type ToolResources struct {
	FileSearch *FileSearchResources `json:"file_search,omitempty"`
}

type FileSearchResources struct {
	VectorStoreIDs []string `json:"vector_store_ids"`
}

type Assistant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Model string `json:"model"`
}

type Thread struct {
	ID string `json:"id"`
}

type Run struct {
	ID          string    `json:"id"`
	ThreadID    string    `json:"thread_id"`
	AssistantID string    `json:"assistant_id"`
	Status      string    `json:"status"`
	LastError   *RunError `json:"last_error"`
}

type RunError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// IsTerminal reports whether polling can stop. requires_action is treated as
// terminal because the bot registers no function tools to act on.
func (r *Run) IsTerminal() bool {
	switch r.Status {
	case RunQueued, RunInProgress, RunCancelling:
		return false
	default:
		return true
	}
}

// Message is a thread message. Content parts are polymorphic on the wire and
// decoded with mapstructure.
type Message struct {
	ID      string           `json:"id"`
	Role    string           `json:"role"`
	RunID   string           `json:"run_id"`
	Content []MessageContent `json:"-"`
}

type MessageContent struct {
	Type string       `mapstructure:"type"`
	Text *TextContent `mapstructure:"text"`
}

type TextContent struct {
	Value       string       `mapstructure:"value"`
	Annotations []Annotation `mapstructure:"annotations"`
}

type Annotation struct {
	Type string `mapstructure:"type"`
	Text string `mapstructure:"text"`
}

type MessageList struct {
	Data    []*Message
	HasMore bool
}

type rawMessage struct {
	ID      string           `json:"id"`
	Role    string           `json:"role"`
	RunID   string           `json:"run_id"`
	Content []map[string]any `json:"content"`
}

type rawMessageList struct {
	Data    []rawMessage `json:"data"`
	HasMore bool         `json:"has_more"`
}

// ListMessagesParams narrows ListMessages. Order defaults to newest first.
type ListMessagesParams struct {
	RunID string
	Order string
	Limit int
}

func (c *Client) CreateAssistant(ctx context.Context, req *AssistantRequest) (*Assistant, error) {
	var assistant Assistant
	if err := c.postJSON(ctx, "/assistants", req, &assistant); err != nil {
		return nil, err
	}

	return &assistant, nil
}

func (c *Client) CreateThread(ctx context.Context) (*Thread, error) {
	var thread Thread
	if err := c.postJSON(ctx, "/threads", map[string]any{}, &thread); err != nil {
		return nil, err
	}

	return &thread, nil
}

func (c *Client) CreateMessage(ctx context.Context, threadID, role, content string) (*Message, error) {
	path := fmt.Sprintf("/threads/%s/messages", url.PathEscape(threadID))

	var raw rawMessage
	if err := c.postJSON(ctx, path, map[string]any{"role": role, "content": content}, &raw); err != nil {
		return nil, err
	}

	return decodeMessage(raw)
}

func (c *Client) CreateRun(ctx context.Context, threadID, assistantID string) (*Run, error) {
	path := fmt.Sprintf("/threads/%s/runs", url.PathEscape(threadID))

	var run Run
	if err := c.postJSON(ctx, path, map[string]any{"assistant_id": assistantID}, &run); err != nil {
		return nil, err
	}

	return &run, nil
}

func (c *Client) GetRun(ctx context.Context, threadID, runID string) (*Run, error) {
	path := fmt.Sprintf("/threads/%s/runs/%s", url.PathEscape(threadID), url.PathEscape(runID))

	var run Run
	if err := c.getJSON(ctx, path, nil, &run); err != nil {
		return nil, err
	}

	return &run, nil
}

func (c *Client) ListMessages(ctx context.Context, threadID string, params ListMessagesParams) (*MessageList, error) {
	path := fmt.Sprintf("/threads/%s/messages", url.PathEscape(threadID))

	q := url.Values{}
	order := params.Order
	if order == "" {
		order = "desc"
	}
	q.Set("order", order)
	if params.RunID != "" {
		q.Set("run_id", params.RunID)
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}

	var raw rawMessageList
	if err := c.getJSON(ctx, path, q, &raw); err != nil {
		return nil, err
	}

	list := &MessageList{HasMore: raw.HasMore}
	for _, item := range raw.Data {
		msg, err := decodeMessage(item)
		if err != nil {
			return nil, err
		}
		list.Data = append(list.Data, msg)
	}

	return list, nil
}

func decodeMessage(raw rawMessage) (*Message, error) {
	msg := &Message{ID: raw.ID, Role: raw.Role, RunID: raw.RunID}

	if err := mapstructure.Decode(raw.Content, &msg.Content); err != nil {
		return nil, fmt.Errorf("decode message %s content: %w", raw.ID, err)
	}

	return msg, nil
}
