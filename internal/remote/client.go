package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"echoday/internal/model"
)

// Client is the JSON-over-HTTP implementation of Backend. It also satisfies
// the rollover Archiver: the backend hosts the archive tables too.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) UpsertTasks(ctx context.Context, userID string, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	return c.do(ctx, http.MethodPut, c.userPath(userID, "tasks"), tasks, nil)
}

func (c *Client) UpdateTask(ctx context.Context, userID, taskID string, patch TaskPatch) error {
	path := c.userPath(userID, "tasks") + "/" + url.PathEscape(taskID)
	return c.do(ctx, http.MethodPatch, path, patch, nil)
}

func (c *Client) DeleteTasks(ctx context.Context, userID string, taskIDs []string) error {
	if len(taskIDs) == 0 {
		return nil
	}
	body := struct {
		IDs []string `json:"ids"`
	}{IDs: taskIDs}
	return c.do(ctx, http.MethodDelete, c.userPath(userID, "tasks"), body, nil)
}

func (c *Client) FetchAll(ctx context.Context, userID string) (Snapshot, error) {
	var snap Snapshot
	if err := c.do(ctx, http.MethodGet, c.userPath(userID, "all"), nil, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// ArchiveItems commits one day's archive batch. The server applies it
// atomically, so from the scheduler's perspective it is all-or-nothing.
func (c *Client) ArchiveItems(ctx context.Context, tasks []model.Task, notes []model.Note, userID string) error {
	body := struct {
		Tasks []model.Task `json:"tasks"`
		Notes []model.Note `json:"notes"`
	}{Tasks: tasks, Notes: notes}
	return c.do(ctx, http.MethodPost, c.userPath(userID, "archive"), body, nil)
}

func (c *Client) userPath(userID, suffix string) string {
	return "/v1/users/" + url.PathEscape(userID) + "/" + suffix
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
