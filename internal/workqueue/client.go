package workqueue

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

	"github.com/cenkalti/backoff/v4"
	"github.com/oklog/ulid/v2"

	"github.com/odense-rpa/passivering-af-ungesager/pkg/cerr"
)

const defaultTimeout = 15 * time.Second

// Client talks to the automation server's work queue API for one named
// queue.
type Client struct {
	baseURL    string
	apiKey     string
	queue      string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey, queueName string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		queue:   queueName,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) (int, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return 0, cerr.NewError(cerr.Internal, "failed to marshal request body", err)
		}
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 20 * time.Second

	var status int
	var respBody []byte
	op := func() error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return backoff.Permanent(cerr.NewError(cerr.Internal, "failed to create request", err))
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return cerr.NewError(cerr.Unavailable, fmt.Sprintf("%s %s failed", method, path), err)
		}
		defer resp.Body.Close()
		respBody, err = io.ReadAll(resp.Body)
		if err != nil {
			return cerr.NewError(cerr.Unavailable, fmt.Sprintf("failed to read response from %s", path), err)
		}
		status = resp.StatusCode
		if status >= 500 {
			return cerr.NewError(cerr.FromHTTPStatus(status),
				fmt.Sprintf("%s %s returned status %d", method, path, status), nil)
		}
		if status >= 400 {
			return backoff.Permanent(cerr.NewError(cerr.FromHTTPStatus(status),
				fmt.Sprintf("%s %s returned status %d", method, path, status), nil))
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return status, err
	}

	if out != nil && status != http.StatusNoContent && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return status, cerr.NewError(cerr.Internal, fmt.Sprintf("malformed response from %s", path), err)
		}
	}
	return status, nil
}

func (c *Client) itemsPath() string {
	return fmt.Sprintf("/api/workqueues/%s/items", url.PathEscape(c.queue))
}

// Add enqueues a new work item keyed by reference. The item id is generated
// client-side so a retried insert stays idempotent on the server.
func (c *Client) Add(ctx context.Context, data any, reference string) (*Item, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "failed to marshal work item data", err)
	}
	item := Item{
		ID:        ulid.Make().String(),
		Reference: reference,
		Data:      raw,
		Status:    StatusNew,
	}
	var created Item
	if _, err := c.do(ctx, http.MethodPost, c.itemsPath(), item, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ByReference returns the items with the given reference and status.
func (c *Client) ByReference(ctx context.Context, reference string, status Status) ([]Item, error) {
	path := fmt.Sprintf("%s?%s", c.itemsPath(), url.Values{
		"reference": {reference},
		"status":    {string(status)},
	}.Encode())
	var items []Item
	if _, err := c.do(ctx, http.MethodGet, path, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Next acquires the next NEW item, transitioning it to IN_PROGRESS on the
// server. Returns nil when the queue is drained.
func (c *Client) Next(ctx context.Context) (*Item, error) {
	var item Item
	status, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/workqueues/%s/next", url.PathEscape(c.queue)), nil, &item)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, nil
	}
	return &item, nil
}

// Complete marks an acquired item as successfully processed.
func (c *Client) Complete(ctx context.Context, item *Item) error {
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/items/%s/complete", url.PathEscape(item.ID)), nil, nil)
	return err
}

// Fail marks an acquired item as failed with a message.
func (c *Client) Fail(ctx context.Context, item *Item, message string) error {
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/items/%s/fail", url.PathEscape(item.ID)),
		map[string]string{"message": message}, nil)
	return err
}

// Clear removes all items with the given status, used by the queue reset
// entry point.
func (c *Client) Clear(ctx context.Context, status Status) error {
	path := fmt.Sprintf("%s?%s", c.itemsPath(), url.Values{"status": {string(status)}}.Encode())
	_, err := c.do(ctx, http.MethodDelete, path, nil, nil)
	return err
}
