package nexus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/odense-rpa/passivering-af-ungesager/pkg/cerr"
)

const defaultTimeout = 30 * time.Second

// tokenSkew renews the access token this long before its actual expiry.
const tokenSkew = 30 * time.Second

// Client talks to the KMD Nexus case-management API. Authentication uses
// OAuth2 client credentials; the token is fetched lazily and refreshed
// before expiry.
type Client struct {
	baseURL      string
	tokenURL     string
	clientID     string
	clientSecret string
	httpClient   *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient creates a client against explicit API and token endpoints.
func NewClient(baseURL, tokenURL, clientID, clientSecret string) *Client {
	return &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// NewInstanceClient creates a client for a named hosted instance.
func NewInstanceClient(instance, clientID, clientSecret string) *Client {
	return NewClient(
		fmt.Sprintf("https://%s.nexus.kmd.dk", instance),
		fmt.Sprintf("https://iam.nexus.kmd.dk/authx/realms/%s/protocol/openid-connect/token", instance),
		clientID,
		clientSecret,
	)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-tokenSkew)) {
		return c.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", cerr.NewError(cerr.Internal, "failed to create token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", cerr.NewError(cerr.Unavailable, "token endpoint unreachable", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", cerr.NewError(cerr.Unavailable, "failed to read token response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", cerr.NewError(cerr.Unauthenticated,
			fmt.Sprintf("token request rejected (status %d)", resp.StatusCode), nil)
	}
	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", cerr.NewError(cerr.Internal, "malformed token response", err)
	}
	c.token = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return c.token, nil
}

// do performs one API round trip. Transient failures (network errors and
// 5xx responses) are retried with exponential backoff; anything else is
// permanent and mapped onto a coded error.
func (c *Client) do(ctx context.Context, method, target string, body any, out any) error {
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = joinURL(c.baseURL, target)
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return cerr.NewError(cerr.Internal, "failed to marshal request body", err)
		}
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second

	var respBody []byte
	op := func() error {
		token, err := c.ensureToken(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return backoff.Permanent(cerr.NewError(cerr.Internal, "failed to create request", err))
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return cerr.NewError(cerr.Unavailable, fmt.Sprintf("%s %s failed", method, target), err)
		}
		defer resp.Body.Close()
		respBody, err = io.ReadAll(resp.Body)
		if err != nil {
			return cerr.NewError(cerr.Unavailable, fmt.Sprintf("failed to read response from %s", target), err)
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return cerr.NewError(cerr.FromHTTPStatus(resp.StatusCode),
				fmt.Sprintf("%s %s returned status %d", method, target, resp.StatusCode), nil)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return backoff.Permanent(cerr.NewError(cerr.FromHTTPStatus(resp.StatusCode),
				fmt.Sprintf("%s %s returned status %d", method, target, resp.StatusCode), nil))
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return err
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return cerr.NewError(cerr.Internal, fmt.Sprintf("malformed response from %s", target), err)
		}
	}
	return nil
}

// Resolve dereferences an opaque reference into out. An unresolvable
// reference is a hard error; there is no silent-skip policy.
func (c *Client) Resolve(ctx context.Context, ref Resolvable, out any) error {
	href := ref.SelfHref()
	if href == "" {
		return cerr.NewError(cerr.Internal, "reference has no self link", nil)
	}
	return c.do(ctx, http.MethodGet, href, nil, out)
}

// ResolveAs dereferences a reference into a typed entity.
func ResolveAs[T any](ctx context.Context, c *Client, ref Resolvable) (*T, error) {
	var out T
	if err := c.Resolve(ctx, ref, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Citizen resolves a reference into a citizen record.
func (c *Client) Citizen(ctx context.Context, ref Resolvable) (*Citizen, error) {
	return ResolveAs[Citizen](ctx, c, ref)
}

// Form resolves a reference into a form record.
func (c *Client) Form(ctx context.Context, ref Resolvable) (*Form, error) {
	return ResolveAs[Form](ctx, c, ref)
}

// Task resolves a reference into a case-management task.
func (c *Client) Task(ctx context.Context, ref Resolvable) (*Task, error) {
	return ResolveAs[Task](ctx, c, ref)
}

// Employee resolves a reference into an employee record.
func (c *Client) Employee(ctx context.Context, ref Resolvable) (*Employee, error) {
	return ResolveAs[Employee](ctx, c, ref)
}
