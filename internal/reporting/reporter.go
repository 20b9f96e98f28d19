// Package reporting delivers audit records to the reporting dashboard.
// Delivery is fire-and-forget: a lost report must never fail a run.
package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/odense-rpa/passivering-af-ungesager/pkg/panicerr"
)

const defaultTimeout = 10 * time.Second

type Reporter struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewReporter(baseURL, apiKey string) *Reporter {
	return &Reporter{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

type reportPayload struct {
	ReportID string         `json:"report_id"`
	Group    string         `json:"group"`
	Data     map[string]any `json:"data"`
}

// Report sends one audit record. Errors and panics are logged and swallowed.
func (r *Reporter) Report(ctx context.Context, reportID, group string, data map[string]any) {
	err := panicerr.SafeContext(func(ctx context.Context) error {
		return r.send(ctx, reportPayload{ReportID: reportID, Group: group, Data: data})
	})(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to deliver report", "report_id", reportID, "group", group, "error", err)
	}
}

func (r *Reporter) send(ctx context.Context, payload reportPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/api/reports", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("report request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("report rejected with status %d: %s", resp.StatusCode, msg)
	}
	return nil
}
