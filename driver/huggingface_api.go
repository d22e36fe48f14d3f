package driver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"summarease/domain"
)

const maxErrorBodyBytes = 4096

// SummarizePayload is the inference API request body.
type SummarizePayload struct {
	Inputs     string             `json:"inputs"`
	Parameters SummarizeParameters `json:"parameters"`
}

type SummarizeParameters struct {
	MaxLength int  `json:"max_length,omitempty"`
	MinLength int  `json:"min_length,omitempty"`
	DoSample  bool `json:"do_sample"`
}

type summaryResponse struct {
	SummaryText string `json:"summary_text"`
}

type apiErrorResponse struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time"`
}

// HTTPError carries a non-success status from the inference API.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("summarization API returned status %d: %s", e.StatusCode, e.Message)
}

// HuggingFaceAPI performs one inference call per Summarize. Retrying is the
// caller's job.
type HuggingFaceAPI struct {
	client  *http.Client
	apiKey  string
	timeout time.Duration
	logger  *slog.Logger
}

func NewHuggingFaceAPI(client *http.Client, apiKey string, timeout time.Duration, logger *slog.Logger) *HuggingFaceAPI {
	if client == nil {
		client = &http.Client{}
	}
	return &HuggingFaceAPI{
		client:  client,
		apiKey:  apiKey,
		timeout: timeout,
		logger:  logger,
	}
}

// Summarize posts payload to endpoint. A cold model is reported as
// domain.ErrModelLoading and a 429 as domain.ErrServiceOverloaded.
func (a *HuggingFaceAPI) Summarize(ctx context.Context, endpoint string, payload SummarizePayload) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("summarization request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			a.logger.ErrorContext(ctx, "failed to close response body", "error", err)
		}
	}()

	a.logger.DebugContext(ctx, "summarization API responded",
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"request_duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode != http.StatusOK {
		return "", classifyErrorResponse(resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	var summaries []summaryResponse
	if err := json.Unmarshal(raw, &summaries); err != nil {
		// a 200 can still carry a loading notice
		if loadingErr := loadingFromBody(raw); loadingErr != nil {
			return "", loadingErr
		}
		return "", fmt.Errorf("failed to parse API response: %w", err)
	}
	if len(summaries) == 0 || strings.TrimSpace(summaries[0].SummaryText) == "" {
		return "", errors.New("unexpected response format: no summary_text")
	}

	return strings.TrimSpace(summaries[0].SummaryText), nil
}

func classifyErrorResponse(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

	if loadingErr := loadingFromBody(raw); loadingErr != nil {
		return loadingErr
	}

	switch resp.StatusCode {
	case http.StatusServiceUnavailable:
		return fmt.Errorf("%w: status 503", domain.ErrModelLoading)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrServiceOverloaded, strings.TrimSpace(string(raw)))
	}

	msg := strings.TrimSpace(string(raw))
	var apiErr apiErrorResponse
	if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
		msg = apiErr.Error
	}
	return &HTTPError{StatusCode: resp.StatusCode, Message: msg}
}

func loadingFromBody(raw []byte) error {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(raw, &apiErr); err != nil {
		return nil
	}
	if apiErr.EstimatedTime > 0 || strings.Contains(strings.ToLower(apiErr.Error), "loading") {
		return fmt.Errorf("%w: estimated %.1fs", domain.ErrModelLoading, apiErr.EstimatedTime)
	}
	return nil
}
