package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/eugenekravchuk/agriculture-losses/pkg/constants"
	"go.uber.org/zap"
)

// ErrMalformedResponse is returned when a 2xx body cannot be understood.
var ErrMalformedResponse = errors.New("malformed response from prediction service")

// maxResponseBytes bounds how much of a response body is read. Reports are
// base64 PDFs and can be a few megabytes.
const maxResponseBytes = 32 << 20

// APIError is a non-2xx answer from the service.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("prediction service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("prediction service returned status %d: %s", e.StatusCode, e.Detail)
}

// Client calls the prediction service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient builds a client for baseURL. A zero timeout uses the default.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = constants.DefaultAPIBaseURL
	}
	if timeout <= 0 {
		timeout = constants.DefaultAPITimeoutSeconds * time.Second
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root the client posts to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Predict requests a DCF forecast. Missing actuals in the answer are filled
// from the request.
func (c *Client) Predict(ctx context.Context, req PredictRequest) (*Prediction, error) {
	var prediction Prediction
	if err := c.post(ctx, constants.PredictPath, req, &prediction, "predict.Predict"); err != nil {
		return nil, err
	}
	if err := prediction.check(); err != nil {
		return nil, err
	}
	prediction.FillActuals(req)

	c.logger.Debug("prediction received",
		zap.String("op", "predict.Predict"),
		zap.Int("forecastPoints", len(prediction.ForecastDates)),
		zap.Float64("totalNPV", prediction.TotalNPV),
	)
	return &prediction, nil
}

// GeneratePDF asks the service to render a loss report.
func (c *Client) GeneratePDF(ctx context.Context, req ReportRequest) (*ReportResponse, error) {
	var report ReportResponse
	if err := c.post(ctx, constants.GeneratePDFPath, req, &report, "predict.GeneratePDF"); err != nil {
		return nil, err
	}
	if report.PDFBase64 == "" {
		return nil, fmt.Errorf("%w: missing pdf_base64", ErrMalformedResponse)
	}
	return &report, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}, op string) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("prediction service call failed",
			zap.String("op", op),
			zap.String("path", path),
			zap.Error(err),
		)
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close response body",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}

	c.logger.Debug("prediction service responded",
		zap.String("op", op),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Detail: errorDetail(raw)}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// errorDetail pulls "detail" out of an error body. Non-string details (such
// as validation error lists) are returned as compact JSON; bodies that are not
// JSON are returned as trimmed text.
func errorDetail(raw []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && len(body.Detail) > 0 && string(body.Detail) != "null" {
		var text string
		if err := json.Unmarshal(body.Detail, &text); err == nil {
			return text
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, body.Detail); err == nil {
			return compact.String()
		}
		return string(body.Detail)
	}
	return strings.TrimSpace(string(raw))
}
