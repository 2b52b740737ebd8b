package services

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
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"alfredoptarigan/resume-analyzer/internal/models"
)

// DefaultHealthTimeout bounds a single ML-service health probe.
const DefaultHealthTimeout = 2 * time.Second

const (
	msgMLTimeout     = "ML service analysis timed out. Please try again."
	msgMLUnreachable = "Cannot connect to ML service. Please ensure the ML service is running."
	msgMLNoModels    = "ML models not initialized. Please train the models first."
	msgMLDisabled    = "ML service is disabled"
	msgMLParse       = "Failed to parse ML service response. Please try again."
)

// ServiceConfig is the process-wide ML-service configuration.
type ServiceConfig struct {
	APIURL        string `json:"apiUrl"`
	TimeoutMillis int    `json:"timeoutMillis"`
	Enabled       bool   `json:"enabled"`
}

func (c ServiceConfig) timeout() time.Duration {
	if c.TimeoutMillis <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutMillis) * time.Millisecond
}

// ServiceConfigUpdate changes only the non-nil fields.
type ServiceConfigUpdate struct {
	APIURL        *string
	TimeoutMillis *int
	Enabled       *bool
}

type healthPayload struct {
	Status       string `json:"status"`
	ModelsLoaded bool   `json:"models_loaded"`
	Version      string `json:"version,omitempty"`
}

type errorPayload struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// MLServiceClient talks to the trained-classifier microservice.
type MLServiceClient struct {
	mu  sync.RWMutex
	cfg ServiceConfig

	healthTimeout time.Duration
	httpClient    *http.Client
	probes        singleflight.Group
	logger        *slog.Logger
}

func NewMLServiceClient(cfg ServiceConfig, healthTimeout time.Duration, logger *slog.Logger) *MLServiceClient {
	if healthTimeout <= 0 {
		healthTimeout = DefaultHealthTimeout
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	return &MLServiceClient{
		cfg:           cfg,
		healthTimeout: healthTimeout,
		httpClient:    &http.Client{},
		logger:        logger.With(slog.String("backend", string(models.BackendMLService))),
	}
}

// Config returns a snapshot of the current configuration.
func (c *MLServiceClient) Config() ServiceConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

// Configure applies a partial update. Concurrent updates are serialised; the
// last writer wins.
func (c *MLServiceClient) Configure(u ServiceConfigUpdate) ServiceConfig {
	c.mu.Lock()
	if u.APIURL != nil {
		c.cfg.APIURL = strings.TrimRight(*u.APIURL, "/")
	}
	if u.TimeoutMillis != nil {
		c.cfg.TimeoutMillis = *u.TimeoutMillis
	}
	if u.Enabled != nil {
		c.cfg.Enabled = *u.Enabled
	}
	cfg := c.cfg
	c.mu.Unlock()

	c.logger.Info("ML service configuration updated",
		slog.String("api_url", cfg.APIURL),
		slog.Int("timeout_ms", cfg.TimeoutMillis),
		slog.Bool("enabled", cfg.Enabled),
	)
	return cfg
}

// ProbeHealth reports whether the service is up with its models loaded.
// It never returns an error; any failure or a slow answer means false.
// Concurrent probes against the same URL share one request.
func (c *MLServiceClient) ProbeHealth(ctx context.Context) bool {
	cfg := c.Config()
	if !cfg.Enabled {
		c.logger.Debug("ML service is disabled via configuration")
		return false
	}

	ch := c.probes.DoChan(cfg.APIURL, func() (any, error) {
		return c.probe(context.WithoutCancel(ctx), cfg.APIURL), nil
	})

	select {
	case res := <-ch:
		return res.Val.(bool)
	case <-ctx.Done():
		return false
	}
}

func (c *MLServiceClient) probe(ctx context.Context, apiURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+"/health", nil)
	if err != nil {
		c.logger.Debug("ML service not available", slog.String("error", err.Error()), slog.String("api_url", apiURL))
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("ML service not available", slog.String("error", err.Error()), slog.String("api_url", apiURL))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("ML service health check failed", slog.Int("status", resp.StatusCode))
		return false
	}

	var payload healthPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.Debug("ML service health payload malformed", slog.String("error", err.Error()))
		return false
	}

	c.logger.Info("ML service health check",
		slog.String("status", payload.Status),
		slog.Bool("models_loaded", payload.ModelsLoaded),
	)
	return payload.Status == "healthy" && payload.ModelsLoaded
}

func mlError(kind ErrorKind, msg string, err error) *AnalysisError {
	return &AnalysisError{Kind: kind, Backend: models.BackendMLService, Message: msg, Err: err}
}

// Analyze runs the request through the ML service within its configured deadline.
func (c *MLServiceClient) Analyze(ctx context.Context, req *models.AnalysisRequest) (*models.AnalysisResult, error) {
	cfg := c.Config()

	c.logger.Info("starting ML analysis",
		slog.String("role_name", req.RoleName),
		slog.String("role_id", req.RoleID),
		slog.Int("text_length", len(req.ResumeText)),
	)

	if !cfg.Enabled {
		return nil, mlError(KindServiceUnavailable, msgMLDisabled, nil)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, mlError(KindUnknown, "failed to encode analysis request", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, cfg.timeout())
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, cfg.APIURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, mlError(KindServiceUnavailable, msgMLUnreachable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.logFailure(classifyTransportError(callCtx, ctx, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.logFailure(statusError(resp))
	}

	var raw remoteAnalysis
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, c.logFailure(mlError(KindTimeout, msgMLTimeout, err))
		}
		return nil, c.logFailure(mlError(KindResponseFormat, msgMLParse, err))
	}
	if raw.ModelType == "" {
		raw.ModelType = "xgboost"
	}

	result := raw.toResult(models.BackendMLService)
	c.logger.Info("ML analysis complete",
		slog.Int("match_percentage", result.MatchPercentage),
		slog.Int("ats_score", result.ATSScore),
		slog.String("model_type", result.ModelType),
	)
	return result, nil
}

func (c *MLServiceClient) logFailure(ae *AnalysisError) *AnalysisError {
	attrs := []any{
		slog.String("kind", ae.Kind.String()),
		slog.String("message", ae.Message),
	}
	if ae.Err != nil {
		attrs = append(attrs, slog.String("cause", ae.Err.Error()))
	}
	c.logger.Error("ML analysis error", attrs...)
	return ae
}

func classifyTransportError(callCtx, parent context.Context, err error) *AnalysisError {
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) && parent.Err() == nil {
		return mlError(KindTimeout, msgMLTimeout, err)
	}
	if parent.Err() != nil {
		return mlError(KindUnknown, "ML service analysis was cancelled", err)
	}
	return mlError(KindServiceUnavailable, msgMLUnreachable, err)
}

// statusError builds the error for a non-2xx answer, preferring the service's
// own error text.
func statusError(resp *http.Response) *AnalysisError {
	detail := "Unknown error"
	if data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); err == nil {
		var payload errorPayload
		if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
			detail = payload.Error
		}
	}

	cause := fmt.Errorf("HTTP %d: %s", resp.StatusCode, detail)
	if strings.Contains(detail, "Models not loaded") {
		return mlError(KindServiceUnavailable, fmt.Sprintf("%s (HTTP %d)", msgMLNoModels, resp.StatusCode), cause)
	}

	kind := KindUnknown
	if resp.StatusCode >= 500 {
		kind = KindServiceUnavailable
	}
	return mlError(kind, fmt.Sprintf("ML service error (HTTP %d): %s", resp.StatusCode, detail), cause)
}

// Roles fetches the service's role catalog.
func (c *MLServiceClient) Roles(ctx context.Context) (map[string][]string, error) {
	cfg := c.Config()

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.APIURL+"/roles", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build roles request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("failed to fetch roles from ML service", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("failed to fetch roles from ML service", slog.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("failed to fetch roles: HTTP %d", resp.StatusCode)
	}

	var payload models.MLRolesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode roles: %w", err)
	}
	if payload.Roles == nil {
		payload.Roles = map[string][]string{}
	}
	return payload.Roles, nil
}
