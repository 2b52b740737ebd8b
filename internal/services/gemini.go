package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"alfredoptarigan/resume-analyzer/internal/logging"
)

type GeminiService interface {
	GenerateText(ctx context.Context, prompt string, temperature float32) (string, error)
}

// KeySource supplies a validated API key. config.Resolver implements it.
type KeySource interface {
	APIKey() (string, error)
}

type GeminiOptions struct {
	Model   string
	BaseURL string
	// Timeout bounds a single GenerateContent call.
	Timeout time.Duration
	// RateLimit is the maximum number of calls per second; <= 0 disables it.
	RateLimit float64
	// RawKey is only used for masked logging when the key is rejected.
	RawKey *string
}

type geminiService struct {
	keys    KeySource
	opts    GeminiOptions
	limiter *rate.Limiter
	logger  *slog.Logger

	once    sync.Once
	client  *genai.Client
	initErr error
}

// NewGeminiService returns a service whose client is created on first use.
// A rejected key is reported on every call without re-validating.
func NewGeminiService(keys KeySource, opts GeminiOptions, logger *slog.Logger) GeminiService {
	if opts.Model == "" {
		opts.Model = "gemini-2.5-flash-lite"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), max(1, int(math.Ceil(opts.RateLimit))))
	}

	return &geminiService{
		keys:    keys,
		opts:    opts,
		limiter: limiter,
		logger:  logger.With(slog.String("component", "gemini")),
	}
}

func (g *geminiService) getClient() (*genai.Client, error) {
	g.once.Do(func() {
		key, err := g.keys.APIKey()
		if err != nil {
			g.logger.Error("gemini client initialization failed",
				slog.String("error", err.Error()),
				slog.Bool("key_present", g.opts.RawKey != nil),
				slog.String("key_prefix", logging.MaskAPIKey(g.opts.RawKey)),
			)
			g.initErr = llmError(KindConfiguration, err.Error(), err)
			return
		}

		client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey:      key,
			Backend:     genai.BackendGeminiAPI,
			HTTPOptions: genai.HTTPOptions{BaseURL: g.opts.BaseURL},
		})
		if err != nil {
			g.initErr = llmError(KindConfiguration, "failed to create gemini client: "+err.Error(), err)
			return
		}

		g.client = client
		g.logger.Info("gemini client initialized", slog.String("model", g.opts.Model))
	})
	return g.client, g.initErr
}

// GenerateText implements GeminiService.
func (g *geminiService) GenerateText(ctx context.Context, prompt string, temperature float32) (string, error) {
	client, err := g.getClient()
	if err != nil {
		return "", err
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return "", classifyGeminiError(err)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		Temperature: &temperature,
	}

	resp, err := g.generateContent(callCtx, client, prompt, config)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return "", llmError(KindTimeout, msgGeminiTimeout, err)
		}
		return "", classifyGeminiError(err)
	}

	if resp == nil {
		return "", llmError(KindResponseFormat, msgGeminiParse, errNoResponse)
	}

	text := resp.Text()
	if text == "" {
		return "", llmError(KindResponseFormat, msgGeminiParse, errNoResponse)
	}

	return text, nil
}

// generateContent turns a panic inside the SDK into an error. The client
// dereferences a nil error body when a proxy answers with a non-Google JSON
// error payload.
func (g *geminiService) generateContent(ctx context.Context, client *genai.Client, prompt string, config *genai.GenerateContentConfig) (resp *genai.GenerateContentResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("gemini client panicked", slog.Any("panic", r))
			resp, err = nil, fmt.Errorf("gemini client panicked: %v", r)
		}
	}()
	return client.Models.GenerateContent(ctx, g.opts.Model, genai.Text(prompt), config)
}
