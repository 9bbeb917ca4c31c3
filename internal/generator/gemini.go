package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"architect/internal/config"
	"architect/internal/domain"
	"architect/internal/scoring"
)

const maxResponseSize = 4 << 20

// RetryConfig controls retries of transient transport failures.
type RetryConfig struct {
	MaxAttempts int
	BackoffBase time.Duration
	MaxBackoff  time.Duration
}

// Gemini talks to the Generative Language REST API using JSON mode with a
// response schema per request.
type Gemini struct {
	baseURL      string
	model        string
	apiKey       string
	variantCount int
	weights      scoring.Weights
	threshold    float64
	httpClient   *http.Client
	retry        RetryConfig
	logger       *slog.Logger
	schemas      *schemas
}

var _ Generator = (*Gemini)(nil)

type Option func(*Gemini)

func WithHTTPClient(c *http.Client) Option {
	return func(g *Gemini) { g.httpClient = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Gemini) { g.logger = l }
}

func WithRetry(r RetryConfig) Option {
	return func(g *Gemini) { g.retry = r }
}

// WithScoring sets the weights and threshold quoted in the evaluation prompt.
func WithScoring(w scoring.Weights, threshold float64) Option {
	return func(g *Gemini) {
		g.weights = w
		g.threshold = threshold
	}
}

// NewGemini builds a client from the generator config section.
func NewGemini(cfg config.Generator, apiKey string, opts ...Option) (*Gemini, error) {
	s, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	g := &Gemini{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		model:        cfg.Model,
		apiKey:       apiKey,
		variantCount: cfg.VariantCount,
		weights:      scoring.Canonical(),
		threshold:    scoring.Threshold,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		retry: RetryConfig{
			MaxAttempts: cfg.MaxAttempts,
			BackoffBase: cfg.Backoff,
			MaxBackoff:  30 * time.Second,
		},
		logger:  slog.Default(),
		schemas: s,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.retry.MaxAttempts < 1 {
		g.retry.MaxAttempts = 1
	}
	return g, nil
}

func (g *Gemini) Evaluate(ctx context.Context, ideaContent, goalDescription string) (domain.CDFScore, error) {
	raw, err := g.generate(ctx, OpEvaluate, evaluatePrompt(ideaContent, goalDescription, g.weights, g.threshold), scoreSchema)
	if err != nil {
		return domain.CDFScore{}, err
	}
	score, err := g.schemas.decodeScore(raw)
	if err != nil {
		return domain.CDFScore{}, fmt.Errorf("%w: %s: %w", ErrGeneratorFailure, OpEvaluate, err)
	}
	return score, nil
}

func (g *Gemini) GenerateVariants(ctx context.Context, constraints string) ([]domain.Variant, error) {
	raw, err := g.generate(ctx, OpVariants, variantsPrompt(constraints, g.variantCount), variantsSchema)
	if err != nil {
		return nil, err
	}
	variants, err := g.schemas.decodeVariants(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrGeneratorFailure, OpVariants, err)
	}
	return variants, nil
}

func (g *Gemini) GenerateBrief(ctx context.Context, ideaContent string) (domain.ProductionBrief, error) {
	raw, err := g.generate(ctx, OpBrief, briefPrompt(ideaContent), briefSchema)
	if err != nil {
		return domain.ProductionBrief{}, err
	}
	brief, err := g.schemas.decodeBrief(raw)
	if err != nil {
		return domain.ProductionBrief{}, fmt.Errorf("%w: %s: %w", ErrGeneratorFailure, OpBrief, err)
	}
	return brief, nil
}

// generate performs one structured round-trip and returns the JSON text the
// model produced.
func (g *Gemini) generate(ctx context.Context, op Op, prompt string, schema *responseSchema) ([]byte, error) {
	body, err := encodeRequest(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   schema,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: build request: %w", ErrGeneratorFailure, op, err)
	}
	raw, err := doWithRetry(ctx, g.logger, g.retry, op, func() ([]byte, error) {
		return g.do(ctx, body)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrGeneratorFailure, op, err)
	}
	return raw, nil
}

func (g *Gemini) do(ctx context.Context, body []byte) ([]byte, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("x-goog-api-key", g.apiKey)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, NewTransientError(fmt.Errorf("http request failed: %w", err))
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, NewTransientError(fmt.Errorf("read response body: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifyHTTPError(resp.StatusCode, respBody)
	}
	return extractText(respBody)
}

func classifyHTTPError(statusCode int, body []byte) error {
	msg := string(body)
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	err := fmt.Errorf("gemini api error (status %d): %s", statusCode, msg)
	if statusCode == http.StatusTooManyRequests || statusCode >= 500 {
		return NewTransientError(err)
	}
	return err
}

// extractText pulls the model's JSON text out of a generateContent response.
func extractText(body []byte) ([]byte, error) {
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode envelope: %v", ErrMalformedResponse, err)
	}
	if len(resp.Candidates) == 0 {
		reason := ""
		if resp.PromptFeedback != nil {
			reason = resp.PromptFeedback.BlockReason
		}
		return nil, fmt.Errorf("%w: no candidates %s", ErrMalformedResponse, reason)
	}
	cand := resp.Candidates[0]
	switch cand.FinishReason {
	case "", "STOP":
	default:
		return nil, fmt.Errorf("%w: finish reason %s", ErrMalformedResponse, cand.FinishReason)
	}
	var sb strings.Builder
	for _, p := range cand.Content.Parts {
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return nil, fmt.Errorf("%w: empty response text", ErrMalformedResponse)
	}
	return []byte(text), nil
}

func doWithRetry[T any](ctx context.Context, logger *slog.Logger, cfg RetryConfig, op Op, fn func() (T, error)) (ret T, err error) {
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		ret, err = fn()
		if err == nil || !IsTransient(err) {
			return ret, err
		}
		if attempt == cfg.MaxAttempts {
			break
		}
		backoff := calculateBackoff(cfg, attempt)
		logger.WarnContext(ctx, "generator request failed, retrying",
			"op", op,
			"attempt", attempt,
			"max_attempts", cfg.MaxAttempts,
			"backoff", backoff,
			"error", err)
		select {
		case <-ctx.Done():
			return ret, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return ret, err
}

// calculateBackoff doubles per attempt, capped, with +/-25% jitter. A zero
// base retries immediately.
func calculateBackoff(cfg RetryConfig, attempt int) time.Duration {
	if cfg.BackoffBase <= 0 {
		return 0
	}
	backoff := cfg.BackoffBase << (attempt - 1)
	if cfg.MaxBackoff > 0 && (backoff > cfg.MaxBackoff || backoff <= 0) {
		backoff = cfg.MaxBackoff
	}
	jitter := float64(backoff) * 0.25 * (rand.Float64()*2 - 1)
	return backoff + time.Duration(jitter)
}
