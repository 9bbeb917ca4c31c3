package generator_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"architect/internal/config"
	"architect/internal/domain"
	"architect/internal/generator"
)

func envelope(t *testing.T, text string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"candidates": []any{map[string]any{
			"content":      map[string]any{"role": "model", "parts": []any{map[string]any{"text": text}}},
			"finishReason": "STOP",
		}},
	})
	require.NoError(t, err)
	return body
}

func newTestGemini(t *testing.T, h http.HandlerFunc) *generator.Gemini {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := config.Default().Generator
	cfg.BaseURL = srv.URL + "/v1beta"
	cfg.Model = "gemini-test"
	cfg.Timeout = 5 * time.Second
	g, err := generator.NewGemini(cfg, "test-key",
		generator.WithRetry(generator.RetryConfig{MaxAttempts: 3, BackoffBase: time.Millisecond, MaxBackoff: 5 * time.Millisecond}))
	require.NoError(t, err)
	return g
}

func reply(t *testing.T, text string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(envelope(t, text))
	}
}

const goodScore = `{"alignment":0.9,"feasibility":0.8,"impact":0.6,"novelty":0.5,"totalScore":0.75,"decision":"START","rationale":"fits"}`

func TestEvaluateRequestBody(t *testing.T) {
	var captured []byte
	var path, key string
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		captured, _ = io.ReadAll(r.Body)
		path = r.URL.Path
		key = r.Header.Get("x-goog-api-key")
		_, _ = w.Write(envelope(t, goodScore))
	})

	_, err := g.Evaluate(context.Background(), "A weekly teardown of viral hooks", "Grow newsletter signups")
	require.NoError(t, err)
	assert.Equal(t, "/v1beta/models/gemini-test:generateContent", path)
	assert.Equal(t, "test-key", key)

	var pretty bytes.Buffer
	require.NoError(t, json.Indent(&pretty, bytes.TrimSpace(captured), "", "  "))
	pretty.WriteByte('\n')
	gold := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	gold.Assert(t, "evaluate_request", pretty.Bytes())
}

func TestEvaluateParsesScore(t *testing.T) {
	g := newTestGemini(t, reply(t, goodScore))
	score, err := g.Evaluate(context.Background(), "idea", "goal")
	require.NoError(t, err)
	assert.Equal(t, domain.CDFScore{
		Alignment: 0.9, Feasibility: 0.8, Impact: 0.6, Novelty: 0.5,
		TotalScore: 0.75, Decision: domain.DecisionStart, Rationale: "fits",
	}, score)
}

func TestEvaluateRejectsNonConformingResponses(t *testing.T) {
	cases := map[string]string{
		"out of range":  `{"alignment":1.4,"feasibility":0.8,"impact":0.6,"novelty":0.5,"totalScore":0.9,"decision":"START","rationale":"x"}`,
		"negative":      `{"alignment":-0.1,"feasibility":0.8,"impact":0.6,"novelty":0.5,"totalScore":0.5,"decision":"STOP","rationale":"x"}`,
		"missing field": `{"alignment":0.9,"feasibility":0.8,"impact":0.6,"totalScore":0.7,"decision":"START","rationale":"x"}`,
		"bad decision":  `{"alignment":0.9,"feasibility":0.8,"impact":0.6,"novelty":0.5,"totalScore":0.75,"decision":"MAYBE","rationale":"x"}`,
		"wrong type":    `{"alignment":"high","feasibility":0.8,"impact":0.6,"novelty":0.5,"totalScore":0.75,"decision":"START","rationale":"x"}`,
		"not json":      `I think this idea is great`,
		"array":         `[1,2,3]`,
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			g := newTestGemini(t, reply(t, text))
			_, err := g.Evaluate(context.Background(), "idea", "goal")
			require.Error(t, err)
			assert.ErrorIs(t, err, generator.ErrMalformedResponse)
			assert.ErrorIs(t, err, generator.ErrGeneratorFailure)
		})
	}
}

func TestGenerateVariantsAcceptsAnyLength(t *testing.T) {
	g := newTestGemini(t, reply(t, `[]`))
	variants, err := g.GenerateVariants(context.Background(), "constraints")
	require.NoError(t, err)
	assert.NotNil(t, variants)
	assert.Empty(t, variants)

	g = newTestGemini(t, reply(t, `[
		{"title":"a","hook":"h","format":"short","length":"30s","suggested_cta":"follow","tags":["x","y"],"confidence_score":0.8},
		{"title":"b","hook":"h2","format":"long","length":"8m","suggested_cta":"subscribe","tags":[],"confidence_score":0.6,"extra":true}
	]`))
	variants, err = g.GenerateVariants(context.Background(), "constraints")
	require.NoError(t, err)
	require.Len(t, variants, 2)
	assert.Equal(t, "follow", variants[0].SuggestedCTA)
	assert.Equal(t, []string{"x", "y"}, variants[0].Tags)
	assert.Equal(t, []string{}, variants[1].Tags)
}

func TestGenerateVariantsPromptCarriesCount(t *testing.T) {
	var captured []byte
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		captured, _ = io.ReadAll(r.Body)
		_, _ = w.Write(envelope(t, `[]`))
	})
	_, err := g.GenerateVariants(context.Background(), "launch teaser")
	require.NoError(t, err)
	assert.Contains(t, string(captured), "Generate 8 high-performance content variants based on these constraints: launch teaser.")
	assert.Contains(t, string(captured), `"type":"ARRAY"`)
}

func TestGenerateVariantsRejectsBadConfidence(t *testing.T) {
	g := newTestGemini(t, reply(t, `[{"title":"a","hook":"h","format":"f","length":"l","suggested_cta":"c","tags":[],"confidence_score":7}]`))
	_, err := g.GenerateVariants(context.Background(), "c")
	assert.ErrorIs(t, err, generator.ErrMalformedResponse)
}

func TestGenerateBrief(t *testing.T) {
	g := newTestGemini(t, reply(t, `{"storyboard":["open","close"],"assetsList":["logo"],"shotList":["wide"],"editNotes":"tight cuts"}`))
	brief, err := g.GenerateBrief(context.Background(), "idea")
	require.NoError(t, err)
	assert.Equal(t, domain.ProductionBrief{
		Storyboard: []string{"open", "close"},
		AssetsList: []string{"logo"},
		ShotList:   []string{"wide"},
		EditNotes:  "tight cuts",
	}, brief)

	g = newTestGemini(t, reply(t, `{"storyboard":"open","assetsList":[],"shotList":[],"editNotes":""}`))
	_, err = g.GenerateBrief(context.Background(), "idea")
	assert.ErrorIs(t, err, generator.ErrMalformedResponse)
}

func TestRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write(envelope(t, goodScore))
	})
	_, err := g.Evaluate(context.Background(), "idea", "goal")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestZeroBackoffRetriesImmediately(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write(envelope(t, goodScore))
	}))
	t.Cleanup(srv.Close)
	cfg := config.Default().Generator
	cfg.BaseURL = srv.URL + "/v1beta"
	cfg.Timeout = 5 * time.Second
	g, err := generator.NewGemini(cfg, "test-key",
		generator.WithRetry(generator.RetryConfig{MaxAttempts: 3, BackoffBase: 0, MaxBackoff: 30 * time.Second}))
	require.NoError(t, err)

	start := time.Now()
	_, err = g.Evaluate(context.Background(), "idea", "goal")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestGivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "slow down", http.StatusTooManyRequests)
	})
	_, err := g.Evaluate(context.Background(), "idea", "goal")
	require.Error(t, err)
	assert.ErrorIs(t, err, generator.ErrGeneratorFailure)
	assert.True(t, generator.IsTransient(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusForbidden)
	})
	_, err := g.GenerateBrief(context.Background(), "idea")
	require.Error(t, err)
	assert.ErrorIs(t, err, generator.ErrGeneratorFailure)
	assert.False(t, generator.IsTransient(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestBlockedResponseIsMalformed(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[]},"finishReason":"SAFETY"}]}`))
	})
	_, err := g.Evaluate(context.Background(), "idea", "goal")
	assert.ErrorIs(t, err, generator.ErrMalformedResponse)

	g = newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"promptFeedback":{"blockReason":"OTHER"}}`))
	})
	_, err = g.Evaluate(context.Background(), "idea", "goal")
	assert.ErrorIs(t, err, generator.ErrMalformedResponse)
}

func TestContextCancelStopsRequest(t *testing.T) {
	release := make(chan struct{})
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	t.Cleanup(func() { close(release) })
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := g.Evaluate(ctx, "idea", "goal")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, generator.ErrGeneratorFailure)
}
