package architectsdk

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"architect/internal/app"
	"architect/internal/domain"
	"architect/internal/logs"
	"architect/internal/server"
)

type cannedGenerator struct{}

func (cannedGenerator) Evaluate(ctx context.Context, ideaContent, goalDescription string) (domain.CDFScore, error) {
	return domain.CDFScore{
		Alignment: 0.9, Feasibility: 0.8, Impact: 0.6, Novelty: 0.5,
		TotalScore: 0.75, Decision: domain.DecisionStart, Rationale: "on goal",
	}, nil
}

func (cannedGenerator) GenerateVariants(ctx context.Context, constraints string) ([]domain.Variant, error) {
	return []domain.Variant{{Title: "Carousel", Hook: "Five hooks", Format: "carousel", Length: "5 slides", SuggestedCTA: "save", Tags: []string{"hooks"}, ConfidenceScore: 0.7}}, nil
}

func (cannedGenerator) GenerateBrief(ctx context.Context, ideaContent string) (domain.ProductionBrief, error) {
	return domain.ProductionBrief{Storyboard: []string{"intro"}, AssetsList: []string{}, ShotList: []string{"desk"}, EditNotes: "fast"}, nil
}

func newClient(t *testing.T, secret string) *Client {
	t.Helper()
	ws, err := app.Open(context.Background(), app.Options{
		Workspace: t.TempDir(),
		Generator: cannedGenerator{},
		Logger:    logs.Discard(),
	})
	require.NoError(t, err)
	handler, err := server.New(server.Config{
		Engine:   ws.Engine,
		BasePath: "/v0",
		Auth:     server.AuthConfig{JWTSecret: secret, Logger: logs.Discard()},
		Logger:   logs.Discard(),
	})
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	t.Cleanup(func() {
		srv.Close()
		ws.Close()
	})
	return New(srv.URL)
}

func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newClient(t, "sdk-secret")

	_, err := c.Goals(ctx)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "unauthorized", apiErr.Code)

	token, err := c.DevLogin(ctx, "sdk-user")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	goal, err := c.CreateGoal(ctx, Goal{Title: "Reach", Description: "Grow reach", Deadline: "2026-12-31"})
	require.NoError(t, err)
	goals, err := c.Goals(ctx)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, goal.ID, goals[0].ID)

	idea, err := c.SubmitIdea(ctx, "Hooks", "Five hooks that worked", goal.ID)
	require.NoError(t, err)
	assert.Equal(t, "GATED", idea.Status)
	require.NotNil(t, idea.CDFScore)
	assert.Equal(t, "START", idea.CDFScore.Decision)
	assert.Equal(t, goal.ID, idea.GoalID)

	idea, err = c.Transition(ctx, idea.ID, "approve")
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", idea.Status)

	idea, err = c.GenerateVariants(ctx, idea.ID)
	require.NoError(t, err)
	require.Len(t, idea.Variants, 1)
	assert.Equal(t, "save", idea.Variants[0].SuggestedCTA)

	idea, err = c.GenerateBrief(ctx, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, "PRODUCTION", idea.Status)
	require.NotNil(t, idea.Brief)

	pipeline, err := c.Ideas(ctx, true)
	require.NoError(t, err)
	assert.Len(t, pipeline, 1)

	gated, err := c.Ideas(ctx, false, "GATED")
	require.NoError(t, err)
	assert.Empty(t, gated)

	evts, err := c.Events(ctx, EventFilter{EntityKind: "idea", EntityID: idea.ID})
	require.NoError(t, err)
	require.Len(t, evts, 4)
	assert.Equal(t, "IDEA_UPDATED", evts[0].Type)
	assert.Equal(t, "IDEA_CREATED", evts[3].Type)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Events)
	assert.Equal(t, 1, stats.IdeasByStatus["PRODUCTION"])

	_, err = c.Transition(ctx, idea.ID, "approve")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "invalid_transition", apiErr.Code)

	res, err := c.Score(ctx, 0.9, 0.8, 0.6, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, res.Score.TotalScore, 1e-9)
	assert.Equal(t, "START", res.Score.Decision)
	assert.Equal(t, 0.4, res.Weights["alignment"])
}
