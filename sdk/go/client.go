package architectsdk

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
)

// Client is a minimal Architect HTTP API client.
type Client struct {
	BaseURL     string
	BasePath    string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults. Generation calls wait on the
// model, so the timeout is generous.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:  baseURL,
		BasePath: "/v0",
		Timeout:  90 * time.Second,
	}
}

// Goal is a strategic objective ideas are scored against.
type Goal struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	TargetMetric string `json:"targetMetric"`
	Deadline     string `json:"deadline"`
	CreatedAt    string `json:"createdAt"`
}

// Score is the decision gate result stored on an idea.
type Score struct {
	Alignment   float64 `json:"alignment"`
	Feasibility float64 `json:"feasibility"`
	Impact      float64 `json:"impact"`
	Novelty     float64 `json:"novelty"`
	TotalScore  float64 `json:"totalScore"`
	Decision    string  `json:"decision"`
	Rationale   string  `json:"rationale"`
}

type Variant struct {
	Title           string   `json:"title"`
	Hook            string   `json:"hook"`
	Format          string   `json:"format"`
	Length          string   `json:"length"`
	SuggestedCTA    string   `json:"suggested_cta"`
	Tags            []string `json:"tags"`
	ConfidenceScore float64  `json:"confidence_score"`
}

type Brief struct {
	Storyboard []string `json:"storyboard"`
	AssetsList []string `json:"assetsList"`
	ShotList   []string `json:"shotList"`
	EditNotes  string   `json:"editNotes"`
}

// Idea represents the API idea model.
type Idea struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Status    string    `json:"status"`
	GoalID    string    `json:"goalId,omitempty"`
	CDFScore  *Score    `json:"cdfScore,omitempty"`
	Variants  []Variant `json:"variants"`
	Brief     *Brief    `json:"brief,omitempty"`
	CreatedAt string    `json:"createdAt"`
}

// Event represents a log entry.
type Event struct {
	ID         string          `json:"id"`
	EventID    string          `json:"eventId"`
	Timestamp  string          `json:"timestamp"`
	Type       string          `json:"type"`
	EntityKind string          `json:"entityKind"`
	EntityID   string          `json:"entityId"`
	Payload    json.RawMessage `json:"payload"`
}

// EventFilter narrows Events. Zero values match everything.
type EventFilter struct {
	Type       string
	EntityKind string
	EntityID   string
	Limit      int
}

// Stats is the analytics summary.
type Stats struct {
	Goals         int            `json:"goals"`
	Ideas         int            `json:"ideas"`
	Events        int            `json:"events"`
	EventsByType  map[string]int `json:"eventsByType"`
	IdeasByStatus map[string]int `json:"ideasByStatus"`
	EventsPerDay  []struct {
		Date  string `json:"date"`
		Count int    `json:"count"`
	} `json:"eventsPerDay"`
	Decisions    map[string]int `json:"decisions"`
	AverageScore float64        `json:"averageScore"`
}

// ScoreResult is the response of Score.
type ScoreResult struct {
	Score     Score              `json:"score"`
	Weights   map[string]float64 `json:"weights"`
	Threshold float64            `json:"threshold"`
	Agrees    *bool              `json:"agrees,omitempty"`
}

// APIError wraps non-2xx responses. Code and Message come from the error
// envelope when the body has one.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// CreateGoal creates a goal.
func (c *Client) CreateGoal(ctx context.Context, goal Goal) (Goal, error) {
	body := map[string]any{
		"title":        goal.Title,
		"description":  goal.Description,
		"targetMetric": goal.TargetMetric,
	}
	if goal.Deadline != "" {
		body["deadline"] = goal.Deadline
	}
	var resp Goal
	err := c.do(ctx, http.MethodPost, "goals", body, &resp)
	return resp, err
}

// Goals lists goals, newest first.
func (c *Client) Goals(ctx context.Context) ([]Goal, error) {
	var resp struct {
		Items []Goal `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, "goals", nil, &resp)
	return resp.Items, err
}

// SubmitIdea sends a draft through the decision gate.
func (c *Client) SubmitIdea(ctx context.Context, title, content, goalID string) (Idea, error) {
	body := map[string]any{
		"title":   title,
		"content": content,
		"goalId":  goalID,
	}
	var resp Idea
	err := c.do(ctx, http.MethodPost, "ideas", body, &resp)
	return resp, err
}

// Ideas lists ideas, optionally filtered by status. pipeline restricts the
// list to APPROVED, PRODUCTION and SCHEDULED.
func (c *Client) Ideas(ctx context.Context, pipeline bool, statuses ...string) ([]Idea, error) {
	q := url.Values{}
	if len(statuses) > 0 {
		q.Set("status", strings.Join(statuses, ","))
	}
	if pipeline {
		q.Set("pipeline", "true")
	}
	endpoint := "ideas"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp struct {
		Items []Idea `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Items, err
}

// Idea fetches an idea by id.
func (c *Client) Idea(ctx context.Context, id string) (Idea, error) {
	var resp Idea
	err := c.do(ctx, http.MethodGet, "ideas/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// Transition applies approve, archive or schedule.
func (c *Client) Transition(ctx context.Context, id, action string) (Idea, error) {
	var resp Idea
	endpoint := fmt.Sprintf("ideas/%s/transitions", url.PathEscape(id))
	err := c.do(ctx, http.MethodPost, endpoint, map[string]any{"action": action}, &resp)
	return resp, err
}

// GenerateVariants generates variants for an approved idea.
func (c *Client) GenerateVariants(ctx context.Context, id string) (Idea, error) {
	var resp Idea
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("ideas/%s/variants", url.PathEscape(id)), nil, &resp)
	return resp, err
}

// GenerateBrief generates the brief and moves the idea to PRODUCTION.
func (c *Client) GenerateBrief(ctx context.Context, id string) (Idea, error) {
	var resp Idea
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("ideas/%s/brief", url.PathEscape(id)), nil, &resp)
	return resp, err
}

// Events returns recent events, newest first.
func (c *Client) Events(ctx context.Context, f EventFilter) ([]Event, error) {
	q := url.Values{}
	if f.Type != "" {
		q.Set("type", f.Type)
	}
	if f.EntityKind != "" {
		q.Set("entity_kind", f.EntityKind)
	}
	if f.EntityID != "" {
		q.Set("entity_id", f.EntityID)
	}
	if f.Limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", f.Limit))
	}
	endpoint := "events"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp struct {
		Items []Event `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Items, err
}

// Stats returns the analytics summary.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var resp Stats
	err := c.do(ctx, http.MethodGet, "events/stats", nil, &resp)
	return resp, err
}

// Score runs the decision gate on raw sub-scores without storing anything.
func (c *Client) Score(ctx context.Context, alignment, feasibility, impact, novelty float64) (ScoreResult, error) {
	body := map[string]any{
		"alignment":   alignment,
		"feasibility": feasibility,
		"impact":      impact,
		"novelty":     novelty,
	}
	var resp ScoreResult
	err := c.do(ctx, http.MethodPost, "score", body, &resp)
	return resp, err
}

// DevLogin mints a development token and stores it on the client.
func (c *Client) DevLogin(ctx context.Context, actorID string, roles ...string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	body := map[string]any{"actorId": actorID}
	if len(roles) > 0 {
		body["roles"] = roles
	}
	if err := c.do(ctx, http.MethodPost, "auth/dev/login", body, &resp); err != nil {
		return "", err
	}
	c.BearerToken = resp.Token
	return resp.Token, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(b)}
		var env struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(b, &env) == nil {
			apiErr.Code, apiErr.Message = env.Error.Code, env.Error.Message
		}
		return apiErr
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	base := strings.TrimRight(c.BaseURL, "/")
	if p := strings.Trim(c.BasePath, "/"); p != "" {
		base += "/" + p
	}
	return base
}
