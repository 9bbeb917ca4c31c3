package server

import (
	"architect/internal/domain"
	"architect/internal/engine"
	"architect/internal/scoring"
)

// Request payloads

type CreateGoalRequest struct {
	Title        string `json:"title" minLength:"1"`
	Description  string `json:"description,omitempty"`
	TargetMetric string `json:"targetMetric,omitempty"`
	Deadline     string `json:"deadline,omitempty" example:"2026-12-31"`
}

type SubmitIdeaRequest struct {
	Title   string `json:"title" minLength:"1"`
	Content string `json:"content" minLength:"1"`
	GoalID  string `json:"goalId" minLength:"1"`
}

type TransitionRequest struct {
	Action string `json:"action" enum:"approve,archive,schedule"`
}

type ScoreRequest struct {
	Alignment   float64 `json:"alignment"`
	Feasibility float64 `json:"feasibility"`
	Impact      float64 `json:"impact"`
	Novelty     float64 `json:"novelty"`
	Rationale   string  `json:"rationale,omitempty"`
	// Reported is a decision from elsewhere to check against the local formula.
	Reported *domain.Decision `json:"reported,omitempty" enum:"START,STOP"`
}

type DevLoginRequest struct {
	ActorID string   `json:"actorId" minLength:"1"`
	Roles   []string `json:"roles,omitempty"`
}

// Response payloads

type ListGoalsResponse struct {
	Items []domain.Goal `json:"items"`
}

type ListIdeasResponse struct {
	Items []domain.Idea `json:"items"`
}

type ListEventsResponse struct {
	Items []domain.AnalyticsEvent `json:"items"`
	Total int                     `json:"total"`
}

type ScoreResponse struct {
	Score   domain.CDFScore `json:"score"`
	Weights scoring.Weights `json:"weights"`
	// Threshold is the cut-off the decision was taken against.
	Threshold float64 `json:"threshold"`
	Agrees    *bool   `json:"agrees,omitempty"`
}

type StatsResponse = engine.Stats

type DevLoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt" format:"date-time"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Ideas  int    `json:"ideas"`
	Events int    `json:"events"`
}
