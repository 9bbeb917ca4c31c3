package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"architect/internal/domain"
	"architect/internal/engine"
	"architect/internal/events"
	"architect/internal/generator"
	"architect/internal/lifecycle"
	"architect/internal/scoring"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   *engine.Engine
	BasePath string
	Auth     AuthConfig
	Logger   *slog.Logger
	// Now stamps dev tokens; defaults to time.Now.
	Now func() time.Time
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"gate_closed"`
	Message string         `json:"message" example:"decision gate returned STOP"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true" example:"{\"id\":\"6f1c...\"}"`
}

type requestKey struct{}
type bodyBytesKey struct{}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Architect API.
func New(cfg Config) (http.Handler, error) {
	if cfg.Engine == nil {
		return nil, errors.New("server: engine is required")
	}
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Auth.Logger == nil {
		cfg.Auth.Logger = cfg.Logger
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	huma.DefaultArrayNullable = false
	// Override Huma errors to use the envelope.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			// Schema/request validation errors should be 400 bad_request
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bodyBytes, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			ctx := context.WithValue(r.Context(), requestKey{}, r)
			ctx = context.WithValue(ctx, bodyBytesKey{}, bodyBytes)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	router.Use(newAuthMiddleware(basePath, cfg.Auth))
	hcfg := huma.DefaultConfig("Architect API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	router.Handle("/metrics", cfg.Engine.Metrics().Handler())
	registerHealth(group, cfg.Engine)
	registerGoals(group, cfg.Engine)
	registerIdeas(group, cfg.Engine)
	registerGeneration(group, cfg.Engine)
	registerEvents(group, cfg.Engine)
	registerScore(group, cfg.Engine)
	registerMe(group)
	registerDevAuth(group, cfg.Auth, cfg.Now)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// handleError maps engine, lifecycle and generator errors onto the envelope.
// Validation is checked before not-found: an unknown goal on submit is a bad
// request, not a missing resource.
func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var se huma.StatusError
	if errors.As(err, &se) {
		return se
	}
	msg := err.Error()
	switch {
	case errors.Is(err, engine.ErrValidation), errors.Is(err, lifecycle.ErrUnknownAction):
		return newAPIError(http.StatusBadRequest, "validation_failed", msg, nil)
	case errors.Is(err, engine.ErrNotFound):
		return newAPIError(http.StatusNotFound, "not_found", msg, nil)
	case errors.Is(err, lifecycle.ErrGateClosed):
		return newAPIError(http.StatusConflict, "gate_closed", msg, nil)
	case errors.Is(err, lifecycle.ErrAlreadyGenerated):
		return newAPIError(http.StatusConflict, "already_generated", msg, nil)
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		return newAPIError(http.StatusConflict, "invalid_transition", msg, nil)
	case errors.Is(err, engine.ErrInFlight):
		return newAPIError(http.StatusConflict, "in_flight", msg, nil)
	case errors.Is(err, engine.ErrSessionClosed):
		return newAPIError(http.StatusServiceUnavailable, "session_closed", msg, nil)
	case errors.Is(err, generator.ErrGeneratorFailure):
		return newAPIError(http.StatusBadGateway, "generator_failure", msg, map[string]any{
			"malformed": errors.Is(err, generator.ErrMalformedResponse),
			"transient": generator.IsTransient(err),
		})
	case errors.Is(err, engine.ErrStorage):
		return newAPIError(http.StatusInternalServerError, "storage_failure", "storage failure", map[string]any{"error": msg})
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			oas := api.OpenAPI()
			ensureDefaultErrorResponses(oas)
			applyAuthSecurity(oas, basePath)
			spec, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func operations(item *huma.PathItem) []*huma.Operation {
	return []*huma.Operation{
		item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
	}
}

func ensureDefaultErrorResponses(oas *huma.OpenAPI) {
	if oas == nil || oas.Paths == nil {
		return
	}
	for _, item := range oas.Paths {
		for _, op := range operations(item) {
			if op == nil {
				continue
			}
			if op.Responses == nil {
				op.Responses = map[string]*huma.Response{}
			}
			op.Responses["default"] = &huma.Response{
				Description: "Error",
				Content: map[string]*huma.MediaType{
					"application/json": {
						Schema: &huma.Schema{Ref: "#/components/schemas/ApiError"},
					},
				},
			}
		}
	}
}

func applyAuthSecurity(oas *huma.OpenAPI, basePath string) {
	if oas == nil {
		return
	}
	if oas.Components == nil {
		oas.Components = &huma.Components{}
	}
	if oas.Components.SecuritySchemes == nil {
		oas.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oas.Components.SecuritySchemes["bearerAuth"] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	security := []map[string][]string{
		{"bearerAuth": {}},
	}
	oas.Security = security
	public := map[string]bool{
		path.Join("/", basePath, "health"):         true,
		path.Join("/", basePath, "auth/dev/login"): true,
	}
	for route, item := range oas.Paths {
		for _, op := range operations(item) {
			if op == nil {
				continue
			}
			if public[route] {
				op.Security = []map[string][]string{}
				continue
			}
			op.Security = security
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Architect API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
    <p style="padding: 1rem; font-family: sans-serif; color: #444;">
      Authenticate with Authorization: Bearer &lt;token&gt;.
    </p>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body HealthResponse `json:"body"`
	}, error) {
		return &struct {
			Body HealthResponse `json:"body"`
		}{Body: HealthResponse{
			Status: "ok",
			Ideas:  len(e.Ideas(engine.IdeaFilter{})),
			Events: e.EventCount(),
		}}, nil
	})
}

func registerGoals(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-goal",
		Method:        http.MethodPost,
		Path:          "/goals",
		Summary:       "Create a strategic goal",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body CreateGoalRequest `json:"body"`
	}) (*struct {
		Body domain.Goal `json:"body"`
	}, error) {
		g, err := e.CreateGoal(ctx, engine.GoalInput{
			Title:        input.Body.Title,
			Description:  input.Body.Description,
			TargetMetric: input.Body.TargetMetric,
			Deadline:     input.Body.Deadline,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Goal `json:"body"`
		}{Body: g}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-goals",
		Method:      http.MethodGet,
		Path:        "/goals",
		Summary:     "List goals, newest first",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body ListGoalsResponse `json:"body"`
	}, error) {
		return &struct {
			Body ListGoalsResponse `json:"body"`
		}{Body: ListGoalsResponse{Items: e.Goals()}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-goal",
		Method:      http.MethodGet,
		Path:        "/goals/{id}",
		Summary:     "Get a goal",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body domain.Goal `json:"body"`
	}, error) {
		g, err := e.Goal(input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Goal `json:"body"`
		}{Body: g}, nil
	})
}

func registerIdeas(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "submit-idea",
		Method:        http.MethodPost,
		Path:          "/ideas",
		Summary:       "Submit an idea to the decision gate",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusConflict, http.StatusBadGateway},
	}, func(ctx context.Context, input *struct {
		Body SubmitIdeaRequest `json:"body"`
	}) (*struct {
		Body domain.Idea `json:"body"`
	}, error) {
		idea, err := e.SubmitIdea(ctx, engine.IdeaInput{
			Title:   input.Body.Title,
			Content: input.Body.Content,
			GoalID:  input.Body.GoalID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Idea `json:"body"`
		}{Body: idea}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-ideas",
		Method:      http.MethodGet,
		Path:        "/ideas",
		Summary:     "List ideas, newest first",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Status   string `query:"status" doc:"Comma-separated statuses"`
		Pipeline bool   `query:"pipeline" doc:"Only APPROVED, PRODUCTION and SCHEDULED ideas"`
		GoalID   string `query:"goal_id"`
	}) (*struct {
		Body ListIdeasResponse `json:"body"`
	}, error) {
		filter, err := ideaFilter(input.Status, input.Pipeline, input.GoalID)
		if err != nil {
			return nil, err
		}
		return &struct {
			Body ListIdeasResponse `json:"body"`
		}{Body: ListIdeasResponse{Items: e.Ideas(filter)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-idea",
		Method:      http.MethodGet,
		Path:        "/ideas/{id}",
		Summary:     "Get an idea",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body domain.Idea `json:"body"`
	}, error) {
		idea, err := e.Idea(input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Idea `json:"body"`
		}{Body: idea}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "transition-idea",
		Method:      http.MethodPost,
		Path:        "/ideas/{id}/transitions",
		Summary:     "Approve, archive or schedule an idea",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		ID   string            `path:"id"`
		Body TransitionRequest `json:"body"`
	}) (*struct {
		Body domain.Idea `json:"body"`
	}, error) {
		action, err := lifecycle.ParseAction(strings.ToLower(strings.TrimSpace(input.Body.Action)))
		if err != nil {
			return nil, handleError(err)
		}
		idea, err := e.TransitionIdea(ctx, input.ID, action)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Idea `json:"body"`
		}{Body: idea}, nil
	})
}

func registerGeneration(api huma.API, e *engine.Engine) {
	type ideaPath struct {
		ID string `path:"id"`
	}
	type ideaBody struct {
		Body domain.Idea `json:"body"`
	}
	generationErrors := []int{http.StatusNotFound, http.StatusConflict, http.StatusBadGateway}

	huma.Register(api, huma.Operation{
		OperationID: "generate-variants",
		Method:      http.MethodPost,
		Path:        "/ideas/{id}/variants",
		Summary:     "Generate content variants for an approved idea",
		Errors:      generationErrors,
	}, func(ctx context.Context, input *ideaPath) (*ideaBody, error) {
		idea, err := e.GenerateVariants(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &ideaBody{Body: idea}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "generate-brief",
		Method:      http.MethodPost,
		Path:        "/ideas/{id}/brief",
		Summary:     "Generate the production brief and move the idea to PRODUCTION",
		Errors:      generationErrors,
	}, func(ctx context.Context, input *ideaPath) (*ideaBody, error) {
		idea, err := e.GenerateBrief(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &ideaBody{Body: idea}, nil
	})
}

func registerEvents(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "List recent events, newest first",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Type       string `query:"type" enum:"GOAL_CREATED,IDEA_CREATED,IDEA_UPDATED"`
		EntityKind string `query:"entity_kind" enum:"goal,idea"`
		EntityID   string `query:"entity_id"`
		Limit      int    `query:"limit" default:"50"`
	}) (*struct {
		Body ListEventsResponse `json:"body"`
	}, error) {
		items := e.Events(events.Filter{
			Type:       input.Type,
			EntityKind: input.EntityKind,
			EntityID:   input.EntityID,
			Limit:      normalizeLimit(input.Limit),
		})
		return &struct {
			Body ListEventsResponse `json:"body"`
		}{Body: ListEventsResponse{Items: items, Total: e.EventCount()}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "event-stats",
		Method:      http.MethodGet,
		Path:        "/events/stats",
		Summary:     "Analytics summary",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body StatsResponse `json:"body"`
	}, error) {
		return &struct {
			Body StatsResponse `json:"body"`
		}{Body: e.Stats()}, nil
	})
}

func registerScore(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "score",
		Method:      http.MethodPost,
		Path:        "/score",
		Summary:     "Run the decision gate on raw sub-scores",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body ScoreRequest `json:"body"`
	}) (*struct {
		Body ScoreResponse `json:"body"`
	}, error) {
		subs := scoring.SubScores{
			Alignment:   input.Body.Alignment,
			Feasibility: input.Body.Feasibility,
			Impact:      input.Body.Impact,
			Novelty:     input.Body.Novelty,
		}
		weights, threshold := e.Weights()
		resp := ScoreResponse{
			Score:     e.Score(subs, input.Body.Rationale),
			Weights:   weights,
			Threshold: threshold,
		}
		if input.Body.Reported != nil {
			reported := resp.Score
			reported.Decision = *input.Body.Reported
			_, err := scoring.Check(reported, weights, threshold)
			agrees := err == nil
			resp.Agrees = &agrees
		}
		return &struct {
			Body ScoreResponse `json:"body"`
		}{Body: resp}, nil
	})
}

func registerMe(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "me",
		Method:      http.MethodGet,
		Path:        "/me",
		Summary:     "Current principal",
		Errors: []int{
			http.StatusUnauthorized,
		},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body Principal `json:"body"`
	}, error) {
		principal, authErr := principalFromRequest(ctx)
		if authErr != nil {
			return nil, authErr
		}
		principal.Roles = nonNilSlice(principal.Roles)
		principal.Permissions = nonNilSlice(principal.Permissions)
		return &struct {
			Body Principal `json:"body"`
		}{Body: principal}, nil
	})
}

func registerDevAuth(api huma.API, authCfg AuthConfig, now func() time.Time) {
	huma.Register(api, huma.Operation{
		OperationID: "dev-login",
		Method:      http.MethodPost,
		Path:        "/auth/dev/login",
		Summary:     "DEV ONLY: mint a JWT for local testing",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body DevLoginRequest `json:"body"`
	}) (*struct {
		Body DevLoginResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if !authCfg.enabled() {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "jwt secret not configured", nil)
		}
		actor := strings.TrimSpace(input.Body.ActorID)
		if actor == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "actorId is required", nil)
		}
		issued := now()
		token, err := signDevToken(authCfg.JWTSecret, actor, input.Body.Roles, issued)
		if err != nil {
			return nil, newAPIError(http.StatusInternalServerError, "internal_error", err.Error(), nil)
		}
		return &struct {
			Body DevLoginResponse `json:"body"`
		}{Body: DevLoginResponse{
			Token:     token,
			ExpiresAt: issued.Add(devTokenTTL).UTC().Format(time.RFC3339),
		}}, nil
	})
}

func bodyBytes(ctx context.Context) []byte {
	if buf, ok := ctx.Value(bodyBytesKey{}).([]byte); ok {
		return buf
	}
	req, ok := ctx.Value(requestKey{}).(*http.Request)
	if !ok || req == nil {
		return nil
	}
	data, _ := io.ReadAll(req.Body)
	return data
}

// ideaFilter builds the list filter. pipeline and status are combined: a
// status outside the pipeline yields an empty list.
func ideaFilter(status string, pipeline bool, goalID string) (engine.IdeaFilter, error) {
	f := engine.IdeaFilter{GoalID: strings.TrimSpace(goalID)}
	for _, raw := range strings.Split(status, ",") {
		raw = strings.ToUpper(strings.TrimSpace(raw))
		if raw == "" {
			continue
		}
		s := domain.IdeaStatus(raw)
		if !s.Valid() {
			return f, newAPIError(http.StatusBadRequest, "bad_request", fmt.Sprintf("unknown status %q", raw), map[string]any{"status": raw})
		}
		f.Statuses = append(f.Statuses, s)
	}
	if !pipeline {
		return f, nil
	}
	if len(f.Statuses) == 0 {
		f.Statuses = append(f.Statuses, engine.PipelineStatuses...)
		return f, nil
	}
	var kept []domain.IdeaStatus
	for _, s := range f.Statuses {
		if slices.Contains(engine.PipelineStatuses, s) {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		// No status can match; keep the filter non-empty so nothing is returned.
		kept = []domain.IdeaStatus{""}
	}
	f.Statuses = kept
	return f, nil
}

func normalizeLimit(in int) int {
	if in <= 0 {
		return 50
	}
	if in > 200 {
		return 200
	}
	return in
}

func nonNilSlice(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
