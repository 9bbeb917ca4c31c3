package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"architect/internal/app"
	"architect/internal/config"
	"architect/internal/db"
	"architect/internal/domain"
	"architect/internal/engine"
	"architect/internal/events"
	"architect/internal/lifecycle"
	"architect/internal/logs"
	"architect/internal/scoring"
	"architect/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "arc",
	Short: "Architect CLI",
	Long: `Architect runs content ideas through a decision gate before anything gets produced.
Core concepts:
- Goal: a strategic objective (title, description, target metric, deadline). Ideas are scored against it.
- Decision gate: four sub-scores (alignment 40%, feasibility 20%, impact 30%, novelty 10%) combine into a total; 0.70 or more is START, anything lower is STOP.
- Lifecycle: a submitted idea lands in GATED; approve (START only) -> APPROVED; brief -> PRODUCTION; schedule -> SCHEDULED. Archive retires a GATED idea.
- Variants: content variants generated once for an APPROVED idea.
- Event log: every goal and idea change, view with 'arc log tail'.
- Workspace: the .architect directory holding the database, plus an optional architect.yml.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("ARCHITECT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error); overrides architect.yml")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func registerCommands() {
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(goalCmd())
	rootCmd.AddCommand(ideaCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(scoreCmd())
	rootCmd.AddCommand(serveCmd())
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Workspace configuration",
		Long:  "architect.yml holds the scoring weights, threshold, generator and server settings. Missing files fall back to defaults.",
	}
	cfg.AddCommand(configInitCmd())
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configValidateCmd())
	return cfg
}

func configInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default architect.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.WriteDefault(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(cfg)
			}
			out, err := cfg.Marshal()
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	}
}

func configValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate architect.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := config.Load(viper.GetString("workspace"))
			if viper.GetBool("json") {
				res := map[string]any{"valid": err == nil}
				if err != nil {
					res["error"] = err.Error()
				}
				return printJSON(res)
			}
			if err != nil {
				return err
			}
			fmt.Println("config ok")
			return nil
		},
	}
}

func goalCmd() *cobra.Command {
	g := &cobra.Command{Use: "goal", Short: "Manage strategic goals"}
	g.AddCommand(goalCreateCmd())
	g.AddCommand(goalListCmd())
	g.AddCommand(goalShowCmd())
	return g
}

func goalCreateCmd() *cobra.Command {
	var in engine.GoalInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a goal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				g, err := ws.Engine.CreateGoal(ctx, in)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(g)
				}
				fmt.Printf("Created goal %s\n", g.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in.Title, "title", "", "goal title")
	cmd.Flags().StringVar(&in.Description, "description", "", "goal description, sent to the evaluator")
	cmd.Flags().StringVar(&in.TargetMetric, "target-metric", "", "metric the goal moves")
	cmd.Flags().StringVar(&in.Deadline, "deadline", "", "deadline (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func goalListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List goals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				goals := ws.Engine.Goals()
				if viper.GetBool("json") {
					return printJSON(goals)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"ID", "Title", "Target metric", "Deadline", "Created"})
				for _, g := range goals {
					tw.AppendRow(table.Row{g.ID, g.Title, g.TargetMetric, g.Deadline, g.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func goalShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <goal-id>",
		Short: "Show a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				g, err := ws.Engine.Goal(args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(g)
			})
		},
	}
}

func ideaCmd() *cobra.Command {
	i := &cobra.Command{
		Use:   "idea",
		Short: "Submit and move ideas through the gate",
		Long:  "Ideas are scored on submit and land in GATED. Only START ideas can be approved.",
	}
	i.AddCommand(ideaSubmitCmd())
	i.AddCommand(ideaListCmd())
	i.AddCommand(ideaShowCmd())
	i.AddCommand(ideaTransitionCmd(lifecycle.ActionApprove, "Approve a START idea"))
	i.AddCommand(ideaTransitionCmd(lifecycle.ActionArchive, "Archive a gated idea"))
	i.AddCommand(ideaTransitionCmd(lifecycle.ActionSchedule, "Schedule an idea in production"))
	i.AddCommand(ideaVariantsCmd())
	i.AddCommand(ideaBriefCmd())
	return i
}

func ideaSubmitCmd() *cobra.Command {
	var in engine.IdeaInput
	var contentFile string
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit an idea to the decision gate",
		RunE: func(cmd *cobra.Command, args []string) error {
			if contentFile != "" {
				data, err := readContent(contentFile)
				if err != nil {
					return err
				}
				in.Content = string(data)
			}
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				idea, err := ws.Engine.SubmitIdea(ctx, in)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(idea)
				}
				fmt.Printf("Idea %s is %s: total %.2f, %s\n", idea.ID, idea.Status, idea.CDFScore.TotalScore, idea.CDFScore.Decision)
				if idea.CDFScore.Rationale != "" {
					fmt.Println(idea.CDFScore.Rationale)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in.Title, "title", "", "idea title")
	cmd.Flags().StringVar(&in.Content, "content", "", "idea content")
	cmd.Flags().StringVar(&contentFile, "content-file", "", "read content from a file ('-' for stdin)")
	cmd.Flags().StringVar(&in.GoalID, "goal", "", "goal id")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("goal")
	return cmd
}

func ideaListCmd() *cobra.Command {
	var statuses []string
	var pipeline bool
	var goalID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ideas",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := engine.IdeaFilter{GoalID: goalID}
			for _, s := range statuses {
				st := domain.IdeaStatus(strings.ToUpper(strings.TrimSpace(s)))
				if !st.Valid() {
					return fmt.Errorf("unknown status %q", s)
				}
				f.Statuses = append(f.Statuses, st)
			}
			if pipeline && len(f.Statuses) == 0 {
				f.Statuses = engine.PipelineStatuses
			}
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				ideas := ws.Engine.Ideas(f)
				if viper.GetBool("json") {
					return printJSON(ideas)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"ID", "Title", "Status", "Score", "Decision", "Variants", "Brief"})
				for _, idea := range ideas {
					score, decision := "", ""
					if idea.CDFScore != nil {
						score = strconv.FormatFloat(idea.CDFScore.TotalScore, 'f', 2, 64)
						decision = string(idea.CDFScore.Decision)
					}
					tw.AppendRow(table.Row{idea.ID, idea.Title, idea.Status, score, decision, len(idea.Variants), idea.Brief != nil})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "status filter (repeatable or comma-separated)")
	cmd.Flags().BoolVar(&pipeline, "pipeline", false, "only APPROVED, PRODUCTION and SCHEDULED ideas")
	cmd.Flags().StringVar(&goalID, "goal", "", "goal filter")
	return cmd
}

func ideaShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <idea-id>",
		Short: "Show an idea with its score, variants and brief",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				idea, err := ws.Engine.Idea(args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(idea)
				}
				printIdea(idea)
				return nil
			})
		},
	}
}

func ideaTransitionCmd(action lifecycle.Action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(action) + " <idea-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				idea, err := ws.Engine.TransitionIdea(ctx, args[0], action)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(idea)
				}
				fmt.Printf("Idea %s is now %s\n", idea.ID, idea.Status)
				return nil
			})
		},
	}
}

func ideaVariantsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "variants <idea-id>",
		Short: "Generate content variants for an approved idea",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				idea, err := ws.Engine.GenerateVariants(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(idea.Variants)
				}
				printVariants(idea.Variants)
				return nil
			})
		},
	}
}

func ideaBriefCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "brief <idea-id>",
		Short: "Generate the production brief; moves the idea to PRODUCTION",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				idea, err := ws.Engine.GenerateBrief(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(idea)
				}
				printIdea(idea)
				return nil
			})
		},
	}
}

func logCmd() *cobra.Command {
	log := &cobra.Command{
		Use:   "log",
		Short: "Event log",
		Long:  "Every goal and idea change, newest first.",
	}
	log.AddCommand(logTailCmd())
	log.AddCommand(logStatsCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var f events.Filter
	var ideaID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ideaID != "" {
				f.EntityKind, f.EntityID = domain.EntityIdea, ideaID
			}
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				evts := ws.Engine.Events(f)
				if viper.GetBool("json") {
					return printJSON(evts)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"Event", "Timestamp", "Type", "Entity", "ID"})
				for _, evt := range evts {
					tw.AppendRow(table.Row{evt.EventID, evt.Timestamp, evt.Type, evt.EntityKind, evt.EntityID})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&f.Limit, "n", "n", 20, "number of events (0 for all)")
	cmd.Flags().StringVar(&f.Type, "type", "", "event type filter")
	cmd.Flags().StringVar(&f.EntityKind, "entity-kind", "", "entity kind (goal, idea)")
	cmd.Flags().StringVar(&f.EntityID, "entity-id", "", "entity id")
	cmd.Flags().StringVar(&ideaID, "idea", "", "events of one idea")
	return cmd
}

func logStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Analytics summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				st := ws.Engine.Stats()
				if viper.GetBool("json") {
					return printJSON(st)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"Metric", "Value"})
				tw.AppendRow(table.Row{"goals", st.Goals})
				tw.AppendRow(table.Row{"ideas", st.Ideas})
				tw.AppendRow(table.Row{"events", st.Events})
				tw.AppendRow(table.Row{"average score", strconv.FormatFloat(st.AverageScore, 'f', 2, 64)})
				for _, s := range domain.Statuses {
					if n := st.IdeasByStatus[s]; n > 0 {
						tw.AppendRow(table.Row{"ideas " + string(s), n})
					}
				}
				for _, d := range []domain.Decision{domain.DecisionStart, domain.DecisionStop} {
					tw.AppendRow(table.Row{"decisions " + string(d), st.Decisions[d]})
				}
				for _, t := range []string{domain.EventGoalCreated, domain.EventIdeaCreated, domain.EventIdeaUpdated} {
					tw.AppendRow(table.Row{t, st.EventsByType[t]})
				}
				tw.Render()

				days := newTable()
				days.AppendHeader(table.Row{"Day", "Events"})
				for _, d := range st.EventsPerDay {
					days.AppendRow(table.Row{d.Date, d.Count})
				}
				days.Render()
				return nil
			})
		},
	}
}

func scoreCmd() *cobra.Command {
	var subs scoring.SubScores
	var rationale, reported string
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Run the decision gate on raw sub-scores",
		Long:  "Scores with the workspace weights and threshold. --reported checks another decision against the local formula.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			w, threshold := cfg.Scoring.Weights, cfg.Scoring.Threshold
			score := scoring.Score(subs, w, threshold, rationale)
			var agrees *bool
			if reported != "" {
				r := score
				r.Decision = domain.Decision(strings.ToUpper(reported))
				if r.Decision != domain.DecisionStart && r.Decision != domain.DecisionStop {
					return fmt.Errorf("reported decision must be START or STOP, got %q", reported)
				}
				_, mismatch := scoring.Check(r, w, threshold)
				ok := mismatch == nil
				agrees = &ok
			}
			if viper.GetBool("json") {
				return printJSON(map[string]any{"score": score, "weights": w, "threshold": threshold, "agrees": agrees})
			}
			fmt.Printf("total %.4f -> %s (threshold %.2f)\n", score.TotalScore, score.Decision, threshold)
			if agrees != nil && !*agrees {
				fmt.Printf("reported %s disagrees with the local formula\n", strings.ToUpper(reported))
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&subs.Alignment, "alignment", 0, "alignment sub-score")
	cmd.Flags().Float64Var(&subs.Feasibility, "feasibility", 0, "feasibility sub-score")
	cmd.Flags().Float64Var(&subs.Impact, "impact", 0, "impact sub-score")
	cmd.Flags().Float64Var(&subs.Novelty, "novelty", 0, "novelty sub-score")
	cmd.Flags().StringVar(&rationale, "rationale", "", "rationale to attach")
	cmd.Flags().StringVar(&reported, "reported", "", "decision to check (START or STOP)")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		Long:  "Serves the API. Set ARCHITECT_JWT_SECRET (or --jwt-secret) to require bearer tokens.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				if addr == "" {
					addr = ws.Config.Server.Addr
				}
				if basePath == "" {
					basePath = ws.Config.Server.BasePath
				}
				logger := slog.Default().With("component", "server")
				handler, err := server.New(server.Config{
					Engine:   ws.Engine,
					BasePath: basePath,
					Auth:     server.AuthConfig{JWTSecret: viper.GetString("jwt-secret"), Logger: logger},
					Logger:   logger,
				})
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				logger.Info("serving", "addr", addr, "base_path", basePath)
				fmt.Printf("Serving Architect API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs, metrics at /metrics)\n", addr, basePath, basePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from architect.yml)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path (default from architect.yml)")
	cmd.Flags().String("jwt-secret", "", "HS256 secret for bearer tokens")
	_ = viper.BindPFlag("jwt-secret", cmd.Flags().Lookup("jwt-secret"))
	return cmd
}

// withWorkspace opens the workspace session, sets up logging from
// architect.yml and the --log-level flag, and closes everything after fn.
func withWorkspace(ctx context.Context, fn func(context.Context, *app.Workspace) error) error {
	workspace := viper.GetString("workspace")
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return err
	}
	level := cfg.Log.Level
	if l := viper.GetString("log-level"); l != "" {
		level = l
	}
	logger, closer, err := logs.New(logs.Options{Level: level, Format: cfg.Log.Format, File: cfg.Log.File})
	if err != nil {
		return err
	}
	defer closer.Close()
	slog.SetDefault(logger)

	ws, err := app.Open(ctx, app.Options{Workspace: workspace, Config: cfg, Logger: logger})
	if err != nil {
		return err
	}
	defer ws.Close()
	return fn(ctx, ws)
}

func readContent(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	return tw
}

func printIdea(idea domain.Idea) {
	tw := newTable()
	tw.AppendRow(table.Row{"ID", idea.ID})
	tw.AppendRow(table.Row{"Title", idea.Title})
	tw.AppendRow(table.Row{"Status", idea.Status})
	if idea.GoalID != nil {
		tw.AppendRow(table.Row{"Goal", *idea.GoalID})
	}
	if s := idea.CDFScore; s != nil {
		tw.AppendRow(table.Row{"Score", fmt.Sprintf("%.2f %s (A %.2f / F %.2f / I %.2f / N %.2f)",
			s.TotalScore, s.Decision, s.Alignment, s.Feasibility, s.Impact, s.Novelty)})
		tw.AppendRow(table.Row{"Rationale", s.Rationale})
	}
	tw.AppendRow(table.Row{"Created", idea.CreatedAt})
	tw.Render()
	fmt.Println(idea.Content)
	if len(idea.Variants) > 0 {
		printVariants(idea.Variants)
	}
	if b := idea.Brief; b != nil {
		bt := newTable()
		bt.AppendHeader(table.Row{"Brief", "Items"})
		bt.AppendRow(table.Row{"Storyboard", strings.Join(b.Storyboard, "\n")})
		bt.AppendRow(table.Row{"Assets", strings.Join(b.AssetsList, "\n")})
		bt.AppendRow(table.Row{"Shots", strings.Join(b.ShotList, "\n")})
		bt.AppendRow(table.Row{"Edit notes", b.EditNotes})
		bt.Render()
	}
}

func printVariants(vs []domain.Variant) {
	tw := newTable()
	tw.AppendHeader(table.Row{"#", "Title", "Format", "Length", "Hook", "CTA", "Confidence"})
	for i, v := range vs {
		tw.AppendRow(table.Row{i + 1, v.Title, v.Format, v.Length, v.Hook, v.SuggestedCTA, strconv.FormatFloat(v.ConfidenceScore, 'f', 2, 64)})
	}
	tw.Render()
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
