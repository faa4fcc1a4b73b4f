package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"ideamap/application/commands"
	"ideamap/application/queries"
	"ideamap/domain/core/aggregates"
	"ideamap/infrastructure/config"
	"ideamap/infrastructure/di"
)

type generateOptions struct {
	interests string
	skills    string
	trends    string
	language  string
	provider  string
	model     string
	output    string
	phases    bool
	width     float64
	height    float64
	logLevel  string
}

var genOpts generateOptions

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a mind map from a founder profile",
	Long: `Generate runs both generation stages and waits for every task
breakdown. The outline is printed to stdout; with --out the map is also
written to a file whose extension (.svg, .png or .json) picks the format.`,
	Example: `  ideamap generate --interests "coffee" --skills "marketing" --out map.svg
  MODEL_PROVIDER=gemini GEMINI_API_KEY=... ideamap generate --interests "travel" --lang vi --out map.png`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd.Context(), cmd.OutOrStdout(), genOpts)
	},
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&genOpts.interests, "interests", "", "interests and passions")
	f.StringVar(&genOpts.skills, "skills", "", "skills and expertise")
	f.StringVar(&genOpts.trends, "trends", "", "observed market trends")
	f.StringVar(&genOpts.language, "lang", "en", "output language (en, vi)")
	f.StringVar(&genOpts.provider, "provider", "", "model provider, overrides MODEL_PROVIDER")
	f.StringVar(&genOpts.model, "model", "", "model name, overrides MODEL_NAME")
	f.StringVarP(&genOpts.output, "out", "o", "", "write the map to this file")
	f.BoolVar(&genOpts.phases, "phases", true, "draw task phases under each idea")
	f.Float64Var(&genOpts.width, "width", 0, "surface width, default 1200")
	f.Float64Var(&genOpts.height, "height", 0, "surface height, default 800")
	f.StringVar(&genOpts.logLevel, "log-level", "warn", "log level")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(ctx context.Context, out io.Writer, opts generateOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.provider != "" {
		cfg.ModelProvider = opts.provider
	}
	if opts.model != "" {
		cfg.ModelName = opts.model
	}
	cfg.LogLevel = opts.logLevel
	cfg.EnableMetrics = false
	if err := cfg.Validate(); err != nil {
		return err
	}

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer cleanup()
	defer func() { _ = container.Logger.Sync() }()

	sessionID := uuid.New().String()
	if err := container.CommandBus.Send(ctx, commands.CreateSessionCommand{SessionID: sessionID}); err != nil {
		return err
	}
	err = container.CommandBus.Send(ctx, commands.SubmitGenerationCommand{
		SessionID:    sessionID,
		Interests:    opts.interests,
		Skills:       opts.skills,
		MarketTrends: opts.trends,
		Language:     opts.language,
		Wait:         true,
	})
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	treeResult, err := container.QueryBus.Ask(ctx, queries.GetTreeQuery{SessionID: sessionID})
	if err != nil {
		return err
	}
	tasksResult, err := container.QueryBus.Ask(ctx, queries.GetTasksQuery{SessionID: sessionID})
	if err != nil {
		return err
	}
	tree := treeResult.(*queries.TreeView)
	tasks := tasksResult.(*queries.TasksView)

	printOutline(out, tree.Tree, tasks)

	if opts.output == "" {
		return nil
	}
	body, err := renderOutput(ctx, container, sessionID, opts, tree, tasks)
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.output, body, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.output, err)
	}
	fmt.Fprintf(out, "\nWrote %s\n", opts.output)
	return nil
}

func renderOutput(ctx context.Context, container *di.Container, sessionID string, opts generateOptions, tree *queries.TreeView, tasks *queries.TasksView) ([]byte, error) {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(opts.output)), ".")
	switch format {
	case "json":
		return json.MarshalIndent(struct {
			Tree  *queries.TreeView  `json:"tree"`
			Tasks *queries.TasksView `json:"tasks"`
		}{tree, tasks}, "", "  ")
	case "svg", "png":
		result, err := container.QueryBus.Ask(ctx, queries.RenderMapQuery{
			SessionID:    sessionID,
			Format:       format,
			ExpandPhases: opts.phases,
			Width:        opts.width,
			Height:       opts.height,
		})
		if err != nil {
			return nil, err
		}
		return result.(*queries.RenderedMap).Body, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q, use .svg, .png or .json", filepath.Ext(opts.output))
	}
}

// printOutline writes the tree as an indented outline
func printOutline(out io.Writer, tree *aggregates.MindMap, tasks *queries.TasksView) {
	failed := make(map[string]bool, len(tasks.Failures))
	for _, f := range tasks.Failures {
		failed[f.IdeaID.String()] = true
	}
	phases := make(map[string]int, len(tasks.Breakdowns))
	for _, b := range tasks.Breakdowns {
		phases[b.CorrelationID().String()] = b.PhaseCount()
	}

	fmt.Fprintln(out, tree.Topic())
	for _, problem := range tree.Problems() {
		fmt.Fprintf(out, "  %s\n", problem.Title)
		for _, idea := range problem.Ideas {
			switch {
			case failed[idea.ID.String()]:
				fmt.Fprintf(out, "    - %s (task breakdown failed)\n", idea.Title)
			case phases[idea.ID.String()] > 0:
				fmt.Fprintf(out, "    - %s (%d phases)\n", idea.Title, phases[idea.ID.String()])
			default:
				fmt.Fprintf(out, "    - %s\n", idea.Title)
			}
		}
	}
}
