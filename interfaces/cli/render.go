package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"ideamap/application/ports"
	"ideamap/domain/core/aggregates"
	"ideamap/domain/layout"
	"ideamap/infrastructure/config"
	"ideamap/interfaces/render"
)

type renderOptions struct {
	input  string
	output string
	rules  string
	title  string
	width  float64
	height float64
	scale  float64
}

var rendOpts renderOptions

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a saved tree without calling a model",
	Long: `Render lays out a tree saved as JSON and draws it. The input is either
a bare tree ({"centralTopic": ..., "problems": [...]}) or the JSON written by
"generate --out map.json". Task phases are not drawn.`,
	Example: `  ideamap render --in map.json --out map.svg
  ideamap render --in tree.json --out map.png --rules rules.yaml --scale 3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRender(cmd.OutOrStdout(), rendOpts)
	},
}

func init() {
	f := renderCmd.Flags()
	f.StringVarP(&rendOpts.input, "in", "i", "", "tree JSON file, - for stdin")
	f.StringVarP(&rendOpts.output, "out", "o", "", "output file (.svg or .png)")
	f.StringVar(&rendOpts.rules, "rules", "", "YAML sizing rules file")
	f.StringVar(&rendOpts.title, "title", "", "document title, defaults to the central topic")
	f.Float64Var(&rendOpts.width, "width", 0, "surface width, default 1200")
	f.Float64Var(&rendOpts.height, "height", 0, "surface height, default 800")
	f.Float64Var(&rendOpts.scale, "scale", 2, "PNG pixel scale")
	_ = renderCmd.MarkFlagRequired("in")
	_ = renderCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(renderCmd)
}

func runRender(out io.Writer, opts renderOptions) error {
	data, err := readInput(opts.input)
	if err != nil {
		return err
	}
	draft, err := decodeTree(data)
	if err != nil {
		return err
	}
	tree, err := aggregates.NewMindMap(1, draft)
	if err != nil {
		return fmt.Errorf("invalid tree: %w", err)
	}

	rules := layout.DefaultSizingRules()
	if opts.rules != "" {
		if rules, err = config.LoadRules(opts.rules); err != nil {
			return err
		}
	}
	surface := layout.DefaultSurface
	if opts.width > 0 && opts.height > 0 {
		surface = layout.Size{Width: opts.width, Height: opts.height}
	}

	result, err := layout.Compute(layout.FromMindMap(tree, nil, layout.Options{}), surface, rules)
	if err != nil {
		return err
	}

	var renderer ports.MapRenderer
	switch ext := strings.ToLower(filepath.Ext(opts.output)); ext {
	case ".svg":
		renderer = render.NewSVGRenderer()
	case ".png":
		renderer = render.NewPNGRenderer(opts.scale)
	default:
		return fmt.Errorf("unsupported output format %q, use .svg or .png", ext)
	}

	title := opts.title
	if title == "" {
		title = tree.Topic()
	}
	var buf bytes.Buffer
	if err := renderer.Render(&buf, result, ports.RenderOptions{Title: title}); err != nil {
		return err
	}
	if err := os.WriteFile(opts.output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.output, err)
	}

	fmt.Fprintf(out, "Wrote %s (%d nodes, %.0fx%.0f)\n", opts.output, len(result.Nodes), result.Canvas.Width, result.Canvas.Height)
	return nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// decodeTree accepts a bare tree or the output of generate
func decodeTree(data []byte) (aggregates.TreeDraft, error) {
	var saved struct {
		Tree struct {
			Tree aggregates.TreeDraft `json:"tree"`
		} `json:"tree"`
	}
	if err := json.Unmarshal(data, &saved); err == nil && saved.Tree.Tree.CentralTopic != "" {
		return saved.Tree.Tree, nil
	}

	var draft aggregates.TreeDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return aggregates.TreeDraft{}, fmt.Errorf("failed to parse tree: %w", err)
	}
	if draft.CentralTopic == "" {
		return aggregates.TreeDraft{}, fmt.Errorf("tree has no centralTopic")
	}
	return draft, nil
}
