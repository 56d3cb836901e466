package cli

import (
	"context"
	"fmt"

	"github.com/futig/fundqa-bot/internal/entity"
	"github.com/spf13/cobra"
)

// IndexStore is the vector index administration surface.
type IndexStore interface {
	EnsureIndex(ctx context.Context, index string) error
	PutMapping(ctx context.Context, index string) error
	DeleteIndex(ctx context.Context, index string) error
	AddSample(ctx context.Context, sample entity.Sample) (string, error)
	ListSamples(ctx context.Context, index, profile string) ([]entity.SearchMatch, error)
	DeleteSample(ctx context.Context, index, id string) error
	SearchText(ctx context.Context, profile string, topK int, index, text string) ([]entity.SearchMatch, error)
}

type Asker interface {
	AnswerDetailed(ctx context.Context, input string) (*entity.ChatTrace, error)
}

// Runtime is what the commands operate on once configuration is loaded.
type Runtime struct {
	Store   IndexStore
	Chat    Asker
	Index   string
	Profile string
	TopK    int
	Close   func()
}

// Loader builds a Runtime for the given environment and config file.
type Loader func(ctx context.Context, env, configPath string) (*Runtime, error)

type app struct {
	load Loader
	rt   *Runtime

	env        string
	configPath string
	index      string
	output     string
}

// Execute runs the command tree with os.Args and releases the runtime afterwards.
func Execute(ctx context.Context, load Loader) error {
	root, a := newRootCommand(load)
	defer a.close()

	return root.ExecuteContext(ctx)
}

func newRootCommand(load Loader) (*cobra.Command, *app) {
	a := &app{load: load}

	root := &cobra.Command{
		Use:   "index-admin",
		Short: "Manage the fund Q&A sample index",
		Long: `Create and inspect the vector index that holds curated question/answer samples,
and run the question answering pipeline from the command line.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.env, "env", "local", "Environment to run (local, prod, or custom)")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to the YAML configuration file")
	root.PersistentFlags().StringVar(&a.index, "index", "", "Index name (default from config)")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", "text", "Output format: text or json")

	root.AddCommand(
		a.initCommand(),
		a.putMappingCommand(),
		a.deleteCommand(),
		a.addSampleCommand(),
		a.listSamplesCommand(),
		a.deleteSampleCommand(),
		a.searchCommand(),
		a.askCommand(),
	)

	return root, a
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.output != "text" && a.output != "json" {
		return fmt.Errorf("%w: output must be text or json, got %q", entity.ErrInvalidParameter, a.output)
	}

	rt, err := a.load(cmd.Context(), a.env, a.configPath)
	if err != nil {
		return fmt.Errorf("load runtime: %w", err)
	}
	a.rt = rt

	if a.index == "" {
		a.index = rt.Index
	}
	return nil
}

func (a *app) close() {
	if a.rt != nil && a.rt.Close != nil {
		a.rt.Close()
	}
}
