package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/idelchi/filestat/internal/config"
	"github.com/idelchi/filestat/internal/filestat"
)

// CLI represents the command-line interface.
type CLI struct {
	version string
}

// New creates a new CLI instance with the given version.
func New(version string) CLI {
	return CLI{version: version}
}

// Execute runs the CLI with the process arguments until completion or interrupt.
func (c CLI) Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return c.Command().ExecuteContext(ctx)
}

// Command builds the command tree: the root command runs serially, the
// thread subcommand runs on a worker pool.
func (c CLI) Command() *cobra.Command {
	root := &cobra.Command{
		Use:   "filestat [flags]",
		Short: "Count files, directories and bytes for a list of paths.",
		Long: heredoc.Doc(`
			filestat reads paths, one per line, from stdin and reports how many are
			regular files, directories, special files, or could not be accessed,
			together with the byte totals of all regular files and of those that
			are human-readable text.

			Without a subcommand every path is classified one after the other.
			Use 'filestat thread [workers]' to classify paths on a pool of workers;
			both modes report identical totals.

			Settings can also be given in ./filestat.yaml (or .toml, .json),
			$HOME/.config/filestat/, a .env file, or FILESTAT_* environment variables,
			e.g. FILESTAT_WORKERS=8.
		`),
		Example: heredoc.Doc(`
			find /usr/include | filestat
			find /usr/include -print0 | filestat thread 8 -0
			filestat thread --walk ~/src --exclude '.*/\.git$' -o json
		`),
		Version:       c.version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execute(cmd, filestat.ModeSerial, 0)
		},
	}

	root.PersistentFlags().String("config", "", "Configuration file (default ./filestat.* or $HOME/.config/filestat/filestat.*)")
	config.RegisterFlags(root.PersistentFlags())

	thread := &cobra.Command{
		Use:   "thread [workers]",
		Short: "Classify paths on a fixed pool of worker goroutines.",
		Long: heredoc.Doc(`
			thread fans paths out to a fixed pool of workers sharing one work queue
			and one result. The optional positional argument overrides --workers.
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workers := 0

			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid worker count %q: %w", args[0], err)
				}

				workers = n
				if workers < 1 {
					return fmt.Errorf("%w: got %d", filestat.ErrInvalidWorkers, workers)
				}
			}

			return execute(cmd, filestat.ModeThread, workers)
		},
	}

	config.RegisterWorkerFlags(thread.Flags())

	root.AddCommand(thread)

	return root
}

// execute resolves the configuration and runs the analysis.
// workers > 0 overrides the configured pool size.
func execute(cmd *cobra.Command, mode filestat.Mode, workers int) error {
	cfgFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	cfg, err := config.Load(cmd.Flags(), cfgFile)
	if err != nil {
		return err
	}

	if workers > 0 {
		cfg.Workers = workers
	}

	return logic(cmd.Context(), mode, cfg, streams{
		in:  cmd.InOrStdin(),
		out: cmd.OutOrStdout(),
		err: cmd.ErrOrStderr(),
	})
}
