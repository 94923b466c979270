package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/strangelove-ventures/labeltest"
	"github.com/strangelove-ventures/labeltest/log"
	"github.com/strangelove-ventures/labeltest/selection"
	"go.uber.org/zap"
)

// app holds state shared by all subcommands.
type app struct {
	logFile, logFormat, logLevel string

	logger log.LoggerCloser
}

func (a *app) log() *zap.Logger {
	if a.logger.Logger == nil {
		return zap.NewNop()
	}
	return a.logger.Logger
}

func newRootCmd() *cobra.Command {
	a := new(app)

	root := &cobra.Command{
		Use:   "labeltest",
		Short: "Select, list and summarize labeled Go tests",
		Long: `Select, list and summarize Go tests labeled with labeltest.Mark.

Selections are expressions such as "integration,!slow":
tests with an excluded label never run, and if any label is included,
only tests carrying an included label run.
LABELTEST_LABELS, LABELTEST_SKIP_LABELS, LABELTEST_CONFIG and LABELTEST_SLOW
are honored in addition to flags.
`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lc, err := log.Open(a.logFile, a.logFormat, a.logLevel)
			if err != nil {
				return err
			}
			a.logger = lc
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.logger.Close()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.logFile, "log-file", "stderr", "File to write logs. A bare file name is written to $HOME/.labeltest/logs. Use 'stderr' or 'stdout' to print logs.")
	pf.StringVar(&a.logFormat, "log-format", "console", "Log format: console|json")
	pf.StringVar(&a.logLevel, "log-level", "warn", "Log level: debug|info|warn|error")

	root.AddCommand(
		newSelectCmd(a),
		newManifestCmd(a),
		newIngestCmd(a),
		newSummaryCmd(a),
		newVersionCmd(),
	)
	return root
}

// selectionFlags are shared by commands that apply a selection.
type selectionFlags struct {
	labels, skipLabels, config string
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.labels, "labels", "l", "", "Selection expression, e.g. 'integration,!slow'")
	cmd.Flags().StringVar(&f.skipLabels, "skip-labels", "", "Comma separated labels to exclude")
	cmd.Flags().StringVar(&f.config, "config", "", "Path to a TOML, YAML or JSON selection file")
}

func (f *selectionFlags) selection(lookup selection.LookupEnvFunc) (selection.Selection, error) {
	return labeltest.ResolveSelection(f.labels, f.skipLabels, f.config, lookup)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Prints git commit that produced executable",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), labeltest.GitSha)
		},
	}
}
