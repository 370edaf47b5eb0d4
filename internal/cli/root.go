// Package cli implements the langfeatures command line tool.
package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	langfeatures "github.com/reglet-dev/reglet-langfeatures"
)

type globalOptions struct {
	verbose     bool
	hostVersion string
}

// NewRootCommand builds the command tree. Diagnostics go to the command's
// error stream.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "langfeatures",
		Short: "Inspect feature contribution manifests",
		Long: `langfeatures validates contribution manifests and shows which providers
a host would pick for a document, in the order it would consult them.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&opts.hostVersion, "host-version", langfeatures.DefaultHostVersion,
		"host version manifests' engine constraints are checked against")

	root.AddCommand(
		newSchemaCommand(),
		newKindsCommand(),
		newValidateCommand(opts),
		newMatchCommand(opts),
		newWatchCommand(opts),
	)
	return root
}

func (o *globalOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
