package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	langfeatures "github.com/reglet-dev/reglet-langfeatures"
	"github.com/reglet-dev/reglet-langfeatures/feature"
	"github.com/reglet-dev/reglet-langfeatures/parser"
	"github.com/reglet-dev/reglet-langfeatures/parser/filesystem"
	"github.com/reglet-dev/reglet-langfeatures/registry"
	"github.com/reglet-dev/reglet-langfeatures/validation"
)

func newWatchCommand(opts *globalOptions) *cobra.Command {
	var (
		to       trustOptions
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch <manifest-dir>",
		Short: "Reload manifests as they change",
		Long: `Watch loads a manifest directory, then reloads it whenever a manifest is
written, added or removed. Each reload replaces the previous registrations;
a reload that fails keeps the last good set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			logger := opts.logger(cmd.ErrOrStderr())
			out := cmd.OutOrStdout()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc := langfeatures.New(
				langfeatures.WithLogger(logger),
				langfeatures.WithHostVersion(opts.hostVersion),
			)
			defer svc.Close()

			if _, err := to.install(cmd, svc, logger); err != nil {
				return err
			}

			current, err := loadDir(ctx, svc, dir, logger)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "watching %s, %d provider(s)\n", dir, providerCount(svc))

			v, err := validation.NewManifestValidator()
			if err != nil {
				return err
			}
			repo := filesystem.NewManifestRepository(filesystem.WithValidator(v), filesystem.WithLogger(logger))
			w := filesystem.NewWatcher(repo,
				filesystem.WithWatcherLogger(logger),
				filesystem.WithDebounce(debounce))

			return w.Watch(ctx, dir, func(manifests []*parser.Manifest, err error) {
				var next registry.Disposable
				if err == nil {
					next, err = loadManifests(svc, manifests)
				}
				if err != nil {
					_, _ = fmt.Fprintf(out, "reload failed: %v; keeping %d provider(s)\n", err, providerCount(svc))
					return
				}
				current.Dispose()
				current = next
				_, _ = fmt.Fprintf(out, "reloaded %d manifest(s), %d provider(s)\n", len(manifests), providerCount(svc))
			})
		},
	}

	to.addFlags(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", filesystem.DefaultDebounce, "quiet period before a burst of changes is reloaded")
	_ = cmd.Flags().MarkHidden("debounce")
	return cmd
}

func providerCount(svc *langfeatures.Service) int {
	n := 0
	for _, k := range feature.Kinds() {
		n += svc.Registry(k).Len()
	}
	return n
}
