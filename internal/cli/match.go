package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	langfeatures "github.com/reglet-dev/reglet-langfeatures"
	"github.com/reglet-dev/reglet-langfeatures/feature"
	"github.com/reglet-dev/reglet-langfeatures/parser"
	"github.com/reglet-dev/reglet-langfeatures/parser/filesystem"
	"github.com/reglet-dev/reglet-langfeatures/registry"
	"github.com/reglet-dev/reglet-langfeatures/selector"
	"github.com/reglet-dev/reglet-langfeatures/validation"
)

type matchOptions struct {
	kind         string
	contentType  string
	synchronized bool
	groups       bool
	trust        trustOptions
}

func newMatchCommand(opts *globalOptions) *cobra.Command {
	mo := &matchOptions{}

	cmd := &cobra.Command{
		Use:   "match <manifest-dir> <location>",
		Short: "Show the providers chosen for a document",
		Long: `Match loads every manifest in a directory, registers its contributions
and prints the providers of one feature kind that apply to the document,
most specific first. With trust enforced, documents outside trusted roots
keep only the providers registered without a selector.

Examples:
  langfeatures match ./manifests file:///work/pkg/a.json --kind hover --content-type json
  langfeatures match ./manifests untitled:Untitled-1 --kind completion --content-type go --groups
  langfeatures match ./manifests file:///tmp/a.json -t json --trusted-root /work --security-level strict`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := feature.ParseKind(mo.kind)
			if err != nil {
				return err
			}

			logger := opts.logger(cmd.ErrOrStderr())
			svc := langfeatures.New(
				langfeatures.WithLogger(logger),
				langfeatures.WithHostVersion(opts.hostVersion),
			)
			defer svc.Close()

			gk, err := mo.trust.install(cmd, svc, logger)
			if err != nil {
				return err
			}
			if gk != nil {
				authorizeFolder(cmd, gk, args[1])
			}

			if _, err := loadDir(cmd.Context(), svc, args[0], logger); err != nil {
				return err
			}

			doc := selector.Document{
				Location:     args[1],
				ContentType:  mo.contentType,
				Synchronized: mo.synchronized,
			}
			return printMatches(cmd, svc.Registry(kind), doc, mo.groups)
		},
	}

	cmd.Flags().StringVarP(&mo.kind, "kind", "k", string(feature.Hover), "feature kind to query")
	cmd.Flags().StringVarP(&mo.contentType, "content-type", "t", "", "content type of the document")
	cmd.Flags().BoolVar(&mo.synchronized, "synchronized", true, "whether the document is synchronized with the host")
	cmd.Flags().BoolVar(&mo.groups, "groups", false, "print providers grouped by equal score")
	mo.trust.addFlags(cmd)
	_ = cmd.MarkFlagRequired("content-type")
	return cmd
}

// loadDir registers every manifest in dir with svc and returns one handle
// that unregisters all of them.
func loadDir(ctx context.Context, svc *langfeatures.Service, dir string, logger *slog.Logger) (registry.Disposable, error) {
	v, err := validation.NewManifestValidator()
	if err != nil {
		return nil, err
	}
	repo := filesystem.NewManifestRepository(filesystem.WithValidator(v), filesystem.WithLogger(logger))

	manifests, err := repo.List(ctx, dir)
	if err != nil {
		return nil, err
	}
	return loadManifests(svc, manifests)
}

func loadManifests(svc *langfeatures.Service, manifests []*parser.Manifest) (registry.Disposable, error) {
	handles := make([]registry.Disposable, 0, len(manifests))
	for _, m := range manifests {
		h, err := svc.LoadManifest(m, providerName)
		if err != nil {
			registry.Combine(handles...).Dispose()
			return nil, err
		}
		handles = append(handles, h)
	}
	return registry.Combine(handles...), nil
}

// providerName stands in for real provider resolution: the CLI only reports
// which providers would be consulted.
func providerName(c parser.Contribution) (langfeatures.Provider, error) {
	return c.Provider, nil
}

func printMatches(cmd *cobra.Command, reg *registry.Registry[langfeatures.Provider], doc selector.Document, groups bool) error {
	w := cmd.OutOrStdout()

	if !groups {
		for _, p := range reg.Ordered(doc) {
			if _, err := fmt.Fprintln(w, p); err != nil {
				return err
			}
		}
		return nil
	}

	for i, group := range reg.OrderedGroups(doc) {
		if _, err := fmt.Fprintf(w, "%d:", i+1); err != nil {
			return err
		}
		for _, p := range group {
			if _, err := fmt.Fprintf(w, " %v", p); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
