package cli

import (
	"fmt"
	"log/slog"
	"path"

	"github.com/spf13/cobra"

	langfeatures "github.com/reglet-dev/reglet-langfeatures"
	"github.com/reglet-dev/reglet-langfeatures/location"
	"github.com/reglet-dev/reglet-langfeatures/trust"
)

type trustOptions struct {
	enforce       bool
	trustedRoots  []string
	securityLevel string
	storePath     string
}

func (o *trustOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.enforce, "enforce-trust", false, "give documents outside trusted roots no providers")
	cmd.Flags().StringSliceVar(&o.trustedRoots, "trusted-root", nil, "trust documents under this root for this run (implies --enforce-trust)")
	cmd.Flags().StringVar(&o.securityLevel, "security-level", string(trust.SecurityStandard), "how unknown roots are handled: strict, standard or permissive")
	cmd.Flags().StringVar(&o.storePath, "trust-store", "", "trust decisions file (default "+trust.DefaultStorePath()+")")
}

func (o *trustOptions) enabled() bool {
	return o.enforce || len(o.trustedRoots) > 0
}

func parseSecurityLevel(s string) (trust.SecurityLevel, error) {
	switch level := trust.SecurityLevel(s); level {
	case trust.SecurityStrict, trust.SecurityStandard, trust.SecurityPermissive:
		return level, nil
	default:
		return "", fmt.Errorf("unknown security level %q", s)
	}
}

// install builds a Gatekeeper and makes it the refine function of svc.
// It returns nil when trust is not enforced.
func (o *trustOptions) install(cmd *cobra.Command, svc *langfeatures.Service, logger *slog.Logger) (*trust.Gatekeeper, error) {
	if !o.enabled() {
		return nil, nil
	}

	level, err := parseSecurityLevel(o.securityLevel)
	if err != nil {
		return nil, err
	}

	gk := trust.NewGatekeeper(
		trust.WithStore(trust.NewFileStore(trust.WithPath(o.storePath))),
		trust.WithPrompter(trust.NewTerminalPrompter(trust.WithPromptOutput(cmd.ErrOrStderr()))),
		trust.WithSecurityLevel(level),
		trust.WithLogger(logger),
	)
	for _, root := range o.trustedRoots {
		if err := gk.Trust(root); err != nil {
			return nil, err
		}
	}

	svc.SetScoreRefineFunction(gk.Refine)
	return gk, nil
}

// authorizeFolder asks the gatekeeper about the folder holding loc when loc
// is not trusted yet. A refusal is reported but not fatal: the document then
// simply gets no providers.
func authorizeFolder(cmd *cobra.Command, gk *trust.Gatekeeper, loc string) {
	if gk.IsTrusted(loc) {
		return
	}
	l := location.Parse(loc)
	if (l.Scheme != "" && l.Scheme != "file") || l.Path == "" {
		return
	}
	if err := gk.Authorize(path.Dir(l.Path)); err != nil {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "providers disabled: %v\n", err)
	}
}
