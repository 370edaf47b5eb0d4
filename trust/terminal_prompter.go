package trust

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/x/term"
)

type answer int

const (
	answerDeny answer = iota
	answerSession
	answerAlways
)

// TerminalPrompter asks about unknown roots with a huh select prompt.
// Roots rated RiskHigh or above can only be trusted for the session.
type TerminalPrompter struct {
	in  *os.File
	out io.Writer
}

var _ Prompter = (*TerminalPrompter)(nil)

// TerminalPrompterOption configures a TerminalPrompter.
type TerminalPrompterOption func(*TerminalPrompter)

// WithPromptInput sets the terminal read from. Defaults to os.Stdin.
func WithPromptInput(in *os.File) TerminalPrompterOption {
	return func(p *TerminalPrompter) {
		if in != nil {
			p.in = in
		}
	}
}

// WithPromptOutput sets where risk warnings are written. Defaults to os.Stderr.
func WithPromptOutput(out io.Writer) TerminalPrompterOption {
	return func(p *TerminalPrompter) {
		if out != nil {
			p.out = out
		}
	}
}

// NewTerminalPrompter creates a TerminalPrompter.
func NewTerminalPrompter(opts ...TerminalPrompterOption) *TerminalPrompter {
	p := &TerminalPrompter{in: os.Stdin, out: os.Stderr}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IsInteractive reports whether the input is a terminal. Character devices
// such as /dev/null do not count.
func (p *TerminalPrompter) IsInteractive() bool {
	return term.IsTerminal(p.in.Fd())
}

// PromptForTrust shows the risk of req.Root and asks whether providers may
// act on documents below it.
func (p *TerminalPrompter) PromptForTrust(req Request) (trusted bool, always bool, err error) {
	if req.Risk.Level >= RiskMedium {
		writeRiskSummary(p.out, req)
	}

	selected := answerDeny
	sel := huh.NewSelect[answer]().
		Title(fmt.Sprintf("Trust documents under %s?", req.Root)).
		Description(req.Description).
		Options(answerOptions(req)...).
		Value(&selected)
	err = huh.NewForm(huh.NewGroup(sel)).
		WithInput(p.in).
		WithOutput(p.out).
		Run()
	if err != nil {
		return false, false, fmt.Errorf("trust prompt for %s: %w", req.Root, err)
	}

	switch selected {
	case answerAlways:
		return true, true, nil
	case answerSession:
		return true, false, nil
	default:
		return false, false, nil
	}
}

// answerOptions lists the choices for req, denial first so that it is the
// default. Broad roots are never offered for persistence.
func answerOptions(req Request) []huh.Option[answer] {
	opts := []huh.Option[answer]{
		huh.NewOption("No, keep providers off here", answerDeny),
		huh.NewOption("Yes, for this session", answerSession),
	}
	if !req.IsBroad {
		opts = append(opts, huh.NewOption("Always (remember in "+DefaultStorePath()+")", answerAlways))
	}
	return opts
}

func writeRiskSummary(w io.Writer, req Request) {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s risk: %s\n", strings.ToUpper(req.Risk.Level.String()), req.Root)
	for _, f := range req.Risk.RiskFactors {
		fmt.Fprintf(&b, "  - %s\n", f.Description)
	}
	if req.IsBroad {
		b.WriteString("  Trust the narrowest folder that contains your work instead.\n")
	}
	b.WriteString("\n")
	_, _ = io.WriteString(w, b.String())
}

// FormatNonInteractiveError explains how to trust req.Root without a terminal.
func (p *TerminalPrompter) FormatNonInteractiveError(req Request) error {
	return fmt.Errorf("%w: %s (%s risk); no terminal to ask on. "+
		"Pass --trusted-root %s, use the permissive security level, or add it to %s",
		ErrUntrusted, req.Root, req.Risk.Level, req.Root, DefaultStorePath())
}
