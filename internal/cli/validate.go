package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reglet-dev/reglet-langfeatures/parser"
	"github.com/reglet-dev/reglet-langfeatures/validation"
)

// errValidationFailed is returned after all files were reported so the
// process exits non-zero.
var errValidationFailed = errors.New("one or more manifests are invalid")

// ValidationOutput is the --json report for one manifest file.
type ValidationOutput struct {
	File   string   `json:"file"`
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

func newValidateCommand(opts *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate <manifest>...",
		Short: "Validate contribution manifests",
		Long: `Validate checks each manifest against the manifest schema, then the
semantic rules: known feature kinds, well-formed selectors and an engine
constraint that admits the host version.

Exit code 0 means every manifest is valid.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := validation.NewManifestValidator()
			if err != nil {
				return err
			}

			outputs := make([]ValidationOutput, 0, len(args))
			for _, path := range args {
				outputs = append(outputs, validateFile(v, path, opts.hostVersion))
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(outputs); err != nil {
					return err
				}
			} else {
				for _, o := range outputs {
					printValidation(cmd, o)
				}
			}

			for _, o := range outputs {
				if !o.Valid {
					return errValidationFailed
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output results as JSON")
	return cmd
}

func validateFile(v validation.Validator, path, hostVersion string) ValidationOutput {
	out := ValidationOutput{File: path}

	format, err := parser.FormatForFile(path)
	if err != nil {
		out.Errors = []string{err.Error()}
		return out
	}
	data, err := os.ReadFile(path)
	if err != nil {
		out.Errors = []string{err.Error()}
		return out
	}

	result, err := v.Validate(data, format)
	if err != nil {
		out.Errors = []string{err.Error()}
		return out
	}
	if !result.Valid {
		out.Errors = result.Errors
		return out
	}

	p, err := parser.NewParser(format)
	if err != nil {
		out.Errors = []string{err.Error()}
		return out
	}
	m, err := p.Parse(data)
	if err != nil {
		out.Errors = []string{err.Error()}
		return out
	}
	if err := validation.CheckEngine(m.Engine, hostVersion); err != nil {
		out.Errors = []string{err.Error()}
		return out
	}

	out.Valid = true
	return out
}

func printValidation(cmd *cobra.Command, o ValidationOutput) {
	w := cmd.OutOrStdout()
	if o.Valid {
		_, _ = fmt.Fprintf(w, "%s: ok\n", o.File)
		return
	}
	_, _ = fmt.Fprintf(w, "%s: invalid\n", o.File)
	for _, e := range o.Errors {
		_, _ = fmt.Fprintf(w, "  - %s\n", e)
	}
}
