package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wirecue/wirecue/internal/compiler"
	"github.com/wirecue/wirecue/internal/model"
	"github.com/wirecue/wirecue/internal/source"
)

// CheckReport is the success payload of the check command.
type CheckReport struct {
	Records      int    `json:"records"`
	Environments int    `json:"environments"`
	Declarations string `json:"declarations_fp"`
	Plan         string `json:"plan_fp"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <manifest-dir>",
		Short: "Validate declaration manifests without generating code",
		Long: `Check runs the full pipeline - normalization, conflict detection, cycle
detection, ordering - and reports the first failure. Nothing is written.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runCheck(rootOpts *RootOptions, manifestDir string, cmd *cobra.Command) error {
	formatter := formatterFor(cmd, rootOpts)

	result, err := compiler.Generate(source.NewCUESource(manifestDir))
	if err != nil {
		// Manifest access problems are command errors; a declaration
		// set the pipeline rejects is a check failure.
		var lErr *source.LoadError
		if errors.As(err, &lErr) && lErr.Code != source.ErrCodeMalformed {
			return failCommand(formatter, ExitCommandError, err)
		}
		var vErr *compiler.ValidationError
		var cErr *compiler.CycleError
		if errors.As(err, &vErr) || errors.As(err, &cErr) || errors.As(err, &lErr) {
			return failCommand(formatter, ExitFailure, err)
		}
		return failCommand(formatter, ExitCommandError, err)
	}

	declFP, err := model.DeclarationsFingerprint(result.Records)
	if err != nil {
		return failCommand(formatter, ExitCommandError, err)
	}
	planFP, err := result.Plan.Fingerprint()
	if err != nil {
		return failCommand(formatter, ExitCommandError, err)
	}

	report := CheckReport{
		Records:      len(result.Records),
		Environments: len(result.Plan.Envs),
		Declarations: declFP,
		Plan:         planFP,
	}
	if formatter.Format == "json" {
		return formatter.Success(report)
	}

	fmt.Fprintf(formatter.Writer, "✓ %d declaration(s) valid\n", report.Records)
	fmt.Fprintf(formatter.Writer, "  declarations %s\n", report.Declarations)
	fmt.Fprintf(formatter.Writer, "  plan %s\n", report.Plan)
	return nil
}
