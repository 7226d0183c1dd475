package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wirecue/wirecue/internal/compiler"
	"github.com/wirecue/wirecue/internal/model"
	"github.com/wirecue/wirecue/internal/source"
)

// PlanReport is the success payload of the plan command.
type PlanReport struct {
	Schema      string         `json:"schema"`
	Fingerprint string         `json:"fingerprint"`
	Plan        map[string]any `json:"plan"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <manifest-dir>",
		Short: "Print the ordered registration plan without generating code",
		Long: `Plan compiles the manifests and prints the resulting registration plan:
the unconditional statement sequence followed by each environment block,
in execution order.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runPlan(rootOpts *RootOptions, manifestDir string, cmd *cobra.Command) error {
	formatter := formatterFor(cmd, rootOpts)

	result, err := compiler.Generate(source.NewCUESource(manifestDir))
	if err != nil {
		return failCommand(formatter, ExitCommandError, err)
	}

	fp, err := result.Plan.Fingerprint()
	if err != nil {
		return failCommand(formatter, ExitCommandError, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(PlanReport{
			Schema:      model.PlanVersion,
			Fingerprint: fp,
			Plan:        result.Plan.Canonical(),
		})
	}

	fmt.Fprintf(formatter.Writer, "plan %s\n\n", fp)
	fmt.Fprintln(formatter.Writer, "unconditional:")
	printStatements(formatter, result.Plan.Unconditional)
	for _, env := range result.Plan.Envs {
		fmt.Fprintf(formatter.Writer, "\nenvironment %q:\n", env.Label)
		printStatements(formatter, env.Statements)
	}
	return nil
}

func printStatements(formatter *OutputFormatter, stmts []*model.DeclarationRecord) {
	if len(stmts) == 0 {
		fmt.Fprintln(formatter.Writer, "  (none)")
		return
	}
	for i, d := range stmts {
		line := fmt.Sprintf("  %2d. %-16s %s", i+1, d.Kind, d.Bound.Key())
		if d.Tag != "" {
			line += fmt.Sprintf(" #%s", d.Tag)
		}
		if d.Bound.Key() != d.Produced.Key() {
			line += fmt.Sprintf(" (= %s)", d.Produced.Key())
		}
		fmt.Fprintln(formatter.Writer, line)
	}
}
