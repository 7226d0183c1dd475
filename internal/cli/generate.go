package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wirecue/wirecue/internal/compiler"
	"github.com/wirecue/wirecue/internal/emit"
	"github.com/wirecue/wirecue/internal/model"
	"github.com/wirecue/wirecue/internal/source"
	"github.com/wirecue/wirecue/internal/store"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Output        string
	Package       string
	FuncName      string
	LocatorImport string
	Journal       string
}

// GenerateReport is the success payload of the generate command.
type GenerateReport struct {
	Records      int    `json:"records"`
	Environments int    `json:"environments"`
	Async        bool   `json:"async"`
	Declarations string `json:"declarations_fp"`
	Plan         string `json:"plan_fp"`
	Output       string `json:"output"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <manifest-dir>",
		Short: "Generate registration code from declaration manifests",
		Long: `Generate compiles the CUE declaration manifests in a directory into a
deterministic, environment-partitioned Go registration routine.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "wirecue_gen.go", "output file path")
	cmd.Flags().StringVar(&opts.Package, "package", "wireinit", "generated package name")
	cmd.Flags().StringVar(&opts.FuncName, "func", "RegisterDependencies", "generated routine name")
	cmd.Flags().StringVar(&opts.LocatorImport, "locator-import", emit.DefaultLocatorImport, "locator runtime import path")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "generation journal database path (empty disables journaling)")

	return cmd
}

func runGenerate(opts *GenerateOptions, manifestDir string, cmd *cobra.Command) error {
	formatter := formatterFor(cmd, opts.RootOptions)

	result, err := compiler.Generate(source.NewCUESource(manifestDir))
	if err != nil {
		return failCommand(formatter, ExitCommandError, err)
	}
	formatter.VerboseLog("Normalized %d declaration(s) from %s", len(result.Records), manifestDir)

	routine, err := emit.EmitPlan(result.Plan)
	if err != nil {
		return failCommand(formatter, ExitCommandError, err)
	}
	rendered, err := emit.RenderGo(routine, emit.RenderOptions{
		Package:       opts.Package,
		FuncName:      opts.FuncName,
		LocatorImport: opts.LocatorImport,
	})
	if err != nil {
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

	if err := os.WriteFile(opts.Output, rendered, 0644); err != nil {
		_ = formatter.Error(ErrCodeWrite, fmt.Sprintf("writing output file: %v", err), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: writing output file", ErrCodeWrite))
	}

	if opts.Journal != "" {
		if err := journalRun(cmd.Context(), opts.Journal, manifestDir, declFP, planFP, len(result.Records), formatter); err != nil {
			return err
		}
	}

	report := GenerateReport{
		Records:      len(result.Records),
		Environments: len(result.Plan.Envs),
		Async:        routine.Async,
		Declarations: declFP,
		Plan:         planFP,
		Output:       opts.Output,
	}
	if formatter.Format == "json" {
		return formatter.Success(report)
	}

	fmt.Fprintf(formatter.Writer, "✓ Generated %d registration(s) → %s\n", report.Records, report.Output)
	if report.Environments > 0 {
		fmt.Fprintf(formatter.Writer, "  environments: %d guarded block(s)\n", report.Environments)
	}
	if report.Async {
		fmt.Fprintln(formatter.Writer, "  routine: asynchronous (awaited declarations present)")
	}
	fmt.Fprintf(formatter.Writer, "  plan %s\n", report.Plan)
	return nil
}

// journalRun records the run and fails on plan drift: an unchanged
// declaration set must reproduce the previous plan byte for byte.
func journalRun(ctx context.Context, path, manifestDir, declFP, planFP string, records int, formatter *OutputFormatter) error {
	if ctx == nil {
		ctx = context.Background()
	}

	journal, err := store.Open(path)
	if err != nil {
		_ = formatter.Error(ErrCodeJournal, fmt.Sprintf("opening journal: %v", err), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: opening journal", ErrCodeJournal))
	}
	defer journal.Close()

	drift, err := journal.Verify(ctx, declFP, planFP)
	if err != nil {
		_ = formatter.Error(ErrCodeJournal, fmt.Sprintf("verifying journal: %v", err), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: verifying journal", ErrCodeJournal))
	}

	if recErr := journal.Record(ctx, &store.Run{
		ManifestDir:  manifestDir,
		Declarations: declFP,
		Plan:         planFP,
		Records:      records,
	}); recErr != nil {
		_ = formatter.Error(ErrCodeJournal, fmt.Sprintf("recording run: %v", recErr), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: recording run", ErrCodeJournal))
	}

	if drift != nil {
		_ = formatter.Error(ErrCodeDrift, drift.Error(), nil)
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %s", ErrCodeDrift, drift.Error()))
	}
	return nil
}
