package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/toyz/mockable/internal/cli"
	"github.com/toyz/mockable/internal/utils"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		cli.NewDiagnosticReporterTo(false, stderr, nil).ReportError(err)
		return 1
	}
	return 0
}

type flags struct {
	config    string
	module    string
	output    string
	prefix    string
	noRuntime bool
	local     bool
	unused    string
	verbose   bool
	quiet     bool
	dryRun    bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:   "mockable [directories...]",
		Short: "Generate fixed-return mocks from //mock:: directives",
		Long: `mockable scans Go packages for //mock::mockable, //mock::returns and
//mock::generate directives and writes one generated file per package.

Directory patterns:
  ./...              scan the current directory and all subdirectories
  ./internal/...     scan internal and its subdirectories
  ./pkg/store        scan one directory

Without arguments the current module is scanned with ./...`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, f, args, stdout, stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&f.config, "config", "", "configuration file (default: "+cli.DefaultConfigFile+" if present)")
	root.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "enable verbose output and detailed error reporting")
	root.PersistentFlags().BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	root.PersistentFlags().StringVar(&f.output, "output", "", "generated file name in each package (default: "+utils.DefaultGeneratedFileName+")")

	addGenerateFlags(root, f)

	generate := &cobra.Command{
		Use:   "generate [directories...]",
		Short: "Generate mocks (the default command)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, f, args, stdout, stderr)
		},
	}
	addGenerateFlags(generate, f)

	clean := &cobra.Command{
		Use:   "clean [directories...]",
		Short: "Delete generated mock files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd, f, args, stdout, stderr)
		},
	}

	root.AddCommand(generate, clean)
	return root
}

func addGenerateFlags(cmd *cobra.Command, f *flags) {
	cmd.Flags().StringVar(&f.module, "module", "", "module path for imports (default: read from go.mod)")
	cmd.Flags().StringVar(&f.prefix, "prefix", "", "prefix for derived mock names (default: Mock)")
	cmd.Flags().BoolVar(&f.noRuntime, "no-runtime", false, "do not import the mockable runtime; unconfigured methods panic with a string")
	cmd.Flags().BoolVar(&f.local, "always-local", false, "generate a mock for every mockable interface, even without arguments")
	cmd.Flags().StringVar(&f.unused, "unused", "", "unused override policy: warn|ignore|error")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "report what would be written without touching files")
}

// loadConfig reads the configuration file and applies the flags that were set
func loadConfig(cmd *cobra.Command, f *flags, args []string) (cli.Config, error) {
	path, required := cli.DefaultConfigFile, false
	if f.config != "" {
		path, required = f.config, true
	}

	cfg, err := cli.LoadConfig(path, required)
	if err != nil {
		return cfg, err
	}

	flagSet := cmd.Flags()
	if flagSet.Changed("module") {
		cfg.ModuleName = f.module
	}
	if flagSet.Changed("output") {
		cfg.Output = f.output
	}
	if flagSet.Changed("prefix") {
		cfg.MockPrefix = f.prefix
	}
	if flagSet.Changed("no-runtime") {
		cfg.Runtime = !f.noRuntime
	}
	if flagSet.Changed("always-local") {
		cfg.AlwaysLocal = f.local
	}
	if flagSet.Changed("unused") {
		cfg.UnusedOverrides = f.unused
	}
	cfg.Verbose = f.verbose
	cfg.Quiet = f.quiet
	cfg.DryRun = f.dryRun

	cfg.Directories = args
	if len(cfg.Directories) == 0 {
		cfg.Directories = []string{"./..."}
	}
	return cfg, cfg.Validate()
}

func newDiagnostics(cfg cli.Config, stdout, stderr io.Writer) *utils.DiagnosticSystem {
	var diagnostics *utils.DiagnosticSystem
	switch {
	case cfg.Quiet:
		diagnostics = utils.NewQuietDiagnostics()
	case cfg.Verbose:
		diagnostics = utils.NewVerboseDiagnostics()
	default:
		diagnostics = utils.NewDiagnosticSystem(utils.DiagnosticInfo)
	}
	diagnostics.SetOutput(stdout, stderr)
	return diagnostics
}

func runGenerate(cmd *cobra.Command, f *flags, args []string, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(cmd, f, args)
	if err != nil {
		return err
	}

	diagnostics := newDiagnostics(cfg, stdout, stderr)
	diagnostics.Header("generating mocks")
	if cfg.DryRun {
		diagnostics.Info("Dry run: no files will be written")
	}

	generator := cli.NewGenerator(cfg, diagnostics)
	if err := generator.Run(); err != nil {
		return err
	}
	generator.ReportSuccess()

	if cfg.Verbose {
		for _, file := range generator.GetSummary().GeneratedFiles {
			diagnostics.PhaseItem(file)
		}
	}
	return nil
}

func runClean(cmd *cobra.Command, f *flags, args []string, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(cmd, f, args)
	if err != nil {
		return err
	}

	diagnostics := newDiagnostics(cfg, stdout, stderr)
	diagnostics.Header("cleaning generated files")

	removed, err := cli.NewCleanerFor(cfg.OutputFile()).CleanGeneratedFiles(cfg.Directories)
	for _, file := range removed {
		diagnostics.PhaseProgress(fmt.Sprintf("Removing %s", file))
	}
	if err != nil {
		return err
	}

	diagnostics.Info("Removed %d generated files", len(removed))
	return nil
}
