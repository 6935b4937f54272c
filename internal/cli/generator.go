package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/toyz/mockable/internal/driver"
	"github.com/toyz/mockable/internal/errors"
	"github.com/toyz/mockable/internal/generator"
	"github.com/toyz/mockable/internal/models"
	"github.com/toyz/mockable/internal/parser"
	"github.com/toyz/mockable/internal/registry"
	"github.com/toyz/mockable/internal/utils"
)

// GenerationSummary describes what a run did
type GenerationSummary struct {
	PackagesProcessed int
	InterfacesFound   int
	MocksGenerated    int
	GeneratedFiles    []string
	RemovedFiles      []string
	Errors            int
	Warnings          int
}

// Generator coordinates the CLI generation process
type Generator struct {
	config         Config
	scanner        *DirectoryScanner
	moduleResolver *ModuleResolver
	cleaner        *Cleaner
	reporter       *DiagnosticReporter
	diagnostics    *utils.DiagnosticSystem
	summary        GenerationSummary
}

// NewGenerator creates a CLI generator for cfg. diagnostics may be nil.
func NewGenerator(cfg Config, diagnostics *utils.DiagnosticSystem) *Generator {
	if diagnostics == nil {
		diagnostics = utils.NewDiagnosticSystem(utils.DiagnosticInfo)
	}
	return &Generator{
		config:         cfg,
		scanner:        NewDirectoryScannerFor(cfg.OutputFile()),
		moduleResolver: NewModuleResolver(),
		cleaner:        NewCleanerFor(cfg.OutputFile()),
		reporter:       NewDiagnosticReporterTo(cfg.Verbose, diagnostics.ErrorOutput(), diagnostics),
		diagnostics:    diagnostics,
	}
}

// SetModuleResolver replaces the resolver, e.g. to search from a fixed directory
func (g *Generator) SetModuleResolver(r *ModuleResolver) {
	g.moduleResolver = r
}

// GetSummary returns the generation summary
func (g *Generator) GetSummary() GenerationSummary {
	return g.summary
}

// Run scans, parses and generates. Nothing is written when any error
// diagnostic is reported.
func (g *Generator) Run() error {
	startTime := time.Now()
	g.summary = GenerationSummary{}
	cfg := g.config

	if err := cfg.Validate(); err != nil {
		return err
	}

	g.diagnostics.Verbose("Starting code generation at %s", startTime.Format("15:04:05"))
	g.diagnostics.Debug("Configuration: %s", cfg)

	moduleName, err := g.moduleResolver.ResolveModuleName(cfg.ModuleName)
	if err != nil {
		return errors.Wrap(errors.ConfigErrorCode, "failed to resolve module name", err).
			WithSuggestions("Check your go.mod file exists and is valid", "Try specifying --module explicitly")
	}
	g.diagnostics.Debug("Resolved module name: %s", moduleName)

	g.diagnostics.PhaseHeader("Scanning")
	packageDirs, err := g.scanner.ScanDirectories(cfg.Directories)
	if err != nil {
		return errors.WrapFileSystemError("scan", fmt.Sprint(cfg.Directories), err)
	}
	if len(packageDirs) == 0 {
		return errors.New(errors.FileSystemErrorCode, "no Go packages found in specified directories").
			WithSuggestion("Use the './...' pattern to scan subdirectories")
	}
	g.diagnostics.PhaseItem(fmt.Sprintf("Found %d packages", len(packageDirs)))
	g.summary.PackagesProcessed = len(packageDirs)

	pkgs, err := g.parsePackages(moduleName, packageDirs)
	if err != nil {
		return err
	}

	g.diagnostics.PhaseHeader("Generating")
	d := driver.New(
		registry.NewStore(registry.WithRecoveryMode(cfg.RecoveryMode())),
		generator.NewGenerator(generator.WithRuntime(cfg.Runtime), generator.WithFileName(cfg.OutputFile())),
		cfg.DriverOptions(),
	)
	result := d.Run(pkgs)

	g.reporter.Report(result.Diagnostics)
	g.summary.Errors = len(result.Diagnostics.Errors())
	g.summary.Warnings = len(result.Diagnostics.Warnings())
	if result.Diagnostics.HasErrors() {
		return errors.Newf(errors.GenerationErrorCode, "generation failed with %d error(s)", g.summary.Errors)
	}

	if err := g.writeFiles(result.Files, packageDirs); err != nil {
		return err
	}

	g.diagnostics.Verbose("Finished in %s", time.Since(startTime).Round(time.Millisecond))
	return nil
}

func (g *Generator) parsePackages(moduleName string, packageDirs []string) ([]*models.PackageMetadata, error) {
	p := parser.NewParser(
		parser.WithDuplicatePolicy(g.config.DuplicatePolicy()),
		parser.WithGeneratedFileName(g.config.OutputFile()),
	)

	pkgs := make([]*models.PackageMetadata, 0, len(packageDirs))
	for _, dir := range packageDirs {
		importPath, err := g.moduleResolver.BuildPackagePath(moduleName, dir)
		if err != nil {
			return nil, errors.Wrap(errors.ConfigErrorCode, "failed to compute import path", err).
				WithContext("package_directory", dir)
		}

		metadata, err := p.ParseDirectory(dir, importPath)
		if err != nil {
			return nil, errors.Wrap(errors.GenerationErrorCode, fmt.Sprintf("failed to parse package %s", dir), err).
				WithSuggestion("Check for syntax errors in Go files")
		}

		g.diagnostics.Verbose("Parsed %s (%s): %d mockable interfaces, %d directives",
			importPath, metadata.PackageName, len(metadata.Interfaces), len(metadata.Directives))
		g.summary.InterfacesFound += len(metadata.Interfaces)
		pkgs = append(pkgs, metadata)
	}
	return pkgs, nil
}

func (g *Generator) writeFiles(files []*models.GeneratedFile, packageDirs []string) error {
	written := make(map[string]bool, len(files))

	for _, file := range files {
		written[filepath.Dir(file.FilePath)] = true
		g.summary.MocksGenerated += len(file.Mocks)
		g.summary.GeneratedFiles = append(g.summary.GeneratedFiles, file.FilePath)

		if g.config.DryRun {
			g.diagnostics.PhaseProgress(fmt.Sprintf("Would write %s (%d mocks)", file.FilePath, len(file.Mocks)))
			continue
		}
		g.diagnostics.PhaseProgress(fmt.Sprintf("Writing %s", file.FilePath))
		if err := utils.WriteGoFile(file.FilePath, file.Content); err != nil {
			return errors.WrapFileSystemError("write", file.FilePath, err)
		}
	}

	if g.config.DryRun {
		return nil
	}

	for _, dir := range packageDirs {
		if written[dir] {
			continue
		}
		removed, err := g.cleaner.RemoveStale(dir)
		if err != nil {
			return errors.WrapFileSystemError("remove", filepath.Join(dir, g.config.OutputFile()), err)
		}
		if removed != "" {
			g.diagnostics.PhaseProgress(fmt.Sprintf("Removing stale %s", removed))
			g.summary.RemovedFiles = append(g.summary.RemovedFiles, removed)
		}
	}
	return nil
}

// ReportSuccess prints the final summary
func (g *Generator) ReportSuccess() {
	stats := map[string]interface{}{
		"Packages processed": g.summary.PackagesProcessed,
		"Interfaces found":   g.summary.InterfacesFound,
		"Mocks generated":    g.summary.MocksGenerated,
		"Files written":      len(g.summary.GeneratedFiles),
		"Warnings":           g.summary.Warnings,
	}
	if len(g.summary.RemovedFiles) > 0 {
		stats["Stale files removed"] = len(g.summary.RemovedFiles)
	}
	g.diagnostics.Summary("Summary", stats)
	g.diagnostics.GenerationComplete()
}
