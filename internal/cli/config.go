package cli

import (
	stderrors "errors"
	"fmt"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/toyz/mockable/internal/driver"
	"github.com/toyz/mockable/internal/errors"
	"github.com/toyz/mockable/internal/generator"
	"github.com/toyz/mockable/internal/parser"
	"github.com/toyz/mockable/internal/utils"
)

// DefaultConfigFile is looked up in the working directory when no --config is given
const DefaultConfigFile = ".mockable.yaml"

// Config holds the configuration for the CLI generator
type Config struct {
	// Directories is the list of directories to scan for directives
	Directories []string `yaml:"-"`

	// Output is the per-package file name generated mocks are written to
	Output string `yaml:"output"`

	// Runtime makes unconfigured methods panic through pkg/mockable
	Runtime bool `yaml:"runtime"`

	// DuplicateMethods is "reject" or "last-wins"
	DuplicateMethods string `yaml:"duplicate_methods"`

	// LockRecovery is "best-effort" or "strict"
	LockRecovery string `yaml:"lock_recovery"`

	// UnusedOverrides is "warn", "ignore" or "error"
	UnusedOverrides string `yaml:"unused_overrides"`

	MockPrefix  string `yaml:"mock_prefix"`
	AlwaysLocal bool   `yaml:"always_local"`

	// ModuleName is the custom module name for imports
	// If empty, will be determined from go.mod file
	ModuleName string `yaml:"module"`

	Verbose bool `yaml:"-"`
	Quiet   bool `yaml:"-"`
	DryRun  bool `yaml:"-"`
}

// DefaultConfig returns the configuration used when no file is present
func DefaultConfig() Config {
	return Config{
		Output:           utils.DefaultGeneratedFileName,
		Runtime:          true,
		DuplicateMethods: parser.DuplicateReject.String(),
		LockRecovery:     utils.RecoveryBestEffort.String(),
		UnusedOverrides:  driver.UnusedWarn.String(),
		MockPrefix:       generator.DefaultMockPrefix,
	}
}

// LoadConfig reads a YAML configuration file over the defaults. A missing file
// is only an error when required is set.
func LoadConfig(path string, required bool) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return cfg, nil
		}
		return cfg, errors.WrapFileSystemError("open", path, err)
	}
	defer f.Close()

	if err := decodeConfig(f, &cfg); err != nil {
		return cfg, errors.WrapConfigError(path, err)
	}
	return cfg, nil
}

func decodeConfig(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks every field and reports all problems at once
func (c Config) Validate() error {
	problems := errors.NewMultipleErrors()

	if _, err := parser.ParseDuplicatePolicy(c.DuplicateMethods); err != nil {
		problems.Add(errors.AsMockableError(err))
	}
	if _, err := utils.ParseRecoveryMode(c.LockRecovery); err != nil {
		problems.Add(errors.AsMockableError(err))
	}
	if _, err := driver.ParseUnusedPolicy(c.UnusedOverrides); err != nil {
		problems.Add(errors.AsMockableError(err))
	}
	if c.MockPrefix != "" && !token.IsIdentifier(c.MockPrefix) {
		problems.Add(errors.NewConfigError("mock_prefix", c.MockPrefix).
			WithSuggestion("The prefix must be a valid Go identifier such as Mock or Fake"))
	}
	if c.Output != "" && (!strings.HasSuffix(c.Output, ".go") || strings.HasSuffix(c.Output, "_test.go") ||
		strings.ContainsRune(c.Output, '/') || strings.ContainsRune(c.Output, filepath.Separator)) {
		problems.Add(errors.NewConfigError("output", c.Output).
			WithSuggestion("Use a plain non-test .go file name such as " + utils.DefaultGeneratedFileName))
	}
	if c.Verbose && c.Quiet {
		problems.Add(errors.New(errors.ConfigErrorCode, "--verbose and --quiet cannot be combined"))
	}

	return problems.ErrOrNil()
}

// DuplicatePolicy returns the parsed duplicate_methods value
func (c Config) DuplicatePolicy() parser.DuplicatePolicy {
	policy, _ := parser.ParseDuplicatePolicy(c.DuplicateMethods)
	return policy
}

// RecoveryMode returns the parsed lock_recovery value
func (c Config) RecoveryMode() utils.RecoveryMode {
	mode, _ := utils.ParseRecoveryMode(c.LockRecovery)
	return mode
}

// DriverOptions returns the driver options the configuration selects
func (c Config) DriverOptions() driver.Options {
	unused, _ := driver.ParseUnusedPolicy(c.UnusedOverrides)
	return driver.Options{
		MockPrefix:      c.MockPrefix,
		AlwaysLocal:     c.AlwaysLocal,
		UnusedOverrides: unused,
	}
}

// OutputFile returns the generated file name, falling back to the default
func (c Config) OutputFile() string {
	if c.Output == "" {
		return utils.DefaultGeneratedFileName
	}
	return c.Output
}

// String summarizes the effective settings for verbose output
func (c Config) String() string {
	return fmt.Sprintf("output=%s runtime=%t duplicate_methods=%s lock_recovery=%s unused_overrides=%s mock_prefix=%s always_local=%t",
		c.OutputFile(), c.Runtime, c.DuplicatePolicy(), c.RecoveryMode(), c.DriverOptions().UnusedOverrides, c.MockPrefix, c.AlwaysLocal)
}
