// Package config holds runtime configuration: defaults, environment
// overrides, CLI flag parsing, and validation.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/pkgfoundry/ufs2pack/internal/label"
)

// --- Enum types for validated string fields ---

// Optimization selects the allocation strategy passed to the image builder.
type Optimization string

const (
	OptimizeSpace Optimization = "space" // Smallest image (default).
	OptimizeTime  Optimization = "time"  // Faster access layout.
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Config holds all runtime settings. It is populated by [DefaultConfig] and
// then mutated by [ParseFlags] before being passed (by pointer) to packages
// that need it.
type Config struct {
	// Paths (set from positional args).
	InputPath   string // Game-data directory or archive file.
	OutputImage string // Path of the image to create.

	// Label. Empty means derive one from the metadata.
	Label string

	// External tools. Empty means search PATH (and well-known names).
	MakefsPath      string
	FuseArchivePath string

	// Builder settings.
	Optimization Optimization // Default: "space".

	// Archive mount settings.
	MountTimeout      time.Duration // Default: 10s. How long to wait for the mount.
	MountPollInterval time.Duration // Fixed: 100ms.

	// Behavior flags.
	AssumeYes bool // Skip the confirmation prompt.
	DryRun    bool // Probe and report, but do not build the final image.

	// Display and logging.
	Verbose   bool
	ColorMode ColorMode // Default: "auto".
	LogFile   string    // Optional log file path.
	CheckOnly bool      // Run --check diagnostics and exit.
}

// env holds the environment overrides applied on top of the built-in
// defaults. CLI flags still win over these.
type env struct {
	Makefs       string        `envconfig:"MAKEFS"`
	FuseArchive  string        `envconfig:"FUSE_ARCHIVE"`
	MountTimeout time.Duration `envconfig:"MOUNT_TIMEOUT"`
}

// DefaultConfig returns a Config with built-in defaults, then applies any
// UFS2PACK_* environment overrides. Used as the base before [ParseFlags]
// applies CLI flags.
func DefaultConfig() Config {
	cfg := Config{
		Optimization:      OptimizeSpace,
		MountTimeout:      10 * time.Second,
		MountPollInterval: 100 * time.Millisecond,
		ColorMode:         ColorAuto,
	}

	var e env
	if err := envconfig.Process("ufs2pack", &e); err == nil {
		if e.Makefs != "" {
			cfg.MakefsPath = e.Makefs
		}
		if e.FuseArchive != "" {
			cfg.FuseArchivePath = e.FuseArchive
		}
		if e.MountTimeout > 0 {
			cfg.MountTimeout = e.MountTimeout
		}
	}
	return cfg
}

// NormalizePathArg strips trailing slashes from a path argument.
// The filesystem root "/" is returned unchanged so we don't produce an
// empty string.
func NormalizePathArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks enum fields and, outside of CheckOnly mode, the required
// positional arguments and any user-supplied label. The label is rejected
// here, before any external tool is located or invoked.
func (c *Config) Validate() error {
	switch c.Optimization {
	case OptimizeSpace, OptimizeTime:
		// valid
	default:
		return errors.New("invalid optimization (use 'space' or 'time')")
	}

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	if c.MountTimeout <= 0 {
		return errors.New("mount timeout must be positive")
	}

	if c.CheckOnly {
		return nil
	}
	if c.InputPath == "" || c.OutputImage == "" {
		return errors.New("need exactly input path and output image")
	}
	if c.Label != "" {
		if err := label.Validate(c.Label); err != nil {
			return fmt.Errorf("invalid label: %w", err)
		}
	}
	return nil
}

// ValidatePaths ensures the resolved output image is not inside (or equal
// to) the resolved input directory, so the builder never packs its own
// output. Both arguments must be absolute, symlink-resolved paths.
func (c *Config) ValidatePaths(inputAbs, outputAbs string) error {
	sep := string(filepath.Separator)
	if outputAbs == inputAbs || strings.HasPrefix(outputAbs, inputAbs+sep) {
		return errors.New("output image must not be inside the input directory")
	}
	return nil
}
