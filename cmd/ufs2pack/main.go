// Command ufs2pack packs a game-data tree into a UFS2 filesystem image.
//
// It parses flags, validates configuration and paths, and either runs
// system diagnostics (--check) or the build pipeline: resolve the source
// root (directory or mounted archive), probe block sizes with the external
// builder, derive the volume label, and build the final image.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pkgfoundry/ufs2pack/internal/check"
	"github.com/pkgfoundry/ufs2pack/internal/config"
	"github.com/pkgfoundry/ufs2pack/internal/display"
	"github.com/pkgfoundry/ufs2pack/internal/logging"
	"github.com/pkgfoundry/ufs2pack/internal/pipeline"
)

// version and commit are injected at build time via -ldflags.
// When built with plain "go build" these retain their defaults.
var (
	version = "1.0.0-dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Phase 1: Bootstrap — the logger doesn't exist yet, so errors go
	// directly to stderr via fmt. Once NewLogger succeeds, all output goes
	// through the logger for consistent formatting and log-file capture.
	cfg := config.DefaultConfig()
	if err := config.ParseFlags(&cfg, version); err != nil {
		fmt.Fprintf(os.Stderr, "ufs2pack: %v\n", err)
		return 1
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "ufs2pack: %v\n", err)
		return 1
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ufs2pack: %v\n", err)
		return 1
	}
	defer log.Close()

	// Phase 2: Logger available — all output goes through log from here on.
	display.PrintBanner()

	if cfg.CheckOnly {
		if !check.RunCheck(&cfg, log) {
			return 1
		}
		return 0
	}

	// Resolve and validate paths: input must exist, and the output image
	// must not land inside the input tree (the builder would pack it).
	inputAbs, err := absPath(cfg.InputPath)
	if err != nil {
		log.Error("Input not found: %s", cfg.InputPath)
		return 1
	}
	outputDirAbs, err := absPath(filepath.Dir(cfg.OutputImage))
	if err != nil {
		log.Error("Output directory not found: %s", filepath.Dir(cfg.OutputImage))
		return 1
	}
	outputAbs := filepath.Join(outputDirAbs, filepath.Base(cfg.OutputImage))
	if err := cfg.ValidatePaths(inputAbs, outputAbs); err != nil {
		log.Error("%v", err)
		return 1
	}

	log.Info("=== ufs2pack v%s (%s) ===", version, commit)
	log.Info("In:  %s", cfg.InputPath)
	log.Info("Out: %s", cfg.OutputImage)
	if cfg.DryRun {
		log.Warn("DRY RUN — no image will be written")
	}
	log.Info("")

	// Fail fast if the builder (and, for archive input, FUSE support) is
	// unavailable, before any mounting or probing starts.
	needsArchive := false
	if fi, err := os.Stat(inputAbs); err == nil && !fi.IsDir() {
		needsArchive = true
	}
	if err := check.CheckDeps(&cfg, needsArchive); err != nil {
		log.Error("%v", err)
		return 1
	}

	// Phase 3: Signal handling — cancel context on SIGINT/SIGTERM so the
	// pipeline stops and the deferred mount teardown still runs.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("Received interrupt, cleaning up…")
		cancel()
	}()

	// Phase 4: Run the build pipeline.
	if err := pipeline.Run(ctx, &cfg, log); err != nil {
		if errors.Is(err, pipeline.ErrAborted) {
			log.Warn("%v", err)
		} else {
			log.Error("%v", err)
		}
		return 1
	}
	return 0
}

// absPath returns the absolute, symlink-resolved path for safe comparison
// of input vs output hierarchies.
func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
