// Package pipeline orchestrates a build end to end: source resolution,
// metadata and label derivation, the block-size probe, the free-space
// preflight, user confirmation, and the final builder run.
//
// Everything is sequential and synchronous. The one resource with a
// lifetime, the archive mount behind the source root, is released via defer
// on every exit path.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/pkgfoundry/ufs2pack/internal/archive"
	"github.com/pkgfoundry/ufs2pack/internal/config"
	"github.com/pkgfoundry/ufs2pack/internal/display"
	"github.com/pkgfoundry/ufs2pack/internal/label"
	"github.com/pkgfoundry/ufs2pack/internal/logging"
	"github.com/pkgfoundry/ufs2pack/internal/makefs"
	"github.com/pkgfoundry/ufs2pack/internal/metadata"
	"github.com/pkgfoundry/ufs2pack/internal/probe"
	"github.com/pkgfoundry/ufs2pack/internal/source"
	"github.com/pkgfoundry/ufs2pack/internal/term"
)

// ErrAborted is returned when the user declines the confirmation prompt.
var ErrAborted = errors.New("aborted by user")

// stdin is swappable for tests of the confirmation path.
var stdin io.Reader = os.Stdin

// Run locates the builder and executes the full build. All failures are
// returned to the caller; nothing is retried.
func Run(ctx context.Context, cfg *config.Config, log *logging.Logger) error {
	tool, err := makefs.Locate(cfg.MakefsPath)
	if err != nil {
		return err
	}
	log.Debug("builder: %s", tool.Path)
	return runWith(ctx, cfg, log, tool)
}

// runWith is Run with the builder injected, for tests.
func runWith(ctx context.Context, cfg *config.Config, log *logging.Logger, tool probe.Builder) error {
	// Source root; the backing mount (if any) is released on every path.
	root, err := source.Resolve(ctx, cfg.InputPath, archive.Options{
		Driver:       cfg.FuseArchivePath,
		Timeout:      cfg.MountTimeout,
		PollInterval: cfg.MountPollInterval,
	})
	if err != nil {
		return err
	}
	defer root.Close()

	if root.FromArch {
		log.Info("Archive mounted, source root: %s", root.Path)
	} else {
		log.Info("Source root: %s", root.Path)
	}

	param, err := metadata.Load(root.Path)
	if err != nil {
		return err
	}
	title, err := param.DisplayTitle()
	if err != nil {
		return err
	}
	log.Info("Title: %s (%s)", title, param.TitleID)

	lbl, err := resolveLabel(cfg, param.TitleID, title)
	if err != nil {
		return err
	}
	log.Info("Label: %s", lbl)

	// Probe the candidate block sizes against the source tree.
	progress := !cfg.Verbose && term.Enabled()
	res, err := probe.Run(ctx, tool, root.Path, string(cfg.Optimization), log, progress)
	if err != nil {
		return err
	}
	logTrials(log, res)

	best := res.Best
	log.Info("Selected block size %s (fragment %s), image size %s",
		display.FormatBlockSize(best.BlockSize),
		display.FormatBlockSize(best.FragSize),
		display.FormatBytes(best.Bytes))

	if err := checkFreeSpace(cfg.OutputImage, best.Bytes, log); err != nil {
		return err
	}

	if cfg.DryRun {
		log.Success("[DRY] Would build %s (%s, label %q)",
			cfg.OutputImage, display.FormatBytes(best.Bytes), lbl)
		return nil
	}

	if !cfg.AssumeYes {
		q := fmt.Sprintf("Build %s (%s)?", cfg.OutputImage, display.FormatBytes(best.Bytes))
		if !display.Confirm(stdin, q) {
			return ErrAborted
		}
	}

	return finalBuild(ctx, cfg, log, tool, root.Path, best, lbl)
}

// resolveLabel returns the user label or derives one from the metadata.
// Either way the result has already passed validation by the time the
// builder sees it.
func resolveLabel(cfg *config.Config, titleID, title string) (string, error) {
	if cfg.Label != "" {
		return cfg.Label, nil
	}
	lbl, err := label.Generate(titleID, title)
	if err != nil {
		return "", fmt.Errorf("derive label: %w", err)
	}
	if err := label.Validate(lbl); err != nil {
		return "", fmt.Errorf("derived label: %w", err)
	}
	return lbl, nil
}

// finalBuild runs the builder once more with the winning parameters and the
// label. A failed build must not leave a partial image behind.
func finalBuild(ctx context.Context, cfg *config.Config, log *logging.Logger, tool probe.Builder, root string, best *probe.Trial, lbl string) error {
	log.Info("Building %s…", cfg.OutputImage)
	start := time.Now()

	p := makefs.NewParams(best.BlockSize, string(cfg.Optimization), lbl)
	out, err := tool.Run(ctx, p, cfg.OutputImage, root, cfg.Verbose)
	if err != nil {
		os.Remove(cfg.OutputImage)
		if !cfg.Verbose {
			logOutputTail(log, out)
		}
		return fmt.Errorf("builder failed: %w", err)
	}

	fi, err := os.Stat(cfg.OutputImage)
	if err != nil {
		return fmt.Errorf("builder reported success but %s is missing: %w", cfg.OutputImage, err)
	}

	log.Success("Image ready: %s (%s) in %ds",
		cfg.OutputImage, display.FormatBytes(fi.Size()), int(time.Since(start).Seconds()))
	return nil
}

// checkFreeSpace fails the run early when the output volume cannot hold the
// estimated image.
func checkFreeSpace(outputImage string, estimate int64, log *logging.Logger) error {
	dir := filepath.Dir(outputImage)
	usage, err := disk.Usage(dir)
	if err != nil {
		// Exotic filesystems may not be statable; the final build will
		// surface a real shortage anyway.
		log.Debug("free-space check skipped: %v", err)
		return nil
	}
	log.Debug("free space on %s: %s", dir, display.FormatBytes(int64(usage.Free)))
	if usage.Free < uint64(estimate) {
		return fmt.Errorf("not enough free space on %s: need %s, have %s",
			dir, display.FormatBytes(estimate), display.FormatBytes(int64(usage.Free)))
	}
	return nil
}

// logTrials prints the per-candidate probe outcome.
func logTrials(log *logging.Logger, res *probe.Result) {
	for _, t := range res.Trials {
		if t.Err != nil {
			log.Warn("  bsize %-7s -> excluded (%v)", display.FormatBlockSize(t.BlockSize), t.Err)
			continue
		}
		log.Info("  bsize %-7s -> %s", display.FormatBlockSize(t.BlockSize), display.FormatBytes(t.Bytes))
	}
}

// logOutputTail echoes the last lines of captured builder output after a
// failure, so the cause is visible without rerunning in verbose mode.
func logOutputTail(log *logging.Logger, out string) {
	out = strings.TrimSpace(out)
	if out == "" {
		return
	}
	log.Error("Last builder output:")
	lines := strings.Split(out, "\n")
	start := 0
	if len(lines) > 20 {
		start = len(lines) - 20
	}
	for _, l := range lines[start:] {
		log.Error("  %s", l)
	}
}
