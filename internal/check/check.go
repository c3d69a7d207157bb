// Package check provides system diagnostics (--check mode) and pre-run
// dependency validation for the external builder and the archive mount
// driver.
package check

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/pkgfoundry/ufs2pack/internal/archive"
	"github.com/pkgfoundry/ufs2pack/internal/config"
	"github.com/pkgfoundry/ufs2pack/internal/makefs"
)

// Logger is the minimal logging interface needed by RunCheck. Defined here
// (rather than importing the logging package) so that check remains
// dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
}

// RunCheck runs the interactive --check flow: prints availability of the
// UFS2 builder, fuse-archive, the unmount helper, and /dev/fuse. Returns
// false when the builder (the one hard requirement) is missing.
func RunCheck(cfg *config.Config, log Logger) bool {
	log.Info("=== System Check ===")

	ok := checkBuilder(cfg, log)
	checkArchiveSupport(cfg, log)
	return ok
}

// checkBuilder locates the builder and prints its banner line.
func checkBuilder(cfg *config.Config, log Logger) bool {
	tool, err := makefs.Locate(cfg.MakefsPath)
	if err != nil {
		log.Error("%v", err)
		return false
	}
	log.Success("builder: %s", tool.Path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if banner := strings.TrimSpace(tool.Version(ctx)); banner != "" {
		log.Info("  %s", banner)
	}
	return true
}

// checkArchiveSupport reports whether archive inputs would work on this
// system. Everything here is informational: directory inputs need none of it.
func checkArchiveSupport(cfg *config.Config, log Logger) {
	if archive.FuseAvailable() {
		log.Success("/dev/fuse present")
	} else {
		log.Warn("/dev/fuse missing; archive inputs will not work")
	}

	if driver, err := archive.LocateDriver(cfg.FuseArchivePath); err == nil {
		log.Success("fuse-archive: %s", driver)
	} else {
		log.Warn("%v", err)
	}

	if helper := unmountHelper(); helper != "" {
		log.Success("unmount helper: %s", helper)
	} else {
		log.Warn("no fusermount/umount helper found; mount cleanup may be unreliable")
	}
}

// CheckDeps is the pre-run validation: the builder must exist, and when the
// input is an archive, FUSE and the mount driver must be available too.
// Returns the sentinel error of the first missing piece.
func CheckDeps(cfg *config.Config, needsArchive bool) error {
	if _, err := makefs.Locate(cfg.MakefsPath); err != nil {
		return err
	}
	if !needsArchive {
		return nil
	}
	if !archive.FuseAvailable() {
		return archive.ErrNoFuseDevice
	}
	if _, err := archive.LocateDriver(cfg.FuseArchivePath); err != nil {
		return err
	}
	return nil
}

// unmountHelper returns the first available unmount helper binary.
func unmountHelper() string {
	for _, name := range []string{"fusermount3", "fusermount", "umount"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}
