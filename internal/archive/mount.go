// Package archive mounts archive files read-only through the external
// fuse-archive driver so their contents can be used as a build source
// without extraction.
//
// The driver runs as a foreground child process for the lifetime of the
// mount. Acquisition is scoped: every successful MountArchive must be paired
// with Close, which unmounts, terminates the child, and removes the
// temporary mount point. Close is safe to call more than once.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"
)

var (
	// ErrNoFuseDevice means the kernel offers no FUSE support.
	ErrNoFuseDevice = errors.New("/dev/fuse not available (FUSE support required for archive input)")

	// ErrDriverNotFound means no fuse-archive binary could be located.
	ErrDriverNotFound = errors.New("fuse-archive not found (install it or pass --fuse-archive)")

	// ErrMountTimeout means the mount point never became ready within the
	// polling window.
	ErrMountTimeout = errors.New("archive mount did not become ready in time")
)

const fuseDevice = "/dev/fuse"

// reapTimeout bounds teardown: how long Close waits for the driver to exit
// after unmount before killing it, and how long Wait may block on I/O pipes
// held open by forked helpers after the driver itself is gone.
const reapTimeout = 3 * time.Second

// driverNames searched on PATH when no explicit driver path is given.
var driverNames = []string{"fuse-archive"}

// mountArgs returns the fixed driver invocation: foreground mode so the
// child's lifetime tracks the mount, read-only.
func mountArgs(archive, point string) []string {
	return []string{"-f", "-o", "ro", archive, point}
}

// Options configures MountArchive.
type Options struct {
	Driver       string        // Explicit fuse-archive path; empty searches PATH.
	Timeout      time.Duration // Readiness window.
	PollInterval time.Duration // Delay between readiness checks.
}

// Mount is a live archive mount. Point is the directory exposing the
// archive contents.
type Mount struct {
	Point string

	cmd    *exec.Cmd
	waitCh chan error
	tmpDir string
	closed bool
}

// LocateDriver resolves the fuse-archive binary. An explicit path wins and
// must exist; otherwise PATH is searched.
func LocateDriver(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("fuse-archive %q: %w", explicit, err)
		}
		return explicit, nil
	}
	for _, name := range driverNames {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", ErrDriverNotFound
}

// FuseAvailable reports whether the kernel exposes /dev/fuse.
func FuseAvailable() bool {
	_, err := os.Stat(fuseDevice)
	return err == nil
}

// MountArchive mounts archivePath onto a fresh temporary mount point and
// waits for it to become ready. On any failure the partial state is torn
// down before returning.
func MountArchive(ctx context.Context, archivePath string, opts Options) (*Mount, error) {
	if !FuseAvailable() {
		return nil, ErrNoFuseDevice
	}

	driver, err := LocateDriver(opts.Driver)
	if err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp("", "ufs2pack-mount-*")
	if err != nil {
		return nil, fmt.Errorf("create mount point: %w", err)
	}
	point := filepath.Join(tmpDir, "root")
	if err := os.Mkdir(point, 0o755); err != nil {
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("create mount point: %w", err)
	}

	parentDev, err := deviceID(tmpDir)
	if err != nil {
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("stat mount point: %w", err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, driver, mountArgs(archivePath, point)...)
	cmd.Stderr = &stderr
	// Own process group so reap can kill helper processes the driver forks,
	// and a WaitDelay so Wait cannot hang on the stderr pipe a surviving
	// helper still holds open.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.WaitDelay = reapTimeout
	if err := cmd.Start(); err != nil {
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("start fuse-archive: %w", err)
	}

	m := &Mount{Point: point, cmd: cmd, tmpDir: tmpDir}

	// The driver exits on its own when the archive is unreadable; watch for
	// that so a broken archive fails fast instead of running out the clock.
	// Close reaps through the same channel, so Wait is only ever called here.
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	m.waitCh = done

	deadline := time.Now().Add(opts.Timeout)
	for {
		if ready(point, parentDev) {
			return m, nil
		}
		if time.Now().After(deadline) {
			m.Close()
			return nil, ErrMountTimeout
		}

		select {
		case werr := <-done:
			m.cmd = nil // already reaped
			m.Close()
			return nil, driverExitError(werr, &stderr)
		case <-ctx.Done():
			m.Close()
			return nil, ctx.Err()
		case <-time.After(opts.PollInterval):
		}
	}
}

func driverExitError(werr error, stderr *bytes.Buffer) error {
	msg := bytes.TrimSpace(stderr.Bytes())
	if len(msg) > 0 {
		return fmt.Errorf("fuse-archive failed: %s", msg)
	}
	if werr != nil {
		return fmt.Errorf("fuse-archive failed: %w", werr)
	}
	return errors.New("fuse-archive exited before the mount became ready")
}

// ready reports whether point looks mounted: its device ID differs from the
// surrounding directory, or it already exposes entries.
func ready(point string, parentDev uint64) bool {
	dev, err := deviceID(point)
	if err != nil {
		return false
	}
	if dev != parentDev {
		return true
	}
	entries, err := os.ReadDir(point)
	return err == nil && len(entries) > 0
}

func deviceID(path string) (uint64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, errors.New("no stat info")
	}
	return uint64(st.Dev), nil
}

// Close unmounts, stops the driver, and removes the temporary mount point.
// Safe to call multiple times; later calls are no-ops.
func (m *Mount) Close() error {
	if m == nil || m.closed {
		return nil
	}
	m.closed = true

	unmount(m.Point)

	var err error
	if m.cmd != nil && m.cmd.Process != nil {
		err = m.reap()
	}

	if rmErr := os.RemoveAll(m.tmpDir); err == nil {
		err = rmErr
	}
	return err
}

// reap waits briefly for the driver to exit after unmount, then kills it.
func (m *Mount) reap() error {
	wait := m.waitCh
	if wait == nil {
		wait = make(chan error, 1)
		go func() { wait <- m.cmd.Wait() }()
	}
	select {
	case <-wait:
		return nil
	case <-time.After(reapTimeout):
		// Kill the whole process group: the driver may have forked helpers
		// that would otherwise outlive it and keep the mount pinned.
		_ = syscall.Kill(-m.cmd.Process.Pid, syscall.SIGKILL)
		<-wait
		return nil
	}
}

// unmount detaches point using fusermount (the unprivileged FUSE helper),
// falling back to plain umount. Errors are ignored: the mount may already
// be gone, and the driver kill in reap covers the rest.
func unmount(point string) {
	if helper, err := exec.LookPath("fusermount3"); err == nil {
		_ = exec.Command(helper, "-u", point).Run()
		return
	}
	if helper, err := exec.LookPath("fusermount"); err == nil {
		_ = exec.Command(helper, "-u", point).Run()
		return
	}
	_ = exec.Command("umount", point).Run()
}
