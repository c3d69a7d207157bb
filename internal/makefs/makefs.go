// Package makefs wraps the external UFS2 image builder (makefs, shipped as
// UFS2Tool on some platforms). The builder owns all on-disk format logic;
// this package only constructs its command line, runs it, and parses the
// size figure it reports.
package makefs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// candidateNames are the builder binary names searched on PATH when no
// explicit path is given, in preference order.
var candidateNames = []string{"makefs", "ufs2tool", "UFS2Tool"}

// ErrNotFound is returned by Locate when no builder binary can be found.
var ErrNotFound = errors.New("UFS2 builder not found (install makefs or pass --makefs)")

// FragRatio is the fixed block-to-fragment ratio: the fragment size passed
// to the builder is always the block size divided by 8.
const FragRatio = 8

// Params holds the builder parameters for one invocation.
type Params struct {
	BlockSize    int    // Allocation block size in bytes.
	FragSize     int    // Fragment size in bytes, always BlockSize/FragRatio.
	Optimization string // "space" or "time".
	Label        string // Volume label; empty omits the option.
}

// NewParams returns Params for the given block size with the fragment size
// derived at the fixed ratio.
func NewParams(blockSize int, optimization, label string) Params {
	return Params{
		BlockSize:    blockSize,
		FragSize:     blockSize / FragRatio,
		Optimization: optimization,
		Label:        label,
	}
}

// Args builds the full builder argument list for creating image from the
// source tree root: UFS2 (ffs version 2) with the configured block and
// fragment sizes.
func (p Params) Args(image, root string) []string {
	args := []string{
		"-t", "ffs",
		"-o", "version=2",
		"-o", fmt.Sprintf("bsize=%d", p.BlockSize),
		"-o", fmt.Sprintf("fsize=%d", p.FragSize),
		"-o", "optimization=" + p.Optimization,
	}
	if p.Label != "" {
		args = append(args, "-o", "label="+p.Label)
	}
	return append(args, image, root)
}

// Tool is a located builder binary.
type Tool struct {
	Path string
}

// Locate resolves the builder binary. An explicit path wins and must exist;
// otherwise the candidate names are searched on PATH.
func Locate(explicit string) (*Tool, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return nil, fmt.Errorf("builder %q: %w", explicit, err)
		}
		return &Tool{Path: explicit}, nil
	}
	for _, name := range candidateNames {
		if path, err := exec.LookPath(name); err == nil {
			return &Tool{Path: path}, nil
		}
	}
	return nil, ErrNotFound
}

// Run invokes the builder with the given parameters, writing image from the
// tree at root. The builder's combined stdout/stderr is returned for size
// parsing; when tee is set it is also streamed to stderr in real time.
// A non-zero exit is returned as an error alongside the captured output.
func (t *Tool) Run(ctx context.Context, p Params, image, root string, tee bool) (string, error) {
	args := p.Args(image, root)
	cmd := exec.CommandContext(ctx, t.Path, args...)
	// On context cancel, don't let Wait block on output pipes a forked
	// helper still holds open.
	cmd.WaitDelay = 3 * time.Second

	var buf bytes.Buffer
	if tee {
		w := io.MultiWriter(&buf, os.Stderr)
		cmd.Stdout = w
		cmd.Stderr = w
	} else {
		cmd.Stdout = &buf
		cmd.Stderr = &buf
	}

	err := cmd.Run()
	return buf.String(), err
}

// Version returns the first line the builder prints for its version/usage
// banner, for --check diagnostics. Many makefs builds have no version flag
// and print usage on stderr instead; any output at all counts.
func (t *Tool) Version(ctx context.Context) string {
	cmd := exec.CommandContext(ctx, t.Path)
	out, _ := cmd.CombinedOutput()
	line := string(out)
	if idx := bytes.IndexByte(out, '\n'); idx > 0 {
		line = string(out[:idx])
	}
	return line
}
