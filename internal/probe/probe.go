// Package probe finds the block size that yields the smallest UFS2 image.
//
// It runs one throwaway build per candidate block size, parses the size
// figure the builder reports, and keeps the minimum. Individual trial
// failures are skipped rather than retried: their result is simply excluded
// from the candidate set. Only a probe in which no trial produced a size is
// an error, since nothing can be chosen then.
package probe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"

	"github.com/pkgfoundry/ufs2pack/internal/makefs"
)

// BlockSizes are the candidate block sizes, in ascending order. The
// fragment size for each is the block size divided by 8.
var BlockSizes = []int{4096, 8192, 16384, 32768, 65536}

// ErrNoUsableTrial means every candidate failed to produce a size.
var ErrNoUsableTrial = errors.New("no block size produced a usable image size")

// Builder runs one builder invocation. *makefs.Tool satisfies it; tests
// substitute a fake.
type Builder interface {
	Run(ctx context.Context, p makefs.Params, image, root string, tee bool) (string, error)
}

// Logger is the minimal logging interface the probe needs. Defined here so
// the package stays dependency-light and testable with a mock.
type Logger interface {
	Debug(format string, args ...interface{})
	Warn(format string, args ...interface{})
}

// Trial is the outcome of one candidate block size.
type Trial struct {
	BlockSize int
	FragSize  int
	Bytes     int64 // Parsed image size; 0 when Err is set.
	Err       error // Why the trial was excluded, nil on success.
}

// Result is the outcome of a full probe. Best points into Trials.
type Result struct {
	Trials []Trial
	Best   *Trial
}

// Run probes every candidate block size against the source tree at root.
// Trial images are built under a private temp directory and removed again;
// optimization is passed through to the builder unchanged. When progress is
// set, a progress bar is rendered on stderr.
func Run(ctx context.Context, b Builder, root, optimization string, log Logger, progress bool) (*Result, error) {
	tmpDir, err := os.MkdirTemp("", "ufs2pack-probe-*")
	if err != nil {
		return nil, fmt.Errorf("create probe dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	var bar *progressbar.ProgressBar
	if progress {
		bar = progressbar.NewOptions(len(BlockSizes),
			progressbar.OptionSetDescription("probing block sizes"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionClearOnFinish(),
		)
	}

	res := &Result{Trials: make([]Trial, 0, len(BlockSizes))}
	for _, bs := range BlockSizes {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		res.Trials = append(res.Trials, runTrial(ctx, b, tmpDir, root, optimization, bs, log))

		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	res.Best = pick(res.Trials)
	if res.Best == nil {
		return nil, ErrNoUsableTrial
	}
	return res, nil
}

// runTrial builds and discards one probe image for the given block size.
func runTrial(ctx context.Context, b Builder, tmpDir, root, optimization string, bs int, log Logger) Trial {
	t := Trial{BlockSize: bs, FragSize: bs / makefs.FragRatio}

	image := filepath.Join(tmpDir, fmt.Sprintf("trial-%d.img", bs))
	p := makefs.NewParams(bs, optimization, "")

	out, err := b.Run(ctx, p, image, root, false)
	os.Remove(image)

	size, perr := makefs.ParseCalculatedSize(out)
	switch {
	case perr == nil:
		// The size line is what matters; a builder that printed it but then
		// exited non-zero still told us the size this block size needs.
		t.Bytes = size
		log.Debug("trial bsize=%d fsize=%d: %d bytes", t.BlockSize, t.FragSize, t.Bytes)
	case err != nil:
		t.Err = err
		log.Warn("trial bsize=%d failed, excluding: %v", bs, err)
	default:
		t.Err = perr
		log.Warn("trial bsize=%d produced no size figure, excluding", bs)
	}
	return t
}

// pick returns the successful trial with the smallest size. Trials are in
// ascending block-size order and the comparison is strict, so ties resolve
// to the first candidate.
func pick(trials []Trial) *Trial {
	var best *Trial
	for i := range trials {
		t := &trials[i]
		if t.Err != nil {
			continue
		}
		if best == nil || t.Bytes < best.Bytes {
			best = t
		}
	}
	return best
}
