package makefs

import (
	"errors"
	"regexp"
	"strconv"
)

// The builder reports its computed image size in a free-form diagnostic
// line, e.g.
//
//	Calculated size of `./disc.img': 1294663680 bytes, 18327 inodes
//
// The backquote/quote decoration around the path varies between builds, so
// the pattern only anchors on the stable prefix and the "N bytes" figure.
var reCalculatedSize = regexp.MustCompile(`Calculated size of .*?:\s*(-?\d+) bytes`)

// ErrNoSizeLine is returned when the diagnostic output carries no
// recognizable size line.
var ErrNoSizeLine = errors.New("no calculated-size line in builder output")

// ParseCalculatedSize extracts the image size in bytes from the builder's
// combined output. A non-positive figure (the builder emits one when the
// source tree cannot fit) is treated the same as a missing line.
func ParseCalculatedSize(output string) (int64, error) {
	m := reCalculatedSize.FindStringSubmatch(output)
	if m == nil {
		return 0, ErrNoSizeLine
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, ErrNoSizeLine
	}
	if n <= 0 {
		return 0, ErrNoSizeLine
	}
	return n, nil
}
