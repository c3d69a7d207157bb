package display

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkgfoundry/ufs2pack/internal/term"
)

// Confirm prints question with a [y/N] suffix and reads one line from r.
// Only an explicit yes counts; everything else (including EOF) declines.
func Confirm(r io.Reader, question string) bool {
	fmt.Fprintf(os.Stdout, "%s%s%s [y/N]: ", term.Yellow, question, term.NC)

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
