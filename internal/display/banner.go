// Package display handles user-facing presentation: the startup banner,
// human-readable size formatting, and the interactive confirmation prompt.
package display

import (
	"fmt"
	"os"

	"github.com/pkgfoundry/ufs2pack/internal/term"
)

// PrintBanner prints the ASCII art banner; colored when colors are enabled.
func PrintBanner() {
	if term.Enabled() {
		fmt.Fprint(os.Stdout, term.Cyan)
	}
	fmt.Fprint(os.Stdout, ` _   _ _____ ____ ___  ____            _
| | | |  ___/ ___|___ \|  _ \ __ _  ___| | __
| | | | |_  \___ \ __) | |_) / _`+"`"+` |/ __| |/ /
| |_| |  _|  ___) / __/|  __/ (_| | (__|   <
 \___/|_|   |____/_____|_|   \__,_|\___|_|\_\
`)
	if term.Enabled() {
		fmt.Fprintln(os.Stdout, term.NC)
	}
}
