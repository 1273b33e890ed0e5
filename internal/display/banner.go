// Package display holds terminal presentation helpers.
package display

import (
	"fmt"
	"os"

	"github.com/reclock/reclock/internal/logging"
)

// PrintBanner prints the ASCII art banner; uses Magenta if colors are enabled.
func PrintBanner() {
	if logging.Magenta != "" {
		fmt.Fprint(os.Stdout, "\033[1;95m")
	}
	fmt.Fprint(os.Stdout, ` ____       ____ _            _
|  _ \ ___ / ___| | ___   ___| | __
| |_) / _ \ |   | |/ _ \ / __| |/ /
|  _ <  __/ |___| | (_) | (__|   <
|_| \_\___|\____|_|\___/ \___|_|\_\
`)
	if logging.Magenta != "" {
		fmt.Fprintln(os.Stdout, logging.NC)
	}
}
