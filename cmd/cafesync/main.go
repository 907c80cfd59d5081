// Command cafesync runs the café order notification sync loop and its
// maintenance commands.
package main

import (
	"os"

	"github.com/roach88/cafesync/internal/cli"
)

func main() {
	os.Exit(cli.Main())
}
