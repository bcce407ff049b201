// Command buildfs inspects the layered file system of a build session.
package main

import (
	"os"

	"github.com/jmgilman/go/buildfs/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
