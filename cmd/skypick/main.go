// Command skypick fuzzy-picks test blocks from a Starlark test suite
// and runs exactly those.
package main

import (
	"os"

	"github.com/albertocavalcante/skypick/internal/cmd/skypick"
)

func main() {
	os.Exit(skypick.Run(os.Args[1:]))
}
