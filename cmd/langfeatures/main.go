// Command langfeatures validates contribution manifests and previews which
// providers apply to a document.
package main

import (
	"os"

	"github.com/reglet-dev/reglet-langfeatures/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
