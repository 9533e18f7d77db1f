// Command delete-png-files removes PNG originals under app/src/main/assets/img
// once a WebP counterpart exists next to them.
package main

import (
	"assetpipe/src/cli"
)

func main() {
	cli.Execute(cli.NewCleanCommand())
}
