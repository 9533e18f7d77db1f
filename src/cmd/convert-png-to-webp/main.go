// Command convert-png-to-webp converts every PNG under app/src/main/assets/img
// to WebP and rewrites .png references in the HTML, JS, CSS and JSON assets.
package main

import (
	"assetpipe/src/cli"
)

func main() {
	cli.Execute(cli.NewConvertCommand())
}
