package main

import (
	"assetpipe/src/cli"
)

var version = "dev"

func main() {
	cli.Execute(cli.NewRootCommand(version))
}
