package main

import (
	"os"

	"github.com/mcphackers/mcpctl/cli"
)

func main() {
	os.Exit(cli.Execute())
}
