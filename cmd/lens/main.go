package main

import (
	"os"

	"github.com/jspencer/lens/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
