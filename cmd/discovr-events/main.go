package main

import (
	"os"

	"github.com/hann12-34/discovr-events/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
