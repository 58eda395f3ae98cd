package main

import (
	"os"

	"github.com/dl-alexandre/qrcgen/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
