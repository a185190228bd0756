package main

import (
	"os"

	"safekill.dev/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:]))
}
