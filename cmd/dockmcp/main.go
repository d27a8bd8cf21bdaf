package main

import (
	"os"

	"github.com/mensylisir/dockmcp/cmd/dockmcp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
