package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/workplan/internal/cli"
)

var version = "dev"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		// Commands report their own failures; anything else is a usage error.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
