package main

import (
	"os"

	"golang.org/x/term"

	"github.com/qbs-tools/qbs/internal/cli"
	clierrors "github.com/qbs-tools/qbs/internal/errors"
)

func main() {
	if err := cli.Execute(); err != nil {
		clierrors.FprintError(os.Stderr, err, term.IsTerminal(int(os.Stderr.Fd())))
		os.Exit(cli.ExitCode(err))
	}
}
