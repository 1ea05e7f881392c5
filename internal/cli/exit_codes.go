package cli

import (
	clierrors "github.com/qbs-tools/qbs/internal/errors"
)

// Exit codes for the qbs CLI
const (
	// ExitSuccess indicates successful command execution
	ExitSuccess = 0

	// ExitFailure is used for runtime errors and errors without a category
	ExitFailure = 1

	// ExitInvalidArguments indicates invalid command arguments or keys
	ExitInvalidArguments = 2

	// ExitConfiguration indicates an invalid .qbs/config.yml or QBS_* variable
	ExitConfiguration = 3

	// ExitSettings indicates the settings file is inaccessible or malformed
	ExitSettings = 4
)

// ExitCode returns the process exit code for an error returned by Execute.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	cliErr := clierrors.AsCLIError(err)
	if cliErr == nil {
		return ExitFailure
	}
	switch cliErr.Category {
	case clierrors.Argument:
		return ExitInvalidArguments
	case clierrors.Configuration:
		return ExitConfiguration
	case clierrors.Storage:
		return ExitSettings
	default:
		return ExitFailure
	}
}
