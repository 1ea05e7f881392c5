package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/qbs-tools/qbs/internal/settings"
)

// Common error messages for the qbs CLI.

// FromSettingsError converts an error returned by the settings store into a
// CLIError with remediation for the failing file. Errors that are already
// CLIErrors, and unknown errors, are passed through Wrap.
func FromSettingsError(err error) *CLIError {
	if err == nil {
		return nil
	}
	if cliErr := AsCLIError(err); cliErr != nil {
		return cliErr
	}

	var accessErr *settings.AccessError
	var formatErr *settings.FormatError
	var keyErr *settings.KeyError
	switch {
	case stderrors.As(err, &accessErr):
		return SettingsNotAccessible(accessErr)
	case stderrors.As(err, &formatErr):
		return SettingsFormatError(formatErr)
	case stderrors.As(err, &keyErr):
		return InvalidKey(keyErr)
	case stderrors.Is(err, settings.ErrInvalidKey):
		return Wrap(err, Argument)
	}
	return Wrap(err, Runtime)
}

// SettingsNotAccessible creates an error for a settings file that could not be read or written.
func SettingsNotAccessible(err *settings.AccessError) *CLIError {
	return &CLIError{
		Category: Storage,
		Message:  err.Error(),
		Err:      err,
		Remediation: []string{
			"Check file permissions: ls -la " + err.Path,
			"Use --settings-dir to point at a writable directory",
		},
	}
}

// SettingsFormatError creates an error for a settings file that cannot be parsed.
// The file is left untouched.
func SettingsFormatError(err *settings.FormatError) *CLIError {
	return &CLIError{
		Category: Storage,
		Message:  err.Error(),
		Err:      err,
		Remediation: []string{
			"Fix the syntax of " + err.Path + " by hand",
			"Or move it away to start from empty settings: mv " + err.Path + " " + err.Path + ".bak",
		},
	}
}

// InvalidKey creates an error for a malformed settings key.
func InvalidKey(err *settings.KeyError) *CLIError {
	return &CLIError{
		Category: Argument,
		Message:  err.Error(),
		Err:      err,
		Remediation: []string{
			"Keys are dot-separated names without empty parts",
			"Example: profiles.gcc.cpp.toolchainInstallPath",
		},
	}
}

// KeyNotFound creates an error when a key has no value.
func KeyNotFound(key string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("no value for key: %s", key),
		"List available keys with: qbs config list",
	)
}

// ConfigLoadError creates an error for an invalid tool configuration.
func ConfigLoadError(err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		"failed to load configuration",
		"Check .qbs/config.yml and QBS_* environment variables",
		"Valid formats: ini, yaml, json",
	)
}

// ImportFileError creates an error for a settings import file that cannot be used.
func ImportFileError(path string, err error) *CLIError {
	return WrapWithMessage(err, Argument,
		fmt.Sprintf("cannot import %s", path),
		"The file must be a YAML mapping of dotted keys to values",
		"Create one with: qbs config export "+path,
	)
}

// InvalidFlagCombination creates an error for incompatible flag combinations.
func InvalidFlagCombination(flags string, reason string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("invalid flag combination: %s", flags),
		reason,
		"Use 'qbs <command> --help' to see valid options",
	)
}

// FileNotWritable creates an error when a file cannot be written.
func FileNotWritable(path string, err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		fmt.Sprintf("cannot write to file: %s", path),
		"Check file permissions: ls -la "+path,
		"Ensure parent directory exists and is writable",
	)
}
