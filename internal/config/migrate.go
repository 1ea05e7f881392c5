package config

import (
	"fmt"
	"os"

	"github.com/qbs-tools/qbs/internal/kvstore"
)

// MigrationResult describes the outcome of a migration operation
type MigrationResult struct {
	SourcePath string
	TargetPath string
	Keys       int
	Success    bool
	DryRun     bool
	Message    string
}

// MigrateFormat copies the current settings file into a file of another
// format, next to it.
//
// Migration pipeline:
//  1. Open source read-only → 2. Skip if the target already exists → 3. Copy every key → 4. Sync
//
// Safety features:
//   - Dry-run mode reports planned action without writing
//   - Skips if the target already exists (no overwrite)
//   - Never modifies the source; see BackupSettingsFile
func MigrateFormat(cfg *Configuration, to kvstore.Format, dryRun bool) (*MigrationResult, error) {
	source, err := cfg.Backend()
	if err != nil {
		return nil, err
	}
	if source.Format == to {
		return nil, fmt.Errorf("settings are already stored as %s", to)
	}
	target := &kvstore.FileBackend{Dir: source.Dir, Format: to}
	scope := kvstore.Scope{Organization: cfg.Organization, Application: cfg.Application}

	result := &MigrationResult{DryRun: dryRun}
	if result.SourcePath, err = source.Path(scope); err != nil {
		return nil, err
	}
	if result.TargetPath, err = target.Path(scope); err != nil {
		return nil, err
	}

	if !fileExists(result.SourcePath) {
		result.Message = fmt.Sprintf("No settings found at %s", result.SourcePath)
		return result, nil
	}
	if fileExists(result.TargetPath) {
		result.Message = fmt.Sprintf("%s already exists (skipped)", result.TargetPath)
		return result, nil
	}

	src, err := source.Open(scope, kvstore.OpenOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", result.SourcePath, err)
	}
	defer src.Close()
	if status := src.Status(); status != kvstore.NoError {
		return nil, fmt.Errorf("reading %s: %s", result.SourcePath, status)
	}

	keys := src.AllKeys()
	result.Keys = len(keys)
	if dryRun {
		result.Success = true
		result.Message = fmt.Sprintf("Would migrate %d keys %s → %s", len(keys), result.SourcePath, result.TargetPath)
		return result, nil
	}

	dst, err := target.Open(scope, kvstore.OpenOptions{})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", result.TargetPath, err)
	}
	for _, key := range keys {
		if v, ok := src.Value(key); ok {
			dst.SetValue(key, v)
		}
	}
	if err := dst.Close(); err != nil {
		return nil, fmt.Errorf("writing %s: %w", result.TargetPath, err)
	}

	result.Success = true
	result.Message = fmt.Sprintf("Migrated %d keys %s → %s", len(keys), result.SourcePath, result.TargetPath)
	return result, nil
}

// BackupSettingsFile moves a settings file out of the way after a successful
// migration. The file is renamed to .bak rather than deleted.
func BackupSettingsFile(path string, dryRun bool) error {
	if dryRun {
		return nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil // Already removed or never existed
	}

	bakPath := path + ".bak"
	if err := os.Rename(path, bakPath); err != nil {
		return fmt.Errorf("failed to backup settings file: %w", err)
	}

	return nil
}
