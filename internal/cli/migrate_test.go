package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigConvert(t *testing.T) {
	tests := map[string]struct {
		args       []string
		wantOutput []string
		wantYAML   bool
		wantSource bool
		wantBackup bool
	}{
		"convert": {
			args:       []string{"--to", "yaml"},
			wantOutput: []string{"Migrated 1 keys"},
			wantYAML:   true,
			wantSource: true,
		},
		"dry run": {
			args:       []string{"--to", "yaml", "--dry-run"},
			wantOutput: []string{"Would migrate 1 keys"},
			wantSource: true,
		},
		"dry run with backup keeps source": {
			args:       []string{"--to", "yaml", "--dry-run", "--backup"},
			wantOutput: []string{"Would migrate 1 keys"},
			wantSource: true,
		},
		"backup": {
			args:       []string{"--to", "yml", "--backup"},
			wantOutput: []string{"Migrated 1 keys", "Moved "},
			wantYAML:   true,
			wantBackup: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			env := newSettingsEnv(t)
			env.mustRun(t, "config", "set", "profile", "gcc")

			out := env.mustRun(t, append([]string{"config", "convert"}, tt.args...)...)
			for _, want := range tt.wantOutput {
				assert.Contains(t, out, want)
			}

			source := filepath.Join(env.dir, "QtProject", "qbs.conf")
			target := filepath.Join(env.dir, "QtProject", "qbs.yml")
			if tt.wantYAML {
				assert.FileExists(t, target)
				out = env.mustRun(t, "config", "get", "profile", "--format", "yaml")
				assert.Equal(t, "gcc\n", out)
			} else {
				assert.NoFileExists(t, target)
			}
			if tt.wantSource {
				assert.FileExists(t, source)
			} else {
				assert.NoFileExists(t, source)
			}
			if tt.wantBackup {
				assert.FileExists(t, source+".bak")
			}
		})
	}
}

func TestConfigConvert_Errors(t *testing.T) {
	tests := map[string]struct {
		args        []string
		wantContain string
		wantCode    int
	}{
		"missing target": {
			args:        []string{},
			wantContain: `required flag(s) "to" not set`,
			wantCode:    ExitFailure,
		},
		"unknown target": {
			args:        []string{"--to", "toml"},
			wantContain: "valid options: ini, yaml, json",
			wantCode:    ExitInvalidArguments,
		},
		"same format": {
			args:        []string{"--to", "ini"},
			wantContain: "already stored as ini",
			wantCode:    ExitSettings,
		},
		"ephemeral": {
			args:        []string{"--to", "json", "--ephemeral"},
			wantContain: "invalid flag combination",
			wantCode:    ExitInvalidArguments,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			env := newSettingsEnv(t)
			_, err := env.run(t, "", append([]string{"config", "convert"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantContain)
			assert.Equal(t, tt.wantCode, ExitCode(err))
		})
	}
}

func TestConfigConvert_NoSettings(t *testing.T) {
	env := newSettingsEnv(t)
	out := env.mustRun(t, "config", "convert", "--to", "json")
	assert.Contains(t, out, "No settings found at")
}
