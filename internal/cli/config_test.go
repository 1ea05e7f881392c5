package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettingsFile(t *testing.T, dir, org, content string) string {
	t.Helper()
	path := filepath.Join(dir, org, "qbs.conf")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestConfigSetGet(t *testing.T) {
	tests := map[string]struct {
		key   string
		value string
		want  string
	}{
		"plain string": {
			key:   "profiles.gcc.cpp.toolchainInstallPath",
			value: "/usr/bin",
			want:  "/usr/bin\n",
		},
		"list": {
			key:   "profiles.gcc.qbs.architectures",
			value: "[x86_64, arm64]",
			want:  "x86_64, arm64\n",
		},
		"version-like number stays text": {
			key:   "profiles.qt.Qt.core.version",
			value: "5.10",
			want:  "5.10\n",
		},
		"boolean": {
			key:   "preferences.useColoredOutput",
			value: "true",
			want:  "true\n",
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			env := newSettingsEnv(t)

			out := env.mustRun(t, "config", "set", tt.key, tt.value)
			assert.Contains(t, out, "Set "+tt.key+" = ")

			out = env.mustRun(t, "config", "get", tt.key)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestConfigSet_WritesINI(t *testing.T) {
	env := newSettingsEnv(t)
	env.mustRun(t, "config", "set", "profiles.gcc.cpp.toolchainInstallPath", "/usr/bin")

	data, err := os.ReadFile(filepath.Join(env.dir, "QtProject", "qbs.conf"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "[profiles]")
	assert.Contains(t, string(data), `gcc\cpp\toolchainInstallPath = /usr/bin`)
}

func TestConfigErrors(t *testing.T) {
	tests := map[string]struct {
		args        []string
		wantContain string
		wantCode    int
	}{
		"get missing key": {
			args:        []string{"config", "get", "profile"},
			wantContain: "no value for key: profile",
			wantCode:    ExitInvalidArguments,
		},
		"set malformed key": {
			args:        []string{"config", "set", "profiles..gcc", "x"},
			wantContain: `invalid settings key "profiles..gcc"`,
			wantCode:    ExitInvalidArguments,
		},
		"unset empty key": {
			args:        []string{"config", "unset", ""},
			wantContain: "key is empty",
			wantCode:    ExitInvalidArguments,
		},
		"set without value": {
			args:        []string{"config", "set", "profile"},
			wantContain: "accepts 2 arg(s), received 1",
			wantCode:    ExitInvalidArguments,
		},
		"list with both output formats": {
			args:        []string{"config", "list", "--json", "--yaml"},
			wantContain: "invalid flag combination",
			wantCode:    ExitInvalidArguments,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			env := newSettingsEnv(t)
			_, err := env.run(t, "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantContain)
			assert.Equal(t, tt.wantCode, ExitCode(err))
		})
	}
}

func TestConfigUnset(t *testing.T) {
	env := newSettingsEnv(t)
	env.mustRun(t, "config", "set", "profiles.gcc.cpp.compilerName", "g++")
	env.mustRun(t, "config", "set", "profiles.gcc.qbs.toolchain", "gcc")
	env.mustRun(t, "config", "set", "profiles.clang.qbs.toolchain", "clang")

	out := env.mustRun(t, "config", "unset", "profiles.gcc")
	assert.Equal(t, "Removed profiles.gcc\n", out)

	out = env.mustRun(t, "config", "list")
	assert.Equal(t, "profiles.clang.qbs.toolchain: clang\n", out)
}

func TestConfigList(t *testing.T) {
	env := newSettingsEnv(t)
	env.mustRun(t, "config", "set", "profile", "gcc")
	env.mustRun(t, "config", "set", "profiles.gcc.qbs.toolchain", "gcc")
	env.mustRun(t, "config", "set", "profiles.clang.qbs.toolchain", "clang")
	env.mustRun(t, "config", "set", "preferences.jobs", "4")

	tests := map[string]struct {
		args []string
		want string
	}{
		"all keys": {
			args: []string{"config", "list"},
			want: "preferences.jobs: 4\n" +
				"profile: gcc\n" +
				"profiles.clang.qbs.toolchain: clang\n" +
				"profiles.gcc.qbs.toolchain: gcc\n",
		},
		"one group": {
			args: []string{"config", "list", "profiles.gcc"},
			want: "profiles.gcc.qbs.toolchain: gcc\n",
		},
		"several groups": {
			args: []string{"config", "list", "profiles.gcc", "preferences"},
			want: "preferences.jobs: 4\n" +
				"profiles.gcc.qbs.toolchain: gcc\n",
		},
		"unknown group": {
			args: []string{"config", "list", "nothing"},
			want: "",
		},
		"json": {
			args: []string{"config", "list", "profiles", "--json"},
			want: `{"profiles.clang.qbs.toolchain":"clang","profiles.gcc.qbs.toolchain":"gcc"}` + "\n",
		},
		"yaml": {
			args: []string{"config", "list", "profiles.clang", "--yaml"},
			want: "profiles.clang.qbs.toolchain: clang\n",
		},
		"yaml empty": {
			args: []string{"config", "list", "nothing", "--yaml"},
			want: "{}\n",
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			out := env.mustRun(t, tt.args...)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestConfigProfileAndPath(t *testing.T) {
	env := newSettingsEnv(t)

	out := env.mustRun(t, "config", "profile")
	assert.Equal(t, "No default profile set.\n", out)

	env.mustRun(t, "config", "set", "profile", "msvc")
	out = env.mustRun(t, "config", "profile")
	assert.Equal(t, "msvc\n", out)

	out = env.mustRun(t, "config", "path")
	assert.Equal(t, filepath.Join(env.dir, "QtProject", "qbs.conf")+"\n", out)

	out = env.mustRun(t, "config", "path", "--format", "json")
	assert.Equal(t, filepath.Join(env.dir, "QtProject", "qbs.json")+"\n", out)
}

func TestConfig_MigratesLegacySettings(t *testing.T) {
	env := newSettingsEnv(t)
	writeSettingsFile(t, env.dir, "Nokia", "[General]\nprofile=qt5\n\n[profiles]\nqt5\\qbs\\toolchain=gcc\n")

	out := env.mustRun(t, "config", "list")
	assert.Equal(t, "profile: qt5\nprofiles.qt5.qbs.toolchain: gcc\n", out)
	assert.FileExists(t, filepath.Join(env.dir, "QtProject", "qbs.conf"))

	// A populated store is never migrated again.
	env.mustRun(t, "config", "unset", "profiles")
	out = env.mustRun(t, "config", "list")
	assert.Equal(t, "profile: qt5\n", out)
}

func TestConfig_CorruptSettingsFile(t *testing.T) {
	env := newSettingsEnv(t)
	path := writeSettingsFile(t, env.dir, "QtProject", "[unterminated\n")

	_, err := env.run(t, "", "config", "set", "profile", "gcc")
	require.Error(t, err)
	assert.Equal(t, "Format error in "+path+".", err.Error())
	assert.Equal(t, ExitSettings, ExitCode(err))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[unterminated\n", string(data), "corrupt file is left untouched")
}

func TestConfig_Ephemeral(t *testing.T) {
	env := newSettingsEnv(t)

	out := env.mustRun(t, "config", "set", "profile", "gcc", "--ephemeral")
	assert.Equal(t, "Set profile = gcc\n", out)
	assert.NoDirExists(t, filepath.Join(env.dir, "QtProject"))

	out = env.mustRun(t, "config", "path", "--ephemeral")
	assert.Equal(t, "memory:QtProject/qbs\n", out)
}

func TestConfigExportImport(t *testing.T) {
	source := newSettingsEnv(t)
	source.mustRun(t, "config", "set", "profile", "gcc")
	source.mustRun(t, "config", "set", "profiles.gcc.qbs.architectures", "[x86_64, arm64]")

	exported := filepath.Join(t.TempDir(), "settings.yml")
	out := source.mustRun(t, "config", "export", exported)
	assert.Equal(t, "Exported 2 settings to "+exported+"\n", out)

	out = source.mustRun(t, "config", "export", "-")
	assert.Equal(t, "profile: gcc\nprofiles.gcc.qbs.architectures: x86_64, arm64\n", out)

	target := newSettingsEnv(t)
	target.mustRun(t, "config", "set", "preferences.jobs", "8")
	target.mustRun(t, "config", "import", exported)

	out = target.mustRun(t, "config", "list")
	assert.Equal(t, "preferences.jobs: 8\nprofile: gcc\nprofiles.gcc.qbs.architectures: x86_64, arm64\n", out)
}

func TestConfigImport_Stdin(t *testing.T) {
	env := newSettingsEnv(t)

	out, err := env.run(t, "profile: clang\nprofiles.clang.qbs.toolchain: clang\n", "config", "import", "-")
	require.NoError(t, err, out)

	out = env.mustRun(t, "config", "get", "profiles.clang.qbs.toolchain")
	assert.Equal(t, "clang\n", out)
}

func TestConfigImport_Errors(t *testing.T) {
	tests := map[string]struct {
		stdin       string
		file        string
		wantContain string
	}{
		"missing file": {
			file:        "does-not-exist.yml",
			wantContain: "cannot import",
		},
		"malformed key": {
			stdin:       "profiles..gcc: x\n",
			file:        "-",
			wantContain: "invalid settings key",
		},
		"not a mapping": {
			stdin:       "- a\n- b\n",
			file:        "-",
			wantContain: "cannot import -",
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			env := newSettingsEnv(t)
			file := tt.file
			if file != "-" {
				file = filepath.Join(t.TempDir(), file)
			}

			_, err := env.run(t, tt.stdin, "config", "import", file)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantContain)
			assert.Equal(t, ExitInvalidArguments, ExitCode(err))
		})
	}
}

func TestFormatValue(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		in   any
		want string
	}{
		"nil":     {in: nil, want: ""},
		"string":  {in: "gcc", want: "gcc"},
		"int":     {in: 4, want: "4"},
		"bool":    {in: true, want: "true"},
		"list":    {in: []any{"a", 1}, want: "a, 1"},
		"mapping": {in: map[string]any{"a": 1}, want: "map[a:1]"},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, formatValue(tt.in))
		})
	}
}

func TestParseValue(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		in   string
		want any
	}{
		"word":       {in: "gcc", want: "gcc"},
		"path":       {in: "/usr/bin", want: "/usr/bin"},
		"int":        {in: "8", want: 8},
		"bool":       {in: "false", want: false},
		"float kept": {in: "1.10", want: "1.10"},
		"list":       {in: "[a, b]", want: []any{"a", "b"}},
		"empty":      {in: "", want: ""},
		"null kept":  {in: "~", want: "~"},
		"mapping":    {in: "{a: 1}", want: "{a: 1}"},
		"bad yaml":   {in: "[unclosed", want: "[unclosed"},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, parseValue(tt.in))
		})
	}
}
