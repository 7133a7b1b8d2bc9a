package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), configFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
db = "cache/methods.db"
format = "text"
raw_dollar = true
exclude = ["generated", "third_party"]
`)
	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, &Config{
		DB:        "cache/methods.db",
		Format:    "text",
		RawDollar: true,
		Exclude:   []string{"generated", "third_party"},
	}, cfg)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := writeConfig(t, `format = [`)
	_, err := loadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing")
}

func TestApplyConfig_FlagsWin(t *testing.T) {
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd); cfgExclude = nil })

	flagFormat = "json"
	applyConfig(&Config{DB: "x.db", Format: "text", RawDollar: true, Exclude: []string{"gen"}},
		func(name string) bool { return name == "format" })

	assert.Equal(t, "x.db", flagDB)
	assert.Equal(t, "json", flagFormat)
	assert.True(t, flagRawDollar)
	assert.Equal(t, []string{"gen"}, cfgExclude)
}

func TestConfigFile_AppliedToCommands(t *testing.T) {
	path := writeConfig(t, `
format = "text"
raw_dollar = true
`)
	out, _, err := execute(t, "encode", "a.B$C", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "La/B$C;\n", out)

	out, _, err = execute(t, "encode", "a.B$C", "--config", path, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"results": "La/B$C;"`)
}

func TestConfigFile_LoadLoggedWhenVerbose(t *testing.T) {
	path := writeConfig(t, `format = "text"`)

	_, errOut, err := execute(t, "encode", "int", "--config", path, "-v")
	require.NoError(t, err)
	assert.Contains(t, errOut, "loaded config")

	_, errOut, err = execute(t, "encode", "int", "--config", path)
	require.NoError(t, err)
	assert.NotContains(t, errOut, "loaded config")

	// verbose from the file itself takes effect for the same run.
	loud := writeConfig(t, "format = \"text\"\nverbose = true\n")
	_, errOut, err = execute(t, "encode", "int", "--config", loud)
	require.NoError(t, err)
	assert.Contains(t, errOut, "loaded config")
}

func TestConfigFile_ExplicitMissing(t *testing.T) {
	_, _, err := execute(t, "encode", "int", "--config", filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config")
}

func TestConfigFile_ExcludeUsedByIndex(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "generated"), 0o755))
	writeJava(t, src, "Keep.java", "package k;\nclass Keep { void a() {} }\n")
	writeJava(t, filepath.Join(src, "generated"), "Gen.java", "package g;\nclass Gen { void b() {} }\n")
	cfg := writeConfig(t, `exclude = ["generated"]`)
	dbPath := filepath.Join(t.TempDir(), "index.db")

	_, _, err := execute(t, "index", src, "--db", dbPath, "--config", cfg)
	require.NoError(t, err)

	out, _, err := execute(t, "search", "*", "--db", dbPath, "--config", cfg)
	require.NoError(t, err)
	ms, _ := methodsFrom(t, out)
	require.Len(t, ms, 1)
	assert.Equal(t, "Lk/Keep;->a()V", ms[0].Descriptor)
}
