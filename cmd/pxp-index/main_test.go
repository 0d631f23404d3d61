package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// runCLI executes the root command in-process and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

type listOutput struct {
	Command string        `json:"command"`
	Results []CLIFunction `json:"results"`
}

func TestIndex_Summary(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.php"), "<?php function a() {} function b(int $x): int {}")

	out, err := runCLI(t, "index", "--no-stubs", dir)
	require.NoError(t, err)

	var res struct {
		Command string          `json:"command"`
		Results CLIIndexSummary `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "index", res.Command)
	assert.Equal(t, 2, res.Results.Functions)
	assert.Equal(t, int64(1), res.Results.CacheMisses)
	assert.Empty(t, res.Results.Error)
}

func TestIndex_Function(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "util.php"), `<?php
namespace App;

/** Joins the parts. */
function glue_all(string $glue, string ...$parts): string {}
`)

	out, err := runCLI(t, "index", "--no-stubs", "--function", `App\glue_all`, dir)
	require.NoError(t, err)

	var res struct {
		Results CLIFunction `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	fn := res.Results
	assert.Equal(t, `App\glue_all`, fn.Name)
	assert.Equal(t, "glue_all", fn.ShortName)
	assert.Equal(t, "string", fn.ReturnType)
	require.Len(t, fn.Parameters, 2)
	assert.Equal(t, "glue", fn.Parameters[0].Name)
	assert.True(t, fn.Parameters[1].Variadic)
	assert.Equal(t, "Joins the parts.", fn.Summary)
	assert.Equal(t, filepath.Join(dir, "util.php"), fn.File)

	_, err = runCLI(t, "index", "--no-stubs", "--function", `App\missing`, dir)
	assert.ErrorContains(t, err, "not indexed")
}

func TestIndex_ListIncludesStubs(t *testing.T) {
	t.Parallel()
	stubsRoot := t.TempDir()
	writeFile(t, filepath.Join(stubsRoot, "8.2", "core.php"), "<?php function strlen(string $string): int {}")
	project := t.TempDir()
	writeFile(t, filepath.Join(project, "app.php"), "<?php function app() {}")

	out, err := runCLI(t, "index", "--stubs", stubsRoot, "--php-version", "8.2", "--list", project)
	require.NoError(t, err)

	var res listOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Results, 2)
	assert.Equal(t, "app", res.Results[0].Name)
	assert.Equal(t, "strlen", res.Results[1].Name)
	assert.Equal(t, "function strlen(string $string): int", res.Results[1].Signature)
}

func TestIndex_ConfigFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "stubs", "8.1", "core.php"), "<?php function core() {}")
	writeFile(t, filepath.Join(dir, "src", "app.php"), "<?php function app() {}")
	writeFile(t, filepath.Join(dir, "src", "AppTest.php"), "<?php function app_test() {}")
	cfgPath := filepath.Join(dir, configFileName)
	writeFile(t, cfgPath, `
stubs_root = "stubs"
php_version = "8.1"
exclude = ["*Test.php"]
`)

	out, err := runCLI(t, "--config", cfgPath, "index", "--list", filepath.Join(dir, "src"))
	require.NoError(t, err)

	var res listOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	var names []string
	for _, fn := range res.Results {
		names = append(names, fn.Name)
	}
	assert.Equal(t, []string{"app", "core"}, names)
}

func TestIndex_MissingPathReportsError(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ok.php"), "<?php function ok() {}")

	out, err := runCLI(t, "index", "--no-stubs", dir, filepath.Join(dir, "missing"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, out, `"functions": 1`)
}

func TestIndex_TextFormat(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.php"), "<?php function alpha(): int {}")

	out, err := runCLI(t, "--format", "text", "index", "--no-stubs", "--list", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "alpha")

	out, err = runCLI(t, "--format", "text", "index", "--no-stubs", "--function", "alpha", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "function alpha(): int")
}

func TestIndex_MetricsFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.php"), "<?php function a() {}")
	metricsPath := filepath.Join(t.TempDir(), "pxp.prom")

	_, err := runCLI(t, "--metrics-file", metricsPath, "index", "--no-stubs", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# TYPE pxp_files_indexed_total counter")
	assert.Contains(t, string(data), "pxp_functions_indexed_total")
	assert.Contains(t, string(data), `pxp_parse_seconds_count{dialect="php"}`)
}

func TestIndex_MetricsFileWrittenOnFailure(t *testing.T) {
	t.Parallel()
	metricsPath := filepath.Join(t.TempDir(), "pxp.prom")

	_, err := runCLI(t, "--metrics-file", metricsPath, "index", "--no-stubs", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.FileExists(t, metricsPath)
}

func TestStubsBuild_MetricsFile(t *testing.T) {
	t.Parallel()
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "core.php"), "<?php\n#[Since('8.2')]\nfunction fresh() {}\n")
	metricsPath := filepath.Join(t.TempDir(), "pxp.prom")

	_, err := runCLI(t, "--metrics-file", metricsPath, "stubs", "build", "--src", src, "--out", t.TempDir(), "--versions", "8.1")
	require.NoError(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `pxp_stub_declarations_removed_total{version="8.1"}`)
}

func TestRoot_InvalidFlags(t *testing.T) {
	t.Parallel()
	_, err := runCLI(t, "--format", "yaml", "index", "--no-stubs", t.TempDir())
	assert.ErrorContains(t, err, "invalid format")

	_, err = runCLI(t, "--log-level", "loud", "index", "--no-stubs", t.TempDir())
	assert.ErrorContains(t, err, "invalid log level")

	_, err = runCLI(t, "index", "--php-version", "v8", t.TempDir())
	assert.Error(t, err)
}

func TestStubsBuild_ThenIndex(t *testing.T) {
	t.Parallel()
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "standard", "core.php"), `<?php

function stable(): int {}

#[Since('8.2')]
function fresh(): int {}

#[Removed('8.2')]
function legacy(): int {}
`)
	out := t.TempDir()

	stdout, err := runCLI(t, "stubs", "build", "--src", src, "--out", out, "--versions", "8.1,8.3")
	require.NoError(t, err)

	var res struct {
		Command string        `json:"command"`
		Results CLIStubReport `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.Equal(t, "stubs build", res.Command)
	assert.Equal(t, 1, res.Results.Files)
	require.Len(t, res.Results.Versions, 2)
	assert.Equal(t, "8.1", res.Results.Versions[0].Version)
	assert.Equal(t, "8.3", res.Results.Versions[1].Version)

	listed := func(v string) []string {
		stdout, err := runCLI(t, "index", "--stubs", out, "--php-version", v, "--list", t.TempDir())
		require.NoError(t, err)
		var res listOutput
		require.NoError(t, json.Unmarshal([]byte(stdout), &res))
		var names []string
		for _, fn := range res.Results {
			names = append(names, fn.Name)
		}
		return names
	}
	assert.Equal(t, []string{"legacy", "stable"}, listed("8.1"))
	assert.Equal(t, []string{"fresh", "stable"}, listed("8.3"))
}

func TestStubsBuild_Diff(t *testing.T) {
	t.Parallel()
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "core.php"), "<?php\n#[Since('8.2')]\nfunction fresh() {}\n")

	stdout, err := runCLI(t, "stubs", "build", "--src", src, "--out", t.TempDir(), "--versions", "8.1", "--diff")
	require.NoError(t, err)
	assert.Contains(t, stdout, "--- a/8.1/core.php")
	assert.Contains(t, stdout, "-function fresh() {}")
}

func TestStubsBuild_RequiresSrc(t *testing.T) {
	t.Parallel()
	_, err := runCLI(t, "stubs", "build", "--out", t.TempDir())
	assert.Error(t, err)
}

func TestValidateFormat(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validateFormat("json"))
	assert.NoError(t, validateFormat("text"))
	assert.Error(t, validateFormat("xml"))
}
