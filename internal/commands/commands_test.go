package commands

import (
	"bytes"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/gracedec/internal/config"
)

const shopSrc = "package shop\n\n" +
	"type Order struct {\n" +
	"\tID    string `json:\"id\"`\n" +
	"\tLines []Line `json:\"lines\"`\n" +
	"}\n\n" +
	"type Line struct {\n" +
	"\tSKU string `json:\"sku\"`\n" +
	"\tQty int    `json:\"qty\"`\n" +
	"}\n"

const badSrc = "package bad\n\n" +
	"type Bad struct {\n" +
	"\tA int `json:\"id\"`\n" +
	"\tB int `json:\"id\"`\n" +
	"}\n"

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writePackage(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "models.go"), []byte(src), 0o600))
	return dir
}

func TestCheckOK(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := writePackage(t, shopSrc)

	stdout, _, err := run(t, "check", "--dir", dir, "--type", "Order")
	require.NoError(t, err)
	assert.Equal(t, "ok: 2 model(s) in package shop\n", stdout)
}

func TestCheckReportsProblems(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := writePackage(t, badSrc)

	stdout, _, err := run(t, "check", "--dir", dir, "--type", "Bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check failed: 1 problem(s)")
	assert.Contains(t, stdout, "Bad.B: duplicate_key")

	_, _, err = run(t, "check", "--dir", dir, "--type", "Bad", "--allow-shadowed-keys")
	assert.NoError(t, err)
}

func TestCheckVerboseLogsFields(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := writePackage(t, shopSrc)

	_, stderr, err := run(t, "check", "-v", "--dir", dir, "--type", "Order")
	require.NoError(t, err)
	assert.Contains(t, stderr, "scanned")
	assert.Contains(t, stderr, "keys=qty")

	_, stderr, err = run(t, "check", "--dir", dir, "--type", "Order")
	require.NoError(t, err)
	assert.NotContains(t, stderr, "scanned")
}

func TestInitThenGen(t *testing.T) {
	dir := writePackage(t, shopSrc)
	t.Chdir(dir)

	_, _, err := run(t, "init", "--type", "Order", "--naming", "lower_case_with_underscores", "--registry", "Shop")
	require.NoError(t, err)

	cfg, err := config.Load(config.DefaultFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"Order"}, cfg.Types)
	assert.Equal(t, "Shop", cfg.Registry)

	_, _, err = run(t, "init", "--type", "Order")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already initialized")

	_, stderr, err := run(t, "gen")
	require.NoError(t, err)
	assert.Contains(t, stderr, "generated")

	src, err := os.ReadFile(filepath.Join(dir, config.DefaultOutput))
	require.NoError(t, err)
	_, err = parser.ParseFile(token.NewFileSet(), config.DefaultOutput, src, 0)
	require.NoError(t, err)
	assert.Contains(t, string(src), "package shop")
	assert.Contains(t, string(src), "func NewShop(")
	assert.Contains(t, string(src), "func DecodeLine(")
}

func TestGenRefusesInvalidModels(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := writePackage(t, badSrc)
	out := filepath.Join(dir, "out_gracedec.go")

	_, stderr, err := run(t, "gen", "--dir", dir, "--type", "Bad", "-o", out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generation aborted")
	assert.Contains(t, stderr, "duplicate_key")
	assert.NoFileExists(t, out)

	_, _, err = run(t, "gen", "--dir", dir, "--type", "Bad", "-o", out, "--allow-shadowed-keys")
	require.NoError(t, err)
	src, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(src), "gracedec.WithAllowShadowedKeys()")
}

func TestFlagsOverrideConfig(t *testing.T) {
	dir := writePackage(t, shopSrc)
	cfgPath := filepath.Join(t.TempDir(), "gracedec.yaml")
	cfg := config.Config{Version: config.CurrentVersion, PackageDir: dir, Types: []string{"Missing"}}
	require.NoError(t, cfg.Save(cfgPath))

	_, _, err := run(t, "check", "--config", cfgPath)
	require.Error(t, err)

	stdout, _, err := run(t, "check", "--config", cfgPath, "--type", "Line")
	require.NoError(t, err)
	assert.Contains(t, stdout, "ok: 1 model(s)")
}

func TestConfigErrors(t *testing.T) {
	t.Chdir(t.TempDir())

	_, _, err := run(t, "check", "--config", "nope.yaml", "--type", "X")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config")

	_, _, err = run(t, "check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one type is required")

	_, _, err = run(t, "check", "--type", "X", "--naming", "shouting")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown naming policy")
}
