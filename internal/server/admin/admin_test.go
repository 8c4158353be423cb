package admin

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	a := newAdmin()
	cmd := a.rootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	_ = a.close()
	return out.String(), err
}

var userIDLine = regexp.MustCompile(`user id: (\S+)`)

func TestUserAndProfileCommands(t *testing.T) {
	dir := t.TempDir()
	dsn := filepath.Join(dir, "system.db")

	out, err := run(t, "--dsn", dsn, "--secret", "s3cret", "user", "add", "alice")
	require.NoError(t, err)
	m := userIDLine.FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	userID := m[1]
	assert.Contains(t, out, "api key: peek_")

	_, err = run(t, "--dsn", dsn, "--secret", "s3cret", "user", "add", "alice")
	require.Error(t, err)

	out, err = run(t, "--dsn", dsn, "--secret", "s3cret", "user", "key", userID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "peek_"))

	out, err = run(t, "--dsn", dsn, "profile", "add", userID, "Work Stuff")
	require.NoError(t, err)
	assert.Contains(t, out, "work-stuff")

	out, err = run(t, "--dsn", dsn, "profile", "list", userID)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "SLUG")
	assert.Contains(t, lines[1], "default")
	assert.Contains(t, lines[1], "true")
	assert.Contains(t, lines[2], "work-stuff")
}

func TestUserAdd_RequiresSecret(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "system.db")
	_, err := run(t, "--dsn", dsn, "user", "add", "bob")
	require.ErrorContains(t, err, "secret key is required")
}

func TestConfigFileAndFlagPrecedence(t *testing.T) {
	dir := t.TempDir()
	fileDSN := filepath.Join(dir, "from-file.db")
	flagDSN := filepath.Join(dir, "from-flag.db")
	cfgPath := filepath.Join(dir, "server.json")
	require.NoError(t, os.WriteFile(cfgPath,
		[]byte(`{"system_dsn":"`+fileDSN+`","secret_key":"file-secret"}`), 0o600))

	_, err := run(t, "-c", cfgPath, "user", "add", "carol")
	require.NoError(t, err)
	assert.FileExists(t, fileDSN)

	_, err = run(t, "-c", cfgPath, "--dsn", flagDSN, "user", "add", "dave")
	require.NoError(t, err)
	assert.FileExists(t, flagDSN)
}

func TestMigrateFoldersCommand(t *testing.T) {
	dir := t.TempDir()
	dsn := filepath.Join(dir, "system.db")
	data := filepath.Join(dir, "data")

	out, err := run(t, "--dsn", dsn, "--secret", "s", "user", "add", "erin")
	require.NoError(t, err)
	userID := userIDLine.FindStringSubmatch(out)[1]

	require.NoError(t, os.MkdirAll(filepath.Join(data, userID, "profiles", "default"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(data, userID, "profiles", "ghost"), 0o755))

	out, err = run(t, "--dsn", dsn, "--data-dir", data, "migrate-folders")
	require.NoError(t, err)
	assert.Equal(t, "renamed: 1, created: 0, skipped: 0, unknown: 1\n", out)

	out, err = run(t, "--dsn", dsn, "--data-dir", data, "migrate-folders")
	require.NoError(t, err)
	assert.Equal(t, "renamed: 0, created: 0, skipped: 0, unknown: 1\n", out)
}
