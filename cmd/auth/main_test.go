package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aussiebroadwan/sessionauth/internal/auth/service"
	"github.com/aussiebroadwan/sessionauth/pkg/errutil"
	"github.com/stretchr/testify/require"
)

// cli runs commands against one sqlite database in a temp dir.
type cli struct {
	base []string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	dir := t.TempDir()
	return &cli{base: []string{
		"--store-backend=sqlite",
		"--database-file=" + filepath.Join(dir, "auth.db"),
		"--pepper-file=" + filepath.Join(dir, "pepper"),
		"--log-level=error",
	}}
}

func (c *cli) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, c.base...))

	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()

	names := make([]string, 0, len(cmd.Commands()))
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	require.Subset(t, names, []string{"serve", "migrate", "user", "token"})

	for _, flag := range []string{"config", "store-backend", "token-ttl", "hash-iterations", "enable-api"} {
		require.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestMigrateCmd(t *testing.T) {
	c := newCLI(t)

	out, err := c.run(t, "", "migrate")
	require.NoError(t, err)
	require.Contains(t, out, "Migrations completed successfully")

	// Idempotent.
	_, err = c.run(t, "", "migrate")
	require.NoError(t, err)
}

func TestUserLifecycle(t *testing.T) {
	c := newCLI(t)

	out, err := c.run(t, "hunter2\n", "user", "create", "alice", "--superuser", "--active", "--password-stdin")
	require.NoError(t, err)
	require.Contains(t, out, "Created user alice")

	_, err = c.run(t, "again\n", "user", "create", "alice", "--password-stdin")
	require.True(t, errors.Is(err, service.ErrDuplicateUser), "got %v", err)

	out, err = c.run(t, "", "user", "show", "alice")
	require.NoError(t, err)
	require.Contains(t, out, "username:   alice")
	require.Contains(t, out, "active:     true")
	require.Contains(t, out, "superuser:  true")

	_, err = c.run(t, "", "user", "set", "alice", "--active=false", "--superuser=false")
	require.NoError(t, err)

	out, err = c.run(t, "", "user", "show", "alice")
	require.NoError(t, err)
	require.Contains(t, out, "active:     false")
	require.Contains(t, out, "superuser:  false")

	_, err = c.run(t, "new-pass\n", "user", "set", "alice", "--password", "--password-stdin")
	require.NoError(t, err)

	_, err = c.run(t, "", "user", "delete", "alice")
	require.NoError(t, err)

	_, err = c.run(t, "", "user", "show", "alice")
	require.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestUserCreate_ActiveDefault(t *testing.T) {
	c := newCLI(t)

	_, err := c.run(t, "pw\n", "user", "create", "bob", "--password-stdin")
	require.NoError(t, err)
	out, err := c.run(t, "", "user", "show", "bob")
	require.NoError(t, err)
	require.Contains(t, out, "active:     false")

	_, err = c.run(t, "pw\n", "user", "create", "carol", "--password-stdin", "--active-on-register")
	require.NoError(t, err)
	out, err = c.run(t, "", "user", "show", "carol")
	require.NoError(t, err)
	require.Contains(t, out, "active:     true")

	_, err = c.run(t, "pw\n", "user", "create", "dave", "--password-stdin", "--active-on-register", "--active=false")
	require.NoError(t, err)
	out, err = c.run(t, "", "user", "show", "dave")
	require.NoError(t, err)
	require.Contains(t, out, "active:     false")
}

func TestUserSet_NothingToDo(t *testing.T) {
	c := newCLI(t)

	_, err := c.run(t, "", "user", "set", "alice")
	errutil.AssertErrorCode(t, err, "NOTHING_TO_DO")
}

func TestUserCreate_EmptyStdinPassword(t *testing.T) {
	c := newCLI(t)

	_, err := c.run(t, "\n", "user", "create", "alice", "--password-stdin")
	errutil.AssertErrorCode(t, err, "PASSWORD_EMPTY")
}

func TestUserCreate_TerminalPrompt(t *testing.T) {
	c := newCLI(t)

	origRead, origTerm := readPassword, isTerminal
	t.Cleanup(func() { readPassword, isTerminal = origRead, origTerm })
	isTerminal = func(int) bool { return true }

	answers := []string{"pw-one", "pw-two"}
	readPassword = func(int) ([]byte, error) {
		next := answers[0]
		answers = answers[1:]
		return []byte(next), nil
	}

	_, err := c.run(t, "", "user", "create", "alice")
	errutil.AssertErrorCode(t, err, "PASSWORD_MISMATCH")

	answers = []string{"same", "same"}
	out, err := c.run(t, "", "user", "create", "alice")
	require.NoError(t, err)
	require.Contains(t, out, "Created user alice")
}

func TestTokenRevoke_Unknown(t *testing.T) {
	c := newCLI(t)

	_, err := c.run(t, "", "token", "revoke", "not-a-real-token")
	require.ErrorIs(t, err, service.ErrTokenNotFound)
}

func TestTokenPurge_EmptyStore(t *testing.T) {
	c := newCLI(t)

	out, err := c.run(t, "", "token", "purge")
	require.NoError(t, err)
	require.Contains(t, out, "Purged 0 expired token(s)")
}

func TestConfigValidationFailsFast(t *testing.T) {
	c := newCLI(t)

	_, err := c.run(t, "", "migrate", "--hash-iterations=10")
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}
