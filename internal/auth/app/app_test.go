package app

import (
	"context"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/sessionauth/internal/auth/service"
	"github.com/aussiebroadwan/sessionauth/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, backend string) Config {
	t.Helper()
	dir := t.TempDir()

	cfg := LoadConfig()
	cfg.StoreBackend = backend
	cfg.DatabaseFile = filepath.Join(dir, "auth.db")
	cfg.PepperFile = filepath.Join(dir, "pepper")
	cfg.ActiveOnRegister = true
	cfg.HousekeepingInterval = time.Hour
	cfg.ShutdownGracePeriod = time.Second
	require.NoError(t, cfg.Validate())
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestApplication_ServeAndShutdown(t *testing.T) {
	for _, backend := range []string{BackendMemory, BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			app, err := New(ctx, testConfig(t, backend), quietLogger())
			require.NoError(t, err)

			ln, err := net.Listen("tcp", "127.0.0.1:0")
			require.NoError(t, err)

			done := make(chan error, 1)
			go func() { done <- app.serve(ctx, ln) }()

			client := authsdk.NewSDKClient("http://" + ln.Addr().String())

			_, err = client.Register(ctx, "alice", "secret")
			require.NoError(t, err)

			sess, err := client.AuthenticateWithPassword(ctx, "alice", "secret")
			require.NoError(t, err)

			id, err := sess.Me(ctx)
			require.NoError(t, err)
			require.True(t, id.IsAuthenticated)

			ready, err := client.GetReadiness(ctx)
			require.NoError(t, err)
			require.Equal(t, "ok", ready.Status)

			cancel()
			select {
			case err := <-done:
				require.NoError(t, err)
			case <-time.After(5 * time.Second):
				t.Fatal("application did not shut down")
			}
		})
	}
}

func TestApplication_ShutdownWithoutRun(t *testing.T) {
	app, err := New(context.Background(), testConfig(t, BackendMemory), quietLogger())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- app.Shutdown() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Shutdown blocked before Run")
	}
}

func TestApplication_AdminServices(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, BackendSQLite)

	app, err := New(ctx, cfg, quietLogger())
	require.NoError(t, err)

	_, err = app.Auth().RegisterUser(ctx, registerParams("bob"))
	require.NoError(t, err)
	require.NoError(t, app.Users().SetSuperuser(ctx, "bob", true))
	require.NoError(t, app.Close())

	// State survives a restart on the same database file and pepper.
	app, err = New(ctx, cfg, quietLogger())
	require.NoError(t, err)
	defer app.Close()

	u, err := app.Users().GetByUsername(ctx, "bob")
	require.NoError(t, err)
	require.True(t, u.Superuser)

	ok, err := app.Auth().CheckCredentials(ctx, "bob", "secret")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestNew_BadPepperPath(t *testing.T) {
	cfg := testConfig(t, BackendMemory)
	cfg.PepperFile = t.TempDir() // a directory cannot be read as a pepper

	_, err := New(context.Background(), cfg, quietLogger())
	require.Error(t, err)
}

func registerParams(username string) service.RegisterParams {
	return service.RegisterParams{Username: username, Password: "secret"}
}
