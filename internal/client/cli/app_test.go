package cli

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/zkauth/internal/client/config"
	"github.com/stretchr/testify/require"
)

func TestIsLoggedIn(t *testing.T) {
	app := &App{}
	if app.isLoggedIn() {
		t.Fatalf("expected isLoggedIn() == false without a user")
	}

	app.userName = "alice"
	if !app.isLoggedIn() {
		t.Fatalf("expected isLoggedIn() == true with a user")
	}
}

func TestNewApp_DoesNotDial(t *testing.T) {
	// grpc.NewClient connects lazily, so an unreachable server is fine here.
	app, err := NewApp(&config.Config{
		ServerEndpointAddr: "127.0.0.1:1",
		RequestTimeout:     time.Second,
		Hash:               "sha256",
		ZeroPolicy:         "remap",
	})
	require.NoError(t, err)
	require.NotNil(t, app.authService)
	require.NoError(t, app.authService.Close(t.Context()))
}
