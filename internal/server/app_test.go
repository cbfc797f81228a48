package server

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/dmitrijs2005/zkauth/internal/logging"
	"github.com/dmitrijs2005/zkauth/internal/server/config"
	"github.com/dmitrijs2005/zkauth/internal/server/sessions"
	"github.com/dmitrijs2005/zkauth/internal/zkp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.EndpointAddrHTTP = "127.0.0.1:0"
	c.EndpointAddrGRPC = "127.0.0.1:0"
	return c
}

func TestNewApp_InvalidSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   error
	}{
		{name: "group", mutate: func(c *config.Config) { c.Group = "tiny" }, want: zkp.ErrUnknownGroup},
		{name: "hash", mutate: func(c *config.Config) { c.Hash = "md5" }, want: zkp.ErrUnknownHash},
		{name: "zero policy", mutate: func(c *config.Config) { c.ZeroPolicy = "reject" }, want: zkp.ErrUnknownZeroPolicy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testConfig()
			tt.mutate(c)
			_, err := newApp(c, logging.Nop{})
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	app, err := newApp(testConfig(), logging.Nop{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("app did not stop after context cancel")
	}
}

func TestApp_RunStopsWhenServerFails(t *testing.T) {
	c := testConfig()
	c.EndpointAddrGRPC = "127.0.0.1:99999"
	app, err := newApp(c, logging.Nop{})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		app.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("app kept running after a listener failed")
	}
}

func TestApp_SweepDropsExpiredState(t *testing.T) {
	c := testConfig()
	c.ChallengeValidityDuration = time.Minute
	c.SessionValidityDuration = time.Minute
	app, err := newApp(c, logging.Nop{})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = app.authService.Register(ctx, "alice", "pw1")
	require.NoError(t, err)
	_, err = app.authService.BeginLogin(ctx, "alice")
	require.NoError(t, err)
	_, err = app.sessions.Establish(ctx, "alice")
	require.NoError(t, err)

	require.Equal(t, 1, app.challenges.Len())
	require.Equal(t, 1, app.sessions.Len())

	app.sweep(ctx, time.Now())
	assert.Equal(t, 1, app.challenges.Len())

	app.sweep(ctx, time.Now().Add(2*time.Minute))
	assert.Equal(t, 0, app.challenges.Len())
	assert.Equal(t, 0, app.sessions.Len())
	assert.Equal(t, 1, app.credentials.Count(), "credentials never expire")
}

func TestApp_KeyRotationKeepsSessionsValid(t *testing.T) {
	app, err := newApp(testConfig(), logging.Nop{})
	require.NoError(t, err)
	ctx := context.Background()

	token, err := app.sessions.Establish(ctx, "alice")
	require.NoError(t, err)

	require.NoError(t, app.keys.Rotate())

	user, err := app.sessions.Current(sessions.WithToken(ctx, token))
	require.NoError(t, err)
	assert.Equal(t, "alice", user)
}

func TestApp_EndToEndLogin(t *testing.T) {
	app, err := newApp(testConfig(), logging.Nop{})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = app.authService.Register(ctx, "alice", "pw1")
	require.NoError(t, err)
	ch, err := app.authService.BeginLogin(ctx, "alice")
	require.NoError(t, err)

	group := app.authService.Group()
	deriver, err := zkp.NewDeriver(group, "", "")
	require.NoError(t, err)
	prover := zkp.NewProver(group, nil)
	a, k, err := prover.Commit()
	require.NoError(t, err)
	y := prover.Respond(k, ch.E, deriver.Derive([]byte("pw1")))

	res, err := app.authService.FinishLogin(ctx, "alice", a.String(), y.String())
	require.NoError(t, err)
	assert.Equal(t, "alice", res.Username)
	assert.Equal(t, 0, new(big.Int).SetInt64(467).Cmp(ch.P))
}
