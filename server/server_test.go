package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_New(t *testing.T) {
	srv := New(&testConfig{}, &testDB{}, &testIngester{}, "1.0", true)
	require.NotNil(t, srv)
	assert.NotNil(t, srv.router)
	assert.Equal(t, "1.0", srv.version)
	assert.True(t, srv.debug)
}

func TestServer_RunAndShutdown(t *testing.T) {
	srv := New(&testConfig{}, &testDB{}, &testIngester{}, "test", false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	// let the listener come up, then trigger graceful shutdown
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}
