package app

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// freeAddr returns a loopback address with a port nothing listens on
func freeAddr(t *testing.T) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())
	return addr
}

func TestRegistryApp_StartStop(t *testing.T) {
	t.Parallel()

	addr := freeAddr(t)
	app := newTestApp(t, WithAddress(addr))

	errChan := make(chan error, 1)
	go func() {
		errChan <- app.Start()
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	require.NoError(t, app.Stop(5*time.Second))

	select {
	case startErr := <-errChan:
		require.NoError(t, startErr)
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after Stop()")
	}

	assert.ErrorIs(t, app.ctx.Err(), context.Canceled)
}

func TestRegistryApp_StartFailsOnBusyPort(t *testing.T) {
	t.Parallel()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	app := newTestApp(t, WithAddress(listener.Addr().String()))

	err = app.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP server failed")
}

func TestRegistryApp_StopBeforeStart(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, WithAddress(freeAddr(t)))
	require.NoError(t, app.Stop(time.Second))
	assert.Equal(t, http.ErrServerClosed, app.GetHTTPServer().ListenAndServe())
}

func TestRegistryApp_GetConfig(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	require.NotNil(t, app.GetConfig())
	assert.Equal(t, "registry.json", app.GetConfig().GetCatalogPath())
}
