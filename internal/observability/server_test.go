// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SkillForge Contributors

package observability_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/skillforge/skillforge/internal/observability"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestServer_StartStop(t *testing.T) {
	srv := observability.NewServer("127.0.0.1:0", func() bool { return true })

	errCh, err := srv.Start()
	require.NoError(t, err)
	addr := srv.Addr()
	require.NotEmpty(t, addr)

	t.Cleanup(func() {
		http.DefaultClient.CloseIdleConnections()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, srv.Stop(ctx))
		for range errCh {
			// drain until closed
		}
	})

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz/liveness", addr))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Get(fmt.Sprintf("http://%s/metrics", addr))
	require.NoError(t, err)
	defer resp2.Body.Close()
	body, err := io.ReadAll(resp2.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestServer_Readiness(t *testing.T) {
	var ready atomic.Bool
	srv := observability.NewServer("127.0.0.1:0", ready.Load)

	errCh, err := srv.Start()
	require.NoError(t, err)
	t.Cleanup(func() {
		http.DefaultClient.CloseIdleConnections()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, srv.Stop(ctx))
		for range errCh {
		}
	})

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz/readiness", srv.Addr()))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	ready.Store(true)
	resp, err = http.Get(fmt.Sprintf("http://%s/healthz/readiness", srv.Addr()))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_DoubleStart(t *testing.T) {
	srv := observability.NewServer("127.0.0.1:0", nil)

	errCh, err := srv.Start()
	require.NoError(t, err)
	t.Cleanup(func() {
		http.DefaultClient.CloseIdleConnections()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, srv.Stop(ctx))
		for range errCh {
		}
	})

	_, err = srv.Start()
	require.Error(t, err)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *observability.Metrics
	// All recorders must no-op on a nil receiver.
	m.RecordRegistration()
	m.RecordLogin("success")
	m.RecordTokenRefresh()
	m.RecordPasswordReset("requested")
	m.RecordRequest("/api/auth/login", "200")
}
