package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/groupledger/internal/auth"
	"github.com/mmynk/groupledger/internal/ledger"
	"github.com/mmynk/groupledger/internal/metrics"
	"github.com/mmynk/groupledger/internal/middleware"
	"github.com/mmynk/groupledger/internal/service"
	"github.com/mmynk/groupledger/internal/storage/sqlite"
	"github.com/mmynk/groupledger/pkg/api"
	"github.com/mmynk/groupledger/pkg/api/apiconnect"
)

func newTestRouter(t *testing.T) (*httptest.Server, *auth.JWTManager) {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "router.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	m := metrics.New()
	engine := ledger.New(store, ledger.WithObserver(m), ledger.WithHook(m.Hook))
	retrier := service.NewRetrier(1, time.Millisecond)
	jwtManager := auth.NewJWTManager("router-test-secret", time.Hour)

	server := httptest.NewServer(newRouter(routerDeps{
		ledger:     service.NewLedgerService(engine, retrier),
		groups:     service.NewGroupService(engine, retrier),
		jwtManager: jwtManager,
		metrics:    m,
		db:         store.SQL(),
	}))
	t.Cleanup(server.Close)
	return server, jwtManager
}

func TestRouter(t *testing.T) {
	server, jwtManager := newTestRouter(t)

	t.Run("healthz", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("cors preflight", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodOptions, server.URL+apiconnect.GroupServiceCreateGroupProcedure, nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "Authorization")
	})

	t.Run("rpc and metrics", func(t *testing.T) {
		token, err := jwtManager.Generate("alice")
		require.NoError(t, err)
		client := apiconnect.NewGroupServiceClient(http.DefaultClient, server.URL,
			connect.WithInterceptors(middleware.BearerToken(token)))

		_, err = client.CreateGroup(context.Background(), connect.NewRequest(&api.CreateGroupRequest{Name: "Flat"}))
		require.NoError(t, err)

		resp, err := http.Get(server.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), `kind="group_created"`)
	})

	t.Run("raw json call", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, server.URL+apiconnect.GroupServiceListGroupsProcedure,
			strings.NewReader(`{}`))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
