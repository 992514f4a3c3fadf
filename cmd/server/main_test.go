package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pos-be/internal/config"
	"pos-be/internal/metrics"
	"pos-be/internal/middleware"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

func TestSetupRouter(t *testing.T) {
	query := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("query"))
	})
	registry := metrics.NewRegistry()
	registry.Counter("order_operations_total").Add(3)

	router := setupRouter(query, registry, stubPinger{})

	t.Run("Health Check", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "OK")
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	})

	t.Run("Health Check database down", func(t *testing.T) {
		down := setupRouter(query, registry, stubPinger{err: errors.New("connection refused")})

		rr := httptest.NewRecorder()
		down.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})

	t.Run("GraphQL Playground", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "GraphQL Playground")
	})

	t.Run("Query endpoint", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/query", nil))

		assert.Equal(t, "query", rr.Body.String())
	})

	t.Run("Metrics", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "order_operations_total 3")
	})
}

func TestNewHandler(t *testing.T) {
	database, _, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	cfg := &config.Config{JWTSecret: "server-secret"}
	registry := metrics.NewRegistry()

	handler := newHandler(cfg, database, registry, middleware.NewRateLimiter(""))

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":    float64(7),
		"company_id": float64(3),
		"role":       "WAITER",
		"exp":        time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(cfg.JWTSecret))
	require.NoError(t, err)

	send := func(body, bearer string) (*httptest.ResponseRecorder, map[string]any) {
		req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		return rr, resp
	}

	firstCode := func(resp map[string]any) any {
		errs, ok := resp["errors"].([]any)
		require.True(t, ok)
		require.NotEmpty(t, errs)
		return errs[0].(map[string]any)["extensions"].(map[string]any)["code"]
	}

	t.Run("Anonymous caller", func(t *testing.T) {
		_, resp := send(`{"query":"{ order(id: \"x\") { id } }"}`, "")
		assert.Equal(t, "NOT_AUTHENTICATED", firstCode(resp))
	})

	t.Run("Invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"query":"{ order(id: \"x\") { id } }"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer garbage")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("Playground introspection", func(t *testing.T) {
		rr, resp := send(`{"query":"{ __schema { queryType { name } } }"}`, "")

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Nil(t, resp["errors"])
		schema := resp["data"].(map[string]any)["__schema"].(map[string]any)
		assert.Equal(t, "Query", schema["queryType"].(map[string]any)["name"])
	})

	t.Run("Authenticated caller reaches the service", func(t *testing.T) {
		_, resp := send(`{"query":"mutation { removeOrderItem(orderId: \"x\", orderItemId: \"y\") { id } }"}`, token)
		assert.Equal(t, "ORDER_ITEM_DOES_NOT_EXIST", firstCode(resp))

		assert.EqualValues(t, 1, registry.Counter("order_operations_total").Load())
		assert.EqualValues(t, 1, registry.Counter("order_operation_errors_total").Load())
	})
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()
	mock.ExpectClose()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = serve(ctx, &config.Config{AppPort: "0"}, database)
	assert.NoError(t, err)
}
