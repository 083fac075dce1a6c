package app

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iggydv12/gogrocery/internal/config"
)

func testConfig(backend string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Addr:            "127.0.0.1:0",
			RequestTimeout:  time.Second,
			ShutdownTimeout: time.Second,
		},
		Store: config.StoreConfig{
			Backend:         backend,
			ConnectAttempts: 1,
			Mongo:           config.MongoConfig{ConnectTimeout: time.Second},
		},
	}
}

func TestRunServesAndStops(t *testing.T) {
	cfg := testConfig(config.BackendPebble)
	cfg.Store.Pebble.Path = filepath.Join(t.TempDir(), "grocery")

	ready := make(chan string, 1)
	c := NewController(cfg, zap.NewNop())
	c.ready = ready

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	var addr string
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("Run returned early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Post("http://"+addr+"/add_item", "application/json",
		strings.NewReader(`{"item_name":"Apple","quantity":10}`))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Item added successfully")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewStoreBackends(t *testing.T) {
	for _, backend := range []string{config.BackendMongo, config.BackendPebble, config.BackendMemory} {
		c := NewController(testConfig(backend), zap.NewNop())
		s, err := c.newStore()
		require.NoError(t, err, backend)
		assert.NotNil(t, s, backend)
	}

	c := NewController(testConfig("redis"), zap.NewNop())
	_, err := c.newStore()
	assert.ErrorContains(t, err, "unknown store backend")
}

func TestOpenStoreGivesUpAfterAttempts(t *testing.T) {
	cfg := testConfig(config.BackendMongo)
	cfg.Store.Mongo.URI = "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=100"
	cfg.Store.Mongo.ConnectTimeout = 200 * time.Millisecond

	c := NewController(cfg, zap.NewNop())
	_, err := c.openStore(context.Background())
	assert.ErrorContains(t, err, "store init (mongo)")
}
