package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"retroriff/config"
	"retroriff/services"
	"retroriff/types"
)

// TestHelper provides utilities for testing the RetroRiff server
type TestHelper struct {
	Server *httptest.Server
	App    *Server
	Config *config.Config
}

// offlineHarvester runs the whole pipeline without network access
func offlineHarvester() *services.Harvester {
	return services.NewHarvester(
		services.HeuristicPrioritizer{},
		services.NewMockResolver(nil),
		services.NewPlaceholderConverter(nil),
		4,
		nil,
	)
}

// NewTestHelper starts a test server around processor. mutate may adjust the
// configuration before the server is built.
func NewTestHelper(t *testing.T, processor services.Processor, mutate func(*config.Config)) *TestHelper {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Harvest.ProgressIntervalMillis = 10
	if mutate != nil {
		mutate(&cfg)
	}
	if processor == nil {
		processor = offlineHarvester()
	}

	app, err := NewServer(&cfg, "", processor, zap.NewNop())
	require.NoError(t, err)

	helper := &TestHelper{
		Server: httptest.NewServer(app.Router),
		App:    app,
		Config: &cfg,
	}
	t.Cleanup(helper.Cleanup)
	return helper
}

// Cleanup stops the server and background services
func (h *TestHelper) Cleanup() {
	h.Server.Close()
	h.App.Close()
}

func (h *TestHelper) do(t *testing.T, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, h.Server.URL+path, body)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := h.Server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	if target == nil {
		return
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

// GetJSON makes a GET request and decodes the JSON response
func (h *TestHelper) GetJSON(t *testing.T, path string, target interface{}) *http.Response {
	t.Helper()
	resp := h.do(t, http.MethodGet, path, nil, nil)
	decode(t, resp, target)
	return resp
}

// PostJSON makes a POST request with a JSON body and decodes the response
func (h *TestHelper) PostJSON(t *testing.T, path string, payload interface{}, target interface{}) *http.Response {
	t.Helper()
	var body io.Reader = http.NoBody
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	resp := h.do(t, http.MethodPost, path, body, nil)
	decode(t, resp, target)
	return resp
}

// Delete makes a DELETE request
func (h *TestHelper) Delete(t *testing.T, path string) *http.Response {
	t.Helper()
	return h.do(t, http.MethodDelete, path, nil, nil)
}

// Get makes a raw GET request
func (h *TestHelper) Get(t *testing.T, path string, headers map[string]string) *http.Response {
	t.Helper()
	return h.do(t, http.MethodGet, path, nil, headers)
}

// ConnectWebSocket dials a websocket endpoint on the test server
func (h *TestHelper) ConnectWebSocket(t *testing.T, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(h.Server.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// StartHarvest submits criteria and returns the new session
func (h *TestHelper) StartHarvest(t *testing.T, criteria types.SearchCriteria) *types.HarvestSession {
	t.Helper()
	var created struct {
		Session *types.HarvestSession `json:"session"`
	}
	resp := h.PostJSON(t, "/api/harvests", criteria, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotNil(t, created.Session)
	return created.Session
}

// WaitForStatus polls a session until it reaches status
func (h *TestHelper) WaitForStatus(t *testing.T, id string, status types.HarvestStatus) *types.HarvestSession {
	t.Helper()
	var session *types.HarvestSession
	require.Eventually(t, func() bool {
		var body struct {
			Session *types.HarvestSession `json:"session"`
		}
		resp := h.GetJSON(t, "/api/harvests/"+id, &body)
		if resp.StatusCode != http.StatusOK || body.Session == nil {
			return false
		}
		session = body.Session
		return session.Status == status
	}, 5*time.Second, 10*time.Millisecond)
	return session
}
