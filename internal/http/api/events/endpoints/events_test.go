package endpoints

import (
	"bufio"
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-labs/iris/internal/db"
	"github.com/lumen-labs/iris/internal/events"
	"github.com/lumen-labs/iris/internal/http/api"
	"github.com/lumen-labs/iris/internal/http/middleware"
	"github.com/lumen-labs/iris/internal/model"
)

const testSecret = "test-secret"

type streamFakeStore struct {
	db.Store

	users    map[int]model.User
	displays map[string]model.Display
}

func (f *streamFakeStore) GetUserByID(id int) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

func (f *streamFakeStore) GetDisplayByName(name string) (model.Display, error) {
	d, ok := f.displays[name]
	if !ok {
		return model.Display{}, sql.ErrNoRows
	}
	return d, nil
}

func setupEventsServer(t *testing.T) (*httptest.Server, *events.Registry, *events.Broadcaster) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := &streamFakeStore{
		users:    map[int]model.User{7: {ID: 7, Email: "ops@example.com"}},
		displays: map[string]model.Display{"lobby": {ID: 100, Name: "lobby"}},
	}

	registry := events.NewRegistry()
	broadcaster := events.NewBroadcaster(registry)

	r := gin.New()
	api.MountGroup(r, api.GroupConfig{Prefix: "/api/v1"},
		EventsPublicModule(store, registry, testSecret))
	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/v1",
		Auth:      true,
		SecretKey: testSecret,
		Store:     store,
	}, EventsAdminModule(registry, broadcaster))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, registry, broadcaster
}

type sseEvent struct {
	name string
	data string
}

// streamEvents reads SSE frames off the wire until the body closes.
func streamEvents(body io.Reader) <-chan sseEvent {
	out := make(chan sseEvent, 8)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(body)
		var name string
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event:"):
				name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				out <- sseEvent{name: name, data: strings.TrimSpace(strings.TrimPrefix(line, "data:"))}
			}
		}
	}()
	return out
}

// waitForConnections polls the registry until the expected number of
// streams is registered.
func waitForConnections(t *testing.T, registry *events.Registry, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if registry.Stats().Total == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("registry never reached %d connections, have %d", want, registry.Stats().Total)
}

func TestDisplayStreamReceivesAssignmentEvents(t *testing.T) {
	srv, registry, broadcaster := setupEventsServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/events/stream?display=lobby")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	received := streamEvents(resp.Body)
	waitForConnections(t, registry, 1)

	slideshowID := 10
	broadcaster.Publish(events.Event{
		Name: events.EventAssignmentChanged,
		Data: events.AssignmentChanged{Display: "lobby", SlideshowID: &slideshowID},
	}, events.ToDisplay("lobby"))

	select {
	case evt := <-received:
		assert.Equal(t, events.EventAssignmentChanged, evt.name)
		var payload events.AssignmentChanged
		require.NoError(t, json.Unmarshal([]byte(evt.data), &payload))
		assert.Equal(t, "lobby", payload.Display)
		require.NotNil(t, payload.SlideshowID)
		assert.Equal(t, 10, *payload.SlideshowID)
	case <-time.After(2 * time.Second):
		t.Fatal("stream never delivered the assignment event")
	}
}

func TestStreamUnregistersOnDisconnect(t *testing.T) {
	srv, registry, _ := setupEventsServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/events/stream?display=lobby")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	waitForConnections(t, registry, 1)

	resp.Body.Close()
	waitForConnections(t, registry, 0)
}

func TestStreamRejectsUnknownDisplay(t *testing.T) {
	srv, _, _ := setupEventsServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/events/stream?display=garage")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStreamRequiresAdminToken(t *testing.T) {
	srv, _, _ := setupEventsServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/events/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminStreamViaAccessTokenQuery(t *testing.T) {
	srv, registry, _ := setupEventsServer(t)

	token, err := middleware.GenerateJWT(7, testSecret)
	require.NoError(t, err)

	// EventSource cannot set headers, so the token rides the query string.
	resp, err := http.Get(srv.URL + "/api/v1/events/stream?access_token=" + token)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	received := streamEvents(resp.Body)
	waitForConnections(t, registry, 1)

	body, err := json.Marshal(map[string]any{"message": "ping", "data": map[string]any{"k": "v"}})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/events/test", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	postResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer postResp.Body.Close()
	require.Equal(t, http.StatusOK, postResp.StatusCode)

	var broadcast struct {
		Success   bool `json:"success"`
		Delivered int  `json:"delivered"`
	}
	require.NoError(t, json.NewDecoder(postResp.Body).Decode(&broadcast))
	assert.True(t, broadcast.Success)
	assert.Equal(t, 1, broadcast.Delivered)

	select {
	case evt := <-received:
		assert.Equal(t, events.EventTest, evt.name)
		var payload events.TestEvent
		require.NoError(t, json.Unmarshal([]byte(evt.data), &payload))
		assert.Equal(t, "ping", payload.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("admin stream never delivered the test event")
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv, registry, _ := setupEventsServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/events/stream?display=lobby")
	require.NoError(t, err)
	defer resp.Body.Close()
	waitForConnections(t, registry, 1)

	token, err := middleware.GenerateJWT(7, testSecret)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/events/stats", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	statsResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer statsResp.Body.Close()
	require.Equal(t, http.StatusOK, statsResp.StatusCode)

	var out struct {
		Success bool `json:"success"`
		Data    struct {
			Total       int `json:"total_connections"`
			Admins      int `json:"admin_connections"`
			Displays    int `json:"display_connections"`
			Connections []struct {
				Role    string `json:"role"`
				Display string `json:"display"`
			} `json:"connections"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(statsResp.Body).Decode(&out))

	assert.True(t, out.Success)
	assert.Equal(t, 1, out.Data.Total)
	assert.Equal(t, 0, out.Data.Admins)
	assert.Equal(t, 1, out.Data.Displays)
	require.Len(t, out.Data.Connections, 1)
	assert.Equal(t, "display", out.Data.Connections[0].Role)
	assert.Equal(t, "lobby", out.Data.Connections[0].Display)
}
