package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slidecast/internal/protocol"
	"slidecast/internal/registry"
	"slidecast/internal/room"
	"slidecast/internal/store"
	"slidecast/pkg/types"
)

// testStack is a full relay wired the way the application wires it, exposed
// over an httptest server.
type testStack struct {
	store *store.Store
	url   string
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	st := store.NewStore()
	hub := protocol.NewHub(st, registry.NewRegistry(), room.NewRouter(), 64)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, hub.Start(ctx))
	t.Cleanup(func() {
		_ = hub.Stop()
		cancel()
	})

	handler := NewHandler(hub, Options{})
	srv := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	t.Cleanup(srv.Close)

	return &testStack{
		store: st,
		url:   "ws" + strings.TrimPrefix(srv.URL, "http"),
	}
}

func (ts *testStack) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(ts.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, payload interface{}) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(types.Envelope{Event: event, Data: data}))
}

func readEvent(t *testing.T, conn *websocket.Conn) types.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env types.Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func readRoster(t *testing.T, conn *websocket.Conn, wantEvent string) []types.Participant {
	t.Helper()
	env := readEvent(t, conn)
	require.Equal(t, wantEvent, env.Event)
	var roster []types.Participant
	require.NoError(t, json.Unmarshal(env.Data, &roster))
	return roster
}

func TestJoinAndPresenceRoundTrip(t *testing.T) {
	ts := newTestStack(t)
	p := ts.store.Create("Demo", "alice")

	x := ts.dial(t)
	send(t, x, types.EventJoinPresentation, types.JoinRequest{PresentationID: p.ID, Nickname: "alice"})
	roster := readRoster(t, x, types.EventUserJoined)
	require.Len(t, roster, 1)
	assert.Equal(t, "alice", roster[0].Nickname)
	assert.NotEmpty(t, roster[0].ConnectionID)

	y := ts.dial(t)
	send(t, y, types.EventJoinPresentation, types.JoinRequest{PresentationID: p.ID, Nickname: "bob"})

	// Both connections observe the two-member roster in join order.
	rosterX := readRoster(t, x, types.EventUserJoined)
	rosterY := readRoster(t, y, types.EventUserJoined)
	require.Len(t, rosterX, 2)
	assert.Equal(t, rosterX, rosterY)
	assert.Equal(t, "alice", rosterX[0].Nickname)
	assert.Equal(t, "bob", rosterX[1].Nickname)
}

func TestContentEventsAreEchoedToRoom(t *testing.T) {
	ts := newTestStack(t)
	p := ts.store.Create("Demo", "alice")

	x := ts.dial(t)
	send(t, x, types.EventJoinPresentation, types.JoinRequest{PresentationID: p.ID, Nickname: "alice"})
	readRoster(t, x, types.EventUserJoined)

	y := ts.dial(t)
	send(t, y, types.EventJoinPresentation, types.JoinRequest{PresentationID: p.ID, Nickname: "bob"})
	readRoster(t, x, types.EventUserJoined)
	readRoster(t, y, types.EventUserJoined)

	send(t, x, types.EventAddText, types.AddTextRequest{
		PresentationID: p.ID,
		TextData:       types.TextData{Content: "hi", Position: [2]float64{100, 100}},
	})

	// The sender receives its own broadcast too.
	for _, conn := range []*websocket.Conn{x, y} {
		env := readEvent(t, conn)
		require.Equal(t, types.EventTextAdded, env.Event)
		var text types.TextData
		require.NoError(t, json.Unmarshal(env.Data, &text))
		assert.Equal(t, "hi", text.Content)
	}

	stroke := json.RawMessage(`{"points":[[1,2],[3,4]]}`)
	send(t, y, types.EventDraw, types.DrawRequest{PresentationID: p.ID, DrawingData: stroke})
	for _, conn := range []*websocket.Conn{x, y} {
		env := readEvent(t, conn)
		require.Equal(t, types.EventDraw, env.Event)
		assert.JSONEq(t, string(stroke), string(env.Data))
	}
}

func TestDisconnectBroadcastsUserLeft(t *testing.T) {
	ts := newTestStack(t)
	p := ts.store.Create("Demo", "alice")

	x := ts.dial(t)
	send(t, x, types.EventJoinPresentation, types.JoinRequest{PresentationID: p.ID, Nickname: "alice"})
	readRoster(t, x, types.EventUserJoined)

	y := ts.dial(t)
	send(t, y, types.EventJoinPresentation, types.JoinRequest{PresentationID: p.ID, Nickname: "bob"})
	readRoster(t, y, types.EventUserJoined)

	require.NoError(t, x.Close())

	roster := readRoster(t, y, types.EventUserLeft)
	require.Len(t, roster, 1)
	assert.Equal(t, "bob", roster[0].Nickname)

	// Roster cleanup happened in the store as well.
	require.Eventually(t, func() bool {
		got, _ := ts.store.Get(p.ID)
		return len(got.Roster) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestJoinUnknownPresentationProducesNothing(t *testing.T) {
	ts := newTestStack(t)

	x := ts.dial(t)
	send(t, x, types.EventJoinPresentation, types.JoinRequest{PresentationID: 404, Nickname: "alice"})
	send(t, x, types.EventAddText, types.AddTextRequest{PresentationID: 404, TextData: types.TextData{Content: "hi"}})

	require.NoError(t, x.SetReadDeadline(time.Now().Add(250*time.Millisecond)))
	var env types.Envelope
	err := x.ReadJSON(&env)
	assert.Error(t, err, "no broadcast expected for unknown presentation")
}

func TestMalformedFramesAreToleratedInOrder(t *testing.T) {
	ts := newTestStack(t)
	p := ts.store.Create("Demo", "alice")

	x := ts.dial(t)
	require.NoError(t, x.WriteMessage(websocket.TextMessage, []byte("not json at all")))

	// The connection survives and later frames still work.
	send(t, x, types.EventJoinPresentation, types.JoinRequest{PresentationID: p.ID, Nickname: "alice"})
	roster := readRoster(t, x, types.EventUserJoined)
	assert.Len(t, roster, 1)
}
