package server

import (
	"encoding/gob"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/matryer/way"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zucenko/dotlife/model"
)

const testLayout = "RGB.\n....\n....\n...Y\n"

func testSession(t *testing.T) *GameSession {
	t.Helper()
	b, err := ReadLayout(strings.NewReader(testLayout))
	require.NoError(t, err)
	return &GameSession{
		Game: &model.Game{Board: b, Axis: &model.AxisSelector{}},
		log:  log.WithField("session", 0),
	}
}

func TestTurnMove(t *testing.T) {
	gs := testSession(t)
	message := gs.Turn(PlayerEvent{Message: model.ClientMessage{
		Kind: model.MsgMove, Row: 0, Col: 0, Color: model.Red,
	}})
	require.Len(t, message.Moves, 1)
	outcome := message.Moves[0]
	assert.True(t, outcome.Accepted)
	assert.Empty(t, outcome.Error)
	assert.Equal(t, model.Horizontal, outcome.Axis)
	assert.Equal(t, []model.Change{
		{Cell: model.Cell{Row: 0, Col: 0}, Color: model.None},
		{Cell: model.Cell{Row: 0, Col: 1}, Color: model.Red},
		{Cell: model.Cell{Row: 0, Col: 2}, Color: model.None},
	}, outcome.Changes)
	assert.Equal(t, 1, message.Tally[model.Red])
	assert.Equal(t, 0, message.Tally[model.Green])
	assert.Equal(t, 1, message.Tally[model.Yellow])
}

func TestTurnRejectedMove(t *testing.T) {
	gs := testSession(t)
	before := gs.Game.Board.Clone()
	message := gs.Turn(PlayerEvent{Message: model.ClientMessage{
		Kind: model.MsgMove, Row: 3, Col: 3, Color: model.Red,
	}})
	require.Len(t, message.Moves, 1)
	assert.False(t, message.Moves[0].Accepted)
	assert.Empty(t, message.Moves[0].Changes)
	assert.True(t, before.Equal(gs.Game.Board))
}

func TestTurnOutOfBounds(t *testing.T) {
	gs := testSession(t)
	message := gs.Turn(PlayerEvent{Message: model.ClientMessage{
		Kind: model.MsgMove, Row: 4, Col: 0, Color: model.Red,
	}})
	require.Len(t, message.Moves, 1)
	assert.False(t, message.Moves[0].Accepted)
	assert.Contains(t, message.Moves[0].Error, "out of bounds")
}

func TestTurnAxis(t *testing.T) {
	gs := testSession(t)
	message := gs.Turn(PlayerEvent{Message: model.ClientMessage{Kind: model.MsgAxis, Toggle: true}})
	assert.Equal(t, []model.AxisChange{{Axis: model.Vertical}}, message.Axis)
	assert.Equal(t, model.Vertical, gs.Game.Axis.Get())

	message = gs.Turn(PlayerEvent{Message: model.ClientMessage{Kind: model.MsgAxis, Axis: model.Horizontal}})
	assert.Equal(t, []model.AxisChange{{Axis: model.Horizontal}}, message.Axis)

	gs.Game.Axis.Set(model.Vertical)
	message = gs.Turn(PlayerEvent{Message: model.ClientMessage{
		Kind: model.MsgMove, Row: 3, Col: 3, Color: model.Yellow,
	}})
	assert.Equal(t, model.Vertical, message.Moves[0].Axis)
	assert.Equal(t, []model.Change{
		{Cell: model.Cell{Row: 3, Col: 3}, Color: model.None},
		{Cell: model.Cell{Row: 2, Col: 3}, Color: model.Yellow},
	}, message.Moves[0].Changes)
}

func TestTurnTally(t *testing.T) {
	gs := testSession(t)
	message := gs.Turn(PlayerEvent{Message: model.ClientMessage{Kind: model.MsgTally}})
	assert.Empty(t, message.Moves)
	assert.Equal(t, gs.Game.Board.Tally(), message.Tally)
}

func startServer(t *testing.T) (*GameServer, *httptest.Server, func()) {
	t.Helper()
	path, cleanup := writeLayout(t, testLayout)
	cfg := DefaultConfig()
	cfg.Layout = path
	s := NewGameServer(cfg)
	go s.Loop()
	router := way.NewRouter()
	router.HandleFunc("GET", "/play", s.HandleHttpCall())
	router.HandleFunc("GET", "/healthz", s.HandleHealth())
	ts := httptest.NewServer(router)
	return s, ts, func() {
		ts.Close()
		cleanup()
	}
}

func health(s *GameServer) string {
	rec := httptest.NewRecorder()
	s.HandleHealth()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		return ""
	}
	return rec.Body.String()
}

func send(t *testing.T, conn *websocket.Conn, cm model.ClientMessage) {
	t.Helper()
	w, err := conn.NextWriter(websocket.BinaryMessage)
	require.NoError(t, err)
	require.NoError(t, gob.NewEncoder(w).Encode(cm))
	require.NoError(t, w.Close())
}

func receive(t *testing.T, conn *websocket.Conn) model.ServerMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, r, err := conn.NextReader()
	require.NoError(t, err)
	message := model.ServerMessage{}
	require.NoError(t, gob.NewDecoder(r).Decode(&message))
	return message
}

func TestPlayOverWebsocket(t *testing.T) {
	s, ts, stop := startServer(t)
	defer stop()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/play"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	setup := receive(t, conn)
	require.Len(t, setup.Setup, 1)
	assert.Equal(t, 4, setup.Setup[0].Size)
	assert.Equal(t, model.Horizontal, setup.Setup[0].Axis)
	assert.Equal(t, model.Red, setup.Setup[0].Matrix[0][0])
	assert.Equal(t, 4, setup.Tally.Total())
	assert.Equal(t, "ok sessions=1\n", health(s))

	send(t, conn, model.ClientMessage{Kind: model.MsgMove, Row: 0, Col: 0, Color: model.Red})
	reply := receive(t, conn)
	require.Len(t, reply.Moves, 1)
	assert.True(t, reply.Moves[0].Accepted)
	assert.Len(t, reply.Moves[0].Changes, 3)
	assert.Equal(t, 2, reply.Tally.Total())

	send(t, conn, model.ClientMessage{Kind: model.MsgAxis, Toggle: true})
	reply = receive(t, conn)
	assert.Equal(t, []model.AxisChange{{Axis: model.Vertical}}, reply.Axis)

	send(t, conn, model.ClientMessage{Kind: model.MsgMove, Row: 9, Col: 9, Color: model.Red})
	reply = receive(t, conn)
	require.Len(t, reply.Moves, 1)
	assert.NotEmpty(t, reply.Moves[0].Error)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		return health(s) == "ok sessions=0\n"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestSessionsDoNotShareBoards(t *testing.T) {
	_, ts, stop := startServer(t)
	defer stop()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/play"
	first, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer first.Close()
	second, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer second.Close()
	receive(t, first)
	receive(t, second)

	send(t, first, model.ClientMessage{Kind: model.MsgMove, Row: 0, Col: 0, Color: model.Red})
	assert.True(t, receive(t, first).Moves[0].Accepted)

	send(t, second, model.ClientMessage{Kind: model.MsgTally})
	assert.Equal(t, 4, receive(t, second).Tally.Total())
}

func loopSession(t *testing.T) (*GameSession, *PlayerSession, chan *GameSession) {
	t.Helper()
	gs := testSession(t)
	finished := make(chan *GameSession, 1)
	gs.Errors = make(chan int32)
	gs.Closed = make(chan int32)
	gs.Events = make(chan PlayerEvent, 16)
	gs.finished = finished
	gs.done = make(chan struct{})
	ps := &PlayerSession{
		State:          PS_PLAY,
		Id:             singlePlayer,
		GameSession:    gs,
		GameOver:       make(chan struct{}),
		MessagesToSend: make(chan model.ServerMessage, 10),
		writerDone:     make(chan struct{}),
	}
	gs.PlayerSessions = []*PlayerSession{ps}
	gs.State = GS_PLAY
	return gs, ps, finished
}

func TestRepliesBeyondBufferAreKept(t *testing.T) {
	gs, ps, _ := loopSession(t)
	const turns = 25
	go gs.Loop()
	for i := 0; i < turns; i++ {
		gs.Events <- PlayerEvent{Player: ps.Id, Message: model.ClientMessage{Kind: model.MsgTally}}
	}
	// nothing drains until the buffer is full and the loop has to wait
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, ps.MessagesToSend, cap(ps.MessagesToSend))

	received := 0
	timeout := time.After(2 * time.Second)
	for received < turns {
		select {
		case message := <-ps.MessagesToSend:
			assert.Equal(t, 4, message.Tally.Total())
			received++
		case <-timeout:
			t.Fatalf("got %d of %d replies", received, turns)
		}
	}
	gs.Closed <- ps.Id
}

func TestSendStopsWhenWriterIsGone(t *testing.T) {
	_, ps, _ := loopSession(t)
	for i := 0; i < cap(ps.MessagesToSend); i++ {
		require.True(t, ps.send(model.ServerMessage{}))
	}
	close(ps.writerDone)
	assert.False(t, ps.send(model.ServerMessage{}))
}

func TestNormalCloseEndsSessionOver(t *testing.T) {
	gs, ps, finished := loopSession(t)
	go gs.Loop()
	gs.Closed <- ps.Id
	select {
	case done := <-finished:
		assert.Equal(t, GS_OVER, done.State)
		assert.Equal(t, PS_OVER, ps.State)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not finish")
	}
	_, open := <-ps.GameOver
	assert.False(t, open)
}

func TestBrokenPlayerEndsSessionErr(t *testing.T) {
	gs, ps, finished := loopSession(t)
	go gs.Loop()
	gs.Errors <- ps.Id
	select {
	case done := <-finished:
		assert.Equal(t, GS_ERR, done.State)
		assert.Equal(t, PS_ERR, ps.State)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not finish")
	}
}

func TestBurstOverWebsocket(t *testing.T) {
	s, ts, stop := startServer(t)
	defer stop()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/play"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	receive(t, conn)

	const burst = 40
	for i := 0; i < burst; i++ {
		send(t, conn, model.ClientMessage{Kind: model.MsgTally})
	}
	for i := 0; i < burst; i++ {
		assert.Equal(t, 4, receive(t, conn).Tally.Total(), "reply %d", i)
	}

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	assert.Eventually(t, func() bool {
		return health(s) == "ok sessions=0\n"
	}, 2*time.Second, 20*time.Millisecond)
	conn.Close()
}
