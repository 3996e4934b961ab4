package server

import (
	"math/rand"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/dotlife/model"
)

type GameServer struct {
	Config        Config
	GameSessions  []*GameSession
	GameRequests  chan GameRequest
	Finished      chan *GameSession
	SessionCounts chan chan int
	Upgrader      *websocket.Upgrader

	rng    *rand.Rand
	nextId int
}

type GameSessionState int

const (
	GS_NEW GameSessionState = iota
	GS_PLAY
	GS_ERR
	GS_OVER
)

// GameSession owns one board. Only its Loop goroutine touches Game, so moves
// on a board are applied strictly one after another.
type GameSession struct {
	Id                    int
	State                 GameSessionState
	Game                  *model.Game
	PlayerSessions        []*PlayerSession
	Errors                chan int32
	Closed                chan int32
	Events                chan PlayerEvent
	PlayerConnectRequests chan PlayerConnectRequest

	finished chan<- *GameSession
	done     chan struct{}
	log      *log.Entry
}

type PlayerSessionState int

const (
	PS_NEW PlayerSessionState = iota + 1
	PS_PLAY
	PS_OVER
	PS_ERR
	PS_ERR_SEC
)

type PlayerSession struct {
	State       PlayerSessionState
	Id          int32
	GameSession *GameSession
	Conn        *websocket.Conn
	GameOver    chan struct{}

	MessagesToSend chan model.ServerMessage
	writerDone     chan struct{}

	DebugInMessages  int
	DebugOutMessages int
	DebugLastMessage time.Time
	DebugLastPing    time.Time
	DebugPings       int
}
