package server

import (
	"encoding/gob"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/dotlife/model"
)

const singlePlayer int32 = 1

func NewGameServer(cfg Config) *GameServer {
	return &GameServer{
		Config:        cfg,
		GameSessions:  make([]*GameSession, 0),
		GameRequests:  make(chan GameRequest),
		Finished:      make(chan *GameSession),
		SessionCounts: make(chan chan int),
		Upgrader:      &websocket.Upgrader{},
		rng:           rand.New(rand.NewSource(cfg.Seed)),
	}
}

func (s *GameServer) HandleHttpCall() http.HandlerFunc {
	timeout := 200 * time.Millisecond
	return func(w http.ResponseWriter, r *http.Request) {
		log.Printf("HandleHttpCall - Connection received")

		gcas := make(chan GameContextAwaiting, 1)
		select {
		case s.GameRequests <- GameRequest{GameContextAwaiting: gcas}:
		case <-time.After(timeout):
			log.Warn("GameRequests TIMEOUTED")
			w.WriteHeader(HTTP_TIMEOUT)
			return
		}

		var gca GameContextAwaiting
		select {
		case gca = <-gcas:
			log.Printf("HandleHttpCall GameContextAwaiting <- code:%d", gca.ResponseCode)
			if gca.ResponseCode != GAME_READY {
				w.WriteHeader(gca.ResponseCode.ToHttp())
				return
			}
		case <-time.After(timeout):
			log.Warnf("HandleHttpCall GameContextAwaiting <- TIMEOUTED")
			w.WriteHeader(HTTP_TIMEOUT)
			return
		}

		con, err := s.Upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already answered the request.
			log.Printf("HandleHttpCall websocket upgrade err %v", err)
			gca.GameSession.abandon()
			return
		}
		defer con.Close()

		gameOver := make(chan struct{})
		select {
		case gca.GameSession.PlayerConnectRequests <- PlayerConnectRequest{
			Con:      con,
			GameOver: gameOver}:
		case <-time.After(timeout):
			log.Warn("HandleHttpCall PlayerConnectRequests TIMEOUTED")
			gca.GameSession.abandon()
			return
		}

		log.Info("HandleHttpCall wait for gameover")
		<-gameOver
	}
}

// HandleHealth reports the number of live sessions.
func (s *GameServer) HandleHealth() http.HandlerFunc {
	timeout := 200 * time.Millisecond
	return func(w http.ResponseWriter, r *http.Request) {
		counts := make(chan int, 1)
		select {
		case s.SessionCounts <- counts:
		case <-time.After(timeout):
			w.WriteHeader(HTTP_SERVER_ERR)
			return
		}
		select {
		case n := <-counts:
			w.WriteHeader(HTTP_SUCCESS)
			fmt.Fprintf(w, "ok sessions=%d\n", n)
		case <-time.After(timeout):
			w.WriteHeader(HTTP_SERVER_ERR)
		}
	}
}

// Loop owns GameSessions. Every request gets a session of its own: boards
// are never shared.
func (s *GameServer) Loop() {
	log.Printf("GameServer.Loop starting")
	for {
		select {
		case gameReq := <-s.GameRequests:
			gs, err := s.newSession()
			if err != nil {
				log.WithError(err).Error("GameServer.Loop cannot create GameSession")
				gameReq.GameContextAwaiting <- GameContextAwaiting{ResponseCode: GAME_INVALIDE}
				continue
			}
			go gs.Loop()
			s.GameSessions = append(s.GameSessions, gs)
			gameReq.GameContextAwaiting <- GameContextAwaiting{
				ResponseCode: GAME_READY,
				GameSession:  gs,
			}
		case gs := <-s.Finished:
			for i, live := range s.GameSessions {
				if live == gs {
					s.GameSessions = append(s.GameSessions[:i], s.GameSessions[i+1:]...)
					break
				}
			}
			gs.log.Infof("GameServer.Loop session removed, state %s", gs.State.Name())
		case counts := <-s.SessionCounts:
			counts <- len(s.GameSessions)
		}
	}
}

func (s *GameServer) newSession() (*GameSession, error) {
	game, err := s.Config.NewGame(s.rng)
	if err != nil {
		return nil, err
	}
	s.nextId++
	gs := &GameSession{
		Id:                    s.nextId,
		State:                 GS_NEW,
		Game:                  game,
		PlayerSessions:        make([]*PlayerSession, 0, 1),
		Errors:                make(chan int32),
		Closed:                make(chan int32),
		Events:                make(chan PlayerEvent, 16),
		PlayerConnectRequests: make(chan PlayerConnectRequest),
		finished:              s.Finished,
		done:                  make(chan struct{}),
		log:                   log.WithField("session", s.nextId),
	}
	gs.log.Infof("create GameSession %dx%d", game.Board.Size, game.Board.Size)
	return gs, nil
}

func (gs *GameSession) Loop() {
	gs.log.Info("GameSession.Loop start")
	for {
		select {
		case pcr := <-gs.PlayerConnectRequests:
			ps := gs.addPlayer(pcr.Con, pcr.GameOver)
			gs.State = GS_PLAY
			ps.State = PS_PLAY
			ps.send(ps.MakeGameSetupMessage())
		case closedPlayer := <-gs.Closed:
			gs.log.Infof("GameSession over, player %d closed", closedPlayer)
			gs.State = GS_OVER
			for _, ps := range gs.PlayerSessions {
				ps.State = PS_OVER
			}
			gs.close()
			return
		case errPlayer := <-gs.Errors:
			gs.log.Warnf("killing GS, player %d failed", errPlayer)
			gs.State = GS_ERR
			for _, ps := range gs.PlayerSessions {
				if ps.Id == errPlayer {
					ps.State = PS_ERR
				} else {
					ps.State = PS_ERR_SEC
				}
			}
			gs.close()
			return
		case pe := <-gs.Events:
			message := gs.Turn(pe)
			if ps := gs.player(pe.Player); ps != nil {
				ps.send(message)
			}
		}
	}
}

// Turn applies one client message to the board and builds the reply.
func (gs *GameSession) Turn(pe PlayerEvent) model.ServerMessage {
	cm := pe.Message
	message := model.ServerMessage{}
	switch cm.Kind {
	case model.MsgMove:
		axis := gs.Game.Axis.Get()
		outcome := model.MoveOutcome{Row: cm.Row, Col: cm.Col, Color: cm.Color, Axis: axis}
		result, err := gs.Game.Move(cm.Row, cm.Col, cm.Color)
		if err != nil {
			gs.log.WithError(err).Warn("GameSession.Turn move failed")
			outcome.Error = err.Error()
		} else {
			outcome.Accepted = result.Accepted
			outcome.Changes = result.Changes
		}
		gs.log.WithFields(log.Fields{
			"row":      cm.Row,
			"col":      cm.Col,
			"color":    cm.Color,
			"axis":     axis,
			"accepted": outcome.Accepted,
			"changes":  len(outcome.Changes),
		}).Debug("GameSession.Turn move")
		message.Moves = []model.MoveOutcome{outcome}
	case model.MsgAxis:
		var axis model.Axis
		if cm.Toggle {
			axis = gs.Game.Axis.Toggle()
		} else {
			axis = cm.Axis
			gs.Game.Axis.Set(axis)
		}
		gs.log.Debugf("GameSession.Turn axis %s", axis)
		message.Axis = []model.AxisChange{{Axis: axis}}
	case model.MsgTally:
	default:
		gs.log.Warnf("GameSession.Turn unknown message kind %d", cm.Kind)
	}
	message.Tally = gs.Game.Board.Tally()
	return message
}

func (gs *GameSession) player(id int32) *PlayerSession {
	for _, ps := range gs.PlayerSessions {
		if ps.Id == id {
			return ps
		}
	}
	return nil
}

// close releases the player handlers and tells the server the session is
// gone. Only the Loop goroutine calls it.
func (gs *GameSession) close() {
	close(gs.done)
	for _, ps := range gs.PlayerSessions {
		close(ps.GameOver)
	}
	gs.finished <- gs
}

// abandon stops a session that never got its player.
func (gs *GameSession) abandon() {
	select {
	case gs.Errors <- 0:
	case <-gs.done:
	}
}

func (gs *GameSession) addPlayer(
	conn *websocket.Conn,
	gameOver chan struct{},
) *PlayerSession {
	gs.log.Printf("GameSession.addPlayer")
	ps := &PlayerSession{
		State:          PS_NEW,
		Id:             singlePlayer + int32(len(gs.PlayerSessions)),
		GameSession:    gs,
		Conn:           conn,
		GameOver:       gameOver,
		MessagesToSend: make(chan model.ServerMessage, 10),
		writerDone:     make(chan struct{}),
	}
	conn.SetPingHandler(
		func(message string) error {
			err := conn.WriteControl(websocket.PongMessage, []byte(message), time.Now().Add(time.Second))
			ps.DebugLastPing = time.Now()
			ps.DebugPings++
			if err == websocket.ErrCloseSent {
				return nil
			} else if e, ok := err.(net.Error); ok && e.Temporary() {
				return nil
			}
			return err
		})
	go ps.LoopChannelRead()
	go ps.LoopChannelWrite()
	gs.PlayerSessions = append(gs.PlayerSessions, ps)
	return ps
}

func (ps *PlayerSession) MakeGameSetupMessage() model.ServerMessage {
	board := ps.GameSession.Game.Board.Clone()
	return model.ServerMessage{
		Setup: []model.Setup{{
			Size:   board.Size,
			Matrix: board.Matrix,
			Axis:   ps.GameSession.Game.Axis.Get(),
		}},
		Tally: board.Tally(),
	}
}

// send waits for room in MessagesToSend: every reply carries changes the
// client must apply in order. It gives up only once the writer is gone.
func (ps *PlayerSession) send(message model.ServerMessage) bool {
	select {
	case ps.MessagesToSend <- message:
		return true
	case <-ps.writerDone:
		ps.GameSession.log.Warnf("player %d writer gone, reply not sent", ps.Id)
		return false
	}
}

// fail reports the player's connection as broken unless the session is
// already over.
func (ps *PlayerSession) fail() {
	select {
	case ps.GameSession.Errors <- ps.Id:
	case <-ps.GameSession.done:
	}
}

// leave reports a regular close by the client.
func (ps *PlayerSession) leave() {
	select {
	case ps.GameSession.Closed <- ps.Id:
	case <-ps.GameSession.done:
	}
}

func (ps *PlayerSession) LoopChannelRead() {
	gs := ps.GameSession
	gs.log.Printf("LoopChannelRead STARTED")
	for {
		_, r, err := ps.Conn.NextReader()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				gs.log.Printf("LoopChannelRead player %d closed", ps.Id)
				ps.leave()
			} else {
				gs.log.Printf("LoopChannelRead err reading message from Conn %v", err)
				ps.fail()
			}
			break
		}
		cm := model.ClientMessage{}
		if err := gob.NewDecoder(r).Decode(&cm); err != nil {
			gs.log.Warnf("LoopChannelRead cant decode %v", err)
			ps.fail()
			break
		}
		ps.DebugLastMessage = time.Now()
		ps.DebugInMessages++

		select {
		case gs.Events <- PlayerEvent{Player: ps.Id, Message: cm}:
		case <-gs.done:
			return
		}
	}
	gs.log.Printf("LoopChannelRead ENDED")
}

// this function only consumes. no worries about full buffer stuck
func (ps *PlayerSession) LoopChannelWrite() {
	gs := ps.GameSession
	gs.log.Printf("PlayerSession.LoopChannelWrite STARTED")
	for {
		select {
		case mes := <-ps.MessagesToSend:
			if err := ps.write(mes); err != nil {
				gs.log.Warnf("PlayerSession.LoopChannelWrite %v", err)
				close(ps.writerDone)
				ps.fail()
				return
			}
			ps.DebugOutMessages++
		case <-gs.done:
			gs.log.Printf("LoopChannelWrite ENDED")
			return
		}
	}
}

func (ps *PlayerSession) write(mes model.ServerMessage) error {
	w, err := ps.Conn.NextWriter(websocket.BinaryMessage)
	if err != nil {
		return fmt.Errorf("cant get writer: %w", err)
	}
	if err := gob.NewEncoder(w).Encode(mes); err != nil {
		return fmt.Errorf("cant encode: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("cant flush: %w", err)
	}
	return nil
}
