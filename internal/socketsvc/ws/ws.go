package ws

import (
	"encoding/json"
	"sync"

	"github.com/avvvet/race-services/internal/comm"
	"github.com/avvvet/race-services/internal/socketsvc/broker"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

type Ws struct {
	connMap  sync.Map // to keep track of socket connection with socketId
	lobbyMap sync.Map // to keep track of watched lobby address with socketId
	Broker   *broker.Broker
}

func NewWs() *Ws {
	return &Ws{}
}

// handle socket message from web clients
func (s *Ws) SocketMessage(socketId string, message *comm.WSMessage) {
	switch message.Type {
	case "watch_lobby":
		s.handleWatchLobby(socketId, message)
	case "unwatch_lobby":
		s.lobbyMap.Delete(socketId)
	default:
		log.Warnf("unknown event received: %s", message.Type)
	}
}

func (s *Ws) handleWatchLobby(socketId string, msg *comm.WSMessage) {
	var payload struct {
		Lobby string `json:"lobby"`
	}

	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		log.Errorf("Error: malformed watch_lobby payload %s", err)
		return
	}
	if payload.Lobby == "" {
		log.Error("Invalid watch_lobby payload: missing lobby address")
		return
	}

	s.lobbyMap.Store(socketId, payload.Lobby)
	log.Infof("socket %s watching lobby %s", socketId, payload.Lobby)
}

func (s *Ws) HandleDisconnect(socketId string) {
	s.connMap.Delete(socketId)
	s.lobbyMap.Delete(socketId)
}

func (s *Ws) StoreConnection(socketId string, conn *websocket.Conn) {
	s.connMap.Store(socketId, conn)
}

func (s *Ws) GetConnection(socketId string) (*websocket.Conn, bool) {
	conn, ok := s.connMap.Load(socketId)
	if !ok {
		return nil, false
	}
	return conn.(*websocket.Conn), true
}

// ConnectionCount reports how many sockets are live.
func (s *Ws) ConnectionCount() int {
	count := 0
	s.connMap.Range(func(key, value interface{}) bool {
		count++
		return true
	})
	return count
}

// GetLobbySockets returns the sockets currently watching a lobby.
func (s *Ws) GetLobbySockets(lobby string) ([]string, bool) {
	var sockets []string
	found := false

	s.lobbyMap.Range(func(key, value interface{}) bool {
		if value.(string) == lobby {
			sockets = append(sockets, key.(string))
			found = true
		}
		return true // continue iterating
	})

	return sockets, found
}
