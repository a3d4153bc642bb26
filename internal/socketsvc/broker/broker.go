package broker

import (
	"encoding/json"

	"github.com/avvvet/race-services/internal/comm"
	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

type Broker struct {
	Conn            *nats.Conn
	GetConnection   func(string) (*websocket.Conn, bool)
	GetLobbySockets func(string) ([]string, bool)
}

func NewBroker(conn *nats.Conn, fncGetConnection func(string) (*websocket.Conn, bool), fncGetLobbySockets func(string) ([]string, bool)) *Broker {
	return &Broker{
		Conn:            conn,
		GetConnection:   fncGetConnection,
		GetLobbySockets: fncGetLobbySockets,
	}
}

// Subscribe consumes race notifications from the race service.
func (b *Broker) Subscribe(topic string) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(topic, b.handleMessages)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

// Publish forwards a message to the race service.
func (b *Broker) Publish(topic string, payload []byte) error {
	err := b.Conn.Publish(topic, payload)
	if err != nil {
		log.Errorf("Error publishing to topic %s: %s", topic, err)
		return err
	}

	return nil
}

// handleMessages fans a race event out to every socket watching the lobby.
func (b *Broker) handleMessages(msgNats *nats.Msg) {
	event := &comm.RaceEvent{}
	err := json.Unmarshal(msgNats.Data, &event)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}

	sockets, ok := b.GetLobbySockets(event.Lobby)
	if !ok {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Errorf("Error marshaling race event: %s", err)
		return
	}

	for _, socketId := range sockets {
		conn, ok := b.GetConnection(socketId)
		if !ok {
			continue
		}
		msg := &comm.WSMessage{
			Type:     "race_event",
			Data:     payload,
			SocketId: socketId,
		}
		if err := conn.WriteJSON(msg); err != nil {
			log.Errorf("Error sending race event to socket %s: %s", socketId, err)
		}
	}
}
