package broker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/avvvet/race-services/internal/comm"
	"github.com/avvvet/race-services/internal/racesvc/engine"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const (
	// settlement requests published by the race authority
	SettleSubject = "race.settle"
	// client facing notifications consumed by the socket service
	EventSubject = "race.events"
)

type Broker struct {
	Conn      *nats.Conn
	Engine    *engine.Engine
	Authority string
}

func NewBroker(nc *nats.Conn, eng *engine.Engine, authority string) *Broker {
	return &Broker{
		Conn:      nc,
		Engine:    eng,
		Authority: authority,
	}
}

// handles settlement messages coming from the authority
func (b *Broker) handleMessage(msgNat *nats.Msg) {
	msg := &comm.WSMessage{}
	err := json.Unmarshal(msgNat.Data, &msg)
	if err != nil {
		log.Errorf("Error nats message %s", err)
		return
	}

	switch msg.Type {
	case "conclude":
		outcome := comm.RaceOutcome{}
		if err := json.Unmarshal(msg.Data, &outcome); err != nil {
			log.Errorf("Error decoding race outcome: %s", err)
			break
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := b.Engine.ConcludeRace(ctx, engine.ConcludeInput{
			Authority:      b.Authority,
			Lobby:          outcome.Lobby,
			Racer:          outcome.Racer,
			Holder:         outcome.Holder,
			HolderFeeVault: outcome.HolderFeeVault,
			OwnerFeeVault:  outcome.OwnerFeeVault,
			IsWinner:       outcome.IsWinner,
			NewWinPct:      outcome.NewWinPct,
		})
		if err != nil {
			log.Errorf("Error [Engine.ConcludeRace] lobby %s racer %s: %s", outcome.Lobby, outcome.Racer, err)
			break
		}

		b.PublishEvent(comm.RaceEvent{Type: "race_settled", Lobby: outcome.Lobby, Racer: outcome.Racer})
	case "cache_race":
		req := comm.CacheRaceRequest{}
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error decoding cache request: %s", err)
			break
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if _, err := b.Engine.CacheRace(ctx, b.Authority, req.Lobby, req.Winner, req.StartedAt); err != nil {
			log.Errorf("Error [Engine.CacheRace] lobby %s: %s", req.Lobby, err)
		}
	default:
		log.Warnf("unknown settle message type %q", msg.Type)
	}
}

// SubscribeSettle joins the settlement queue group.
func (b *Broker) SubscribeSettle(topic string) (*nats.Subscription, error) {
	sub, err := b.Conn.QueueSubscribe(topic, "settle-workers", b.handleMessage)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// PublishEvent pushes a race notification for the socket service to fan out.
func (b *Broker) PublishEvent(event comm.RaceEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Errorf("Error marshaling race event: %s", err)
		return
	}
	if err := b.Conn.Publish(EventSubject, data); err != nil {
		log.Errorf("Error publishing race event: %s", err)
	}
}
