package main

import (
	"os"
	"os/signal"

	config "github.com/avvvet/race-services/configs"
	mongodb "github.com/avvvet/race-services/internal/db"
	nats "github.com/avvvet/race-services/internal/nats"
	raceconfig "github.com/avvvet/race-services/internal/racesvc/config"
	"github.com/avvvet/race-services/internal/racesvc/broker"
	"github.com/avvvet/race-services/internal/racesvc/db"
	"github.com/avvvet/race-services/internal/racesvc/engine"
	"github.com/avvvet/race-services/internal/racesvc/store"
	"github.com/avvvet/race-services/internal/statsvc"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "settle"

var instanceId string

func init() {
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

func main() {
	params := raceconfig.Load()

	// pg connection
	dbpool, err := db.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.ClosePool()
	log.Printf("pg connection established successfully")

	// mongo connection for the snapshot archive
	mdb, cancelMongo, err := mongodb.ConnectToDB()
	if err != nil {
		log.Fatalf("Failed to connect to mongo: %v", err)
	}
	defer cancelMongo()

	snapshots, err := store.NewSnapshotStore(mdb)
	if err != nil {
		log.Fatalf("Failed to init snapshot store: %v", err)
	}

	// Connect to NATS
	n, err := nats.Connect()
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(0)
	}

	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	stats := statsvc.NewClient(n.Conn)
	eng := engine.New(params, store.New(dbpool), snapshots, stats)

	// consume settlement requests
	b := broker.NewBroker(n.Conn, eng, params.Authority)
	sub, err := b.SubscribeSettle(broker.SettleSubject)
	if err != nil {
		log.Errorf("Error: unable to subscribe to queue %v", err)
		os.Exit(0)
	}

	log.Infof("%s service consuming %s", SERVICE_NAME, broker.SettleSubject)

	// Wait for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	sub.Unsubscribe()
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
