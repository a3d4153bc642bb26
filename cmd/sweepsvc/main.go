package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	config "github.com/avvvet/race-services/configs"
	mongodb "github.com/avvvet/race-services/internal/db"
	nats "github.com/avvvet/race-services/internal/nats"
	raceconfig "github.com/avvvet/race-services/internal/racesvc/config"
	"github.com/avvvet/race-services/internal/racesvc/db"
	"github.com/avvvet/race-services/internal/racesvc/engine"
	"github.com/avvvet/race-services/internal/racesvc/store"
	"github.com/avvvet/race-services/internal/statsvc"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "sweep"

// how often the sweeper scans for stale racers
const sweepInterval = 60 * time.Second

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

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				flushed, err := eng.SweepStaleRacers(ctx)
				cancel()
				if err != nil {
					log.Errorf("sweep run failed: %v", err)
					continue
				}
				if flushed > 0 {
					log.Infof("sweep flushed %d stale racers", flushed)
				}
			case <-done:
				return
			}
		}
	}()

	log.Infof("%s service sweeping every %s", SERVICE_NAME, sweepInterval)

	// Wait for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	close(done)
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
