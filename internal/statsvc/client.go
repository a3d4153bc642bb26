// Package statsvc talks to the companion attribute service that owns the
// per racer stats records.
package statsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avvvet/race-services/internal/comm"
	"github.com/avvvet/race-services/internal/racesvc/ledger"
	"github.com/nats-io/nats.go"
)

const (
	winPctSubject  = "stats.set_win_pct"
	requestTimeout = 5 * time.Second
)

type Client struct {
	nc *nats.Conn
}

func NewClient(nc *nats.Conn) *Client {
	return &Client{nc: nc}
}

// IsRecordValid checks that record is the canonical stats record address for
// (ownerAuthority, asset). The address is derivable locally, no round trip.
func (c *Client) IsRecordValid(ownerAuthority, asset, record string) bool {
	return record == ledger.StatsRecordAddress(ownerAuthority, asset)
}

// SetWinPercentage updates the racer's win percentage on its stats record via
// request/reply. Called inside the settlement unit of work, so a failed or
// rejected update rolls the settlement back.
func (c *Client) SetWinPercentage(ctx context.Context, asset, record, authority, ownerAuthority string, winPct uint8) error {
	payload, err := json.Marshal(comm.WinPctUpdate{
		Asset:          asset,
		Record:         record,
		Authority:      authority,
		OwnerAuthority: ownerAuthority,
		WinPct:         winPct,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	msg, err := c.nc.RequestWithContext(ctx, winPctSubject, payload)
	if err != nil {
		return fmt.Errorf("stats update request: %w", err)
	}

	var reply comm.WinPctReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return fmt.Errorf("stats update reply: %w", err)
	}
	if !reply.Ok {
		return fmt.Errorf("stats update rejected: %s", reply.Error)
	}
	return nil
}
