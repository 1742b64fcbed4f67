package status

import (
	"context"
	"log"
	"time"

	"mirror_trading/internal/dataapi"
	"mirror_trading/internal/models"
)

// UpdateHandler receives one position snapshot per poll.
type UpdateHandler func(models.StatusUpdate)

// ErrorHandler receives transport failures from the data API.
type ErrorHandler func(error)

// Poller fetches the target's position set on a fixed cadence and hands
// each snapshot to the update handler. Snapshots go through a single
// delivery goroutine, so they always arrive in fetch order; when the
// handler lags, a snapshot still waiting for delivery is superseded by
// the next fetch rather than delivered late.
type Poller struct {
	client   *dataapi.Client
	address  string
	interval time.Duration
	onUpdate UpdateHandler
	onError  ErrorHandler
	updates  chan models.StatusUpdate
}

// NewPoller wires a poller to its handlers.
func NewPoller(client *dataapi.Client, address string, interval time.Duration, onUpdate UpdateHandler, onError ErrorHandler) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{
		client:   client,
		address:  address,
		interval: interval,
		onUpdate: onUpdate,
		onError:  onError,
		updates:  make(chan models.StatusUpdate, 1),
	}
}

// Run polls until ctx is cancelled. The first fetch happens immediately so
// the engine sees a snapshot at startup rather than one interval later.
func (p *Poller) Run(ctx context.Context) {
	go p.deliver(ctx)

	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Status poller stopping...")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()

	set, err := p.client.FetchPositions(fetchCtx, p.address)
	if err != nil {
		if p.onError != nil {
			p.onError(err)
		}
		return
	}

	// Drop a snapshot still pending delivery before queueing the new one.
	// poll is only ever called from Run's loop, so the drain and send
	// never race another sender.
	select {
	case <-p.updates:
	default:
	}
	p.updates <- models.StatusUpdate{
		Address:    p.address,
		Positions:  set.Positions,
		TotalValue: set.TotalValue,
		FetchedAt:  time.Now().UTC().Format(time.RFC3339),
	}
}

// deliver hands snapshots to the update handler one at a time.
func (p *Poller) deliver(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-p.updates:
			p.onUpdate(u)
		}
	}
}
