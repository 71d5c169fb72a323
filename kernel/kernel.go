// Package kernel broadcasts sheet change notifications over a ZeroMQ PUB
// socket, so external tools (notebooks, dashboards, other processes) can
// subscribe to edits without polling the sheet.
package kernel

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-zeromq/zmq4"

	"tabula/position"
	"tabula/spreadsheet"
)

// ChangeEvent is the JSON payload published for every committed edit.
type ChangeEvent struct {
	Position  string  `json:"position"`
	Value     string  `json:"value"`
	Text      string  `json:"text"`
	Timestamp float64 `json:"timestamp"`
}

// Broadcaster owns a PUB socket and republishes a Sheet's OnChange events
// to it as JSON, one message per edit, under the topic "cell.changed".
type Broadcaster struct {
	sheet     *spreadsheet.Sheet
	pub       zmq4.Socket
	addr      string
	clockFunc func() float64

	mu      sync.Mutex
	started bool
}

// Topic is the single publish topic Broadcaster uses; subscribers filter
// on this prefix.
const Topic = "cell.changed"

// New constructs a Broadcaster that will publish addr (e.g.
// "tcp://127.0.0.1:5556") once Start is called. clockFunc supplies the
// event timestamp; pass nil to omit timestamps (tests should, since
// Date.now()-style wall-clock reads aren't reproducible).
func New(sheet *spreadsheet.Sheet, addr string, clockFunc func() float64) *Broadcaster {
	return &Broadcaster{sheet: sheet, addr: addr, clockFunc: clockFunc}
}

// Start binds the PUB socket and registers the sheet's change listener.
// It returns once the socket is listening; publishing happens
// asynchronously as SetCell/ClearCell fire.
func (b *Broadcaster) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return fmt.Errorf("kernel: broadcaster already started")
	}

	pub := zmq4.NewPub(ctx)
	if err := pub.Listen(b.addr); err != nil {
		return fmt.Errorf("kernel: failed to bind %s: %w", b.addr, err)
	}
	b.pub = pub
	b.started = true

	b.sheet.OnChange(b.publish)
	log.Printf("kernel: broadcasting sheet changes on %s (topic %q)", b.addr, Topic)
	return nil
}

// Stop closes the PUB socket and detaches the change listener.
func (b *Broadcaster) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return
	}
	b.sheet.OnChange(nil)
	if err := b.pub.Close(); err != nil {
		log.Printf("kernel: error closing socket: %v", err)
	}
	b.started = false
}

func (b *Broadcaster) publish(pos position.Position) {
	event := b.buildEvent(pos)

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("kernel: failed to marshal change event for %s: %v", pos, err)
		return
	}

	msg := zmq4.NewMsgFrom([]byte(Topic), payload)
	if err := b.pub.Send(msg); err != nil {
		log.Printf("kernel: failed to publish change for %s: %v", pos, err)
	}
}

// buildEvent reads pos's current state off the sheet into a ChangeEvent,
// stamping it with clockFunc if one was configured.
func (b *Broadcaster) buildEvent(pos position.Position) ChangeEvent {
	cell, err := b.sheet.GetCell(pos)
	event := ChangeEvent{Position: pos.String()}
	if err == nil && cell != nil {
		event.Value = cell.Value().String()
		event.Text = cell.Text()
	}
	if b.clockFunc != nil {
		event.Timestamp = b.clockFunc()
	}
	return event
}

// clockSeconds is a ready-made clockFunc using wall-clock seconds, for
// production wiring (not used by tests, which pass nil or a fixed stub).
func clockSeconds() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// DefaultClock returns the production wall-clock timestamp source.
func DefaultClock() func() float64 { return clockSeconds }
