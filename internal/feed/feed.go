// Package feed subscribes to a Signal K server's delta stream over
// WebSocket and emits per-path updates in arrival order.
package feed

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gorilla/websocket"

	"github.com/meri-imperiumi/signalk-logbook/internal/model"
)

// SubscribedPaths are the signals the logbook collects. Wildcards follow
// Signal K subscription semantics.
var SubscribedPaths = []string{
	"navigation.state",
	"navigation.datetime",
	"navigation.position",
	"navigation.gnss.type",
	"navigation.headingTrue",
	"navigation.courseOverGroundTrue",
	"navigation.speedThroughWater",
	"navigation.speedOverGround",
	"navigation.trip.log",
	"navigation.courseRhumbline.nextPoint.position",
	"environment.outside.pressure",
	"environment.wind.directionTrue",
	"environment.wind.speedOverGround",
	"environment.water.swell.state",
	"communication.crewNames",
	"communication.vhf.channel",
	"steering.autopilot.state",
	"propulsion.*.state",
	"propulsion.*.revolutions",
	"sails.inventory.*",
}

// subscribePeriod asks the server for updates twice a minute; for
// logbook purposes that is plenty.
const subscribePeriod = 30000

const reconnectWait = 5 * time.Second

// Update is one path/value pair from a delta.
type Update struct {
	Path  string
	Value model.Value
}

// Client maintains the stream connection and forwards matching updates.
type Client struct {
	url   string
	paths []string
	out   chan Update
}

// New creates a client for the given stream URL, such as
// ws://localhost:3000/signalk/v1/stream?subscribe=none.
func New(url string, paths []string) *Client {
	if len(paths) == 0 {
		paths = SubscribedPaths
	}
	return &Client{
		url:   url,
		paths: paths,
		out:   make(chan Update, 256),
	}
}

// Updates returns the channel updates are delivered on. Closed when
// Start returns.
func (c *Client) Updates() <-chan Update {
	return c.out
}

// Start connects and reads deltas until the context is cancelled,
// reconnecting with a fixed wait after connection loss.
func (c *Client) Start(ctx context.Context) {
	defer close(c.out)

	for {
		if ctx.Err() != nil {
			return
		}
		conn, err := c.connect(ctx)
		if err != nil {
			log.Printf("feed: connect to %s failed: %v", c.url, err)
			if !sleep(ctx, reconnectWait) {
				return
			}
			continue
		}
		c.readLoop(ctx, conn)
		conn.Close()
		if ctx.Err() != nil {
			return
		}
		log.Printf("feed: connection lost, reconnecting in %s", reconnectWait)
		if !sleep(ctx, reconnectWait) {
			return
		}
	}
}

// connect dials the stream and sends the subscription request.
func (c *Client) connect(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, err
	}
	sub := subscription{Context: "vessels.self"}
	for _, p := range c.paths {
		sub.Subscribe = append(sub.Subscribe, pathSubscription{Path: p, Period: subscribePeriod})
	}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// readLoop decodes deltas and forwards matching values until the
// connection breaks or the context is cancelled.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	// The watcher must not outlive this connection; reconnect cycles
	// would otherwise accumulate one blocked goroutine each.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	for {
		var d delta
		if err := conn.ReadJSON(&d); err != nil {
			if ctx.Err() == nil {
				log.Printf("feed: read failed: %v", err)
			}
			return
		}
		for _, u := range d.Updates {
			for _, v := range u.Values {
				if !c.subscribed(v.Path) {
					continue
				}
				var raw any
				if err := json.Unmarshal(v.Value, &raw); err != nil {
					continue
				}
				c.out <- Update{Path: v.Path, Value: model.FromJSON(raw)}
			}
		}
	}
}

// subscribed matches a delta path against the subscription patterns.
// Patterns use dots as separators; they are mapped to slashes so the
// glob matcher can treat each path segment separately.
func (c *Client) subscribed(path string) bool {
	candidate := strings.ReplaceAll(path, ".", "/")
	for _, p := range c.paths {
		pattern := strings.ReplaceAll(p, ".", "/")
		if ok, err := doublestar.Match(pattern, candidate); err == nil && ok {
			return true
		}
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

type subscription struct {
	Context   string             `json:"context"`
	Subscribe []pathSubscription `json:"subscribe"`
}

type pathSubscription struct {
	Path   string `json:"path"`
	Period int    `json:"period"`
}

type delta struct {
	Updates []struct {
		Values []struct {
			Path  string          `json:"path"`
			Value json.RawMessage `json:"value"`
		} `json:"values"`
	} `json:"updates"`
}
