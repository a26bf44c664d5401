// Package router implements the state machine at the centre of the
// overlay client: it consumes inbound overlay packets, supervisory
// commands, and front-end events, drives the topology/path-cache/queue/
// pending-ack stores, and emits outbound packets and front-end updates.
//
// A single owning goroutine (Run) mutates all of this state; every
// other package in this module only touches it through channels, so
// there is no shared-mutex state to coordinate here.
package router

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/brokenhouse/dronecore/config"
	"github.com/brokenhouse/dronecore/controller"
	"github.com/brokenhouse/dronecore/core"
	"github.com/brokenhouse/dronecore/frontend"
	"github.com/brokenhouse/dronecore/leaftype"
	"github.com/brokenhouse/dronecore/links"
	"github.com/brokenhouse/dronecore/pendingack"
	"github.com/brokenhouse/dronecore/queue"
	"github.com/brokenhouse/dronecore/reassembly"
	"github.com/brokenhouse/dronecore/topology"
)

// State is the shutdown state machine's current phase.
type State int

const (
	StateRunning State = iota
	StateStopping
)

func (s State) String() string {
	if s == StateStopping {
		return "stopping"
	}
	return "running"
}

// Router is the client's single owning actor: every field below is
// touched only from the goroutine running Run, so none of it needs its
// own lock (the stores it composes guard themselves for the benefit of
// callers outside this goroutine, e.g. metrics scraping, but router.go
// itself never needs to take them for correctness).
type Router struct {
	self core.NodeId
	log  *slog.Logger
	cfg  config.Config

	graph     *topology.Graph
	cache     *topology.Cache
	sendQ     *queue.Queue
	pending   *pendingack.Store
	reasm     *reassembly.Buffer
	leafTypes *leaftype.Store
	links     *links.Table

	floodLimiter *rate.Limiter

	state             State
	sessionCounter    core.Session
	currentFloodEpoch core.Session

	// floodPending marks that a flood was requested while the rate
	// limiter was empty; it is retried on the next tick rather than
	// dropped, so a burst of route losses still eventually refloods.
	floodPending bool

	// chatPeers remembers, per destination server, the chat peer id the
	// front-end most recently addressed a send to there. Nothing reads it
	// back: delivery-status updates take the peer id that the send queue
	// and the pending-ack entry carry for each session.
	chatPeers map[core.NodeId]core.NodeId

	Inbound  chan *core.Packet
	Commands chan controller.Command
	Events   chan frontend.Event

	ControllerOut chan<- controller.Event
	FrontendOut   chan<- frontend.Command
}

// New constructs a Router for the given self node id. ControllerOut and
// FrontendOut are the outbound channels the router publishes to; callers
// own their buffering and consumption.
func New(self core.NodeId, cfg config.Config, logger *slog.Logger, controllerOut chan<- controller.Event, frontendOut chan<- frontend.Command) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.WithGroup("router").With("self", self)

	return &Router{
		self:      self,
		log:       log,
		cfg:       cfg,
		graph:     topology.NewGraph(self),
		cache:     topology.NewCache(self, log),
		sendQ:     queue.New(),
		pending:   pendingack.New(),
		reasm:     reassembly.New(),
		leafTypes: leaftype.New(),
		links:     links.New(self, log),

		floodLimiter: rate.NewLimiter(rate.Limit(cfg.Flood.MaxPerSecond), cfg.Flood.Burst),

		chatPeers: make(map[core.NodeId]core.NodeId),

		Inbound:  make(chan *core.Packet, 64),
		Commands: make(chan controller.Command, 16),
		Events:   make(chan frontend.Event, 16),

		ControllerOut: controllerOut,
		FrontendOut:   frontendOut,
	}
}

// Run is the actor's event loop. It returns once a kill command has
// been processed and the front-end notified, or ctx is cancelled.
func (r *Router) Run(ctx context.Context) {
	r.log.Info("router starting")
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		if r.state == StateStopping {
			r.log.Info("router stopped")
			return
		}
		select {
		case <-ctx.Done():
			r.log.Info("router context cancelled")
			return
		case pkt := <-r.Inbound:
			r.handleInbound(pkt)
		case cmd := <-r.Commands:
			r.handleCommand(cmd)
		case ev := <-r.Events:
			r.handleFrontendEvent(ev)
		case <-ticker.C:
			r.retryPendingFlood()
		}
	}
}

func (r *Router) handleCommand(cmd controller.Command) {
	switch cmd.Kind {
	case controller.CommandAddSender:
		gained := r.links.Add(cmd.Node, cmd.Channel, r.graph, r.cache)
		for _, dest := range gained {
			r.drainQueue(dest)
		}
	case controller.CommandRemoveSender:
		lost := r.links.Remove(cmd.Node, r.graph, r.cache)
		for range lost {
			r.initiateFlood()
		}
	case controller.CommandKill:
		r.emitFrontend(frontend.KillCommand())
		r.state = StateStopping
	}
}

func (r *Router) nextSession() core.Session {
	s := r.sessionCounter
	r.sessionCounter++
	return s
}

func (r *Router) emitController(ev controller.Event) {
	if r.ControllerOut == nil {
		return
	}
	select {
	case r.ControllerOut <- ev:
	default:
		r.log.Warn("controller channel full, dropping event", "kind", ev.Kind)
	}
}

func (r *Router) emitFrontend(cmd frontend.Command) {
	if r.FrontendOut == nil {
		return
	}
	select {
	case r.FrontendOut <- cmd:
	default:
		r.log.Warn("frontend channel full, dropping command", "kind", cmd.Kind)
	}
}

// allowFlood reports whether a flood may be initiated right now,
// throttled so a storm of route losses does not turn into a flood storm.
func (r *Router) allowFlood() bool {
	return r.floodLimiter.AllowN(time.Now(), 1)
}
