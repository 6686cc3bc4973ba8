// Package ws streams sandbox frames over websockets and feeds client edits
// back into the simulation.
//
// A single loop goroutine owns the world. Connections only exchange messages
// with it through channels, so edits land between ticks.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"mad-liquid/internal/core"
	"mad-liquid/internal/liquid"
	"mad-liquid/internal/logging"
	"mad-liquid/internal/sims/sandbox"
)

// Options configures a Server.
type Options struct {
	TPS             int
	FrameEvery      int
	MaxMessageBytes int64
	// Paused starts the loop without stepping; clients resume it.
	Paused bool
	Logger *slog.Logger
}

// Status is the latest summary published by the loop.
type Status struct {
	Tick    int          `json:"tick"`
	Paused  bool         `json:"paused"`
	Clients int          `json:"clients"`
	Stats   liquid.Stats `json:"stats"`
}

type subscriber struct {
	id  uint64
	out chan []byte
}

// Server hosts the frame stream.
type Server struct {
	world *sandbox.World
	log   *slog.Logger
	opts  Options
	step  *core.FixedStep

	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	cmds   chan Command
	joins  chan subscriber
	leaves chan uint64
	done   chan struct{}

	status atomic.Pointer[Status]
}

// NewServer wraps world. The world must not be touched by anything else
// once Run starts.
func NewServer(world *sandbox.World, opts Options) *Server {
	if opts.FrameEvery < 1 {
		opts.FrameEvery = 1
	}
	if opts.MaxMessageBytes <= 0 {
		opts.MaxMessageBytes = 4096
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	s := &Server{
		world: world,
		log:   opts.Logger,
		opts:  opts,
		step:  core.NewFixedStep(opts.TPS),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		cmds:   make(chan Command, 64),
		joins:  make(chan subscriber),
		leaves: make(chan uint64, 16),
		done:   make(chan struct{}),
	}
	s.publishStatus(opts.Paused, 0)
	return s
}

// Mux returns the HTTP routes: /ws for the stream and /status for a JSON
// summary.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.Handler())
	mux.HandleFunc("/status", s.StatusHandler())
	return mux
}

// Status returns the most recent loop summary.
func (s *Server) Status() Status { return *s.status.Load() }

// StatusHandler serves Status as JSON.
func (s *Server) StatusHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(s.Status())
	}
}

// Run drives the simulation until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	defer close(s.done)

	ticker := time.NewTicker(s.step.Interval())
	defer ticker.Stop()

	subs := map[uint64]subscriber{}
	paused := s.opts.Paused
	s.log.Info("ws loop started", "tps", s.step.TPS(), "paused", paused)

	broadcast := func() {
		s.publishStatus(paused, len(subs))
		b, err := json.Marshal(s.frame(paused))
		if err != nil {
			s.log.Error("encode frame", "err", err)
			return
		}
		for _, sub := range subs {
			select {
			case sub.out <- b:
			default:
				s.log.Debug("frame dropped", "client", sub.id)
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			s.log.Info("ws loop stopped", "tick", s.world.Tick())
			return ctx.Err()
		case sub := <-s.joins:
			subs[sub.id] = sub
			s.publishStatus(paused, len(subs))
			b, err := json.Marshal(s.frame(paused))
			if err == nil {
				sub.out <- b
			}
			s.log.Info("client joined", "client", sub.id, "clients", len(subs))
		case id := <-s.leaves:
			delete(subs, id)
			s.publishStatus(paused, len(subs))
			s.log.Info("client left", "client", id, "clients", len(subs))
		case cmd := <-s.cmds:
			paused = s.apply(cmd, paused)
			broadcast()
		case <-ticker.C:
			if paused {
				continue
			}
			s.world.Step()
			s.log.Log(ctx, logging.LevelTrace, "tick", "tick", s.world.Tick())
			if s.world.Tick()%s.opts.FrameEvery == 0 {
				broadcast()
			}
		}
	}
}

func (s *Server) apply(cmd Command, paused bool) bool {
	switch cmd.Type {
	case TypeSetCell:
		s.world.PaintWall(cmd.X, cmd.Y, cmd.Solid)
	case TypeAddLiquid:
		s.world.PourAmount(cmd.X, cmd.Y, float32(cmd.Amount))
	case TypeReset:
		s.world.Reset(cmd.Seed)
	case TypePause:
		paused = true
	case TypeResume:
		paused = false
	case TypeStep:
		s.world.Step()
	}
	s.log.Debug("command applied", "type", cmd.Type, "x", cmd.X, "y", cmd.Y)
	return paused
}

func (s *Server) frame(paused bool) Frame {
	size := s.world.Size()
	return Frame{
		Type:   TypeFrame,
		Tick:   s.world.Tick(),
		Width:  size.W,
		Height: size.H,
		Paused: paused,
		Cells:  s.world.Cells(),
		Flow:   s.world.FlowField(),
		Stats:  s.world.Stats(),
	}
}

func (s *Server) publishStatus(paused bool, clients int) {
	s.status.Store(&Status{
		Tick:    s.world.Tick(),
		Paused:  paused,
		Clients: clients,
		Stats:   s.world.Stats(),
	})
}

// Handler upgrades the request and runs one client session.
func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.SetReadLimit(s.opts.MaxMessageBytes)

		sub := subscriber{id: s.nextID.Add(1), out: make(chan []byte, 8)}
		select {
		case s.joins <- sub:
		case <-s.done:
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopped"), time.Now().Add(time.Second))
			return
		}
		defer func() {
			select {
			case s.leaves <- sub.id:
			case <-s.done:
			}
		}()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-s.done:
					_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopped"), time.Now().Add(time.Second))
					cancel()
					return
				case b := <-sub.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			cmd, err := DecodeCommand(msg)
			if err != nil {
				s.reject(sub, err)
				continue
			}
			select {
			case s.cmds <- cmd:
			case <-ctx.Done():
				return
			case <-s.done:
				return
			}
		}
	}
}

func (s *Server) reject(sub subscriber, err error) {
	s.log.Debug("command rejected", "client", sub.id, "err", err)
	b, mErr := json.Marshal(ErrorMsg{Type: TypeError, Error: err.Error()})
	if mErr != nil {
		return
	}
	select {
	case sub.out <- b:
	default:
	}
}

// ListenAndServe serves the routes on addr and runs the loop until ctx ends.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Mux(), ReadHeaderTimeout: 5 * time.Second}

	loopErr := make(chan error, 1)
	go func() { loopErr <- s.Run(ctx) }()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("serving", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	if err := <-loopErr; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
