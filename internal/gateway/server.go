// Package gateway runs the two TCP listeners and the session registry
// behind them. The control listener carries authenticated requests and
// pushes; the media listener relays opaque voice and screen frames
// between co-members.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"rcord/internal/config"
	"rcord/internal/store"
)

type Server struct {
	cfg      *config.Config
	store    *store.Store
	registry *Registry
	monitor  *Monitor

	controlLn net.Listener
	mediaLn   net.Listener
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	mu     sync.Mutex
	peers  map[*peer]struct{}
	closed bool
}

func NewServer(cfg *config.Config, st *store.Store, registry *Registry) *Server {
	return &Server{
		cfg:      cfg,
		store:    st,
		registry: registry,
		monitor:  NewMonitor(registry, cfg.CheckInterval(), cfg.HeartbeatTimeout()),
		peers:    make(map[*peer]struct{}),
	}
}

// Start binds both listeners and launches the accept loops and the
// presence monitor. It returns once the server is accepting.
func (s *Server) Start() error {
	controlLn, err := net.Listen("tcp", s.cfg.ControlAddr())
	if err != nil {
		return fmt.Errorf("control listener: %w", err)
	}
	mediaLn, err := net.Listen("tcp", s.cfg.MediaAddr())
	if err != nil {
		controlLn.Close()
		return fmt.Errorf("media listener: %w", err)
	}
	s.controlLn = controlLn
	s.mediaLn = mediaLn

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(3)
	go func() {
		defer s.wg.Done()
		s.acceptLoop(controlLn, s.serveControl)
	}()
	go func() {
		defer s.wg.Done()
		s.acceptLoop(mediaLn, s.serveMedia)
	}()
	go func() {
		defer s.wg.Done()
		s.monitor.Start(ctx)
	}()

	slog.Info("gateway listening", "component", "gateway",
		"control_addr", controlLn.Addr().String(), "media_addr", mediaLn.Addr().String())
	return nil
}

func (s *Server) acceptLoop(ln net.Listener, serve func(net.Conn)) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			slog.Warn("accept failed", "component", "gateway", "error", err)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			serve(conn)
		}()
	}
}

func (s *Server) serveControl(conn net.Conn) {
	p := newPeer(conn)
	if !s.track(p) {
		p.Close()
		return
	}
	defer s.untrack(p)
	c := &controlConn{srv: s, peer: p}
	c.run()
}

func (s *Server) serveMedia(conn net.Conn) {
	p := newPeer(conn)
	if !s.track(p) {
		p.Close()
		return
	}
	defer s.untrack(p)
	m := &mediaConn{srv: s, peer: p}
	m.run()
}

func (s *Server) track(p *peer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.peers[p] = struct{}{}
	return true
}

func (s *Server) untrack(p *peer) {
	s.mu.Lock()
	delete(s.peers, p)
	s.mu.Unlock()
}

// ControlAddr returns the bound control address.
func (s *Server) ControlAddr() string {
	return s.controlLn.Addr().String()
}

// MediaAddr returns the bound media address.
func (s *Server) MediaAddr() string {
	return s.mediaLn.Addr().String()
}

// Shutdown stops accepting, closes every live connection, and waits
// for all handlers to finish their teardown, including the presence
// writes that mark users offline.
func (s *Server) Shutdown() {
	s.mu.Lock()
	s.closed = true
	peers := make([]*peer, 0, len(s.peers))
	for p := range s.peers {
		peers = append(peers, p)
	}
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	if s.controlLn != nil {
		s.controlLn.Close()
	}
	if s.mediaLn != nil {
		s.mediaLn.Close()
	}
	for _, p := range peers {
		p.Close()
	}
	s.wg.Wait()
	slog.Info("gateway stopped", "component", "gateway")
}
