// Package server puts the room manager on the network: a TCP listener and a
// websocket gateway speaking the same line protocol, plus the HTTP side
// routes.
package server

import (
	"context"
	"errors"
	"net"
	"sync"

	"rummikub/internal/game"
	"rummikub/internal/log"
)

type Server struct {
	rooms *game.Manager

	mu       sync.Mutex
	closing  bool
	sessions map[*Session]struct{}
	wg       sync.WaitGroup
}

func New(rooms *game.Manager) *Server {
	return &Server{
		rooms:    rooms,
		sessions: make(map[*Session]struct{}),
	}
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections until ctx is done or the listener fails. A
// cancelled ctx returns nil.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	log.Info("line server listening on %s", ln.Addr())
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		c, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		sess, ok := s.track(newTCPConn(c))
		if !ok {
			continue
		}
		go s.handle(sess)
	}
}

// track registers a session for conn, or closes conn once Shutdown has begun.
// Registration and the WaitGroup count share mu with Shutdown's closing flag.
func (s *Server) track(conn LineConn) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		_ = conn.Close()
		return nil, false
	}
	sess := newSession(conn, s.rooms)
	s.sessions[sess] = struct{}{}
	s.wg.Add(1)
	return sess, true
}

func (s *Server) handle(sess *Session) {
	defer s.wg.Done()
	sess.run()

	s.mu.Lock()
	delete(s.sessions, sess)
	s.mu.Unlock()
}

// SessionCount is the number of live connections.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Shutdown refuses new connections, drops every live one, which makes each
// player leave its room, and waits for the session workers until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	for sess := range s.sessions {
		_ = sess.conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
