package server

import (
	"net/http"

	"github.com/arl/statsviz"

	"rummikub/internal/log"
)

// Handler serves /health, the websocket gateway on /ws and the runtime
// visualiser under /debug/statsviz/.
func (s *Server) Handler() (http.Handler, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ws", s.wsHandler)
	if err := statsviz.Register(mux); err != nil {
		return nil, err
	}
	return mux, nil
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("ws upgrade: %v", err)
		return
	}
	if sess, ok := s.track(newWSConn(ws)); ok {
		s.handle(sess)
	}
}
