package server

import (
	"bufio"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 120 * time.Second
	pingPeriod = 30 * time.Second
	maxLine    = 64 * 1024
)

// LineConn carries one protocol line per read and per write.
type LineConn interface {
	ReadLine() (string, error)
	WriteLine(line string) error
	// Ping keeps idle transports alive; a no-op where the transport has no
	// keepalive frame.
	Ping() error
	Close() error
	RemoteAddr() string
}

type tcpConn struct {
	c       net.Conn
	scanner *bufio.Scanner
}

func newTCPConn(c net.Conn) *tcpConn {
	sc := bufio.NewScanner(c)
	sc.Buffer(make([]byte, 0, 4096), maxLine)
	return &tcpConn{c: c, scanner: sc}
}

func (t *tcpConn) ReadLine() (string, error) {
	if !t.scanner.Scan() {
		if err := t.scanner.Err(); err != nil {
			return "", err
		}
		return "", net.ErrClosed
	}
	return strings.TrimRight(t.scanner.Text(), "\r"), nil
}

func (t *tcpConn) WriteLine(line string) error {
	_ = t.c.SetWriteDeadline(time.Now().Add(writeWait))
	_, err := t.c.Write([]byte(line + "\n"))
	return err
}

func (t *tcpConn) Ping() error        { return nil }
func (t *tcpConn) Close() error       { return t.c.Close() }
func (t *tcpConn) RemoteAddr() string { return t.c.RemoteAddr().String() }

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConn maps one text frame to one line.
type wsConn struct {
	ws *websocket.Conn
}

func newWSConn(ws *websocket.Conn) *wsConn {
	ws.SetReadLimit(maxLine)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	return &wsConn{ws: ws}
}

func (w *wsConn) ReadLine() (string, error) {
	_, data, err := w.ws.ReadMessage()
	if err != nil {
		return "", err
	}
	_ = w.ws.SetReadDeadline(time.Now().Add(pongWait))
	return strings.TrimRight(string(data), "\r\n"), nil
}

func (w *wsConn) WriteLine(line string) error {
	_ = w.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return w.ws.WriteMessage(websocket.TextMessage, []byte(line))
}

func (w *wsConn) Ping() error {
	_ = w.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return w.ws.WriteMessage(websocket.PingMessage, nil)
}

func (w *wsConn) Close() error       { return w.ws.Close() }
func (w *wsConn) RemoteAddr() string { return w.ws.RemoteAddr().String() }
