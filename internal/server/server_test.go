package server

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rummikub/internal/game"
	"rummikub/internal/tile"
)

type client struct {
	t *testing.T
	c net.Conn
	r *bufio.Reader
}

func dial(t *testing.T, addr string) *client {
	t.Helper()
	c, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return &client{t: t, c: c, r: bufio.NewReader(c)}
}

func (c *client) send(line string) {
	c.t.Helper()
	_, err := c.c.Write([]byte(line + "\n"))
	require.NoError(c.t, err)
}

// expect reads until a line starting with prefix arrives and returns it.
func (c *client) expect(prefix string) string {
	c.t.Helper()
	_ = c.c.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		line, err := c.r.ReadString('\n')
		require.NoError(c.t, err, "waiting for %q", prefix)
		line = strings.TrimRight(line, "\r\n")
		if strings.HasPrefix(line, prefix) {
			return line
		}
	}
}

func startServer(t *testing.T, opts ...game.Option) (*Server, string, *game.Manager) {
	t.Helper()
	m := game.NewManager(game.DefaultRules(), opts...)
	srv := New(m)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
		sctx, scancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer scancel()
		assert.NoError(t, srv.Shutdown(sctx))
		m.Close()
	})
	return srv, ln.Addr().String(), m
}

func stackedPool(t *testing.T, csv string) game.Option {
	t.Helper()
	tiles, err := tile.ParseList(csv)
	require.NoError(t, err)
	return game.WithPoolFactory(func() *tile.Pool { return tile.NewPool(tiles) })
}

func TestServer_TwoPlayerRound(t *testing.T) {
	_, addr, m := startServer(t, stackedPool(t,
		"R1,R2,R3,R4,BL6,BL7,BL8,Y1,Y2,Y3,Y4,B11,B12,B13,"+
			"R5,R6,R7,R8,R9,R10,R11,R12,R13,Y5,Y6,Y7,Y8,Y9,"+
			"B1,B2,B3"))

	a := dial(t, addr)
	a.send("LOGIN|A")
	a.expect("INFO|welcome A")
	a.send("CREATE|table")
	a.expect("JOIN_OK|0")
	a.expect("OWNER|true")

	b := dial(t, addr)
	b.send("B")
	b.expect("INFO|welcome B")
	b.send("LIST")
	assert.Equal(t, "ROOM_LIST|0,table,1", b.expect("ROOM_LIST"))
	b.send("JOIN|0")
	b.expect("JOIN_OK|0")
	a.expect("PLAYER_COUNT|2")

	b.send("START_GAME")
	assert.Equal(t, "ERROR|only the room owner can start the game", b.expect("ERROR|"))

	a.send("START_GAME")
	a.expect("GAME_START|2")
	hand := strings.TrimPrefix(a.expect("INITIAL_TILES|"), "INITIAL_TILES|")
	assert.Len(t, strings.Split(hand, ","), 14)
	a.expect("TURN|A")
	b.expect("INITIAL_TILES|")
	b.expect("TURN|A")

	b.send("NO_TILE")
	assert.Equal(t, "ERROR|not your turn", b.expect("ERROR|"))

	a.send("PLAY|BL6,BL7,BL8;R1,R2,R3,R4")
	a.expect("PLAY_OK|A|BL6,BL7,BL8;R1,R2,R3,R4")
	b.expect("PLAY_OK|A|BL6,BL7,BL8;R1,R2,R3,R4")
	b.expect("TURN|B")

	b.send("PLAY|BL6,BL7,BL8;R1,R2,R3,R4;R4,R5,R6")
	assert.Equal(t, "PLAY_FAIL|illegal tile usage: R4", b.expect("PLAY_FAIL|"))

	b.send("NO_TILE")
	b.expect("NEW_TILE|B1")
	a.expect("TURN|A")

	a.send("PLAY|BL6,BL7,BL8;R1,R2,R3,R4;Y1,Y2,Y3,Y4;B11,B12,B13")
	a.expect("GAME_END|A")
	a.expect("SCORE|A|117")
	a.expect("SCORE|B|-117")
	b.expect("GAME_END|A")

	b.send("BOGUS")
	assert.Equal(t, "ERROR|unknown command: BOGUS", b.expect("ERROR|"))

	a.send("EXIT")
	a.expect("INFO|bye A")
	_ = a.c.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, err := io.ReadAll(a.r)
	assert.NoError(t, err)

	require.NoError(t, b.c.Close())
	assert.Eventually(t, func() bool { return m.Len() == 0 }, 3*time.Second, 10*time.Millisecond)
}

func TestServer_ProtocolErrors(t *testing.T) {
	_, addr, _ := startServer(t)

	c := dial(t, addr)
	c.send("LOGIN|")
	assert.Equal(t, "ERROR|name required", c.expect("ERROR|"))
	c.send("LOGIN|Z")
	c.expect("INFO|welcome Z")

	c.send("LOGIN|Y")
	assert.Equal(t, "ERROR|already logged in as Z", c.expect("ERROR|"))
	c.send("JOIN|x")
	assert.Equal(t, "ERROR|invalid room id: x", c.expect("ERROR|"))
	c.send("JOIN|42")
	assert.Equal(t, "ERROR|room not found", c.expect("ERROR|"))
	c.send("CHAT|hi")
	assert.Equal(t, "ERROR|not in a room", c.expect("ERROR|"))
	c.send("PLAY|R1,R2,R3")
	assert.Equal(t, "ERROR|not in a room", c.expect("ERROR|"))

	c.send("CREATE|")
	c.expect("JOIN_OK|0")
	c.send("LIST")
	assert.Equal(t, "ROOM_LIST|0,Z's room,1", c.expect("ROOM_LIST|"))
	c.send("PLAY|R1,R2,R3")
	assert.Equal(t, "ERROR|game not started", c.expect("ERROR|"))
	c.send("CHAT|hello")
	c.expect("CHAT|Z: hello")
	c.send("LEAVE")
	c.expect("INFO|left room 0")
	c.send("LIST")
	assert.Equal(t, "ROOM_LIST|", c.expect("ROOM_LIST"))
}

func TestServer_ShutdownLeavesRooms(t *testing.T) {
	srv, addr, m := startServer(t)

	c := dial(t, addr)
	c.send("LOGIN|Q")
	c.expect("INFO|welcome Q")
	c.send("CREATE|x")
	c.expect("JOIN_OK|")
	require.Equal(t, 1, m.Len())
	require.Equal(t, 1, srv.SessionCount())

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0, srv.SessionCount())

	// the listener is still open but new connections are dropped
	late := dial(t, addr)
	_ = late.c.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, err := late.r.ReadString('\n')
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 0, srv.SessionCount())
}

func TestHTTP_WebsocketAfterShutdown(t *testing.T) {
	srv := New(game.NewManager(game.DefaultRules()))
	h, err := srv.Handler()
	require.NoError(t, err)
	ts := httptest.NewServer(h)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer ws.Close()
	_ = ws.SetReadDeadline(time.Now().Add(3 * time.Second))
	_ = ws.WriteMessage(websocket.TextMessage, []byte("LOGIN|W"))
	_, _, err = ws.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 0, srv.SessionCount())
}

func TestHTTP_HealthAndWebsocket(t *testing.T) {
	srv := New(game.NewManager(game.DefaultRules()))
	h, err := srv.Handler()
	require.NoError(t, err)
	ts := httptest.NewServer(h)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer ws.Close()
	_ = ws.SetReadDeadline(time.Now().Add(3 * time.Second))

	read := func() string {
		_, data, err := ws.ReadMessage()
		require.NoError(t, err)
		return string(data)
	}
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("LOGIN|W")))
	assert.Equal(t, "INFO|welcome W", read())
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("CREATE|web")))
	assert.Equal(t, "JOIN_OK|0", read())
	assert.Equal(t, "OWNER|true", read())
}
