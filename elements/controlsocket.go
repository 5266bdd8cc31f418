package elements

import (
	"net"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/clickgo/swrouter/router"
)

// ControlSocket exposes a Router's handler surface (§4.7) over a
// gorilla/websocket connection: each inbound text frame is either
// "element.handler" (a read) or "element.handler value..." (a write);
// the reply frame is the handler's return value, or an "error: "-prefixed
// message. This framing is deliberately undocumented and minimal — a
// driver convenience, not a protocol the core specifies (§1, §4.7).
type ControlSocket struct {
	Router *router.Router
	Addr   string

	server   *http.Server
	listener net.Listener
	upgrader websocket.Upgrader
}

// NewControlSocket returns a ControlSocket that will serve r's handler
// table once Start is called.
func NewControlSocket(r *router.Router, addr string) *ControlSocket {
	return &ControlSocket{Router: r, Addr: addr}
}

// Start binds Addr and begins accepting websocket connections in the
// background.
func (c *ControlSocket) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", c.handleConn)
	c.server = &http.Server{Handler: mux}

	ln, err := net.Listen("tcp", c.Addr)
	if err != nil {
		return err
	}
	c.listener = ln

	go func() { _ = c.server.Serve(ln) }()
	return nil
}

// Stop closes the listener and any in-flight connections it owns.
func (c *ControlSocket) Stop() error {
	if c.server == nil {
		return nil
	}
	return c.server.Close()
}

// Address returns the bound listener's address, useful when Addr was
// given as ":0" to pick an ephemeral port.
func (c *ControlSocket) Address() string {
	if c.listener == nil {
		return c.Addr
	}
	return c.listener.Addr().String()
}

func (c *ControlSocket) handleConn(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		reply := c.dispatch(string(msg))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(reply)); err != nil {
			return
		}
	}
}

// dispatch parses one frame and invokes the named handler, returning the
// exact text to write back.
func (c *ControlSocket) dispatch(frame string) string {
	frame = strings.TrimSpace(frame)
	name, rest, hasValue := strings.Cut(frame, " ")
	if !hasValue {
		s, err := c.Router.CallReadHandler(name)
		if err != nil {
			return "error: " + err.Error()
		}
		return s
	}
	if err := c.Router.CallWriteHandler(name, rest); err != nil {
		return "error: " + err.Error()
	}
	return "ok\n"
}
