package gateway

import (
	"net"
	"sync"
	"time"

	"rcord/internal/protocol"
)

const writeWait = 10 * time.Second

// peer wraps one TCP connection. Writes are serialized so pushes and
// responses never interleave within a frame.
type peer struct {
	conn      net.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
}

func newPeer(conn net.Conn) *peer {
	return &peer{conn: conn}
}

// WriteJSON sends one newline-terminated frame.
func (p *peer) WriteJSON(v any) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return protocol.Encode(p.conn, v)
}

// Close shuts the connection down. Safe to call more than once.
func (p *peer) Close() {
	p.closeOnce.Do(func() {
		p.conn.Close()
	})
}

func (p *peer) RemoteAddr() string {
	return p.conn.RemoteAddr().String()
}
