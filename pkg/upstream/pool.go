package upstream

import (
	"bufio"
	"net"
	"sync"
	"time"

	"helios-hq/mercury/pkg/config"
)

// Conn is one upstream connection, either a plain TCP connection or a
// completed TLS session. It owns the buffered reader used to parse responses
// so that bytes read ahead of a response body are not lost across reuse.
type Conn struct {
	endpoint config.Endpoint
	raw      net.Conn
	br       *bufio.Reader
	reused   bool
}

// newConn wraps an established network connection.
func newConn(endpoint config.Endpoint, raw net.Conn) *Conn {
	return &Conn{
		endpoint: endpoint,
		raw:      raw,
		br:       bufio.NewReader(raw),
	}
}

// Endpoint returns the gateway this connection is established to.
func (c *Conn) Endpoint() config.Endpoint {
	return c.endpoint
}

// Close closes the underlying network connection.
func (c *Conn) Close() error {
	return c.raw.Close()
}

// Pool is the keep-alive pool for upstream connections. Only winning
// attempts ever check connections in; losing and rejected attempts close
// theirs. Check-out happens at the start of a fetch attempt so a repeat
// request to the same endpoint skips the dial and handshake.
//
// The pool is safe for use by concurrent requests.
type Pool struct {
	mu          sync.Mutex
	idle        map[string][]*pooledConn
	total       int
	maxSize     int
	idleTimeout time.Duration
	closed      bool
	stopCh      chan struct{}
}

type pooledConn struct {
	conn      *Conn
	checkedIn time.Time
}

// NewPool creates a pool with the given capacity and idle timeout and starts
// its background sweeper.
func NewPool(policy config.KeepAlivePolicy) *Pool {
	p := &Pool{
		idle:        make(map[string][]*pooledConn),
		maxSize:     policy.MaxPoolSize,
		idleTimeout: policy.IdleTimeout,
		stopCh:      make(chan struct{}),
	}
	go p.sweep()
	return p
}

// Get checks out an idle connection for the endpoint, or nil when none is
// available. Expired connections found on the way are closed.
func (p *Pool) Get(endpoint config.Endpoint) *Conn {
	key := endpoint.String()

	p.mu.Lock()
	defer p.mu.Unlock()

	conns := p.idle[key]
	for len(conns) > 0 {
		pc := conns[len(conns)-1]
		conns = conns[:len(conns)-1]
		p.total--
		if time.Since(pc.checkedIn) > p.idleTimeout {
			_ = pc.conn.Close()
			continue
		}
		p.stash(key, conns)
		pc.conn.reused = true
		return pc.conn
	}
	p.stash(key, conns)
	return nil
}

// stash writes back the remaining idle list for a key, dropping empty lists.
// Caller holds the mutex.
func (p *Pool) stash(key string, conns []*pooledConn) {
	if len(conns) == 0 {
		delete(p.idle, key)
	} else {
		p.idle[key] = conns
	}
}

// Put checks a connection back in. When the pool is full or closed the
// connection is closed instead.
func (p *Pool) Put(conn *Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.total >= p.maxSize {
		_ = conn.Close()
		return
	}

	key := conn.endpoint.String()
	p.idle[key] = append(p.idle[key], &pooledConn{conn: conn, checkedIn: time.Now()})
	p.total++
}

// Len reports the number of idle pooled connections.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}

// Close closes all idle connections and stops the sweeper. Connections
// checked out before Close are unaffected.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	close(p.stopCh)

	for _, conns := range p.idle {
		for _, pc := range conns {
			_ = pc.conn.Close()
		}
	}
	p.idle = make(map[string][]*pooledConn)
	p.total = 0
	return nil
}

// sweep periodically evicts idle connections past their timeout.
func (p *Pool) sweep() {
	interval := p.idleTimeout / 2
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.evictExpired()
		}
	}
}

// evictExpired closes and drops connections idle past the timeout.
func (p *Pool) evictExpired() {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	for key, conns := range p.idle {
		kept := conns[:0]
		for _, pc := range conns {
			if now.Sub(pc.checkedIn) > p.idleTimeout {
				_ = pc.conn.Close()
				p.total--
				continue
			}
			kept = append(kept, pc)
		}
		if len(kept) == 0 {
			delete(p.idle, key)
		} else {
			p.idle[key] = kept
		}
	}
}
