package client

import (
	"net"
	"strconv"
	"sync"
	"time"

	"wirehttp/application/http/h1"

	"github.com/benbjohnson/clock"
)

type connKey struct {
	scheme   string
	hostname string
	port     uint16
}

func (k connKey) String() string {
	return k.scheme + "://" + net.JoinHostPort(k.hostname, strconv.Itoa(int(k.port)))
}

type idleConn struct {
	conn   *h1.Conn
	idleAt time.Time
}

// connPool keeps connections whose last exchange completed.
type connPool struct {
	mu      sync.Mutex
	idle    map[connKey][]idleConn
	maxIdle uint // per key.

	idleTimeout time.Duration
	clock       clock.Clock
}

func newConnPool(maxIdle uint, idleTimeout time.Duration, clock clock.Clock) *connPool {
	return &connPool{
		idle:        make(map[connKey][]idleConn),
		maxIdle:     maxIdle,
		idleTimeout: idleTimeout,
		clock:       clock,
	}
}

func (pool *connPool) idleTimeoutExceeded(ic idleConn) bool {
	if pool.idleTimeout == 0 {
		return false
	}
	return pool.clock.Since(ic.idleAt) >= pool.idleTimeout
}

// get returns the most recently used idle connection for key.
// Expired connections met on the way are closed.
func (pool *connPool) get(key connKey) (*h1.Conn, bool) {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	conns := pool.idle[key]
	defer func() {
		if len(conns) == 0 {
			delete(pool.idle, key)
		} else {
			pool.idle[key] = conns
		}
	}()

	for idx := len(conns) - 1; idx >= 0; idx-- {
		ic := conns[idx]
		conns = conns[:idx]

		if pool.idleTimeoutExceeded(ic) {
			_ = ic.conn.Close()
			continue
		}

		return ic.conn, true
	}

	return nil, false
}

// put stores conn as idle. conn is closed instead if the pool is full.
func (pool *connPool) put(key connKey, conn *h1.Conn) (kept bool) {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	conns := pool.idle[key]
	if uint(len(conns)) >= pool.maxIdle {
		_ = conn.Close()
		return false
	}

	pool.idle[key] = append(conns, idleConn{conn: conn, idleAt: pool.clock.Now()})
	return true
}

func (pool *connPool) len(key connKey) int {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	return len(pool.idle[key])
}

func (pool *connPool) closeAll() error {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	var firstErr error
	for key, conns := range pool.idle {
		for _, ic := range conns {
			if err := ic.conn.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		delete(pool.idle, key)
	}

	return firstErr
}
