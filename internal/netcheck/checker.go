// Package netcheck implements network reachability probes for status
// reporting.
//
// The bot is useless without a route to the Discord gateway, so the
// status command probes the configured gateway address and reports the
// result alongside the process state. A probe is a plain TCP dial: if
// the connection opens, the network path is good enough for the bot's
// websocket to try.
package netcheck

import (
	"net"
	"time"
)

// defaultDialTimeout bounds a reachability probe. Status output should
// never hang on a dead network; three seconds is enough to tell a
// working path from a broken one.
const defaultDialTimeout = 3 * time.Second

// Checker probes TCP reachability of remote endpoints.
//
// The struct carries only the dial timeout, but is defined as a struct
// (rather than bare functions) so that future options (e.g., source
// address, retry policy) can be added without breaking the API.
type Checker struct {
	// Timeout bounds each connection attempt.
	Timeout time.Duration
}

// NewChecker creates a Checker with the default timeout.
func NewChecker() *Checker {
	return &Checker{Timeout: defaultDialTimeout}
}

// IsReachable reports whether a TCP connection to addr ("host:port")
// succeeds within the timeout. The connection is closed immediately; the
// probe only needs to know the handshake worked.
func (c *Checker) IsReachable(addr string) bool {
	conn, err := net.DialTimeout("tcp", addr, c.Timeout)
	if err != nil {
		return false
	}
	defer func() { _ = conn.Close() }()
	return true
}
