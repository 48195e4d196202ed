package health

import (
	"context"
	"net"
	"time"
)

// TCPChecker probes that an address accepts connections
type TCPChecker struct {
	// Address is host:port, e.g. "mesos-master:5050"
	Address string
	Timeout time.Duration
}

// NewTCPChecker creates a checker with a 5 second dial timeout
func NewTCPChecker(address string) *TCPChecker {
	return &TCPChecker{
		Address: address,
		Timeout: 5 * time.Second,
	}
}

// Check dials the address and closes the connection
func (t *TCPChecker) Check(ctx context.Context) Result {
	start := time.Now()

	dialer := &net.Dialer{Timeout: t.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", t.Address)
	if err != nil {
		return failed(start, "connection failed: %v", err)
	}
	conn.Close()

	return Result{
		Healthy:   true,
		Message:   "connected to " + t.Address,
		CheckedAt: start,
		Duration:  time.Since(start),
	}
}

// Type returns the probe type
func (t *TCPChecker) Type() CheckType {
	return CheckTypeTCP
}
