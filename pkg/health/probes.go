package health

import (
	"fmt"
	"net"
	"net/url"

	"github.com/cuemby/hbase-mesos/pkg/config"
	"github.com/cuemby/hbase-mesos/pkg/metrics"
	"github.com/cuemby/hbase-mesos/pkg/types"
)

// Probes returns the dependency probes for a configuration: the config
// server file every executor fetches first, and the master endpoint.
func Probes(cfg config.Config) ([]Probe, error) {
	confURL := cfg.ConfigServerURL(types.HBaseConfigFileName)
	httpProbe := NewHTTPChecker(confURL)
	httpProbe.Client.Timeout = cfg.Probe.Timeout

	master, err := masterAddress(cfg.Mesos.Master)
	if err != nil {
		return nil, err
	}
	tcpProbe := NewTCPChecker(master)
	tcpProbe.Timeout = cfg.Probe.Timeout

	return []Probe{
		{Name: metrics.ComponentConfigServer, Checker: httpProbe},
		{Name: metrics.ComponentMaster, Checker: tcpProbe},
	}, nil
}

// masterAddress turns a master URL into host:port, defaulting to 5050
func masterAddress(master string) (string, error) {
	u, err := url.Parse(master)
	if err != nil {
		return "", fmt.Errorf("invalid master URL %q: %w", master, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid master URL %q: no host", master)
	}
	if u.Port() == "" {
		return net.JoinHostPort(u.Hostname(), "5050"), nil
	}
	return u.Host, nil
}
