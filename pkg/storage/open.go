package storage

import (
	"fmt"
	"os"

	"github.com/cuemby/hbase-mesos/pkg/config"
)

// Open returns the store selected by the configuration
func Open(cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case config.StoreBolt:
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		return NewBoltStore(cfg.DataDir)
	case config.StoreEtcd:
		return NewEtcdStore(cfg.EtcdEndpoints, cfg.EtcdPrefix, cfg.Timeout)
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}
