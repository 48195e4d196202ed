package config

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/cuemby/hbase-mesos/pkg/types"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables that override config keys
const EnvPrefix = "HBASE_MESOS"

const (
	StoreBolt = "bolt"
	StoreEtcd = "etcd"
)

// Config is the scheduler configuration. It is built once at start-up and
// passed by value; nothing mutates it afterwards.
type Config struct {
	Framework    FrameworkConfig    `mapstructure:"framework" yaml:"framework"`
	Mesos        MesosConfig        `mapstructure:"mesos" yaml:"mesos"`
	Master       NodeConfig         `mapstructure:"masternode" yaml:"masternode"`
	Slave        NodeConfig         `mapstructure:"slavenode" yaml:"slavenode"`
	Executor     NodeConfig         `mapstructure:"executor" yaml:"executor"`
	JVM          JVMConfig          `mapstructure:"jvm" yaml:"jvm"`
	ConfigServer ConfigServerConfig `mapstructure:"config_server" yaml:"config_server"`
	Store        StoreConfig        `mapstructure:"store" yaml:"store"`
	API          APIConfig          `mapstructure:"api" yaml:"api"`
	Log          LogConfig          `mapstructure:"log" yaml:"log"`
	Probe        ProbeConfig        `mapstructure:"probe" yaml:"probe"`

	// NativeHadoopBinaries disables config reload broadcasts; the executors
	// use the host's own HBase install and config.
	NativeHadoopBinaries bool `mapstructure:"native_hadoop_binaries" yaml:"native_hadoop_binaries"`
	// HadoopHeapMB is the heap used for a role without its own setting
	HadoopHeapMB int `mapstructure:"hadoop_heap_mb" yaml:"hadoop_heap_mb"`
}

// FrameworkConfig is what the scheduler presents to the fleet when subscribing
type FrameworkConfig struct {
	Name            string        `mapstructure:"name" yaml:"name"`
	User            string        `mapstructure:"user" yaml:"user"`
	Role            string        `mapstructure:"role" yaml:"role"`
	FailoverTimeout time.Duration `mapstructure:"failover_timeout" yaml:"failover_timeout"`
	Principal       string        `mapstructure:"principal" yaml:"principal"`
	Secret          string        `mapstructure:"secret" yaml:"secret"`
}

// MesosConfig locates the fleet master
type MesosConfig struct {
	Master                string        `mapstructure:"master" yaml:"master"`
	ReconciliationTimeout time.Duration `mapstructure:"reconciliation_timeout" yaml:"reconciliation_timeout"`
	// ReconcileInterval paces implicit reconciliation between
	// registrations; zero disables it
	ReconcileInterval time.Duration `mapstructure:"reconcile_interval" yaml:"reconcile_interval"`
}

// NodeConfig sizes one process kind
type NodeConfig struct {
	CPUs   float64 `mapstructure:"cpus" yaml:"cpus"`
	HeapMB int     `mapstructure:"heap_mb" yaml:"heap_mb"`
}

// JVMConfig carries the JVM settings shared by every role
type JVMConfig struct {
	Overhead      float64 `mapstructure:"overhead" yaml:"overhead"`
	Opts          string  `mapstructure:"opts" yaml:"opts"`
	JREURL        string  `mapstructure:"jre_url" yaml:"jre_url"`
	JREVersion    string  `mapstructure:"jre_version" yaml:"jre_version"`
	LDLibraryPath string  `mapstructure:"ld_library_path" yaml:"ld_library_path"`
}

// ConfigServerConfig locates the HTTP server that serves binaries and config files
type ConfigServerConfig struct {
	HostAddress string `mapstructure:"host_address" yaml:"host_address"`
	Port        int    `mapstructure:"port" yaml:"port"`
	// HDFSConfigURL overrides the hdfs-site.xml location
	HDFSConfigURL string `mapstructure:"hdfs_config_url" yaml:"hdfs_config_url"`
}

// StoreConfig selects the durable ledger backend
type StoreConfig struct {
	Backend       string        `mapstructure:"backend" yaml:"backend"`
	DataDir       string        `mapstructure:"data_dir" yaml:"data_dir"`
	EtcdEndpoints []string      `mapstructure:"etcd_endpoints" yaml:"etcd_endpoints"`
	EtcdPrefix    string        `mapstructure:"etcd_prefix" yaml:"etcd_prefix"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// APIConfig configures the status HTTP server
type APIConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// LogConfig configures the global logger
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	JSON  bool   `mapstructure:"json" yaml:"json"`
}

// ProbeConfig paces the dependency probes. A zero interval disables them.
type ProbeConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// Retries is how many consecutive failures mark a dependency unhealthy
	Retries int `mapstructure:"retries" yaml:"retries"`
}

// flagKeys maps command line flag names to config keys
var flagKeys = map[string]string{
	"master":                 "mesos.master",
	"reconciliation-timeout": "mesos.reconciliation_timeout",
	"store":                  "store.backend",
	"data-dir":               "store.data_dir",
	"etcd-endpoints":         "store.etcd_endpoints",
	"api-addr":               "api.addr",
	"log-level":              "log.level",
	"log-json":               "log.json",
	"framework-name":         "framework.name",
}

// Load builds a Config from defaults, an optional YAML file, HBASE_MESOS_*
// environment variables and changed command line flags, in increasing
// order of precedence.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	base, err := yaml.Marshal(Default())
	if err != nil {
		return Config{}, fmt.Errorf("failed to encode defaults: %w", err)
	}
	if err := v.ReadConfig(bytes.NewReader(base)); err != nil {
		return Config{}, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.ConfigServer.HostAddress == "" {
		cfg.ConfigServer.HostAddress = localHostAddress()
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once
func (c Config) Validate() error {
	var result *multierror.Error

	if c.Mesos.Master == "" {
		result = multierror.Append(result, fmt.Errorf("mesos.master is required"))
	}
	if c.Mesos.ReconciliationTimeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("mesos.reconciliation_timeout must be positive"))
	}
	if c.Mesos.ReconcileInterval < 0 {
		result = multierror.Append(result, fmt.Errorf("mesos.reconcile_interval must not be negative"))
	}
	for name, n := range map[string]NodeConfig{"masternode": c.Master, "slavenode": c.Slave, "executor": c.Executor} {
		if n.CPUs <= 0 {
			result = multierror.Append(result, fmt.Errorf("%s.cpus must be positive", name))
		}
		if n.HeapMB <= 0 {
			result = multierror.Append(result, fmt.Errorf("%s.heap_mb must be positive", name))
		}
	}
	if c.JVM.Overhead < 1 {
		result = multierror.Append(result, fmt.Errorf("jvm.overhead must be at least 1, got %v", c.JVM.Overhead))
	}
	if c.ConfigServer.Port <= 0 || c.ConfigServer.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("config_server.port out of range: %d", c.ConfigServer.Port))
	}
	switch c.Store.Backend {
	case StoreBolt:
		if c.Store.DataDir == "" {
			result = multierror.Append(result, fmt.Errorf("store.data_dir is required for the bolt backend"))
		}
	case StoreEtcd:
		if len(c.Store.EtcdEndpoints) == 0 {
			result = multierror.Append(result, fmt.Errorf("store.etcd_endpoints is required for the etcd backend"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}
	if c.Probe.Interval > 0 && (c.Probe.Timeout <= 0 || c.Probe.Retries <= 0) {
		result = multierror.Append(result, fmt.Errorf("probe.timeout and probe.retries must be positive when probes are enabled"))
	}
	if (c.Framework.Principal == "") != (c.Framework.Secret == "") {
		result = multierror.Append(result, fmt.Errorf("framework.principal and framework.secret must be set together"))
	}

	return result.ErrorOrNil()
}

// CredentialsEnabled reports whether the scheduler authenticates with the fleet
func (c Config) CredentialsEnabled() bool {
	return c.Framework.Principal != "" && c.Framework.Secret != ""
}

// YAML renders the configuration, with the secret masked
func (c Config) YAML() ([]byte, error) {
	if c.Framework.Secret != "" {
		c.Framework.Secret = "********"
	}
	return yaml.Marshal(c)
}

func localHostAddress() string {
	host, err := os.Hostname()
	if err != nil {
		return "127.0.0.1"
	}
	addrs, err := net.LookupHost(host)
	if err != nil || len(addrs) == 0 {
		return host
	}
	for _, a := range addrs {
		if ip := net.ParseIP(a); ip != nil && ip.To4() != nil {
			return a
		}
	}
	return addrs[0]
}

// node returns the sizing of a role
func (c Config) node(role types.Role) NodeConfig {
	switch role {
	case types.RoleMaster:
		return c.Master
	case types.RoleSlave:
		return c.Slave
	}
	return NodeConfig{CPUs: DefaultCPUs, HeapMB: c.HadoopHeapMB}
}
