package config

import "time"

const (
	DefaultCPUs             = 0.5
	DefaultHadoopHeapMB     = 512
	DefaultExecutorHeapMB   = 256
	DefaultMasterHeapMB     = 4096
	DefaultSlaveHeapMB      = 1024
	DefaultMasterCPUs       = 1
	DefaultSlaveCPUs        = 1
	DefaultJVMOverhead      = 1.35
	DefaultFailoverTimeout  = 31449600 * time.Second
	DefaultReconcileTimeout = 30 * time.Second
	DefaultReconcileEvery   = 10 * time.Minute
	DefaultConfigServerPort = 8765

	DefaultJVMOpts = "-XX:+UseConcMarkSweepGC " +
		"-XX:+CMSClassUnloadingEnabled " +
		"-XX:+UseTLAB " +
		"-XX:+AggressiveOpts " +
		"-XX:+UseCompressedOops " +
		"-XX:+UseFastEmptyMethods " +
		"-XX:+UseFastAccessorMethods " +
		"-Xss256k " +
		"-XX:+AlwaysPreTouch " +
		"-XX:+UseParNewGC " +
		"-Djava.library.path=/usr/lib:/usr/local/lib:lib/native"
)

// Default returns the configuration used when nothing overrides it
func Default() Config {
	return Config{
		Framework: FrameworkConfig{
			Name:            "hbase",
			User:            "root",
			Role:            "*",
			FailoverTimeout: DefaultFailoverTimeout,
		},
		Mesos: MesosConfig{
			Master:                "http://localhost:5050",
			ReconciliationTimeout: DefaultReconcileTimeout,
			ReconcileInterval:     DefaultReconcileEvery,
		},
		Master:   NodeConfig{CPUs: DefaultMasterCPUs, HeapMB: DefaultMasterHeapMB},
		Slave:    NodeConfig{CPUs: DefaultSlaveCPUs, HeapMB: DefaultSlaveHeapMB},
		Executor: NodeConfig{CPUs: DefaultCPUs, HeapMB: DefaultExecutorHeapMB},
		JVM: JVMConfig{
			Overhead:      DefaultJVMOverhead,
			Opts:          DefaultJVMOpts,
			JREURL:        "https://downloads.mesosphere.io/java/jre-7u76-linux-x64.tar.gz",
			JREVersion:    "jre1.7.0_76",
			LDLibraryPath: "/usr/local/lib",
		},
		ConfigServer: ConfigServerConfig{
			Port: DefaultConfigServerPort,
		},
		Store: StoreConfig{
			Backend:       StoreBolt,
			DataDir:       "./hbase-mesos-data",
			EtcdEndpoints: []string{"localhost:2379"},
			EtcdPrefix:    "/hbase-mesos",
			Timeout:       5 * time.Second,
		},
		API: APIConfig{
			Addr: "127.0.0.1:9090",
		},
		Log: LogConfig{
			Level: "info",
		},
		Probe: ProbeConfig{
			Interval: 30 * time.Second,
			Timeout:  5 * time.Second,
			Retries:  3,
		},
		HadoopHeapMB: DefaultHadoopHeapMB,
	}
}
