package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meterhub/meterhub"
	"github.com/meterhub/meterhub/clock"
	"github.com/meterhub/meterhub/logging"
)

const serviceName = "meterhub"

var (
	configFileName         = flag.String("config", "/etc/meterhub/meterhub.yml", "path config file")
	printVersion           = flag.Bool("version", false, "Print version and exit")
	printDefaultConfigFlag = flag.Bool("default-config", false, "Print default config and exit")
)

// Meterhub demo bin version
var (
	Version   = "unknown"
	GitCommit = "unknown"
	GoVersion = "unknown"
)

func main() {
	flag.Parse()
	if *printVersion {
		fmt.Println("Meterhub")
		fmt.Println("Version:", Version)
		fmt.Println("Git Commit:", GitCommit)
		fmt.Println("Go Version:", GoVersion)
		os.Exit(0)
	}

	config := getDefault()
	if *printDefaultConfigFlag {
		printConfig(config)
		os.Exit(0)
	}

	if err := readConfig(*configFileName, &config); err != nil {
		fmt.Fprintf(os.Stderr, "Can not read settings: %s\n", err.Error())
		os.Exit(1)
	}

	logger, err := logging.ConfigureLog(config.Logger.LogFile, config.Logger.LogLevel, serviceName, config.Logger.LogPrettyFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Can not configure log: %s\n", err.Error())
		os.Exit(1)
	}
	defer logger.Infof("Meterhub stopped. Version: %s", Version)

	systemClock := clock.NewSystemClock()
	registryConfig := meterhub.Config{
		Tags:   meterhub.Tags(config.Tags),
		Logger: logger,
		Clock:  systemClock,
	}

	composite := meterhub.NewCompositeRegistry()
	composite.SetLogger(logger)
	composite.AddChild(meterhub.NewRegistry(meterhub.NewMemoryBackend(), registryConfig))

	if config.Graphite.Enabled {
		backend, err := meterhub.NewGraphiteBackend(config.Graphite.GetSettings(), serviceName)
		if err != nil {
			logger.Errorf("Can not configure graphite backend: %s", err.Error())
		} else {
			composite.AddChild(meterhub.NewRegistry(backend, registryConfig))
		}
	}

	if config.Prometheus.Enabled {
		prometheusRegistry := meterhub.NewPrometheusRegistry()
		backend := meterhub.NewPrometheusBackend(prometheusRegistry, config.Prometheus.Namespace)
		composite.AddChild(meterhub.NewRegistry(backend, registryConfig))

		go func() {
			http.Handle("/metrics", promhttp.HandlerFor(prometheusRegistry, promhttp.HandlerOpts{}))
			logger.Infof("Serving prometheus metrics at: [%s]", config.Prometheus.Listen)
			if err := http.ListenAndServe(config.Prometheus.Listen, nil); err != nil {
				logger.Errorf("Prometheus listener stopped: %s", err.Error())
			}
		}()
	}

	meterhub.BindRuntimeMetrics(composite, config.Runtime.GetSettings())
	meterhub.BindSystemMetrics(composite, config.System.GetSettings(), systemClock)

	restore := meterhub.SetGlobal(composite)
	defer restore()

	heartbeat := composite.NewTimer("heartbeat", nil)
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				sample := heartbeat.Start()
				meterhub.Increment("heartbeat.ticks", nil)
				sample.Stop()
			}
		}
	}()

	logger.Infof("Meterhub started. Version: %s", Version)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
	<-ch
	close(stop)
}
