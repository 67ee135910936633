package main

import (
	"fmt"
	"os"

	"github.com/xiam/to"
	"gopkg.in/yaml.v2"

	"github.com/meterhub/meterhub"
)

type config struct {
	Logger     loggerConfig      `yaml:"log"`
	Tags       map[string]string `yaml:"tags"`
	Graphite   graphiteConfig    `yaml:"graphite"`
	Prometheus prometheusConfig  `yaml:"prometheus"`
	Runtime    runtimeConfig     `yaml:"runtime_metrics"`
	System     systemConfig      `yaml:"system_metrics"`
}

type loggerConfig struct {
	LogFile         string `yaml:"log_file"`
	LogLevel        string `yaml:"log_level"`
	LogPrettyFormat bool   `yaml:"log_pretty_format"`
}

type graphiteConfig struct {
	// If true, graphite reporter is enabled
	Enabled bool `yaml:"enabled"`
	// Graphite relay URI, format: ip:port
	URI string `yaml:"uri"`
	// Metric path prefix, {hostname} is replaced with the short hostname
	Prefix string `yaml:"prefix"`
	// Metrics flushing interval, format: 60s
	Interval string `yaml:"interval"`
}

func (config *graphiteConfig) GetSettings() meterhub.GraphiteBackendConfig {
	return meterhub.GraphiteBackendConfig{
		Enabled:  config.Enabled,
		URI:      config.URI,
		Prefix:   config.Prefix,
		Interval: to.Duration(config.Interval),
	}
}

type prometheusConfig struct {
	// If true, a /metrics endpoint is served on Listen
	Enabled bool `yaml:"enabled"`
	// Listen address, format: :8093
	Listen string `yaml:"listen"`
	// Metric name prefix
	Namespace string `yaml:"namespace"`
}

type runtimeConfig struct {
	Memory     bool `yaml:"memory"`
	GC         bool `yaml:"gc"`
	Goroutines bool `yaml:"goroutines"`
}

func (config *runtimeConfig) GetSettings() meterhub.RuntimeMetricsConfig {
	return meterhub.RuntimeMetricsConfig{
		Memory:     config.Memory,
		GC:         config.GC,
		Goroutines: config.Goroutines,
	}
}

type systemConfig struct {
	Uptime          bool `yaml:"uptime"`
	FileDescriptors bool `yaml:"file_descriptors"`
}

func (config *systemConfig) GetSettings() meterhub.SystemMetricsConfig {
	return meterhub.SystemMetricsConfig{
		Uptime:          config.Uptime,
		FileDescriptors: config.FileDescriptors,
	}
}

func getDefault() config {
	return config{
		Logger: loggerConfig{
			LogFile:         "stdout",
			LogLevel:        "info",
			LogPrettyFormat: false,
		},
		Graphite: graphiteConfig{
			URI:      "localhost:2003",
			Prefix:   "{hostname}",
			Interval: "60s",
		},
		Prometheus: prometheusConfig{
			Listen:    ":8093",
			Namespace: "meterhub",
		},
		Runtime: runtimeConfig{Memory: true, GC: true, Goroutines: true},
		System:  systemConfig{Uptime: true, FileDescriptors: true},
	}
}

func readConfig(configFileName string, config *config) error {
	configYaml, err := os.ReadFile(configFileName)
	if err != nil {
		return fmt.Errorf("can't read file [%s] [%s]", configFileName, err.Error())
	}
	err = yaml.Unmarshal(configYaml, config)
	if err != nil {
		return fmt.Errorf("can't parse config file [%s] [%s]", configFileName, err.Error())
	}

	return nil
}

func printConfig(config interface{}) {
	d, _ := yaml.Marshal(&config)
	fmt.Println(string(d))
}
