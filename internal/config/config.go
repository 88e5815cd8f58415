package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// DefaultSourceURL is the DPC regional time series on GitHub.
const DefaultSourceURL = "https://raw.githubusercontent.com/pcm-dpc/COVID-19/master/dati-regioni/dpc-covid19-ita-regioni.csv"

// Config holds all job settings, populated from environment variables.
type Config struct {
	SourceURL       string
	OutputDir       string
	Regions         []string
	RegionsFile     string
	LabelEvery      int
	FetchTimeout    time.Duration
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	XLSXEnabled bool

	// Kafka sink configuration.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	// Prometheus Pushgateway configuration.
	PushgatewayURL string
	MetricsJob     string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("FETCH_TIMEOUT", "30s"))
	if err != nil || fetchTimeout <= 0 {
		return nil, errors.New("invalid FETCH_TIMEOUT")
	}

	labelEvery, err := strconv.Atoi(sharedcfg.EnvOrDefault("LABEL_EVERY", "14"))
	if err != nil || labelEvery <= 0 {
		return nil, errors.New("invalid LABEL_EVERY: must be a positive integer")
	}

	xlsxEnabled, err := parseBool("XLSX_ENABLED", false)
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}
	kafkaEnabled, err := parseBool("KAFKA_ENABLED", len(brokers) > 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		SourceURL:       sharedcfg.EnvOrDefault("DPC_CSV_URL", DefaultSourceURL),
		OutputDir:       sharedcfg.EnvOrDefault("OUTPUT_DIR", "covid_plots"),
		Regions:         ParseList(os.Getenv("REGIONS")),
		RegionsFile:     os.Getenv("REGIONS_FILE"),
		LabelEvery:      labelEvery,
		FetchTimeout:    fetchTimeout,
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		XLSXEnabled: xlsxEnabled,

		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "covid-region-daily-stats"),

		PushgatewayURL: os.Getenv("PUSHGATEWAY_URL"),
		MetricsJob:     sharedcfg.EnvOrDefault("METRICS_JOB", "covid_plots"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that flags may have overridden after Load.
func (c *Config) Validate() error {
	if c.SourceURL == "" {
		return errors.New("DPC_CSV_URL is required")
	}
	if c.OutputDir == "" {
		return errors.New("OUTPUT_DIR is required")
	}
	if c.LabelEvery <= 0 {
		return errors.New("invalid LABEL_EVERY: must be a positive integer")
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if c.KafkaEnabled && c.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC is required")
	}
	if c.PushgatewayURL != "" && c.MetricsJob == "" {
		return errors.New("METRICS_JOB is required when PUSHGATEWAY_URL is set")
	}
	return nil
}

// ParseList splits a comma-separated list, trimming blanks and dropping empty items.
func ParseList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q", key, v)
	}
	return b, nil
}
