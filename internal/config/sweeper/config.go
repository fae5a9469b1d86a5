package sweeper_config

import (
	"time"

	"github.com/devjogerio/juris-alerts/internal/obs"
	pginfra "github.com/devjogerio/juris-alerts/internal/repository/postgres"
	"github.com/devjogerio/juris-alerts/internal/services/dispatcher"
)

type KafkaCfg struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type SweepCfg struct {
	Tick        time.Duration `mapstructure:"tick"`
	BatchLimit  int           `mapstructure:"batch_limit"`
	MetricsAddr string        `mapstructure:"metrics_addr"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func (l Log) AsLoggerConfig() obs.LogConfig {
	return obs.LogConfig{Level: l.Level, Pretty: l.Pretty, App: "sweeper"}
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func (o OTEL) AsOTELConfig() *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      o.Enable,
		Endpoint:    o.OTLPEndpoint,
		ServiceName: o.ServiceName,
		SampleRatio: o.SampleRatio,
	}
}

type Config struct {
	DB    pginfra.Config        `mapstructure:"db"`
	Kafka KafkaCfg              `mapstructure:"kafka"`
	SMTP  dispatcher.SMTPConfig `mapstructure:"smtp"`
	Sweep SweepCfg              `mapstructure:"sweep"`
	Log   Log                   `mapstructure:"log"`
	OTEL  OTEL                  `mapstructure:"otel"`
}
