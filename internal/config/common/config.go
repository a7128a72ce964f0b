package common_config

import (
	"fmt"
	"time"

	"github.com/NordCoder/Pushkeeper/internal/obs"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func (oc OTEL) AsOTELConfig() obs.OTELConfig {
	return obs.OTELConfig{
		Enable:      oc.Enable,
		Endpoint:    oc.OTLPEndpoint,
		ServiceName: oc.ServiceName,
		SampleRatio: oc.SampleRatio,
	}
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func (lc Log) AsLoggerConfig(app App) obs.LogConfig {
	return obs.LogConfig{
		Level:  lc.Level,
		Pretty: lc.Pretty,
		App:    "pushkeeper/" + app.Name,
		Env:    app.Env,
		Ver:    app.Version,
	}
}

// Sweep configures the goal evaluator. Timezone is the single reference
// zone used for both the day key and the annoy-time comparison.
type Sweep struct {
	Interval    time.Duration `mapstructure:"interval"`
	Timezone    string        `mapstructure:"timezone"`
	Secret      string        `mapstructure:"secret"`
	Concurrency int           `mapstructure:"concurrency"`
	LockTTL     time.Duration `mapstructure:"lock_ttl"`
}

func (s Sweep) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("sweep.timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

type Notifier struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

type Events struct {
	Enable        bool          `mapstructure:"enable"`
	Brokers       []string      `mapstructure:"brokers"`
	Topic         string        `mapstructure:"topic"`
	Workers       int           `mapstructure:"workers"`
	Batch         int           `mapstructure:"batch"`
	Wait          time.Duration `mapstructure:"wait"`
	InProgressTTL time.Duration `mapstructure:"in_progress_ttl"`
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }
