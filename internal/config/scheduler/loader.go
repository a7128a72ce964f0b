package scheduler_config

import (
	common "github.com/NordCoder/Pushkeeper/internal/config/common"
)

func Load(path string) (*Config, error) {
	v := common.NewViper(path, "scheduler")
	v.SetDefault("metrics_addr", ":8082")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.DB.DSN == "" {
		return nil, common.ErrConfig("db.dsn is required")
	}
	if cfg.Sweep.Interval <= 0 {
		return nil, common.ErrConfig("sweep.interval must be positive")
	}
	if err := cfg.Sweep.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
