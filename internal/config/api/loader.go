package api_config

import (
	common "github.com/NordCoder/Pushkeeper/internal/config/common"
)

func Load(path string) (*Config, error) {
	v := common.NewViper(path, "api")

	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.read_timeout", "5s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.graceful_timeout", "15s")

	// keys without a default are invisible to AutomaticEnv during Unmarshal
	v.SetDefault("webhook.secret", "")
	v.SetDefault("admin.token", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.DB.DSN == "" {
		return nil, common.ErrConfig("db.dsn is required")
	}
	if cfg.Webhook.Secret == "" {
		return nil, common.ErrConfig("webhook.secret is required")
	}
	if err := cfg.Sweep.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
