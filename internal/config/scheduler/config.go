package scheduler_config

import (
	common "github.com/NordCoder/Pushkeeper/internal/config/common"
	pg "github.com/NordCoder/Pushkeeper/internal/repository/postgres"
	redisx "github.com/NordCoder/Pushkeeper/internal/repository/redis"
)

type Config struct {
	App         common.App      `mapstructure:"app"`
	DB          pg.Config       `mapstructure:"db"`
	OTEL        common.OTEL     `mapstructure:"otel"`
	Log         common.Log      `mapstructure:"log"`
	Sweep       common.Sweep    `mapstructure:"sweep"`
	Notifier    common.Notifier `mapstructure:"notifier"`
	Redis       redisx.Config   `mapstructure:"redis"`
	Events      common.Events   `mapstructure:"events"`
	MetricsAddr string          `mapstructure:"metrics_addr"`
}
