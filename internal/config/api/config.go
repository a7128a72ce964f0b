package api_config

import (
	common "github.com/NordCoder/Pushkeeper/internal/config/common"
	pg "github.com/NordCoder/Pushkeeper/internal/repository/postgres"
	redisx "github.com/NordCoder/Pushkeeper/internal/repository/redis"
)

type Webhook struct {
	Secret string `mapstructure:"secret"`
}

type Admin struct {
	Token string `mapstructure:"token"`
}

type Config struct {
	App      common.App      `mapstructure:"app"`
	Server   common.Server   `mapstructure:"server"`
	DB       pg.Config       `mapstructure:"db"`
	OTEL     common.OTEL     `mapstructure:"otel"`
	Log      common.Log      `mapstructure:"log"`
	Webhook  Webhook         `mapstructure:"webhook"`
	Admin    Admin           `mapstructure:"admin"`
	Sweep    common.Sweep    `mapstructure:"sweep"`
	Notifier common.Notifier `mapstructure:"notifier"`
	Redis    redisx.Config   `mapstructure:"redis"`
	Events   common.Events   `mapstructure:"events"`
}
