package trackapiserver

import (
	"tourist-tracker/internal/ratelimit"
	"tourist-tracker/internal/store"
)

// Config defines the configuration structure for the tracker API server
type Config struct {
	Db   store.Config `mapstructure:"db"`
	Http struct {
		ServerName string `mapstructure:"server_name"`
		Listen     string `mapstructure:"listen"`
		BasicAuth  bool   `mapstructure:"basic_auth"`
		Debug      bool   `mapstructure:"debug"`
		Users      []struct {
			User     string `mapstructure:"user"`
			Password string `mapstructure:"password"`
		} `mapstructure:"users"`
	} `mapstructure:"http"`
	Sweep struct {
		Workers   int `mapstructure:"workers"`
		OpTimeout int `mapstructure:"op_timeout"`
	} `mapstructure:"sweep"`
	RateLimit ratelimit.Config `mapstructure:"rate_limit"`
}
