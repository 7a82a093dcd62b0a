// Package config loads the service configuration from a YAML file with
// environment overrides (prefix LEAVEDESK_).
package config

import "github.com/spf13/viper"

type Config struct {
	App struct {
		Env string
	} `mapstructure:"app"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	DB struct {
		Path string
	} `mapstructure:"db"`

	Pages struct {
		Requests int `mapstructure:"requests"`
		Admin    int `mapstructure:"admin"`
	} `mapstructure:"pages"`

	SMTP struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
	} `mapstructure:"smtp"`

	Mail struct {
		Operator string // incident reports go here
	} `mapstructure:"mail"`

	Auth struct {
		Secret   string
		TTLHours int `mapstructure:"ttl_hours"`
	} `mapstructure:"auth"`

	Reports struct {
		Dir string
	} `mapstructure:"reports"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`
}

// Load reads the config file at path. Any key can be overridden through
// the environment, e.g. LEAVEDESK_AUTH_SECRET.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("LEAVEDESK")
	v.AutomaticEnv()

	v.SetDefault("app.env", "dev")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("db.path", "leavedesk.db")
	v.SetDefault("pages.requests", 10)
	v.SetDefault("pages.admin", 5)
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.from", "noreply@demo.com")
	v.SetDefault("auth.ttl_hours", 12)
	v.SetDefault("reports.dir", "reports")
	v.SetDefault("metrics.enabled", true)

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}
