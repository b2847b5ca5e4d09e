package app

import (
	"github.com/charlesng35/campushub/internal/auth"
	"github.com/charlesng35/campushub/internal/database"
	"github.com/charlesng35/campushub/internal/gateway"
)

// DatabaseConfigFromApp maps the loaded configuration onto the database layer's
// connection options. Host based parameters win over the sqlite path when the
// matching driver block is enabled.
func DatabaseConfigFromApp(cfg *Config) database.Config {
	out := database.Config{
		Driver: cfg.Database.Driver,
		Path:   cfg.Database.Path,
		DSN:    cfg.Database.DSN,
	}

	switch {
	case cfg.Database.Postgres.Enabled:
		out.Driver = "postgres"
		out.Host = cfg.Database.Postgres.Host
		out.Port = cfg.Database.Postgres.Port
		out.Name = cfg.Database.Postgres.Database
		out.User = cfg.Database.Postgres.Username
		out.Password = cfg.Database.Postgres.Password
	case cfg.Database.MySQL.Enabled:
		out.Driver = "mysql"
		out.Host = cfg.Database.MySQL.Host
		out.Port = cfg.Database.MySQL.Port
		out.Name = cfg.Database.MySQL.Database
		out.User = cfg.Database.MySQL.Username
		out.Password = cfg.Database.MySQL.Password
	}

	return out
}

// JWTConfigFromApp maps the auth section onto the token service configuration.
func JWTConfigFromApp(cfg *Config) auth.JWTConfig {
	return auth.JWTConfig{
		Secret:         cfg.Auth.JWT.Secret,
		Issuer:         cfg.Auth.JWT.Issuer,
		AccessTokenTTL: cfg.Auth.JWT.TTL,
	}
}

// GatewayConfigFromApp maps the payments section onto the provider client
// configuration.
func GatewayConfigFromApp(cfg *Config) gateway.ClientConfig {
	return gateway.ClientConfig{
		Endpoint:  cfg.Payments.Endpoint,
		KeyID:     cfg.Payments.KeyID,
		KeySecret: cfg.Payments.KeySecret,
		Timeout:   cfg.Payments.Timeout,
	}
}
