// Package config loads typed configuration structs from environment
// variables. Each configuration type is parsed exactly once per process and
// cached, so packages can call Load for their own config without coordinating
// initialization order.
//
// Values are read from the process environment, with an optional .env file
// loaded once on first use for local development.
//
//	type ServerConfig struct {
//		Addr string `env:"SERVER_ADDR" envDefault:":8080"`
//	}
//
//	var cfg ServerConfig
//	config.MustLoad(&cfg)
package config
