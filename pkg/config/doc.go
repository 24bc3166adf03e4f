// Package config loads process configuration.
//
// Environment-driven settings are parsed into tagged structs with
// github.com/caarlos0/env (a .env file is honoured through godotenv). Policy
// tables such as transition maps, rate-limit rules and forced notification
// channels are YAML documents decoded with LoadYAML / LoadYAMLFile in strict
// mode, so malformed policies abort startup before traffic is served.
package config
