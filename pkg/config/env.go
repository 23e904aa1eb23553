package config

import "strings"

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// IsProductionLike reports whether staging or production rules apply to env.
func IsProductionLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == EnvStaging || env == EnvProduction
}
