// Package config loads toolkit configuration from YAML files with
// environment overrides.
//
// Configuration is layered: a YAML file provides the base, AGENTKIT_*
// environment variables override it, and ApplyDefaults fills the rest.
// A .env file in the working directory is loaded before environment
// overrides are read.
//
//	cfg, err := config.Load("config.yml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Environment keys follow the config structure with underscores:
// AGENTKIT_SERVICE_NAME, AGENTKIT_CACHE_REDIS_ADDR, and so on.
package config
