// Package config provides configuration management for the feature pipeline.
//
// Two kinds of configuration live here.
//
// # Application configuration
//
// Config covers the server, logging, telemetry, paths and pipeline limits. It
// is loaded with Load from environment variables and an optional YAML file:
//
//	1. Environment variables set explicitly (highest priority)
//	2. The YAML configuration file
//	3. Default values from struct tags (lowest priority)
//
// All environment variables use the FEATURES_ prefix:
//
//	FEATURES_SERVER_PORT=8080
//	FEATURES_LOGGING_LEVEL=debug
//	FEATURES_TELEMETRY_TRACE_EXPORTER=stdout
//	FEATURES_PATHS_CONFIG_DIR=/etc/features/organizations
//
// # Organization configuration
//
// Organization holds one tenant's schema, data sampling settings and feature
// selection options. Manager stores one YAML file per organization and
// validates it on every load and save; new organizations start from one of
// the industry templates (manufacturing, power_generation, water_treatment).
//
//	mgr, err := config.NewManager(paths.ConfigDir, logger)
//	org, err := mgr.Load("plant-7")
//	s, err := org.BuildSchema()
package config
