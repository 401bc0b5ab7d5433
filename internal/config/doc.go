// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation,
// e.g. api_key: ${FEED_API_KEY}.
package config
