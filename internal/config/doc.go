// Package config handles configuration loading for grimoire.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from GRIMOIRE_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/grimoire/grimoire.yaml
//  3. ~/.config/grimoire/grimoire.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  token: "${GRIMOIRE_TOKEN}"
//
// Syntax: ${VAR_NAME}
//
// # Configuration Sections
//
// Backend connection:
//
//	backend:
//	  url: "http://localhost:8090"
//	  timeout: "60s"                # Go duration syntax
//	  pdf_path: "/data/handbook.pdf"
//
// Authentication:
//
//	auth:
//	  token: "${GRIMOIRE_TOKEN}"       # Bearer token for the backend
//	  jwt_secret: "${GRIMOIRE_SECRET}" # dev backend token verification
//
// Local transcript archive:
//
//	transcript:
//	  enabled: true
//	  path: "~/.local/share/grimoire/transcript.db"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load(path)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// When no config file exists, config.Default() provides a working local
// setup.
package config
