// Package config handles configuration loading for the agclient tools.
//
// # Overview
//
// A profile names the server, credentials, repository and logging settings
// used by the agclient CLI and the tutorial runner. Profiles are TOML or YAML
// files with environment variable expansion. Keys missing from the file keep
// the values from Default.
//
// # Configuration File
//
// Default location (in order):
//
//  1. Path from AGCLIENT_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/agclient/config.toml
//  3. ~/.config/agclient/config.toml
//
// The format is chosen by extension: .yaml and .yml are YAML, everything
// else is TOML.
//
// # Environment Variable Expansion
//
// Values can reference environment variables:
//
//	[auth]
//	user = "test"
//	password = "${AG_PASSWORD}"
//
// Unset variables expand to the empty string.
//
// # Configuration Sections
//
//	[server]
//	url = "http://localhost:10035"
//	catalog = "/"
//	timeout = "60s"
//
//	[auth]
//	user = "test"
//	password = "${AG_PASSWORD}"
//
//	[repository]
//	name = "test"
//	environment = ""
//
//	[logging]
//	level = "info"   # debug, info, warn, error
//	format = "text"  # text, json
//
//	[sandbox]
//	addr = "127.0.0.1:10035"
//	database = "~/.local/share/agclient/sandbox.db"
//
// # Validation
//
// Load validates:
//
//   - server.url is an http or https URL
//   - server.timeout parses with time.ParseDuration and is positive
//   - logging.level and logging.format are known values
//
// # Usage
//
//	cfg, err := config.LoadOptional(config.DefaultPath())
//	if err != nil {
//	    return err
//	}
package config
