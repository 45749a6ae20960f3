// Package config loads the netmoya TOML configuration.
//
// # Overview
//
// The configuration selects the API environment, the base URL for each
// environment, the timeouts used by the request pipeline and the
// reachability probe, the device description sent with every request, and
// the locations of the log file and the persisted access token.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/netmoya/config.toml (default)
//  3. If the config file doesn't exist, fall back to Default()
//  4. If the file exists but fields are missing/empty, keep the defaults
//
// # TOML Format
//
//	environment = "production"
//	base_url = "https://api.example.com/"
//	request_timeout = "30s"
//	resource_timeout = "60s"
//	probe_url = "https://clients3.google.com/generate_204"
//	probe_timeout = "6s"
//	pinned_certs_dir = "~/.config/netmoya/certs"
//	log_level = "info"
//	use_keyring = true
//
//	[environments]
//	staging = "https://staging.example.com/"
//
// base_url applies to every environment; the [environments] table overrides
// individual entries.
//
// # Validation
//
// Load rejects an environment without a base URL and a probe timeout that is
// not strictly shorter than the request timeout. Connectivity detection has to
// settle well before an API call would time out.
package config
