// Package config loads brewkit's configuration.
//
// Settings come from brewkit.yaml (an explicit --config file or the
// per-user file under os.UserConfigDir), then BREWKIT_PREFIX,
// BREWKIT_CACHE and BREWKIT_FORMULA_PATH from the environment or a .env
// file, with command-line flags applied last by the CLI.
package config
