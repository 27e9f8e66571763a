// Package config loads, validates, and scaffolds the botup configuration.
//
// Settings come from three layers: built-in defaults (the fixed paths the
// deployment scripts historically used), an optional botup.jsonc file
// (JSONC, comments allowed), and an explicit --config path. The absence of
// a config file is not an error — botup runs flaglessly on the defaults.
//
// The package also knows which environment variables the bot expects and
// can report gaps in the operator-prepared .env file without ever
// modifying it.
package config
