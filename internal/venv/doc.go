// Package venv provisions and inspects the bot's Python virtual
// environment for the botup CLI.
//
// It creates environments with `python -m venv`, resolves the venv
// interpreter path for the current platform, computes the environment
// variable additions activation would apply, and drives pip through the
// venv interpreter for upgrades and manifest installation.
//
// All external commands run with inherited stdio so pip's progress and
// error output reach the operator exactly as the tools print it.
package venv
