// Package cli is the command-line surface of regionctl. It binds flags,
// environment and config file through viper, builds an app.App and runs one
// cobra subcommand against it.
package cli
