// Package types holds the context keys shared by the command packages.
package types

type contextKey string

const (
	// ClientAppKey carries the *client.App built by the root command.
	ClientAppKey contextKey = "app"
	// JSONOutputKey is true when --json was given.
	JSONOutputKey contextKey = "json"
)
