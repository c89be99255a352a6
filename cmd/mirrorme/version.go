package main

// version holds the CLI version string, populated via -ldflags at build
// time. Defaults to "dev" for local builds.
var version = "dev"

// Version returns the current CLI version string.
func Version() string { return version }
