package main

// Set with -ldflags "-X main.Version=..." at build time.
var (
	Version   = "0.1.0-dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)
