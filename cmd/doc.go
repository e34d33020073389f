// Package cmd implements the command-line interface of the command client.
//
// The package is organized into several subpackages:
//
//   - command: send a single command to a peer, or print its wire frame (encode)
//   - bench: throughput test sending from many goroutines over one shared client
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can also be set through the environment with the CMDC_ prefix
// (e.g. CMDC_ENDPOINT, CMDC_LOG_LEVEL), .env and .env.local are loaded first.
//
// See cmdc -help for a list of all commands.
package cmd
