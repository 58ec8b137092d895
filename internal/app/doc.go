// Package app wires application dependencies for the CLI.
//
// It loads Config (YAML file and/or environment), builds the logger, secure
// storage, checksum signer, metrics registry, bank API client and session
// store, and exposes them via the Wire struct for commands to use.
package app
