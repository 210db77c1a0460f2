// Package app wires application dependencies for the CLI.
//
// It builds the concrete stores and relay client from Config and hands
// commands a ready-to-use session factory.
package app
