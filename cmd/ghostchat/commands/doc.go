// Package commands defines the ghostchat CLI and wires dependencies for
// subcommands.
//
// Commands
//
//   - host    Create a room and wait for a peer
//   - join    Join a room by invite id
//   - rejoin  Re-enter the last room after a restart
//
// # Implementation
//
// The root command builds the dependency graph (handle store, relay
// client factory) before any subcommand runs. Each command then starts a
// session and hands it to the shared interactive chat loop, which
// multiplexes stdin lines and session events until the session closes.
package commands
