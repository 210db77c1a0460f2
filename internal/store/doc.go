// Package store provides file-based persistence for ghost-chat's local
// state.
//
// The only thing worth persisting is the session handle: a non-sensitive
// rejoin token that lets a restarted client re-enter a room that is still
// alive on the relay. No keys and no message content ever touch disk.
// All methods are concurrency-safe via internal locking.
package store
