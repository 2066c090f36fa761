// Package server implements the websocket transport and HTTP surface of the relay.
//
// The implementation is organized into specialized files for configuration,
// connection delivery, clients, routing, and HTTP handlers. The chat state
// machine itself lives in package chat; this package only decodes frames,
// forwards them to the hub and delivers what the hub emits.
package server
