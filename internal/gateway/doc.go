// Package gateway wires the lex-gateway components together and serves them.
//
// # Overview
//
// New opens the configured session store (sqlite, dynamodb or memory), runs
// its one-time Setup, and builds the turn service around it together with the
// webhook client and the MQTT side channel. The same Gateway backs both the
// long-running HTTP server (Run) and the Lambda handler (Turns).
//
// # HTTP API
//
//	POST /lex/turn      Lex v1 code hook event in, dialog envelope out
//	GET  /health        liveness, always 200
//	GET  /health/ready  200 when the session store answers a ping
//
// # Lifecycle
//
// Run listens on server.http_addr and blocks until its context is canceled.
// Shutdown stops the server, then closes the side channel and the store;
// close errors are collected rather than stopping at the first one.
package gateway
