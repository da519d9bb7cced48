// Package notify mirrors conversation traffic to an MQTT broker for
// observability.
//
// The side channel is strictly best-effort. [Sink] methods return nothing;
// connection and publish failures are logged and dropped, and never change
// the envelope returned to the caller.
//
// # Selection
//
// [New] returns a [NopSink] (no I/O at all) unless the broker host, username
// and password are all configured. Otherwise it returns an [MQTTSink] over a
// Paho client that connects on first use.
//
// # Topics
//
//	{prefix}/utterance  {"sender_id": "...", "utterance": "..."}
//	{prefix}/response   {"sender_id": "...", "response": "..."}
//	{prefix}/utterance  {"sender_id": "...", "utterance": "...", "response": "..."}   (exchange)
//
// The default prefix is "rasa/lex".
package notify
