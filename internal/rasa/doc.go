// Package rasa is the client for the Rasa REST channel webhook.
//
// # Protocol
//
//	POST http://{host}/webhooks/rest/webhook
//	{"sender": "+15551234567", "message": "hello", "metadata": {...session attributes...}}
//
// A 2xx reply is a JSON array of bot messages:
//
//	[{"recipient_id": "+15551234567", "text": "Hi"}, {"recipient_id": "...", "text": "Bye"}]
//
// # Errors
//
// Non-2xx responses are not errors: [Client.SendMessage] returns a [Reply]
// with the status and no fragments, and the caller decides what to do.
// [TransportError] is returned only when the webhook cannot be reached or a
// 2xx body cannot be read or parsed.
package rasa
