// Package dialog translates between Amazon Lex (v1 code hook) events and the
// gateway's internal turn model. Everything here is pure: no I/O, no logging.
//
// # Inbound
//
// [Extractor.ExtractTurn] reads a raw event:
//
//	{
//	  "inputTranscript": "I need to reschedule",
//	  "sessionAttributes": {"PhoneNumber": "+15551234567", "ContactId": "abc-123"}
//	}
//
// Missing pieces never fail. An absent or empty transcript becomes
// [GreetCommand]; absent attributes become an empty map. The sender is the
// phone attribute, else the conversation attribute, else a fixed literal.
//
// [Path] and [PathMap] are the optional accessors used for this: they take a
// key path and a default and return the default on any missing or mismatched
// step.
//
// # Outbound
//
// [ElicitIntent], [ConfirmIntent] and [Close] build the three envelope shapes:
//
//	{"sessionAttributes": {...}, "dialogAction": {"type": "ElicitIntent", "message": {...}}}
//	{"sessionAttributes": {...}, "dialogAction": {"type": "ConfirmIntent", "intentName": "...", "slots": {...}, "message": {...}}}
//	{"sessionAttributes": {...}, "dialogAction": {"type": "Close", "fulfillmentState": "Fulfilled", "message": {...}}}
//
// Session attributes are passed through verbatim.
package dialog
