// Package turn orchestrates one dialog turn end to end.
//
// # State Machine
//
//	start -> identity_resolved -> session_ensured -> config_missing
//	                                              -> message_sent -> upstream_error
//	                                                              -> empty_reply
//	                                                              -> reply_received
//	-> envelope_built
//
// # Outcomes
//
//	config_missing  Close(Fulfilled, "Error: RASA_HOST or input_transcript not set")      side channel: exchange
//	upstream_error  Close(Fulfilled, "Error: Sorry, bot is not responding. ...")          side channel: exchange with status
//	empty_reply     Close(Fulfilled, "The scheduling service is currently down")          side channel: none
//	reply_received  ElicitIntent(fragment texts, each followed by "\n")                   side channel: utterance, response
//
// Transport failures reaching the webhook map to upstream_error. Session
// existence is recorded but never changes the outcome. A panic in any
// collaborator is recovered and also maps to upstream_error, so every call
// returns exactly one envelope.
package turn
