// ABOUTME: Turn extraction from inbound Lex code hook events
// ABOUTME: Resolves sender identity and substitutes the greeting command for empty transcripts

package dialog

// GreetCommand is the transcript sent upstream when the caller said nothing
const GreetCommand = "/greet"

// Turn is one caller utterance with its session context
type Turn struct {
	SessionAttributes map[string]string
	SenderID          string
	ConversationID    string
	InputTranscript   string
}

// IdentityKeys names the session attributes used for identity resolution
type IdentityKeys struct {
	Phone          string // e.g. "PhoneNumber"
	Conversation   string // e.g. "ContactId"
	FallbackSender string // used when neither attribute is present
}

// DefaultIdentityKeys returns the attribute names Amazon Connect sets
func DefaultIdentityKeys() IdentityKeys {
	return IdentityKeys{
		Phone:          "PhoneNumber",
		Conversation:   "ContactId",
		FallbackSender: "lex",
	}
}

// Extractor turns raw inbound events into Turns
type Extractor struct {
	Keys IdentityKeys
}

// NewExtractor fills any empty key with its default
func NewExtractor(keys IdentityKeys) Extractor {
	def := DefaultIdentityKeys()
	if keys.Phone == "" {
		keys.Phone = def.Phone
	}
	if keys.Conversation == "" {
		keys.Conversation = def.Conversation
	}
	if keys.FallbackSender == "" {
		keys.FallbackSender = def.FallbackSender
	}
	return Extractor{Keys: keys}
}

// ExtractTurn extracts a Turn using the default identity keys
func ExtractTurn(raw []byte) Turn {
	return NewExtractor(IdentityKeys{}).ExtractTurn(raw)
}

// ExtractTurn reads sessionAttributes and inputTranscript from a Lex v1 event.
// It never fails: malformed or missing fields fall back to empty attributes
// and the greeting command.
func (e Extractor) ExtractTurn(raw []byte) Turn {
	attrs := PathMap(raw, "sessionAttributes")

	transcript := Path(raw, "", "inputTranscript")
	if transcript == "" {
		transcript = GreetCommand
	}

	sender := e.ResolveSender(attrs)
	return Turn{
		SessionAttributes: attrs,
		SenderID:          sender,
		ConversationID:    Lookup(attrs, e.Keys.Conversation, sender),
		InputTranscript:   transcript,
	}
}

// ResolveSender applies the identity precedence: phone attribute, then
// conversation attribute, then the fallback literal. Empty values are skipped.
func (e Extractor) ResolveSender(attrs map[string]string) string {
	return Lookup(attrs, e.Keys.Phone, Lookup(attrs, e.Keys.Conversation, e.Keys.FallbackSender))
}
