// ABOUTME: Lex v1 dialog-action envelopes returned to the front-end
// ABOUTME: Builders for ElicitIntent, ConfirmIntent and Close; session attributes pass through unchanged

package dialog

import (
	"encoding/json"
	"fmt"
)

// ActionType is the Lex dialog action type
type ActionType string

const (
	ActionElicitIntent  ActionType = "ElicitIntent"
	ActionConfirmIntent ActionType = "ConfirmIntent"
	ActionClose         ActionType = "Close"
)

// FulfillmentState marks how a closed dialog ended
type FulfillmentState string

const (
	Fulfilled FulfillmentState = "Fulfilled"
	Failed    FulfillmentState = "Failed"
)

// ContentTypePlainText is the only message content type the gateway emits
const ContentTypePlainText = "PlainText"

// Message is the text shown or spoken to the caller
type Message struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// DialogAction is the next step the front-end should take.
// Only the fields relevant to Type are serialized.
type DialogAction struct {
	Type             ActionType
	IntentName       string
	Slots            map[string]string
	FulfillmentState FulfillmentState
	Message          Message
}

// Envelope is the complete code hook response.
//
// Lex v1 session attributes are strings, and they are echoed back as
// received. An event carrying non-string attribute values (numbers,
// booleans, objects) gets them back as strings holding their JSON text:
// 5 returns as "5" and {"a":1} as "{\"a\":1}". Null values are dropped.
type Envelope struct {
	SessionAttributes map[string]string `json:"sessionAttributes"`
	DialogAction      DialogAction      `json:"dialogAction"`
}

// Content returns the message content
func (e Envelope) Content() string {
	return e.DialogAction.Message.Content
}

func plainText(content string) Message {
	return Message{ContentType: ContentTypePlainText, Content: content}
}

// attrsOrEmpty keeps the front-end seeing an object rather than null
func attrsOrEmpty(attrs map[string]string) map[string]string {
	if attrs == nil {
		return map[string]string{}
	}
	return attrs
}

// ElicitIntent asks the caller for their next utterance
func ElicitIntent(sessionAttributes map[string]string, content string) Envelope {
	return Envelope{
		SessionAttributes: attrsOrEmpty(sessionAttributes),
		DialogAction: DialogAction{
			Type:    ActionElicitIntent,
			Message: plainText(content),
		},
	}
}

// ConfirmIntent asks the caller to confirm intentName with the given slots
func ConfirmIntent(sessionAttributes map[string]string, intentName string, slots map[string]string, content string) Envelope {
	if slots == nil {
		slots = map[string]string{}
	}
	return Envelope{
		SessionAttributes: attrsOrEmpty(sessionAttributes),
		DialogAction: DialogAction{
			Type:       ActionConfirmIntent,
			IntentName: intentName,
			Slots:      slots,
			Message:    plainText(content),
		},
	}
}

// Close ends the dialog
func Close(sessionAttributes map[string]string, state FulfillmentState, content string) Envelope {
	return Envelope{
		SessionAttributes: attrsOrEmpty(sessionAttributes),
		DialogAction: DialogAction{
			Type:             ActionClose,
			FulfillmentState: state,
			Message:          plainText(content),
		},
	}
}

// MarshalJSON emits the per-type Lex shape
func (a DialogAction) MarshalJSON() ([]byte, error) {
	switch a.Type {
	case ActionElicitIntent:
		return json.Marshal(struct {
			Type    ActionType `json:"type"`
			Message Message    `json:"message"`
		}{a.Type, a.Message})
	case ActionConfirmIntent:
		slots := a.Slots
		if slots == nil {
			slots = map[string]string{}
		}
		return json.Marshal(struct {
			Type       ActionType        `json:"type"`
			IntentName string            `json:"intentName"`
			Slots      map[string]string `json:"slots"`
			Message    Message           `json:"message"`
		}{a.Type, a.IntentName, slots, a.Message})
	case ActionClose:
		return json.Marshal(struct {
			Type             ActionType       `json:"type"`
			FulfillmentState FulfillmentState `json:"fulfillmentState"`
			Message          Message          `json:"message"`
		}{a.Type, a.FulfillmentState, a.Message})
	default:
		return nil, fmt.Errorf("unknown dialog action type %q", a.Type)
	}
}

// UnmarshalJSON accepts any of the three shapes
func (a *DialogAction) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type             ActionType        `json:"type"`
		IntentName       string            `json:"intentName"`
		Slots            map[string]string `json:"slots"`
		FulfillmentState FulfillmentState  `json:"fulfillmentState"`
		Message          Message           `json:"message"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = DialogAction(raw)
	return nil
}
