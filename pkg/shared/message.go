package shared

// MessageType identifies a message exchanged with the terminal front-end.
type MessageType int

// MessageType values are part of the WebSocket wire protocol; renumbering
// breaks deployed front-ends.
const (
	MessageTypeText         MessageType = 0 // text output
	MessageTypeClear        MessageType = 1 // clear the screen
	MessageTypeBeep         MessageType = 2 // bell
	MessageTypeMode         MessageType = 3 // mode switch (e.g. "basic")
	MessageTypeSession      MessageType = 4 // session id handover
	MessageTypeInputControl MessageType = 5 // enable/disable the input line
	MessageTypePrompt       MessageType = 6 // prompt symbol and input state
	MessageTypeInput        MessageType = 7 // input line echo from the backend
	MessageTypeBreak        MessageType = 8 // break acknowledgement
)

// Message is one unit of traffic between the interpreter and the front-end.
// Field names follow the front-end's direct property access.
type Message struct {
	Type    MessageType `json:"type"`
	Content string      `json:"content"`

	// For TEXT: suppress the automatic newline (PRINT with trailing ";").
	NoNewline bool `json:"noNewline,omitempty"`

	// For SESSION.
	SessionID string `json:"sessionId,omitempty"`

	// For INPUT_CONTROL and PROMPT. Pointer so "unset" and "false" differ.
	InputEnabled *bool  `json:"inputEnabled,omitempty"`
	PromptSymbol string `json:"promptSymbol,omitempty"`

	// For MODE.
	Mode string `json:"mode,omitempty"`

	// For INPUT.
	InputStr string `json:"input,omitempty"`
}

// TextMessage builds a plain text output message.
func TextMessage(content string) Message {
	return Message{Type: MessageTypeText, Content: content}
}
