package session

import (
	"fmt"
	"unicode/utf8"
)

// Message is an inbound text message.
type Message struct {
	Channel string
	Text    string
}

// DecodeError reports an inbound payload that is not valid UTF-8.
type DecodeError struct {
	Channel string
	Data    []byte
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("DataChannel '%s': %d-byte message is not valid UTF-8", e.Channel, len(e.Data))
}

func decodeMessage(label string, data []byte) (Message, error) {
	if !utf8.Valid(data) {
		return Message{}, &DecodeError{Channel: label, Data: append([]byte(nil), data...)}
	}
	return Message{Channel: label, Text: string(data)}, nil
}
