// Package protocol defines the signaling message format exchanged between the
// two peers: base64(JSON(SessionDescription)).
package protocol

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/pion/webrtc/v4"
)

// Encode serializes a SessionDescription into a single line of base64 text.
func Encode(desc webrtc.SessionDescription) (string, error) {
	b, err := json.Marshal(desc)
	if err != nil {
		return "", newError("encode", ErrJSON, err.Error())
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// Decode parses a line produced by Encode. Surrounding whitespace is ignored.
func Decode(s string) (webrtc.SessionDescription, error) {
	var desc webrtc.SessionDescription

	s = strings.TrimSpace(s)
	if s == "" {
		return desc, newError("decode", ErrEmpty, "")
	}

	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return desc, newError("decode", ErrBase64, err.Error())
	}

	if err := json.Unmarshal(b, &desc); err != nil {
		return desc, newError("decode", ErrJSON, err.Error())
	}

	return desc, nil
}

// DecodeAs is Decode followed by a check that the description is of kind want.
// Unknown kinds never match.
func DecodeAs(s string, want webrtc.SDPType) (webrtc.SessionDescription, error) {
	desc, err := Decode(s)
	if err != nil {
		return desc, err
	}
	if desc.Type != want {
		return desc, newError("decode", ErrUnexpectedType, "got "+desc.Type.String()+", want "+want.String())
	}
	return desc, nil
}
