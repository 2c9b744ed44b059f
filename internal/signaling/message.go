package signaling

// message is the JSON frame exchanged over the rendezvous WebSocket. Payload
// is the same base64 text a user would paste on the console.
type message struct {
	Type    string `json:"type"`
	Payload string `json:"payload"`
}
