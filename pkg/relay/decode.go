package relay

import (
	"encoding/json"
	"strings"
)

// providerMessage covers the two inbound shapes the relay understands: the
// channel/alternatives layout used by streaming STT providers and a flat
// {is_final, transcript} layout. Anything else decodes to "no transcript".
type providerMessage struct {
	Type       string  `json:"type"`
	IsFinal    bool    `json:"is_final"`
	Transcript *string `json:"transcript"`
	Channel    *struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
}

// decodeTranscript extracts (text, isFinal) from a provider frame. ok=false
// means the frame carried no usable transcript; the caller treats that as a
// no-op, never as an error.
func decodeTranscript(data []byte) (text string, isFinal bool, ok bool) {
	var msg providerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return "", false, false
	}

	if msg.Channel != nil && len(msg.Channel.Alternatives) > 0 {
		text = msg.Channel.Alternatives[0].Transcript
	} else if msg.Transcript != nil {
		text = *msg.Transcript
	} else {
		return "", false, false
	}

	if strings.TrimSpace(text) == "" && !msg.IsFinal {
		return "", false, false
	}

	return text, msg.IsFinal, true
}
