package entity

import "time"

type SessionState uint8

const (
	SessionIdle SessionState = iota
	SessionCapturing
	SessionStreaming
	SessionFinalizing
	SessionClosed
)

var sessionStateNames = map[SessionState]string{
	SessionIdle:       "idle",
	SessionCapturing:  "capturing",
	SessionStreaming:  "streaming",
	SessionFinalizing: "finalizing",
	SessionClosed:     "closed",
}

func (s SessionState) String() string {
	if name, ok := sessionStateNames[s]; ok {
		return name
	}
	return "unknown"
}

type SpeakerRole string

const (
	RolePatient  SpeakerRole = "patient"
	RoleProvider SpeakerRole = "provider"
	RoleOwner    SpeakerRole = "owner"
	RoleAdmin    SpeakerRole = "admin"
)

// OperatingContext scopes which intents are legal for a given utterance.
// It is supplied by the host UI per invocation, never taken from global state.
type OperatingContext string

const (
	ContextPatient  OperatingContext = "patient"
	ContextProvider OperatingContext = "provider"
	ContextBilling  OperatingContext = "billing"
	ContextAdmin    OperatingContext = "admin"
)

func (c OperatingContext) Known() bool {
	switch c {
	case ContextPatient, ContextProvider, ContextBilling, ContextAdmin:
		return true
	}
	return false
}

type VoiceSession struct {
	ID               string           `json:"id"`
	ClientID         string           `json:"client_id"`
	UserID           string           `json:"user_id"`
	SpeakerRole      SpeakerRole      `json:"speaker_role"`
	OperatingContext OperatingContext `json:"operating_context"`
	State            SessionState     `json:"state"`
	StartedAt        time.Time        `json:"started_at"`
}

// TranscriptChunk is one decoded transcription fragment. Interim chunks
// (IsFinal=false) may be superseded later and are never dispatched.
type TranscriptChunk struct {
	SessionID  string    `json:"session_id"`
	Text       string    `json:"text"`
	IsFinal    bool      `json:"is_final"`
	ReceivedAt time.Time `json:"received_at"`
}
