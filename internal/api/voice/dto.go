package voice

import (
	"CarePortalGolang/internal/entity"
	"mime/multipart"
	"time"
)

// StartFrame is the first JSON frame a client sends on the voice stream.
// DeviceStatus reports what the browser learned from getUserMedia before any
// audio flows, so permission and device failures surface immediately.
type StartFrame struct {
	Type         string `json:"type" validate:"required,eq=start"`
	ClientID     string `json:"client_id" validate:"required"`
	Context      string `json:"context" validate:"required"`
	DeviceStatus string `json:"device_status,omitempty"`
	Encoding     string `json:"encoding,omitempty"`
	SampleRate   int    `json:"sample_rate,omitempty"`
}

// ControlFrame covers the non-binary frames after start: finalize and cancel.
type ControlFrame struct {
	Type string `json:"type" validate:"required,oneof=finalize cancel"`
}

// StreamEvent is every JSON frame the server pushes down the voice stream.
type StreamEvent struct {
	Type      string        `json:"type"`
	SessionID string        `json:"session_id,omitempty"`
	State     string        `json:"state,omitempty"`
	Text      string        `json:"text,omitempty"`
	IsFinal   bool          `json:"is_final,omitempty"`
	Reply     *CommandReply `json:"reply,omitempty"`
	Error     string        `json:"error,omitempty"`
	Code      string        `json:"code,omitempty"`
}

const (
	EventSession    = "session"
	EventState      = "state"
	EventTranscript = "transcript"
	EventReply      = "reply"
	EventError      = "error"
)

// CommandReply is what every turn ends with, spoken or typed. Text is never
// empty, including on failures.
type CommandReply struct {
	Text       string            `json:"text"`
	AudioURL   string            `json:"audio_url,omitempty"`
	AudioLocal bool              `json:"audio_local,omitempty"`
	Action     string            `json:"action"`
	Target     string            `json:"target,omitempty"`
	Success    bool              `json:"success"`
	Confidence float64           `json:"confidence,omitempty"`
	ErrorKind  entity.ErrorKind  `json:"error_kind,omitempty"`
	Intent     entity.IntentKind `json:"intent"`
	Data       interface{}       `json:"data,omitempty"`
}

// ProcessTextRequest is the typed-text alternative to speaking.
type ProcessTextRequest struct {
	Text    string `json:"text" validate:"required,min=1,max=500"`
	Context string `json:"context" validate:"required"`
}

// ProcessClipRequest carries a recorded audio clip for one-shot
// transcription instead of live streaming.
type ProcessClipRequest struct {
	AudioFile *multipart.FileHeader `json:"audio_file" validate:"required"`
	Context   string                `json:"context" validate:"required"`
}

type InteractionHistoryItem struct {
	ID               string    `json:"id"`
	SessionID        string    `json:"session_id"`
	Input            string    `json:"input"`
	Output           string    `json:"output"`
	IntentKind       string    `json:"intent_kind"`
	OperatingContext string    `json:"operating_context"`
	Channel          string    `json:"channel"`
	Outcome          string    `json:"outcome"`
	Success          bool      `json:"success"`
	LatencyMS        int64     `json:"latency_ms"`
	CreatedAt        time.Time `json:"created_at"`
}

type PageMappingRequest struct {
	PageID      string   `json:"page_id" validate:"required"`
	Path        string   `json:"path" validate:"required"`
	DisplayName string   `json:"display_name" validate:"required"`
	Keywords    []string `json:"keywords" validate:"required,min=1"`
	Context     string   `json:"context" validate:"required"`
	IsActive    *bool    `json:"is_active,omitempty"`
}

type SuggestionsResponse struct {
	Context     string   `json:"context"`
	Transcript  string   `json:"transcript,omitempty"`
	Suggestions []string `json:"suggestions"`
}
