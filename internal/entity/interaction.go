package entity

import "time"

// TurnOutcome names the terminal state of one pipeline turn. Every turn ends
// in exactly one of these, and every one of them is audited.
type TurnOutcome string

const (
	OutcomeCompleted  TurnOutcome = "completed"
	OutcomeMiss       TurnOutcome = "classifier_miss"
	OutcomeDispatchUC TurnOutcome = "dispatch_error"
	OutcomeCancelled  TurnOutcome = "cancelled"
	OutcomeTimeout    TurnOutcome = "timeout"
	OutcomeRelayError TurnOutcome = "relay_error"
)

// InteractionLog is the append-only audit record of one completed turn.
// It is created once per turn and never mutated afterwards.
type InteractionLog struct {
	ID               string           `json:"id"`
	SessionID        string           `json:"session_id"`
	UserID           string           `json:"user_id"`
	SpeakerRole      SpeakerRole      `json:"speaker_role"`
	OperatingContext OperatingContext `json:"operating_context"`
	Input            string           `json:"input"`
	Output           string           `json:"output"`
	IntentKind       IntentKind       `json:"intent_kind"`
	Channel          string           `json:"channel"`
	Outcome          TurnOutcome      `json:"outcome"`
	Success          bool             `json:"success"`
	LatencyMS        int64            `json:"latency_ms"`
	CreatedAt        time.Time        `json:"created_at"`
}
