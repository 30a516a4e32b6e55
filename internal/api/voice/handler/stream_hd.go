package voiceHandler

import (
	"CarePortalGolang/internal/api/voice"
	"CarePortalGolang/internal/entity"
	"CarePortalGolang/pkg/capture"
	contextPkg "CarePortalGolang/pkg/context"
	"errors"
	"sync"

	"github.com/gofiber/websocket/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

var jsonFast = jsoniter.ConfigCompatibleWithStandardLibrary

// streamWriter serializes all writes on one websocket connection. The
// pipeline emits events from several goroutines but gorilla connections
// allow only one concurrent writer.
type streamWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *streamWriter) send(ev voice.StreamEvent) {
	payload, err := jsonFast.Marshal(ev)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.WriteMessage(websocket.TextMessage, payload)
}

// StreamVoice runs one push-to-talk session over a websocket. The client
// sends a JSON start frame, then binary audio frames, then a finalize or
// cancel control frame. The server pushes transcripts, state changes and
// the final reply as JSON events.
func (h *VoiceHandler) StreamVoice(conn *websocket.Conn) {
	defer conn.Close()

	writer := &streamWriter{conn: conn}

	userData, ok := conn.Locals("user").(entity.UserLoginData)
	if !ok {
		writer.send(voice.StreamEvent{
			Type:  voice.EventError,
			Code:  "UNAUTHORIZED",
			Error: "missing or invalid credentials",
		})
		return
	}

	requestID, _ := conn.Locals("X-Request-ID").(string)
	ctx := contextPkg.WithRequestID(context.Background(), requestID)

	msgType, payload, err := conn.ReadMessage()
	if err != nil {
		return
	}
	if msgType != websocket.TextMessage {
		writer.send(voice.StreamEvent{
			Type:  voice.EventError,
			Code:  "BAD_START_FRAME",
			Error: "first frame must be a JSON start frame",
		})
		return
	}

	var start voice.StartFrame
	if err := jsonFast.Unmarshal(payload, &start); err != nil {
		writer.send(voice.StreamEvent{
			Type:  voice.EventError,
			Code:  "BAD_START_FRAME",
			Error: "malformed start frame",
		})
		return
	}
	if err := h.validator.Struct(start); err != nil {
		writer.send(voice.StreamEvent{
			Type:  voice.EventError,
			Code:  "BAD_START_FRAME",
			Error: err.Error(),
		})
		return
	}

	ls, err := h.voiceService.OpenSession(ctx, userData, start, writer.send)
	if err != nil {
		writer.send(openErrorEvent(err))
		return
	}

	h.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"session_id": ls.SessionID(),
		"user_id":    userData.ID,
		"context":    start.Context,
	}).Info("Voice stream session opened")

	// Unblock the read loop below once the turn finishes so the
	// connection does not linger after the reply is delivered.
	go func() {
		<-ls.Done()
		_ = conn.Close()
	}()

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			// Client went away mid-turn; the cancel funnel still
			// writes the interaction log entry.
			ls.Cancel()
			break
		}

		switch msgType {
		case websocket.BinaryMessage:
			if err := ls.PushAudio(payload); err != nil {
				writer.send(voice.StreamEvent{
					Type:  voice.EventError,
					Code:  "AUDIO_REJECTED",
					Error: err.Error(),
				})
			}
		case websocket.TextMessage:
			var ctrl voice.ControlFrame
			if err := jsonFast.Unmarshal(payload, &ctrl); err != nil {
				continue
			}
			switch ctrl.Type {
			case "finalize":
				if err := ls.Finalize(); err != nil {
					writer.send(voice.StreamEvent{
						Type:  voice.EventError,
						Code:  "FINALIZE_REJECTED",
						Error: err.Error(),
					})
				}
			case "cancel":
				ls.Cancel()
			}
		}
	}

	<-ls.Done()
}

// openErrorEvent maps session open failures to the error codes clients
// branch on.
func openErrorEvent(err error) voice.StreamEvent {
	ev := voice.StreamEvent{Type: voice.EventError, Error: err.Error()}

	switch {
	case errors.Is(err, voice.ErrSessionBusy), errors.Is(err, capture.ErrSessionBusy):
		ev.Code = "SESSION_BUSY"
	case errors.Is(err, capture.ErrPermissionDenied):
		ev.Code = "PERMISSION_DENIED"
	case errors.Is(err, capture.ErrDeviceUnavailable):
		ev.Code = "DEVICE_UNAVAILABLE"
	case errors.Is(err, voice.ErrTranscriptionUnavailable):
		ev.Code = "TRANSCRIPTION_UNAVAILABLE"
	default:
		ev.Code = "SESSION_OPEN_FAILED"
	}

	return ev
}
