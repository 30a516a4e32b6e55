package voiceService

import (
	"CarePortalGolang/internal/api/voice"
	"CarePortalGolang/internal/entity"
	"CarePortalGolang/pkg/capture"
	contextPkg "CarePortalGolang/pkg/context"
	"CarePortalGolang/pkg/relay"
	"CarePortalGolang/pkg/speech"
	"context"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

var jsonFast = jsoniter.ConfigCompatibleWithStandardLibrary

// LiveSession wires one capture session, one relay connection and one speech
// queue into a single push-to-talk turn. However the turn ends, exactly one
// interaction log entry is written and the session tears itself down.
type LiveSession struct {
	svc   *voiceService
	user  entity.UserLoginData
	opCtx entity.OperatingContext

	cap   *capture.Session
	rel   *relay.Relay
	queue *speech.Queue
	emit  func(voice.StreamEvent)
	ctx   context.Context

	mu       sync.Mutex
	reply    *voice.CommandReply
	idle     *time.Timer
	finished chan struct{}
	turnOnce sync.Once
}

// OpenSession acquires the device lock, starts capture, dials the
// transcription provider and starts the pipeline goroutines. Any failure
// along the way releases everything already acquired.
func (s *voiceService) OpenSession(ctx context.Context, user entity.UserLoginData, req voice.StartFrame, emit func(voice.StreamEvent)) (*LiveSession, error) {
	requestID := contextPkg.GetRequestID(ctx)

	sessionID, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		return nil, err
	}

	acquired, err := s.redis.AcquireCaptureLock(ctx, req.ClientID, sessionID, s.config.CaptureLockTTL)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to acquire capture lock")
		return nil, err
	}
	if !acquired {
		return nil, voice.ErrSessionBusy
	}

	opCtx := entity.OperatingContext(req.Context)
	capSession, err := s.captureMgr.Start(
		sessionID, req.ClientID, user.ID,
		entity.SpeakerRole(user.Role), opCtx,
		capture.DeviceStatus(req.DeviceStatus),
	)
	if err != nil {
		_ = s.redis.ReleaseCaptureLock(context.Background(), req.ClientID, sessionID)
		return nil, err
	}

	stillActive := func() bool {
		st := capSession.State()
		return st == entity.SessionCapturing || st == entity.SessionStreaming
	}

	rel, err := relay.Dial(s.relayConfig(req.Encoding, req.SampleRate), sessionID, stillActive, s.log)
	if err != nil {
		capSession.Stop()
		_ = s.redis.ReleaseCaptureLock(context.Background(), req.ClientID, sessionID)
		s.recordTurn(ctx, capSession.Snapshot(), "", "", entity.Intent{Kind: entity.IntentUnknown, Context: opCtx}, entity.OutcomeRelayError, false, 0)
		return nil, voice.ErrTranscriptionUnavailable
	}

	ls := &LiveSession{
		svc:      s,
		user:     user,
		opCtx:    opCtx,
		cap:      capSession,
		rel:      rel,
		emit:     emit,
		ctx:      contextPkg.WithRequestID(context.Background(), requestID),
		finished: make(chan struct{}),
	}
	ls.queue = speech.NewQueue(s.synth, s.synthFall, ls.deliverPlayback, s.log)

	go ls.forward()
	go ls.consume()

	emit(voice.StreamEvent{
		Type:      voice.EventSession,
		SessionID: sessionID,
		State:     capSession.State().String(),
	})

	return ls, nil
}

func (ls *LiveSession) SessionID() string     { return ls.cap.ID() }
func (ls *LiveSession) Done() <-chan struct{} { return ls.finished }

// PushAudio feeds one binary frame from the client into the capture session.
// The first frame moves the session from capturing to streaming.
func (ls *LiveSession) PushAudio(data []byte) error {
	if ls.cap.State() == entity.SessionCapturing {
		if err := ls.cap.MarkStreaming(); err == nil {
			ls.emit(voice.StreamEvent{
				Type:      voice.EventState,
				SessionID: ls.cap.ID(),
				State:     entity.SessionStreaming.String(),
			})
		}
	}

	return ls.cap.Push(data)
}

// Finalize stops accepting audio and waits for the provider's final
// transcript. A provider that never delivers one trips the idle timer and
// the turn ends as a timeout rather than hanging.
func (ls *LiveSession) Finalize() error {
	if err := ls.cap.Finalize(); err != nil {
		return err
	}

	ls.emit(voice.StreamEvent{
		Type:      voice.EventState,
		SessionID: ls.cap.ID(),
		State:     entity.SessionFinalizing.String(),
	})

	ls.mu.Lock()
	ls.idle = time.AfterFunc(ls.svc.config.FinalIdleTimeout, ls.idleTimeout)
	ls.mu.Unlock()

	return nil
}

// Cancel aborts the turn without dispatching anything. Safe to call at any
// point, including after the turn already completed.
func (ls *LiveSession) Cancel() {
	ls.finishTurn(entity.OutcomeCancelled, entity.Intent{Kind: entity.IntentUnknown, Context: ls.opCtx}, nil, ls.rel.CurrentText())
}

func (ls *LiveSession) idleTimeout() {
	result := entity.CommandResult{
		Reply:   "Sorry, I didn't catch that. Please try again.",
		Success: false,
	}
	ls.finishTurn(entity.OutcomeTimeout, entity.Intent{Kind: entity.IntentUnknown, Context: ls.opCtx}, &result, ls.rel.CurrentText())
}

// forward moves captured audio into the relay until capture finishes.
func (ls *LiveSession) forward() {
	for chunk := range ls.cap.Chunks() {
		ls.rel.Forward(chunk.Data)
	}
}

// consume reads transcription results. Interim chunks only feed UI feedback;
// the first final chunk drives the rest of the pipeline and ends the turn.
func (ls *LiveSession) consume() {
	for {
		select {
		case tc, ok := <-ls.rel.Transcripts():
			if !ok {
				if err := ls.rel.Err(); err != nil {
					result := entity.CommandResult{
						Reply:     "Transcription is temporarily unavailable. Please try again in a moment.",
						Success:   false,
						ErrorKind: entity.ErrKindTranscriptionUnavailable,
					}
					ls.finishTurn(entity.OutcomeRelayError, entity.Intent{Kind: entity.IntentUnknown, Context: ls.opCtx}, &result, ls.rel.CurrentText())
				}
				return
			}

			ls.emit(voice.StreamEvent{
				Type:      voice.EventTranscript,
				SessionID: ls.cap.ID(),
				Text:      tc.Text,
				IsFinal:   tc.IsFinal,
			})

			if tc.IsFinal {
				ls.handleFinal(tc.Text)
				return
			}
		case <-ls.finished:
			return
		}
	}
}

func (ls *LiveSession) handleFinal(text string) {
	ls.stopIdle()

	it := ls.svc.classifier.Classify(text, ls.opCtx)
	result := ls.svc.dispatcher.Dispatch(ls.ctx, ls.user, it)

	outcome := entity.OutcomeCompleted
	switch result.ErrorKind {
	case entity.ErrKindClassificationMiss:
		outcome = entity.OutcomeMiss
	case entity.ErrKindDispatchFailure:
		outcome = entity.OutcomeDispatchUC
	}

	ls.finishTurn(outcome, it, &result, text)
}

// finishTurn is the single funnel for every way a turn can end. The
// sync.Once guarantees one audit entry and one teardown no matter how many
// paths race here.
func (ls *LiveSession) finishTurn(outcome entity.TurnOutcome, it entity.Intent, result *entity.CommandResult, input string) {
	ls.turnOnce.Do(func() {
		ls.stopIdle()

		latency := time.Since(ls.cap.StartedAt()).Milliseconds()
		output := ""
		success := false

		if result != nil {
			output = result.Reply
			success = result.Success

			reply := buildReply(it, *result)
			ls.mu.Lock()
			ls.reply = reply
			ls.mu.Unlock()

			if err := ls.queue.Enqueue(speech.Utterance{
				SessionID: ls.cap.ID(),
				TurnID:    ls.cap.ID(),
				Text:      result.Reply,
			}); err != nil {
				// no audio then, but the text reply still goes out
				ls.emit(voice.StreamEvent{
					Type:      voice.EventReply,
					SessionID: ls.cap.ID(),
					Reply:     reply,
				})
			}

			if payload, err := jsonFast.MarshalToString(reply); err == nil {
				_ = ls.svc.redis.CacheReply(ls.ctx, ls.cap.ID(), payload, ls.svc.config.ReplyCacheTTL)
			}
		}

		ls.svc.recordTurn(ls.ctx, ls.cap.Snapshot(), input, output, it, outcome, success, latency)

		go ls.teardown()
	})
}

func (ls *LiveSession) teardown() {
	// drains any pending playback so the reply event precedes the close
	ls.queue.Close()

	ls.cap.Stop()
	_ = ls.rel.Close()
	_ = ls.svc.redis.ReleaseCaptureLock(context.Background(), ls.cap.ClientID(), ls.cap.ID())

	ls.emit(voice.StreamEvent{
		Type:      voice.EventState,
		SessionID: ls.cap.ID(),
		State:     entity.SessionClosed.String(),
	})

	close(ls.finished)
}

func (ls *LiveSession) stopIdle() {
	ls.mu.Lock()
	if ls.idle != nil {
		ls.idle.Stop()
		ls.idle = nil
	}
	ls.mu.Unlock()
}

// deliverPlayback runs on the speech queue's consumer goroutine once the
// reply audio is ready (or definitively not coming).
func (ls *LiveSession) deliverPlayback(pb speech.Playback) {
	ls.mu.Lock()
	reply := ls.reply
	ls.mu.Unlock()
	if reply == nil {
		return
	}

	if pb.Err == nil && len(pb.Audio) > 0 {
		ext := ".mp3"
		if pb.Fallback {
			ext = ".wav"
		}

		fileURL, err := ls.svc.s3Client.UploadBytes(pb.SessionID+ext, pb.Audio, pb.ContentType)
		if err == nil {
			if presigned, err := ls.svc.s3Client.PresignUrl(fileURL); err == nil {
				reply.AudioURL = presigned
				reply.AudioLocal = pb.Fallback
			}
		} else {
			ls.svc.log.WithFields(logrus.Fields{
				"session_id": pb.SessionID,
				"error":      err.Error(),
			}).Warn("Failed to store synthesized reply audio")
		}
	}

	ls.emit(voice.StreamEvent{
		Type:      voice.EventReply,
		SessionID: pb.SessionID,
		Reply:     reply,
	})
}

func buildReply(it entity.Intent, result entity.CommandResult) *voice.CommandReply {
	return &voice.CommandReply{
		Text:       result.Reply,
		Action:     result.Action,
		Target:     result.Target,
		Success:    result.Success,
		Confidence: it.Confidence,
		ErrorKind:  result.ErrorKind,
		Intent:     it.Kind,
		Data:       result.Data,
	}
}

// recordTurn writes the one append-only audit entry for a live turn.
func (s *voiceService) recordTurn(ctx context.Context, session entity.VoiceSession, input, output string, it entity.Intent, outcome entity.TurnOutcome, success bool, latencyMS int64) {
	s.recordTurnOnChannel(ctx, session, input, output, it, outcome, success, latencyMS, "voice")
}
