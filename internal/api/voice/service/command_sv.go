package voiceService

import (
	"CarePortalGolang/internal/api/voice"
	"CarePortalGolang/internal/entity"
	contextPkg "CarePortalGolang/pkg/context"
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// ProcessTextCommand is the typed alternative to speaking: same classifier,
// same dispatcher, same audit trail, no capture or relay involved.
func (s *voiceService) ProcessTextCommand(ctx context.Context, user entity.UserLoginData, req voice.ProcessTextRequest) (*voice.CommandReply, error) {
	return s.runTurn(ctx, user, req.Text, entity.OperatingContext(req.Context), "text")
}

// ProcessClipCommand transcribes one uploaded clip and runs it through the
// same turn pipeline.
func (s *voiceService) ProcessClipCommand(ctx context.Context, user entity.UserLoginData, clip io.Reader, filename, opCtx string) (*voice.CommandReply, error) {
	requestID := contextPkg.GetRequestID(ctx)

	transcript, err := s.transcribe.TranscribeClip(ctx, clip, filename)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Clip transcription failed")
		return nil, voice.ErrTranscriptionFailed
	}

	return s.runTurn(ctx, user, transcript, entity.OperatingContext(opCtx), "clip")
}

func (s *voiceService) runTurn(ctx context.Context, user entity.UserLoginData, text string, opCtx entity.OperatingContext, channel string) (*voice.CommandReply, error) {
	started := time.Now()

	it := s.classifier.Classify(text, opCtx)
	result := s.dispatcher.Dispatch(ctx, user, it)

	outcome := entity.OutcomeCompleted
	switch result.ErrorKind {
	case entity.ErrKindClassificationMiss:
		outcome = entity.OutcomeMiss
	case entity.ErrKindDispatchFailure:
		outcome = entity.OutcomeDispatchUC
	}

	reply := buildReply(it, result)
	s.attachAudio(ctx, reply, channel, result.Reply)

	sessionID, err := s.utils.NewULIDFromTimestamp(started)
	if err != nil {
		sessionID = "turn-" + user.ID
	}

	session := entity.VoiceSession{
		ID:               sessionID,
		UserID:           user.ID,
		SpeakerRole:      entity.SpeakerRole(user.Role),
		OperatingContext: opCtx,
		State:            entity.SessionClosed,
		StartedAt:        started,
	}
	s.recordTurnOnChannel(ctx, session, text, result.Reply, it, outcome, result.Success, time.Since(started).Milliseconds(), channel)

	return reply, nil
}

// attachAudio synthesizes the reply and stores it, falling back to the local
// engine like the live path does. Synthesis problems never fail the turn.
func (s *voiceService) attachAudio(ctx context.Context, reply *voice.CommandReply, channel, text string) {
	if channel == "text" {
		// typed commands get typed replies
		return
	}

	audio, contentType, err := s.synth.Synthesize(ctx, text)
	fallback := false
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"error":      err.Error(),
		}).Warn("Remote synthesis failed, falling back to local engine")

		if s.synthFall == nil {
			return
		}
		audio, contentType, err = s.synthFall.Synthesize(ctx, text)
		if err != nil {
			return
		}
		fallback = true
	}

	ext := ".mp3"
	if fallback {
		ext = ".wav"
	}

	id, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		return
	}

	fileURL, err := s.s3Client.UploadBytes(id+ext, audio, contentType)
	if err != nil {
		return
	}
	if presigned, err := s.s3Client.PresignUrl(fileURL); err == nil {
		reply.AudioURL = presigned
		reply.AudioLocal = fallback
	}
}

func (s *voiceService) recordTurnOnChannel(ctx context.Context, session entity.VoiceSession, input, output string, it entity.Intent, outcome entity.TurnOutcome, success bool, latencyMS int64, channel string) {
	repo, err := s.voiceRepo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"session_id": session.ID,
			"error":      err.Error(),
		}).Error("Failed to open repository for interaction log")
		return
	}

	entryID, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		entryID = session.ID
	}

	entry := entity.InteractionLog{
		ID:               entryID,
		SessionID:        session.ID,
		UserID:           session.UserID,
		SpeakerRole:      session.SpeakerRole,
		OperatingContext: session.OperatingContext,
		Input:            input,
		Output:           output,
		IntentKind:       it.Kind,
		Channel:          channel,
		Outcome:          outcome,
		Success:          success,
		LatencyMS:        latencyMS,
		CreatedAt:        time.Now(),
	}

	if err := repo.Interactions.CreateInteraction(ctx, entry); err != nil {
		s.log.WithFields(logrus.Fields{
			"session_id": session.ID,
			"outcome":    outcome,
			"error":      err.Error(),
		}).Error("Failed to write interaction log entry")
	}
}
