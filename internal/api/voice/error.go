package voice

import "CarePortalGolang/pkg/response"

var (
	ErrSessionBusy              = response.NewError(409, "another voice session is already active")
	ErrSessionNotFound          = response.NewError(404, "session not found")
	ErrPermissionDenied         = response.NewError(403, "microphone permission denied")
	ErrDeviceUnavailable        = response.NewError(503, "no usable audio device")
	ErrTranscriptionUnavailable = response.NewError(502, "transcription service unavailable")
	ErrInvalidAudioFile         = response.NewError(400, "invalid audio file")
	ErrAudioFileTooLarge        = response.NewError(400, "audio file too large")
	ErrUnsupportedFormat        = response.NewError(400, "unsupported audio format")
	ErrTranscriptionFailed      = response.NewError(500, "failed to transcribe audio")
	ErrUnknownContext           = response.NewError(400, "unrecognized operating context")
	ErrPageMappingNotFound      = response.NewError(404, "page mapping not found")
	ErrPageMappingExists        = response.NewError(409, "page mapping already exists")
	ErrInteractionLogFailed     = response.NewError(500, "failed to record interaction")
)
