package voiceService

import (
	"CarePortalGolang/internal/api/voice"
	voiceRepository "CarePortalGolang/internal/api/voice/repository"
	"CarePortalGolang/internal/entity"
	"CarePortalGolang/pkg/capture"
	"CarePortalGolang/pkg/intent"
	"CarePortalGolang/pkg/utils"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	netContext "golang.org/x/net/context"
)

type fakeInteractionStore struct {
	mu      sync.Mutex
	entries []entity.InteractionLog
}

func (f *fakeInteractionStore) CreateInteraction(ctx netContext.Context, entry entity.InteractionLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeInteractionStore) GetInteractionsByUserID(ctx netContext.Context, userID string, limit, offset int) ([]entity.InteractionLog, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries, len(f.entries), nil
}

func (f *fakeInteractionStore) GetInteractionsBySessionID(ctx netContext.Context, sessionID string) ([]entity.InteractionLog, error) {
	return nil, nil
}

func (f *fakeInteractionStore) all() []entity.InteractionLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entity.InteractionLog, len(f.entries))
	copy(out, f.entries)
	return out
}

type fakePageMappingStore struct{}

func (f *fakePageMappingStore) CreatePageMapping(ctx netContext.Context, mapping entity.PageMapping) error {
	return nil
}

func (f *fakePageMappingStore) GetPageMappingByID(ctx netContext.Context, pageID string) (entity.PageMapping, error) {
	return entity.PageMapping{}, nil
}

func (f *fakePageMappingStore) GetActivePageMappings(ctx netContext.Context) ([]entity.PageMapping, error) {
	return nil, nil
}

func (f *fakePageMappingStore) UpdatePageMapping(ctx netContext.Context, mapping entity.PageMapping) error {
	return nil
}

type fakeVoiceRepo struct {
	interactions *fakeInteractionStore
}

func (f *fakeVoiceRepo) NewClient(tx bool) (voiceRepository.Client, error) {
	return voiceRepository.Client{
		Interactions: f.interactions,
		PageMappings: &fakePageMappingStore{},
		Commit:       func() error { return nil },
		Rollback:     func() error { return nil },
	}, nil
}

type fakeTTS struct {
	err   error
	calls int
}

func (f *fakeTTS) Synthesize(ctx netContext.Context, text string) ([]byte, string, error) {
	f.calls++
	if f.err != nil {
		return nil, "", f.err
	}
	return []byte("audio:" + text), "audio/mpeg", nil
}

type fakeObjectStore struct {
	uploads int
}

func (f *fakeObjectStore) UploadBytes(fileName string, data []byte, contentType string) (string, error) {
	f.uploads++
	return "https://bucket/" + fileName, nil
}

func (f *fakeObjectStore) PresignUrl(fileUrl string) (string, error) {
	return fileUrl + "?signed", nil
}

func (f *fakeObjectStore) DeleteFile(fileName string) error { return nil }

type fakeTranscriber struct {
	transcript string
	err        error
}

func (f *fakeTranscriber) TranscribeClip(ctx netContext.Context, clip io.Reader, filename string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.transcript, nil
}

type commandFixture struct {
	service      IVoiceService
	interactions *fakeInteractionStore
	tts          *fakeTTS
	localTTS     *fakeTTS
	objectStore  *fakeObjectStore
	transcriber  *fakeTranscriber
}

func newCommandFixture() *commandFixture {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	interactions := &fakeInteractionStore{}
	tts := &fakeTTS{}
	localTTS := &fakeTTS{}
	objectStore := &fakeObjectStore{}
	transcriber := &fakeTranscriber{}

	cfg := &VoiceConfig{
		FinalIdleTimeout: time.Second,
		DispatchTimeout:  time.Second,
		CaptureLockTTL:   time.Minute,
		ReplyCacheTTL:    time.Minute,
	}

	svc := New(
		logger,
		&fakeVoiceRepo{interactions: interactions},
		capture.NewManager(logger),
		intent.New(),
		tts,
		localTTS,
		transcriber,
		objectStore,
		nil,
		nil,
		utils.New(),
		cfg,
		&fakeAppointments{},
		&fakeMedications{},
		&fakeBilling{},
	)

	return &commandFixture{
		service:      svc,
		interactions: interactions,
		tts:          tts,
		localTTS:     localTTS,
		objectStore:  objectStore,
		transcriber:  transcriber,
	}
}

func TestProcessTextCommandNavigates(t *testing.T) {
	f := newCommandFixture()

	reply, err := f.service.ProcessTextCommand(netContext.Background(), testUser, voice.ProcessTextRequest{
		Text:    "take me to my medications",
		Context: "patient",
	})
	require.NoError(t, err)

	assert.True(t, reply.Success)
	assert.Equal(t, entity.IntentNavigate, reply.Intent)
	assert.Equal(t, "/patient/medications", reply.Target)
	assert.NotEmpty(t, reply.Text)

	// typed commands get typed replies
	assert.Empty(t, reply.AudioURL)
	assert.Zero(t, f.tts.calls)

	entries := f.interactions.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "text", entries[0].Channel)
	assert.Equal(t, entity.OutcomeCompleted, entries[0].Outcome)
	assert.Equal(t, entity.IntentNavigate, entries[0].IntentKind)
	assert.Equal(t, "take me to my medications", entries[0].Input)
	assert.True(t, entries[0].Success)
}

func TestProcessTextCommandUnknownIsAudited(t *testing.T) {
	f := newCommandFixture()

	reply, err := f.service.ProcessTextCommand(netContext.Background(), testUser, voice.ProcessTextRequest{
		Text:    "purple monkeys dancing",
		Context: "patient",
	})
	require.NoError(t, err)

	assert.False(t, reply.Success)
	assert.Equal(t, entity.IntentUnknown, reply.Intent)
	assert.Equal(t, entity.ErrKindClassificationMiss, reply.ErrorKind)
	assert.NotEmpty(t, reply.Text)

	entries := f.interactions.all()
	require.Len(t, entries, 1)
	assert.Equal(t, entity.OutcomeMiss, entries[0].Outcome)
	assert.False(t, entries[0].Success)
}

func TestProcessTextCommandExactlyOneLogEntry(t *testing.T) {
	f := newCommandFixture()

	for i := 0; i < 3; i++ {
		_, err := f.service.ProcessTextCommand(netContext.Background(), testUser, voice.ProcessTextRequest{
			Text:    "show me my appointments",
			Context: "patient",
		})
		require.NoError(t, err)
	}

	assert.Len(t, f.interactions.all(), 3)
}

func TestProcessClipCommandAttachesAudio(t *testing.T) {
	f := newCommandFixture()
	f.transcriber.transcript = "take me to my medications"

	reply, err := f.service.ProcessClipCommand(netContext.Background(), testUser,
		strings.NewReader("clip-bytes"), "clip.webm", "patient")
	require.NoError(t, err)

	assert.True(t, reply.Success)
	assert.Equal(t, 1, f.tts.calls)
	assert.Equal(t, 1, f.objectStore.uploads)
	assert.Contains(t, reply.AudioURL, "?signed")
	assert.False(t, reply.AudioLocal)

	entries := f.interactions.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "clip", entries[0].Channel)
}

func TestProcessClipCommandFallsBackToLocalSynthesis(t *testing.T) {
	f := newCommandFixture()
	f.transcriber.transcript = "take me to my medications"
	f.tts.err = errors.New("provider down")

	reply, err := f.service.ProcessClipCommand(netContext.Background(), testUser,
		strings.NewReader("clip-bytes"), "clip.webm", "patient")
	require.NoError(t, err)

	assert.True(t, reply.Success)
	assert.Equal(t, 1, f.localTTS.calls)
	assert.True(t, reply.AudioLocal)
	assert.NotEmpty(t, reply.AudioURL)
}

func TestProcessClipCommandSynthesisFailureKeepsTextReply(t *testing.T) {
	f := newCommandFixture()
	f.transcriber.transcript = "take me to my medications"
	f.tts.err = errors.New("provider down")
	f.localTTS.err = errors.New("espeak missing")

	reply, err := f.service.ProcessClipCommand(netContext.Background(), testUser,
		strings.NewReader("clip-bytes"), "clip.webm", "patient")
	require.NoError(t, err)

	assert.True(t, reply.Success)
	assert.NotEmpty(t, reply.Text)
	assert.Empty(t, reply.AudioURL)

	// the turn is still audited
	assert.Len(t, f.interactions.all(), 1)
}

func TestProcessClipCommandTranscriptionFailure(t *testing.T) {
	f := newCommandFixture()
	f.transcriber.err = errors.New("whisper unreachable")

	_, err := f.service.ProcessClipCommand(netContext.Background(), testUser,
		strings.NewReader("clip-bytes"), "clip.webm", "patient")
	assert.ErrorIs(t, err, voice.ErrTranscriptionFailed)

	// no transcript, no turn, no audit entry
	assert.Empty(t, f.interactions.all())
}

func TestProcessTextCommandUnknownContext(t *testing.T) {
	f := newCommandFixture()

	reply, err := f.service.ProcessTextCommand(netContext.Background(), testUser, voice.ProcessTextRequest{
		Text:    "show me my appointments",
		Context: "kiosk",
	})
	require.NoError(t, err)

	assert.False(t, reply.Success)
	assert.Equal(t, entity.IntentUnknown, reply.Intent)

	entries := f.interactions.all()
	require.Len(t, entries, 1)
	assert.Equal(t, entity.OperatingContext("kiosk"), entries[0].OperatingContext)
	assert.Equal(t, entity.OutcomeMiss, entries[0].Outcome)
}
