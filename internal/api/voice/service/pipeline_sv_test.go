package voiceService

import (
	"CarePortalGolang/internal/api/voice"
	"CarePortalGolang/internal/entity"
	"CarePortalGolang/pkg/capture"
	"CarePortalGolang/pkg/intent"
	"CarePortalGolang/pkg/utils"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLockStore struct {
	mu       sync.Mutex
	acquired bool
	denied   bool
	releases int
	cached   map[string]string
}

func (f *fakeLockStore) AcquireCaptureLock(ctx context.Context, clientID, sessionID string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.denied {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLockStore) ReleaseCaptureLock(ctx context.Context, clientID, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases++
	return nil
}

func (f *fakeLockStore) CacheReply(ctx context.Context, sessionID string, payload string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cached == nil {
		f.cached = map[string]string{}
	}
	f.cached[sessionID] = payload
	return nil
}

func (f *fakeLockStore) GetCachedReply(ctx context.Context, sessionID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cached[sessionID], nil
}

func (f *fakeLockStore) releaseCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.releases
}

// eventRecorder collects stream events emitted across pipeline goroutines.
type eventRecorder struct {
	mu     sync.Mutex
	events []voice.StreamEvent
}

func (r *eventRecorder) emit(ev voice.StreamEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) byType(eventType string) []voice.StreamEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []voice.StreamEvent
	for _, ev := range r.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

type pipelineFixture struct {
	service      IVoiceService
	interactions *fakeInteractionStore
	lockStore    *fakeLockStore
	tts          *fakeTTS
	recorder     *eventRecorder
}

// sttScript runs one accepted provider connection; dial counts from 1.
func newPipelineFixture(t *testing.T, script func(dial int, conn *websocket.Conn)) *pipelineFixture {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	upgrader := websocket.Upgrader{}
	var mu sync.Mutex
	dials := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		mu.Lock()
		dials++
		dial := dials
		mu.Unlock()
		script(dial, conn)
	}))
	t.Cleanup(server.Close)

	interactions := &fakeInteractionStore{}
	lockStore := &fakeLockStore{}
	tts := &fakeTTS{}

	cfg := &VoiceConfig{
		RelayURL:         "ws" + strings.TrimPrefix(server.URL, "http"),
		CaptureLockTTL:   time.Minute,
		FinalIdleTimeout: 3 * time.Second,
		DispatchTimeout:  time.Second,
		ReplyCacheTTL:    time.Minute,
	}

	svc := New(
		logger,
		&fakeVoiceRepo{interactions: interactions},
		capture.NewManager(logger),
		intent.New(),
		tts,
		&fakeTTS{},
		&fakeTranscriber{},
		&fakeObjectStore{},
		lockStore,
		nil,
		utils.New(),
		cfg,
		&fakeAppointments{},
		&fakeMedications{},
		&fakeBilling{},
	)

	return &pipelineFixture{
		service:      svc,
		interactions: interactions,
		lockStore:    lockStore,
		tts:          tts,
		recorder:     &eventRecorder{},
	}
}

func startFrame() voice.StartFrame {
	return voice.StartFrame{
		Type:         "start",
		ClientID:     "client-1",
		Context:      "patient",
		DeviceStatus: "ok",
	}
}

func waitDone(t *testing.T, ls *LiveSession) {
	t.Helper()
	select {
	case <-ls.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("session never finished")
	}
}

func TestLiveSessionHappyPath(t *testing.T) {
	f := newPipelineFixture(t, func(dial int, conn *websocket.Conn) {
		defer conn.Close()

		// wait for the forwarded audio, then answer with one final
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		conn.WriteMessage(websocket.TextMessage, []byte(`{"is_final":false,"transcript":"take me"}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"is_final":true,"transcript":"take me to my medications"}`))
		conn.ReadMessage()
	})

	ls, err := f.service.OpenSession(context.Background(), testUser, startFrame(), f.recorder.emit)
	require.NoError(t, err)

	require.NoError(t, ls.PushAudio([]byte("pcm")))
	require.NoError(t, ls.Finalize())
	waitDone(t, ls)

	replies := f.recorder.byType(voice.EventReply)
	require.Len(t, replies, 1)
	reply := replies[0].Reply
	require.NotNil(t, reply)
	assert.True(t, reply.Success)
	assert.Equal(t, entity.IntentNavigate, reply.Intent)
	assert.Equal(t, "/patient/medications", reply.Target)
	assert.Contains(t, reply.AudioURL, "?signed")

	transcripts := f.recorder.byType(voice.EventTranscript)
	require.NotEmpty(t, transcripts)
	last := transcripts[len(transcripts)-1]
	assert.True(t, last.IsFinal)
	assert.Equal(t, "take me to my medications", last.Text)

	entries := f.interactions.all()
	require.Len(t, entries, 1)
	assert.Equal(t, entity.OutcomeCompleted, entries[0].Outcome)
	assert.Equal(t, "voice", entries[0].Channel)
	assert.Equal(t, ls.SessionID(), entries[0].SessionID)

	assert.Equal(t, 1, f.lockStore.releaseCount())

	// reply cached for the history surface
	cached, _ := f.lockStore.GetCachedReply(context.Background(), ls.SessionID())
	assert.Contains(t, cached, "/patient/medications")
}

func TestOpenSessionBusyLock(t *testing.T) {
	f := newPipelineFixture(t, func(dial int, conn *websocket.Conn) { conn.Close() })
	f.lockStore.denied = true

	_, err := f.service.OpenSession(context.Background(), testUser, startFrame(), f.recorder.emit)
	assert.ErrorIs(t, err, voice.ErrSessionBusy)
	assert.Empty(t, f.interactions.all())
}

func TestOpenSessionDeviceDenied(t *testing.T) {
	f := newPipelineFixture(t, func(dial int, conn *websocket.Conn) { conn.Close() })

	frame := startFrame()
	frame.DeviceStatus = "denied"

	_, err := f.service.OpenSession(context.Background(), testUser, frame, f.recorder.emit)
	assert.ErrorIs(t, err, capture.ErrPermissionDenied)

	// a denied device must not leak the lock
	assert.Equal(t, 1, f.lockStore.releaseCount())
}

func TestOpenSessionRelayUnreachable(t *testing.T) {
	f := newPipelineFixture(t, func(dial int, conn *websocket.Conn) { conn.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	// swap in a dead relay endpoint
	broken := New(
		logger,
		&fakeVoiceRepo{interactions: f.interactions},
		capture.NewManager(logger),
		intent.New(),
		f.tts,
		&fakeTTS{},
		&fakeTranscriber{},
		&fakeObjectStore{},
		f.lockStore,
		nil,
		utils.New(),
		&VoiceConfig{
			RelayURL:         "ws://127.0.0.1:1/stt",
			CaptureLockTTL:   time.Minute,
			FinalIdleTimeout: time.Second,
			DispatchTimeout:  time.Second,
			ReplyCacheTTL:    time.Minute,
		},
		&fakeAppointments{},
		&fakeMedications{},
		&fakeBilling{},
	)

	_, err := broken.OpenSession(context.Background(), testUser, startFrame(), f.recorder.emit)
	assert.ErrorIs(t, err, voice.ErrTranscriptionUnavailable)

	// the failed open is still audited as a relay error
	entries := f.interactions.all()
	require.Len(t, entries, 1)
	assert.Equal(t, entity.OutcomeRelayError, entries[0].Outcome)
	assert.Equal(t, 1, f.lockStore.releaseCount())
}

func TestLiveSessionCancel(t *testing.T) {
	f := newPipelineFixture(t, func(dial int, conn *websocket.Conn) {
		defer conn.Close()
		conn.ReadMessage()
	})

	ls, err := f.service.OpenSession(context.Background(), testUser, startFrame(), f.recorder.emit)
	require.NoError(t, err)

	ls.Cancel()
	waitDone(t, ls)

	entries := f.interactions.all()
	require.Len(t, entries, 1)
	assert.Equal(t, entity.OutcomeCancelled, entries[0].Outcome)
	assert.False(t, entries[0].Success)

	// a cancelled turn produces no reply
	assert.Empty(t, f.recorder.byType(voice.EventReply))
	assert.Equal(t, 1, f.lockStore.releaseCount())
}

func TestLiveSessionCancelIsIdempotent(t *testing.T) {
	f := newPipelineFixture(t, func(dial int, conn *websocket.Conn) {
		defer conn.Close()
		conn.ReadMessage()
	})

	ls, err := f.service.OpenSession(context.Background(), testUser, startFrame(), f.recorder.emit)
	require.NoError(t, err)

	ls.Cancel()
	ls.Cancel()
	ls.Cancel()
	waitDone(t, ls)

	assert.Len(t, f.interactions.all(), 1)
	assert.Equal(t, 1, f.lockStore.releaseCount())
}

func TestLiveSessionFinalIdleTimeout(t *testing.T) {
	f := newPipelineFixture(t, func(dial int, conn *websocket.Conn) {
		defer conn.Close()
		// never send a final transcript
		conn.ReadMessage()
	})

	ls, err := f.service.OpenSession(context.Background(), testUser, startFrame(), f.recorder.emit)
	require.NoError(t, err)

	// shrink the idle window for the test
	ls.svc.config.FinalIdleTimeout = 100 * time.Millisecond

	require.NoError(t, ls.Finalize())
	waitDone(t, ls)

	entries := f.interactions.all()
	require.Len(t, entries, 1)
	assert.Equal(t, entity.OutcomeTimeout, entries[0].Outcome)

	replies := f.recorder.byType(voice.EventReply)
	require.Len(t, replies, 1)
	assert.False(t, replies[0].Reply.Success)
	assert.NotEmpty(t, replies[0].Reply.Text)
}

func TestLiveSessionRelayDropAfterFailedReconnect(t *testing.T) {
	f := newPipelineFixture(t, func(dial int, conn *websocket.Conn) {
		// both generations die immediately
		conn.Close()
	})

	ls, err := f.service.OpenSession(context.Background(), testUser, startFrame(), f.recorder.emit)
	require.NoError(t, err)

	waitDone(t, ls)

	entries := f.interactions.all()
	require.Len(t, entries, 1)
	assert.Equal(t, entity.OutcomeRelayError, entries[0].Outcome)

	replies := f.recorder.byType(voice.EventReply)
	require.Len(t, replies, 1)
	assert.Equal(t, entity.ErrKindTranscriptionUnavailable, replies[0].Reply.ErrorKind)
	assert.NotEmpty(t, replies[0].Reply.Text)
	assert.Equal(t, 1, f.lockStore.releaseCount())
}

func TestLiveSessionSecondStartWhileBusy(t *testing.T) {
	f := newPipelineFixture(t, func(dial int, conn *websocket.Conn) {
		defer conn.Close()
		conn.ReadMessage()
	})

	ls, err := f.service.OpenSession(context.Background(), testUser, startFrame(), f.recorder.emit)
	require.NoError(t, err)
	defer func() {
		ls.Cancel()
		waitDone(t, ls)
	}()

	second := startFrame()
	second.ClientID = "client-2"

	_, err = f.service.OpenSession(context.Background(), testUser, second, func(voice.StreamEvent) {})
	assert.ErrorIs(t, err, capture.ErrSessionBusy)
}
