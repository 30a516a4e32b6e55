package relay

import (
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

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// stubProvider is a websocket server standing in for the streaming STT
// provider. Each accepted connection is handed to the per-connection script.
type stubProvider struct {
	t      *testing.T
	server *httptest.Server

	mu    sync.Mutex
	dials int
}

func newStubProvider(t *testing.T, script func(dial int, conn *websocket.Conn)) *stubProvider {
	p := &stubProvider{t: t}
	upgrader := websocket.Upgrader{}

	p.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		p.mu.Lock()
		p.dials++
		dial := p.dials
		p.mu.Unlock()

		script(dial, conn)
	}))
	t.Cleanup(p.server.Close)

	return p
}

func (p *stubProvider) url() string {
	return "ws" + strings.TrimPrefix(p.server.URL, "http")
}

func (p *stubProvider) dialCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dials
}

func TestDialFailure(t *testing.T) {
	_, err := Dial(Config{URL: "ws://127.0.0.1:1/stt"}, "sess-1", func() bool { return true }, testLogger())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestForwardsAudioAndDeliversTranscripts(t *testing.T) {
	received := make(chan []byte, 4)

	provider := newStubProvider(t, func(dial int, conn *websocket.Conn) {
		defer conn.Close()

		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		received <- data

		conn.WriteMessage(websocket.TextMessage, []byte(`{"is_final":false,"transcript":"book me"}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"is_final":true,"transcript":"book me with dr rivas"}`))

		// Hold the socket open until the relay closes it.
		conn.ReadMessage()
	})

	r, err := Dial(Config{URL: provider.url()}, "sess-1", func() bool { return true }, testLogger())
	require.NoError(t, err)
	defer r.Close()

	r.Forward([]byte("pcm-audio"))

	select {
	case data := <-received:
		assert.Equal(t, []byte("pcm-audio"), data)
	case <-time.After(2 * time.Second):
		t.Fatal("provider never received the audio chunk")
	}

	var interim, final string
	for i := 0; i < 2; i++ {
		select {
		case chunk := <-r.Transcripts():
			if chunk.IsFinal {
				final = chunk.Text
			} else {
				interim = chunk.Text
			}
		case <-time.After(2 * time.Second):
			t.Fatal("transcript not delivered")
		}
	}

	assert.Equal(t, "book me", interim)
	assert.Equal(t, "book me with dr rivas", final)
	assert.Equal(t, "book me", r.CurrentText())
}

func TestSendsAuthAndAudioHeaders(t *testing.T) {
	headers := make(chan http.Header, 1)
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers <- r.Header.Clone()
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.ReadMessage()
	}))
	defer server.Close()

	cfg := Config{
		URL:        "ws" + strings.TrimPrefix(server.URL, "http"),
		APIKey:     "secret-key",
		Encoding:   "linear16",
		SampleRate: 16000,
	}

	r, err := Dial(cfg, "sess-1", func() bool { return true }, testLogger())
	require.NoError(t, err)
	defer r.Close()

	h := <-headers
	assert.Equal(t, "Token secret-key", h.Get("Authorization"))
	assert.Equal(t, "linear16", h.Get("X-Audio-Encoding"))
	assert.Equal(t, "16000", h.Get("X-Audio-Sample-Rate"))
}

func TestReconnectsExactlyOnce(t *testing.T) {
	provider := newStubProvider(t, func(dial int, conn *websocket.Conn) {
		if dial == 1 {
			// Abrupt close without a close frame.
			conn.Close()
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, []byte(`{"is_final":true,"transcript":"after reconnect"}`))
		conn.ReadMessage()
	})

	r, err := Dial(Config{URL: provider.url()}, "sess-1", func() bool { return true }, testLogger())
	require.NoError(t, err)
	defer r.Close()

	select {
	case chunk := <-r.Transcripts():
		assert.True(t, chunk.IsFinal)
		assert.Equal(t, "after reconnect", chunk.Text)
	case <-time.After(5 * time.Second):
		t.Fatal("relay never delivered the post-reconnect transcript")
	}

	assert.Equal(t, 2, provider.dialCount())
	assert.NoError(t, r.Err())
}

func TestSecondDropSurfacesUnavailable(t *testing.T) {
	provider := newStubProvider(t, func(dial int, conn *websocket.Conn) {
		conn.Close()
	})

	r, err := Dial(Config{URL: provider.url()}, "sess-1", func() bool { return true }, testLogger())
	require.NoError(t, err)

	select {
	case <-r.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("relay never gave up")
	}

	assert.Equal(t, 2, provider.dialCount())
	assert.ErrorIs(t, r.Err(), ErrUnavailable)
}

func TestNoReconnectAfterSessionStops(t *testing.T) {
	provider := newStubProvider(t, func(dial int, conn *websocket.Conn) {
		conn.Close()
	})

	r, err := Dial(Config{URL: provider.url()}, "sess-1", func() bool { return false }, testLogger())
	require.NoError(t, err)

	select {
	case <-r.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("relay never shut down")
	}

	assert.Equal(t, 1, provider.dialCount())
	assert.NoError(t, r.Err())
}

func TestFinalityIsMonotonic(t *testing.T) {
	provider := newStubProvider(t, func(dial int, conn *websocket.Conn) {
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, []byte(`{"is_final":true,"transcript":"first final"}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"is_final":true,"transcript":"second final"}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"is_final":false,"transcript":"late interim"}`))
		conn.ReadMessage()
	})

	r, err := Dial(Config{URL: provider.url()}, "sess-1", func() bool { return true }, testLogger())
	require.NoError(t, err)
	defer r.Close()

	chunk := <-r.Transcripts()
	assert.True(t, chunk.IsFinal)
	assert.Equal(t, "first final", chunk.Text)

	// Everything after the first final frame is discarded.
	select {
	case extra, ok := <-r.Transcripts():
		if ok {
			t.Fatalf("unexpected chunk after final: %q", extra.Text)
		}
	case <-time.After(300 * time.Millisecond):
	}
}

func TestForwardDropsWhenBufferFull(t *testing.T) {
	release := make(chan struct{})

	provider := newStubProvider(t, func(dial int, conn *websocket.Conn) {
		defer conn.Close()
		<-release
		conn.ReadMessage()
	})

	cfg := Config{URL: provider.url(), OutboundBuffer: 2}
	r, err := Dial(cfg, "sess-1", func() bool { return true }, testLogger())
	require.NoError(t, err)
	defer r.Close()
	defer close(release)

	// The writer may pull at most one chunk off the buffer before the
	// socket write blocks on the stalled server; pushing well past the
	// buffer size must still return immediately.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 20; i++ {
			r.Forward([]byte("chunk"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Forward blocked on a full buffer")
	}
}

func TestDecodeTranscriptShapes(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantText  string
		wantFinal bool
		wantOK    bool
	}{
		{
			name:      "flat shape",
			payload:   `{"is_final":true,"transcript":"hello"}`,
			wantText:  "hello",
			wantFinal: true,
			wantOK:    true,
		},
		{
			name:      "channel alternatives shape",
			payload:   `{"is_final":false,"channel":{"alternatives":[{"transcript":"partial"}]}}`,
			wantText:  "partial",
			wantFinal: false,
			wantOK:    true,
		},
		{
			name:      "empty final is still delivered",
			payload:   `{"is_final":true,"transcript":""}`,
			wantText:  "",
			wantFinal: true,
			wantOK:    true,
		},
		{
			name:    "empty interim is a no-op",
			payload: `{"is_final":false,"transcript":"   "}`,
			wantOK:  false,
		},
		{
			name:    "unknown shape",
			payload: `{"type":"metadata","request_id":"abc"}`,
			wantOK:  false,
		},
		{
			name:    "not json",
			payload: `plain text`,
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, isFinal, ok := decodeTranscript([]byte(tt.payload))
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantText, text)
				assert.Equal(t, tt.wantFinal, isFinal)
			}
		})
	}
}
