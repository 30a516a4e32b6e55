package relay

import (
	"CarePortalGolang/internal/entity"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// ErrUnavailable is surfaced when the provider connection could not be kept
// alive: the initial dial failed or the single allowed reconnect failed.
var ErrUnavailable = errors.New("transcription service unavailable")

type Config struct {
	URL              string
	APIKey           string
	Encoding         string
	SampleRate       int
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	PingInterval     time.Duration
	// OutboundBuffer bounds how many chunks may wait for the socket
	// (8 chunks of ~250 ms is about two seconds of audio). Beyond that,
	// chunks are dropped with a warning; capture is never blocked.
	OutboundBuffer int
}

func (c *Config) withDefaults() {
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 5 * time.Second
	}
	if c.PingInterval == 0 {
		c.PingInterval = 30 * time.Second
	}
	if c.OutboundBuffer == 0 {
		c.OutboundBuffer = 8
	}
}

// Relay owns one duplex provider connection, bound 1:1 to a capture session.
// It forwards audio chunks in order, decodes inbound transcript frames, and
// attempts exactly one reconnect on unexpected close while the session is
// still capturing. It is never shared across sessions or reused after close.
type Relay struct {
	cfg         Config
	sessionID   string
	stillActive func() bool
	log         *logrus.Logger

	outbound    chan []byte
	transcripts chan entity.TranscriptChunk

	mu        sync.Mutex
	interim   string
	finalSeen bool

	closed    chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Dial opens the provider connection and starts pumping. stillActive is
// consulted before the one reconnect attempt: a session that already stopped
// capturing is not worth reconnecting for.
func Dial(cfg Config, sessionID string, stillActive func() bool, log *logrus.Logger) (*Relay, error) {
	cfg.withDefaults()

	r := &Relay{
		cfg:         cfg,
		sessionID:   sessionID,
		stillActive: stillActive,
		log:         log,
		outbound:    make(chan []byte, cfg.OutboundBuffer),
		transcripts: make(chan entity.TranscriptChunk, 16),
		closed:      make(chan struct{}),
	}

	conn, err := r.dial()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	go r.run(conn)

	return r, nil
}

func (r *Relay) dial() (*websocket.Conn, error) {
	dialer := &websocket.Dialer{HandshakeTimeout: r.cfg.HandshakeTimeout}

	header := http.Header{}
	if r.cfg.APIKey != "" {
		header.Set("Authorization", "Token "+r.cfg.APIKey)
	}
	if r.cfg.Encoding != "" {
		header.Set("X-Audio-Encoding", r.cfg.Encoding)
	}
	if r.cfg.SampleRate > 0 {
		header.Set("X-Audio-Sample-Rate", fmt.Sprintf("%d", r.cfg.SampleRate))
	}

	conn, _, err := dialer.Dial(r.cfg.URL, header)
	if err != nil {
		return nil, err
	}

	return conn, nil
}

// Forward hands one audio chunk to the relay. It never blocks capture:
// while the buffer is full (socket down or slow) the chunk is dropped with
// a logged warning.
func (r *Relay) Forward(data []byte) {
	select {
	case <-r.closed:
		return
	default:
	}

	select {
	case r.outbound <- data:
	default:
		r.log.WithFields(logrus.Fields{
			"session_id": r.sessionID,
			"bytes":      len(data),
		}).Warn("Relay outbound buffer full, dropping audio chunk")
	}
}

// Transcripts delivers decoded chunks. The channel closes when the relay
// shuts down, cleanly or not; Err() distinguishes the two.
func (r *Relay) Transcripts() <-chan entity.TranscriptChunk { return r.transcripts }

// Done closes when the relay has fully shut down.
func (r *Relay) Done() <-chan struct{} { return r.closed }

// Err reports why the relay closed. Nil means an explicit Close.
func (r *Relay) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closeErr
}

// CurrentText is the live interim view for UI feedback. It is explicitly
// non-actionable.
func (r *Relay) CurrentText() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interim
}

// Close shuts the relay down symmetrically with the session: stopping the
// session always ends here, and an unexpected provider close always ends in
// the session observing Done().
func (r *Relay) Close() error {
	r.shutdown(nil)
	return nil
}

func (r *Relay) shutdown(err error) {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closeErr = err
		r.mu.Unlock()
		close(r.closed)
	})
}

// run owns the connection across its at most two generations: the original
// dial plus one reconnect.
func (r *Relay) run(conn *websocket.Conn) {
	defer close(r.transcripts)

	for attempt := 0; ; attempt++ {
		err := r.pump(conn)

		select {
		case <-r.closed:
			// Explicit close from our side.
			return
		default:
		}

		if r.sawFinal() || !r.stillActive() {
			r.shutdown(nil)
			return
		}

		if attempt >= 1 {
			r.log.WithFields(logrus.Fields{
				"session_id": r.sessionID,
				"error":      err.Error(),
			}).Error("Relay lost after reconnect, giving up")
			r.shutdown(ErrUnavailable)
			return
		}

		r.log.WithFields(logrus.Fields{
			"session_id": r.sessionID,
			"error":      err.Error(),
		}).Warn("Relay connection lost, attempting single reconnect")

		next, dialErr := r.dial()
		if dialErr != nil {
			r.log.WithFields(logrus.Fields{
				"session_id": r.sessionID,
				"error":      dialErr.Error(),
			}).Error("Relay reconnect failed")
			r.shutdown(ErrUnavailable)
			return
		}
		conn = next
	}
}

// pump runs one connection generation until it breaks or the relay closes.
func (r *Relay) pump(conn *websocket.Conn) error {
	defer conn.Close()

	writerDone := make(chan error, 1)
	stopWriter := make(chan struct{})

	go func() {
		ticker := time.NewTicker(r.cfg.PingInterval)
		defer ticker.Stop()

		for {
			select {
			case data, ok := <-r.outbound:
				if !ok {
					writerDone <- nil
					return
				}
				conn.SetWriteDeadline(time.Now().Add(r.cfg.WriteTimeout))
				if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
					writerDone <- err
					conn.Close()
					return
				}
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(r.cfg.WriteTimeout)); err != nil {
					writerDone <- err
					conn.Close()
					return
				}
			case <-stopWriter:
				writerDone <- nil
				return
			case <-r.closed:
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(r.cfg.WriteTimeout))
				writerDone <- nil
				conn.Close()
				return
			}
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			close(stopWriter)
			<-writerDone
			return err
		}

		r.deliver(message)
	}
}

func (r *Relay) sawFinal() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finalSeen
}

// deliver decodes one provider frame. Unknown shapes are a no-op. Finality
// is monotonic: after the first final chunk, nothing else from this session
// is actionable and further frames are discarded.
func (r *Relay) deliver(message []byte) {
	text, isFinal, ok := decodeTranscript(message)
	if !ok {
		return
	}

	r.mu.Lock()
	if r.finalSeen {
		r.mu.Unlock()
		return
	}
	if !isFinal {
		r.interim = text
	} else {
		r.finalSeen = true
	}
	r.mu.Unlock()

	chunk := entity.TranscriptChunk{
		SessionID:  r.sessionID,
		Text:       text,
		IsFinal:    isFinal,
		ReceivedAt: time.Now(),
	}

	select {
	case r.transcripts <- chunk:
	case <-r.closed:
	default:
		if isFinal {
			// The final chunk must not be lost to a slow consumer.
			select {
			case r.transcripts <- chunk:
			case <-r.closed:
			}
		} else {
			r.log.WithFields(logrus.Fields{
				"session_id": r.sessionID,
			}).Debug("Dropping interim transcript, consumer busy")
		}
	}
}
