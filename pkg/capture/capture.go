package capture

import (
	"CarePortalGolang/internal/entity"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	ErrSessionBusy       = errors.New("another session is already capturing")
	ErrPermissionDenied  = errors.New("microphone permission denied")
	ErrDeviceUnavailable = errors.New("no audio input device available")
	ErrNotCapturing      = errors.New("session is not accepting audio")
	ErrBadTransition     = errors.New("invalid session state transition")
)

// DeviceStatus is what the client reports about its microphone in the start
// frame. The browser owns the physical device; the server owns the session.
type DeviceStatus string

const (
	DeviceOK      DeviceStatus = "ok"
	DeviceDenied  DeviceStatus = "denied"
	DeviceMissing DeviceStatus = "missing"
)

// Chunk is one time-boxed slice of capture audio (target 200-300 ms).
// Seq preserves arrival order for the relay.
type Chunk struct {
	Seq        int
	Data       []byte
	ReceivedAt time.Time
}

// Session owns one recording-to-reply lifecycle. All state transitions go
// through transition() so the legal ones stay in one place.
type Session struct {
	id        string
	clientID  string
	userID    string
	role      entity.SpeakerRole
	opCtx     entity.OperatingContext
	startedAt time.Time

	mu     sync.Mutex
	state  entity.SessionState
	seq    int
	chunks chan Chunk
	done   chan struct{}

	stopOnce  sync.Once
	onRelease func()
	log       *logrus.Logger
}

var legalTransitions = map[entity.SessionState][]entity.SessionState{
	entity.SessionIdle:       {entity.SessionCapturing, entity.SessionClosed},
	entity.SessionCapturing:  {entity.SessionStreaming, entity.SessionFinalizing, entity.SessionClosed},
	entity.SessionStreaming:  {entity.SessionFinalizing, entity.SessionClosed},
	entity.SessionFinalizing: {entity.SessionClosed},
	entity.SessionClosed:     {},
}

// Manager gates the microphone: at most one session may be capturing at any
// instant. A second Start is rejected, never queued.
type Manager struct {
	mu          sync.Mutex
	active      *Session
	chunkBuffer int
	log         *logrus.Logger
}

func NewManager(log *logrus.Logger) *Manager {
	return &Manager{
		chunkBuffer: 32,
		log:         log,
	}
}

// Start acquires the capture slot and returns a new session in the
// Capturing state. Device problems reported by the client fail fast here so
// no session is ever created around a dead microphone.
func (m *Manager) Start(sessionID, clientID, userID string, role entity.SpeakerRole, opCtx entity.OperatingContext, device DeviceStatus) (*Session, error) {
	switch device {
	case DeviceDenied:
		return nil, ErrPermissionDenied
	case DeviceMissing:
		return nil, ErrDeviceUnavailable
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		m.log.WithFields(logrus.Fields{
			"active_session": m.active.id,
			"client_id":      clientID,
		}).Warn("Start rejected, capture slot busy")
		return nil, ErrSessionBusy
	}

	s := &Session{
		id:        sessionID,
		clientID:  clientID,
		userID:    userID,
		role:      role,
		opCtx:     opCtx,
		startedAt: time.Now(),
		state:     entity.SessionCapturing,
		chunks:    make(chan Chunk, m.chunkBuffer),
		done:      make(chan struct{}),
		log:       m.log,
	}
	s.onRelease = func() { m.release(s) }

	m.active = s

	m.log.WithFields(logrus.Fields{
		"session_id":        sessionID,
		"client_id":         clientID,
		"speaker_role":      role,
		"operating_context": opCtx,
	}).Info("Capture session started")

	return s, nil
}

func (m *Manager) Active() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

func (m *Manager) release(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == s {
		m.active = nil
	}
}

func (s *Session) ID() string                                { return s.id }
func (s *Session) ClientID() string                          { return s.clientID }
func (s *Session) UserID() string                            { return s.userID }
func (s *Session) SpeakerRole() entity.SpeakerRole           { return s.role }
func (s *Session) OperatingContext() entity.OperatingContext { return s.opCtx }
func (s *Session) StartedAt() time.Time                      { return s.startedAt }

func (s *Session) State() entity.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done closes when the session reaches Closed.
func (s *Session) Done() <-chan struct{} { return s.done }

// Chunks delivers capture audio in arrival order.
func (s *Session) Chunks() <-chan Chunk { return s.chunks }

func (s *Session) transition(to entity.SessionState) error {
	for _, next := range legalTransitions[s.state] {
		if next == to {
			s.state = to
			return nil
		}
	}
	return ErrBadTransition
}

// Push appends one audio chunk. Chunks arriving after Finalize or Stop are
// rejected so a late frame can never reopen a turn. Push never blocks: when
// the consumer falls behind the oldest unsent chunk is dropped with a
// warning rather than stalling capture.
func (s *Session) Push(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != entity.SessionCapturing && s.state != entity.SessionStreaming {
		return ErrNotCapturing
	}

	s.seq++
	chunk := Chunk{Seq: s.seq, Data: data, ReceivedAt: time.Now()}

	select {
	case s.chunks <- chunk:
	default:
		s.log.WithFields(logrus.Fields{
			"session_id": s.id,
			"seq":        chunk.Seq,
		}).Warn("Capture buffer full, dropping chunk")
	}

	return nil
}

// MarkStreaming records that the relay is attached and forwarding.
func (s *Session) MarkStreaming() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transition(entity.SessionStreaming)
}

// Finalize stops accepting audio and leaves the session waiting for the
// final transcript. The chunk channel is closed so the forwarder drains out.
func (s *Session) Finalize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == entity.SessionFinalizing || s.state == entity.SessionClosed {
		return nil
	}
	if err := s.transition(entity.SessionFinalizing); err != nil {
		return err
	}
	close(s.chunks)
	return nil
}

// Stop is idempotent and unconditional: whatever state the session is in,
// it ends Closed with its capture slot released. Resource release never
// depends on relay health.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		prev := s.state
		if prev != entity.SessionFinalizing && prev != entity.SessionClosed {
			close(s.chunks)
		}
		s.state = entity.SessionClosed
		s.mu.Unlock()

		close(s.done)
		if s.onRelease != nil {
			s.onRelease()
		}

		s.log.WithFields(logrus.Fields{
			"session_id": s.id,
			"from_state": prev.String(),
		}).Info("Capture session stopped")
	})
}

// Snapshot renders the session as a plain entity for DTOs and audit records.
func (s *Session) Snapshot() entity.VoiceSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return entity.VoiceSession{
		ID:               s.id,
		ClientID:         s.clientID,
		UserID:           s.userID,
		SpeakerRole:      s.role,
		OperatingContext: s.opCtx,
		State:            s.state,
		StartedAt:        s.startedAt,
	}
}
