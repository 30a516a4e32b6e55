package speech

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultQueueSize        = 16
	defaultSynthesisTimeout = 20 * time.Second
)

// Queue plays back replies one at a time, in the order they were enqueued.
// One consumer goroutine owns the whole synthesize-then-deliver cycle, so an
// utterance is never delivered while an earlier one is still in flight. When
// the primary synthesizer fails the local fallback is tried; when both fail
// the playback is delivered anyway with Err set so the caller can degrade to
// a text-only reply.
type Queue struct {
	primary  Synthesizer
	fallback Synthesizer
	deliver  func(Playback)
	timeout  time.Duration
	log      *logrus.Logger

	mu      sync.Mutex
	closed  bool
	pending chan Utterance
	done    chan struct{}
}

func NewQueue(primary, fallback Synthesizer, deliver func(Playback), log *logrus.Logger) *Queue {
	q := &Queue{
		primary:  primary,
		fallback: fallback,
		deliver:  deliver,
		timeout:  defaultSynthesisTimeout,
		log:      log,
		pending:  make(chan Utterance, defaultQueueSize),
		done:     make(chan struct{}),
	}

	go q.consume()
	return q
}

// Enqueue adds one utterance to the tail of the queue. It never blocks on
// playback: a full queue is an error the caller handles.
func (q *Queue) Enqueue(u Utterance) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.pending <- u:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting utterances and waits for the ones already queued to
// finish playing.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	close(q.pending)
	q.mu.Unlock()

	<-q.done
}

func (q *Queue) consume() {
	defer close(q.done)

	for u := range q.pending {
		q.deliver(q.synthesize(u))
	}
}

func (q *Queue) synthesize(u Utterance) Playback {
	pb := Playback{Utterance: u}

	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	audio, contentType, err := q.primary.Synthesize(ctx, u.Text)
	if err == nil {
		pb.Audio, pb.ContentType = audio, contentType
		return pb
	}

	q.log.WithFields(logrus.Fields{
		"session_id": u.SessionID,
		"turn_id":    u.TurnID,
		"error":      err.Error(),
	}).Warn("remote synthesis failed, falling back to local engine")

	if q.fallback == nil {
		pb.Err = err
		return pb
	}

	audio, contentType, fbErr := q.fallback.Synthesize(ctx, u.Text)
	if fbErr != nil {
		q.log.WithFields(logrus.Fields{
			"session_id": u.SessionID,
			"turn_id":    u.TurnID,
			"error":      fbErr.Error(),
		}).Error("local synthesis failed, reply will be text only")
		pb.Err = fbErr
		return pb
	}

	pb.Audio, pb.ContentType = audio, contentType
	pb.Fallback = true
	return pb
}
