package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeSynth struct {
	mu      sync.Mutex
	calls   []string
	err     error
	delay   time.Duration
	block   chan struct{}
	content string
}

func (f *fakeSynth) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, "", ctx.Err()
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()

	if f.err != nil {
		return nil, "", f.err
	}
	return []byte("audio:" + text), f.content, nil
}

func (f *fakeSynth) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func TestQueuePlaysInOrder(t *testing.T) {
	var (
		mu        sync.Mutex
		delivered []Playback
	)

	primary := &fakeSynth{content: "audio/mpeg", delay: 5 * time.Millisecond}
	q := NewQueue(primary, nil, func(pb Playback) {
		mu.Lock()
		delivered = append(delivered, pb)
		mu.Unlock()
	}, testLogger())

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(Utterance{
			SessionID: "s1",
			TurnID:    fmt.Sprintf("t%d", i),
			Text:      fmt.Sprintf("reply %d", i),
		}))
	}
	q.Close()

	require.Len(t, delivered, 5)
	for i, pb := range delivered {
		assert.Equal(t, fmt.Sprintf("t%d", i), pb.TurnID)
		assert.Equal(t, []byte(fmt.Sprintf("audio:reply %d", i)), pb.Audio)
		assert.Equal(t, "audio/mpeg", pb.ContentType)
		assert.False(t, pb.Fallback)
		assert.NoError(t, pb.Err)
	}
}

func TestQueueFallsBackWhenPrimaryFails(t *testing.T) {
	var delivered []Playback

	primary := &fakeSynth{err: errors.New("remote down")}
	fallback := &fakeSynth{content: "audio/wav"}
	q := NewQueue(primary, fallback, func(pb Playback) {
		delivered = append(delivered, pb)
	}, testLogger())

	require.NoError(t, q.Enqueue(Utterance{SessionID: "s1", TurnID: "t1", Text: "hello"}))
	q.Close()

	require.Len(t, delivered, 1)
	assert.True(t, delivered[0].Fallback)
	assert.NoError(t, delivered[0].Err)
	assert.Equal(t, "audio/wav", delivered[0].ContentType)
	assert.Equal(t, []string{"hello"}, fallback.called())
}

func TestQueueDeliversTextOnlyWhenBothFail(t *testing.T) {
	var delivered []Playback

	primary := &fakeSynth{err: errors.New("remote down")}
	fallback := &fakeSynth{err: errors.New("no binary")}
	q := NewQueue(primary, fallback, func(pb Playback) {
		delivered = append(delivered, pb)
	}, testLogger())

	require.NoError(t, q.Enqueue(Utterance{SessionID: "s1", TurnID: "t1", Text: "hello"}))
	q.Close()

	require.Len(t, delivered, 1)
	assert.Error(t, delivered[0].Err)
	assert.Empty(t, delivered[0].Audio)
	assert.Equal(t, "hello", delivered[0].Text)
}

func TestQueueRejectsWhenFull(t *testing.T) {
	primary := &fakeSynth{block: make(chan struct{}), content: "audio/mpeg"}
	q := NewQueue(primary, nil, func(Playback) {}, testLogger())

	// first utterance is pulled into the consumer and blocks there
	require.NoError(t, q.Enqueue(Utterance{TurnID: "inflight", Text: "x"}))
	time.Sleep(20 * time.Millisecond)

	for i := 0; i < defaultQueueSize; i++ {
		require.NoError(t, q.Enqueue(Utterance{TurnID: fmt.Sprintf("q%d", i), Text: "x"}))
	}

	err := q.Enqueue(Utterance{TurnID: "overflow", Text: "x"})
	assert.ErrorIs(t, err, ErrQueueFull)

	close(primary.block)
	q.Close()
}

func TestQueueRejectsAfterClose(t *testing.T) {
	q := NewQueue(&fakeSynth{content: "audio/mpeg"}, nil, func(Playback) {}, testLogger())
	q.Close()

	err := q.Enqueue(Utterance{TurnID: "late", Text: "x"})
	assert.ErrorIs(t, err, ErrQueueClosed)
}
