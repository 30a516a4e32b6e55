package capture

import (
	"CarePortalGolang/internal/entity"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func startSession(t *testing.T, m *Manager, id string) *Session {
	t.Helper()
	s, err := m.Start(id, "client-1", "user-1", entity.RolePatient, entity.ContextPatient, DeviceOK)
	require.NoError(t, err)
	return s
}

func TestManagerRejectsSecondSession(t *testing.T) {
	m := NewManager(testLogger())

	first := startSession(t, m, "sess-1")
	defer first.Stop()

	_, err := m.Start("sess-2", "client-2", "user-2", entity.RolePatient, entity.ContextPatient, DeviceOK)
	assert.ErrorIs(t, err, ErrSessionBusy)
}

func TestManagerReleasesSlotOnStop(t *testing.T) {
	m := NewManager(testLogger())

	first := startSession(t, m, "sess-1")
	first.Stop()

	second, err := m.Start("sess-2", "client-2", "user-2", entity.RolePatient, entity.ContextPatient, DeviceOK)
	require.NoError(t, err)
	assert.Equal(t, "sess-2", second.ID())
	second.Stop()
}

func TestManagerFailsFastOnDeviceProblems(t *testing.T) {
	m := NewManager(testLogger())

	_, err := m.Start("sess-1", "client-1", "user-1", entity.RolePatient, entity.ContextPatient, DeviceDenied)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = m.Start("sess-1", "client-1", "user-1", entity.RolePatient, entity.ContextPatient, DeviceMissing)
	assert.ErrorIs(t, err, ErrDeviceUnavailable)

	// Neither failure may occupy the capture slot.
	s := startSession(t, m, "sess-2")
	s.Stop()
}

func TestPushPreservesArrivalOrder(t *testing.T) {
	m := NewManager(testLogger())
	s := startSession(t, m, "sess-1")
	defer s.Stop()

	require.NoError(t, s.Push([]byte("a")))
	require.NoError(t, s.Push([]byte("b")))
	require.NoError(t, s.Push([]byte("c")))

	first := <-s.Chunks()
	second := <-s.Chunks()
	third := <-s.Chunks()

	assert.Equal(t, 1, first.Seq)
	assert.Equal(t, 2, second.Seq)
	assert.Equal(t, 3, third.Seq)
	assert.Equal(t, []byte("b"), second.Data)
}

func TestPushAfterFinalizeRejected(t *testing.T) {
	m := NewManager(testLogger())
	s := startSession(t, m, "sess-1")
	defer s.Stop()

	require.NoError(t, s.Finalize())
	assert.Equal(t, entity.SessionFinalizing, s.State())

	err := s.Push([]byte("late"))
	assert.ErrorIs(t, err, ErrNotCapturing)
}

func TestPushNeverBlocksWhenBufferFull(t *testing.T) {
	m := NewManager(testLogger())
	m.chunkBuffer = 2
	s := startSession(t, m, "sess-1")
	defer s.Stop()

	// No consumer: the third push drops instead of blocking.
	require.NoError(t, s.Push([]byte("a")))
	require.NoError(t, s.Push([]byte("b")))
	require.NoError(t, s.Push([]byte("c")))

	first := <-s.Chunks()
	second := <-s.Chunks()
	assert.Equal(t, []byte("a"), first.Data)
	assert.Equal(t, []byte("b"), second.Data)

	select {
	case chunk := <-s.Chunks():
		t.Fatalf("expected dropped chunk, got seq %d", chunk.Seq)
	default:
	}
}

func TestStateTransitions(t *testing.T) {
	m := NewManager(testLogger())
	s := startSession(t, m, "sess-1")

	assert.Equal(t, entity.SessionCapturing, s.State())

	require.NoError(t, s.MarkStreaming())
	assert.Equal(t, entity.SessionStreaming, s.State())

	// Streaming cannot go back to itself.
	assert.ErrorIs(t, s.MarkStreaming(), ErrBadTransition)

	require.NoError(t, s.Finalize())
	assert.Equal(t, entity.SessionFinalizing, s.State())

	s.Stop()
	assert.Equal(t, entity.SessionClosed, s.State())
}

func TestFinalizeIdempotent(t *testing.T) {
	m := NewManager(testLogger())
	s := startSession(t, m, "sess-1")
	defer s.Stop()

	require.NoError(t, s.Finalize())
	require.NoError(t, s.Finalize())
}

func TestStopIdempotentAndUnconditional(t *testing.T) {
	m := NewManager(testLogger())
	s := startSession(t, m, "sess-1")

	s.Stop()
	s.Stop()

	select {
	case <-s.Done():
	default:
		t.Fatal("done channel not closed after Stop")
	}

	// Chunk channel is closed so a draining forwarder terminates.
	_, open := <-s.Chunks()
	assert.False(t, open)
}

func TestSnapshot(t *testing.T) {
	m := NewManager(testLogger())
	s := startSession(t, m, "sess-1")
	defer s.Stop()

	snap := s.Snapshot()
	assert.Equal(t, "sess-1", snap.ID)
	assert.Equal(t, "client-1", snap.ClientID)
	assert.Equal(t, "user-1", snap.UserID)
	assert.Equal(t, entity.RolePatient, snap.SpeakerRole)
	assert.Equal(t, entity.ContextPatient, snap.OperatingContext)
	assert.Equal(t, entity.SessionCapturing, snap.State)
	assert.False(t, snap.StartedAt.IsZero())
}
