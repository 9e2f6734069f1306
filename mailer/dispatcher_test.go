package mailer_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/walletwise/auth-server/mailer"
)

type recordingMailer struct {
	mu      sync.Mutex
	sent    []mailer.Message
	err     error
	release chan struct{}
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	if m.release != nil {
		<-m.release
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func TestDispatcherDeliversAndDrains(t *testing.T) {
	rec := &recordingMailer{}
	d := mailer.NewDispatcher(rec, mailer.WithWorkers(2), mailer.WithQueueSize(10))

	for i := 0; i < 5; i++ {
		require.True(t, d.Enqueue(mailer.Message{To: "jane@uni.edu", Subject: "hi"}))
	}
	d.Close()
	require.Equal(t, 5, rec.count())
}

func TestDispatcherSwallowsFailures(t *testing.T) {
	rec := &recordingMailer{err: errors.New("smtp down")}
	d := mailer.NewDispatcher(rec)

	require.True(t, d.Enqueue(mailer.Message{To: "jane@uni.edu"}))
	d.Close()
	require.Equal(t, 1, rec.count())
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	rec := &recordingMailer{release: make(chan struct{})}
	d := mailer.NewDispatcher(rec, mailer.WithWorkers(1), mailer.WithQueueSize(1))

	// The worker holds one message while the queue holds another.
	require.True(t, d.Enqueue(mailer.Message{To: "a@uni.edu"}))
	require.Eventually(t, func() bool {
		return d.Enqueue(mailer.Message{To: "b@uni.edu"})
	}, time.Second, time.Millisecond)
	require.False(t, d.Enqueue(mailer.Message{To: "c@uni.edu"}))

	close(rec.release)
	d.Close()
	require.Equal(t, 2, rec.count())
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	d := mailer.NewDispatcher(&recordingMailer{})
	d.Close()
	d.Close()
	require.False(t, d.Enqueue(mailer.Message{To: "late@uni.edu"}))
}

func TestVerificationMessage(t *testing.T) {
	msg := mailer.VerificationMessage("WalletWise", "jane@uni.edu", "042137", 10*time.Minute)
	require.Equal(t, "jane@uni.edu", msg.To)
	require.Contains(t, msg.Body, "042137")
	require.Contains(t, msg.Body, "10 minutes")
}
