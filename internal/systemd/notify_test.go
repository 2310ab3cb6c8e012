package systemd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

type fakeSocket struct {
	mu     sync.Mutex
	states []string
}

func (f *fakeSocket) notify(_ bool, state string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, state)
	return true, nil
}

func (f *fakeSocket) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.states...)
}

func newTestNotifier(sock *fakeSocket, interval time.Duration, err error) *Notifier {
	return &Notifier{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		notify: sock.notify,
		watchdog: func(bool) (time.Duration, error) {
			return interval, err
		},
	}
}

func TestNotifier_Lifecycle(t *testing.T) {
	sock := &fakeSocket{}
	n := newTestNotifier(sock, 0, nil)

	n.Ready()
	n.Status("%d LEDs on %s", 3, "periph")
	n.Stopping()

	want := []string{daemon.SdNotifyReady, "STATUS=3 LEDs on periph", daemon.SdNotifyStopping}
	got := sock.sent()
	if len(got) != len(want) {
		t.Fatalf("sent %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("state %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNotifier_WatchdogDisabled(t *testing.T) {
	for _, err := range []error{nil, errors.New("bad WATCHDOG_USEC")} {
		sock := &fakeSocket{}
		n := newTestNotifier(sock, 0, err)

		done := make(chan struct{})
		go func() {
			n.RunWatchdog(context.Background(), func() bool { return true })
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("RunWatchdog should return when disabled (err=%v)", err)
		}
	}
}

func TestNotifier_WatchdogPings(t *testing.T) {
	sock := &fakeSocket{}
	n := newTestNotifier(sock, 20*time.Millisecond, nil)

	var mu sync.Mutex
	healthy := true
	alive := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return healthy
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		n.RunWatchdog(ctx, alive)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	if len(sock.sent()) == 0 {
		t.Fatal("expected watchdog pings while healthy")
	}

	mu.Lock()
	healthy = false
	mu.Unlock()
	time.Sleep(30 * time.Millisecond)
	before := len(sock.sent())
	time.Sleep(100 * time.Millisecond)
	if after := len(sock.sent()); after != before {
		t.Errorf("pinged while stalled: %d -> %d", before, after)
	}

	cancel()
	<-done

	for _, s := range sock.sent() {
		if s != daemon.SdNotifyWatchdog {
			t.Errorf("unexpected state %q", s)
		}
	}
}
