package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParentWatch_Orphaned(t *testing.T) {
	tests := []struct {
		name      string
		getppid   func() int
		pidExists func(int32) (bool, error)
		want      bool
	}{
		{
			name:      "parent alive",
			getppid:   func() int { return 100 },
			pidExists: func(int32) (bool, error) { return true, nil },
			want:      false,
		},
		{
			name:      "ppid changed",
			getppid:   func() int { return 1 },
			pidExists: func(int32) (bool, error) { return true, nil },
			want:      true,
		},
		{
			name:      "parent pid gone",
			getppid:   func() int { return 100 },
			pidExists: func(int32) (bool, error) { return false, nil },
			want:      true,
		},
		{
			// A failed probe must not stop a healthy run.
			name:      "probe error is not orphaned",
			getppid:   func() int { return 100 },
			pidExists: func(int32) (bool, error) { return false, errors.New("procfs unavailable") },
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &parentWatch{parent: 100, getppid: tt.getppid, pidExists: tt.pidExists}
			assert.Equal(t, tt.want, w.orphaned())
		})
	}
}

func TestParentWatch_WatchFiresOnParentDeath(t *testing.T) {
	w := &parentWatch{
		parent:    100,
		getppid:   func() int { return 100 },
		pidExists: func(int32) (bool, error) { return false, nil },
	}

	stop := make(chan struct{})
	defer close(stop)

	select {
	case <-w.watch(5*time.Millisecond, stop):
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not report the dead parent")
	}
}

func TestParentWatch_WatchFiresOnReparenting(t *testing.T) {
	w := &parentWatch{
		parent:    100,
		getppid:   func() int { return 1 },
		pidExists: func(int32) (bool, error) { return true, nil },
	}

	stop := make(chan struct{})
	defer close(stop)

	select {
	case <-w.watch(5*time.Millisecond, stop):
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not report the changed parent")
	}
}

func TestParentWatch_WatchStaysQuietUnderLiveParent(t *testing.T) {
	w := &parentWatch{
		parent:    100,
		getppid:   func() int { return 100 },
		pidExists: func(int32) (bool, error) { return true, nil },
	}

	stop := make(chan struct{})
	orphaned := w.watch(5*time.Millisecond, stop)

	select {
	case <-orphaned:
		t.Fatal("watch reported a live parent as dead")
	case <-time.After(50 * time.Millisecond):
	}
	close(stop)
}

func TestWatchParent_LiveParent(t *testing.T) {
	stop := make(chan struct{})
	orphaned := WatchParent(5*time.Millisecond, stop)

	// The test runner is alive, so nothing may fire.
	select {
	case <-orphaned:
		t.Fatal("reported orphaned under a live parent")
	case <-time.After(50 * time.Millisecond):
	}
	close(stop)
}
