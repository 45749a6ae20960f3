package app

import (
	"errors"
	"testing"
	"time"

	"github.com/five82/netmoya/internal/api"
	"github.com/five82/netmoya/internal/state"
)

func TestNextDelay(t *testing.T) {
	base := 2 * time.Second
	serverDown := &api.Error{Kind: api.KindServerError, Status: 503}

	tests := []struct {
		name     string
		failures int
		err      error
		want     time.Duration
	}{
		{"healthy", 0, nil, base},
		{"one server failure", 1, serverDown, 4 * time.Second},
		{"three server failures", 3, serverDown, 16 * time.Second},
		{"capped", 4, serverDown, maxBackoff},
		{"plain error backs off", 2, errors.New("boom"), 8 * time.Second},
		{"offline keeps base", 5, api.ErrNoInternetConnection, base},
		{"unauthorized waits max", 1, &api.Error{Kind: api.KindUnauthorized, Status: 401}, maxBackoff},
		{"forbidden waits max", 1, &api.Error{Kind: api.KindForbidden, Status: 403}, maxBackoff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := state.Snapshot{ConsecutiveFailures: tt.failures, LastError: tt.err}
			if got := nextDelay(snap, base); got != tt.want {
				t.Errorf("nextDelay(%d, %v) = %v, want %v", tt.failures, tt.err, got, tt.want)
			}
		})
	}
}

func TestNextDelay_NeverExceedsMax(t *testing.T) {
	err := &api.Error{Kind: api.KindTransportError}
	for failures := 0; failures <= 40; failures++ {
		got := nextDelay(state.Snapshot{ConsecutiveFailures: failures, LastError: err}, 3*time.Second)
		if got > maxBackoff {
			t.Fatalf("nextDelay(%d) = %v, exceeds %v", failures, got, maxBackoff)
		}
	}
}
