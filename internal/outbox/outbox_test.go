package outbox

import "testing"

func TestBackoffGrowsExponentiallyUpToCeiling(t *testing.T) {
	tests := []struct {
		attempts int
		want     string
	}{
		{0, "2s"},
		{1, "4s"},
		{2, "8s"},
		{3, "16s"},
	}
	for _, tt := range tests {
		if got := Backoff(tt.attempts).String(); got != tt.want {
			t.Errorf("Backoff(%d) = %s, want %s", tt.attempts, got, tt.want)
		}
	}
}

func TestBackoffClampsAtFiveMinutes(t *testing.T) {
	if got := Backoff(20); got.String() != "5m0s" {
		t.Errorf("Backoff(20) = %s, want 5m0s", got.String())
	}
}
