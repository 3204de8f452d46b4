package ec

import "testing"

func TestLinearMapEndpoints(t *testing.T) {
	if got := LinearMap(0); got != 0 {
		t.Errorf("LinearMap(0) = %d, want 0", got)
	}
	if got := LinearMap(100); got != 255 {
		t.Errorf("LinearMap(100) = %d, want 255", got)
	}
}

func TestLinearMapClamps(t *testing.T) {
	if got := LinearMap(-10); got != 0 {
		t.Errorf("LinearMap(-10) = %d, want 0", got)
	}
	if got := LinearMap(150); got != 255 {
		t.Errorf("LinearMap(150) = %d, want 255", got)
	}
}

func TestLinearMapRoundTrip(t *testing.T) {
	for percent := 0; percent <= 100; percent++ {
		if got := LinearUnmap(LinearMap(percent)); got != percent {
			t.Errorf("round trip of %d%% = %d%%", percent, got)
		}
	}
}
