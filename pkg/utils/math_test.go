package utils

import "testing"

func TestClampInt(t *testing.T) {
	if ClampInt(150, 0, 100) != 100 {
		t.Error("above hi should clamp to hi")
	}
	if ClampInt(-5, 0, 100) != 0 {
		t.Error("below lo should clamp to lo")
	}
	if ClampInt(42, 0, 100) != 42 {
		t.Error("in-range value unchanged")
	}
}
