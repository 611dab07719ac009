package model

import "testing"

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{95.125, 95.12},
		{95.375, 95.38},
		{0.125, 0.12},
		{2.675, 2.67}, // stored just below 2.675
		{69.9970, 70},
		{98, 98},
		{-1.005, -1},
	}

	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCoveragePercent(t *testing.T) {
	h := hit("g1_1", "g3_1", 99, 13999, 20000, 27998)
	if got := h.QueryCoveragePercent(); got != 70 {
		t.Errorf("QueryCoveragePercent() = %v, want 70", got)
	}
	if got := h.SubjectCoveragePercent(); got != 50 {
		t.Errorf("SubjectCoveragePercent() = %v, want 50", got)
	}

	h.QueryLen = 0
	if got := h.QueryCoveragePercent(); got != 0 {
		t.Errorf("QueryCoveragePercent() with zero length = %v, want 0", got)
	}
}

func TestFormatIdentity(t *testing.T) {
	tests := map[float64]string{
		95:     "95.0",
		99.5:   "99.5",
		87.123: "87.123",
		95.12:  "95.12",
		100:    "100.0",
	}
	for v, want := range tests {
		if got := FormatIdentity(v); got != want {
			t.Errorf("FormatIdentity(%v) = %q, want %q", v, got, want)
		}
	}
}
