package logging

import "testing"

func TestNewProgressSampler(t *testing.T) {
	tests := []struct {
		name       string
		bucketSize float64
		wantSize   float64
	}{
		{"default bucket size for zero", 0, 10},
		{"default bucket size for negative", -1, 10},
		{"custom bucket size", 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewProgressSampler(tt.bucketSize)
			if s.bucketSize != tt.wantSize {
				t.Errorf("bucketSize = %v, want %v", s.bucketSize, tt.wantSize)
			}
			if s.lastBucket != -1 {
				t.Errorf("lastBucket = %d, want -1", s.lastBucket)
			}
		})
	}
}

func TestProgressSamplerNilSampler(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(50, "pass 1") {
		t.Error("ShouldLog on nil sampler should always return true")
	}
	s.Reset()
}

func TestProgressSamplerPhaseChange(t *testing.T) {
	s := NewProgressSampler(10)

	if !s.ShouldLog(0, "loudness") {
		t.Error("first phase should log")
	}
	if s.ShouldLog(0, "loudness") {
		t.Error("same phase and percent should not log again")
	}
	if !s.ShouldLog(0, "pass 1") {
		t.Error("different phase should log")
	}
	if s.lastPhase != "pass 1" {
		t.Errorf("lastPhase = %q, want pass 1", s.lastPhase)
	}
}

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(10)
	s.ShouldLog(0, "pass 2")

	steps := []struct {
		percent float64
		want    bool
	}{
		{3, false},
		{9.9, false},
		{10, true},
		{15, false},
		{31, true},
		{-1, false},
		{100, true},
		{120, false},
	}
	for _, step := range steps {
		if got := s.ShouldLog(step.percent, "pass 2"); got != step.want {
			t.Fatalf("ShouldLog(%v) = %v, want %v", step.percent, got, step.want)
		}
	}
}

func TestProgressSamplerReset(t *testing.T) {
	s := NewProgressSampler(10)
	s.ShouldLog(50, "pass 1")
	s.Reset()
	if s.lastPhase != "" || s.lastBucket != -1 {
		t.Fatalf("expected cleared state, got %q %d", s.lastPhase, s.lastBucket)
	}
	if !s.ShouldLog(50, "pass 1") {
		t.Fatal("expected log after reset")
	}
}
