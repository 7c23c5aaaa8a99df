package logging

import "testing"

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(25)
	var emitted []int
	for done := 1; done <= 20; done++ {
		if s.ShouldLog("media", done, 20) {
			emitted = append(emitted, done)
		}
	}
	// first call (stage change), 25%, 50%, 75%, final
	want := []int{1, 5, 10, 15, 20}
	if len(emitted) != len(want) {
		t.Fatalf("emitted = %v, want %v", emitted, want)
	}
	for i := range want {
		if emitted[i] != want[i] {
			t.Fatalf("emitted = %v, want %v", emitted, want)
		}
	}
}

func TestProgressSamplerStageChangeResets(t *testing.T) {
	s := NewProgressSampler(0)
	if s.bucketSize != 10 {
		t.Fatalf("bucketSize = %v, want 10", s.bucketSize)
	}
	s.ShouldLog("media", 9, 10)
	if s.ShouldLog("media", 9, 10) {
		t.Fatal("repeat progress should be suppressed")
	}
	if !s.ShouldLog("entities", 1, 10) {
		t.Fatal("stage change should log")
	}
	s.Reset()
	if s.lastStage != "" || s.lastBucket != -1 {
		t.Fatalf("reset did not clear state: %+v", s)
	}
}

func TestProgressSamplerNil(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog("media", 1, 2) {
		t.Fatal("nil sampler should always log")
	}
	s.Reset()
}
