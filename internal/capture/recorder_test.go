package capture

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

const testRate = 8000 // keeps frames small; one 100ms slice = 800 samples

func frame(amplitude int16) []int16 {
	f := make([]int16, testRate/10)
	for i := range f {
		f[i] = amplitude
	}
	return f
}

// scriptedSource replays prepared slices, then EOFs (or loops the last slice).
type scriptedSource struct {
	frames    [][]int16
	idx       int
	loopLast  bool
	reads     int
	cancelAt  int // when > 0, cancel after this many reads
	cancelCtx context.CancelFunc
}

func (s *scriptedSource) ReadFrame(ctx context.Context, samples []int16) (int, error) {
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	s.reads++
	if s.cancelAt > 0 && s.reads > s.cancelAt {
		s.cancelCtx()
		return 0, ctx.Err()
	}
	var f []int16
	switch {
	case s.idx < len(s.frames):
		f = s.frames[s.idx]
		s.idx++
	case s.loopLast && len(s.frames) > 0:
		f = s.frames[len(s.frames)-1]
	default:
		return 0, io.EOF
	}
	return copy(samples, f), nil
}

func TestRecordUntilSilence_StopsOnSilenceRun(t *testing.T) {
	src := &scriptedSource{
		frames:   [][]int16{frame(8000), frame(8000), frame(8000), frame(0)},
		loopLast: true,
	}
	r := NewRecorder(src, testRate)
	clip, err := r.RecordUntilSilence(context.Background(), Options{
		MaxDuration:     2 * time.Second,
		SilenceDuration: 300 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	// 3 voiced slices + 3 silent slices before the run triggers.
	wantSamples := 6 * (testRate / 10)
	if len(clip.PCM) != wantSamples {
		t.Fatalf("expected %d samples, got %d", wantSamples, len(clip.PCM))
	}
	if clip.Duration() != 600*time.Millisecond {
		t.Fatalf("unexpected duration %v", clip.Duration())
	}
}

func TestRecordUntilSilence_StopsAtMaxDuration(t *testing.T) {
	src := &scriptedSource{frames: [][]int16{frame(8000)}, loopLast: true}
	r := NewRecorder(src, testRate)
	clip, err := r.RecordUntilSilence(context.Background(), Options{
		MaxDuration:     500 * time.Millisecond,
		SilenceDuration: 3 * time.Second,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(clip.PCM) != 5*(testRate/10) {
		t.Fatalf("expected max-duration clip, got %d samples", len(clip.PCM))
	}
}

func TestRecordUntilSilence_SubSliceSilenceWindow(t *testing.T) {
	src := &scriptedSource{
		frames:   [][]int16{frame(8000), frame(8000), frame(0)},
		loopLast: true,
	}
	r := NewRecorder(src, testRate)
	clip, err := r.RecordUntilSilence(context.Background(), Options{
		MaxDuration:     2 * time.Second,
		SilenceDuration: 50 * time.Millisecond, // shorter than one slice
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	// Voiced slices must not end the capture; the first silent slice does.
	if len(clip.PCM) != 3*(testRate/10) {
		t.Fatalf("expected 3 slices, got %d samples", len(clip.PCM))
	}
}

func TestRecordUntilSilence_NoSpeechAfterRetries(t *testing.T) {
	src := &scriptedSource{frames: [][]int16{frame(0)}, loopLast: true}
	r := NewRecorder(src, testRate)
	_, err := r.RecordUntilSilence(context.Background(), Options{
		MaxDuration:     1 * time.Second,
		SilenceDuration: 300 * time.Millisecond,
		MaxRetries:      3,
	})
	if !errors.Is(err, ErrNoSpeech) {
		t.Fatalf("expected ErrNoSpeech, got %v", err)
	}
	// Each attempt reads until the 3-slice silence run fires.
	if src.reads != 9 {
		t.Fatalf("expected exactly 3 attempts of 3 reads, got %d reads", src.reads)
	}
}

func TestRecordUntilSilence_RejectsNetSilentClip(t *testing.T) {
	// Amplitude 500 (~ -36 dBFS) passes the 0.01 streaming threshold but is
	// below the -16 dB whole-clip threshold, so every attempt is discarded.
	src := &scriptedSource{frames: [][]int16{frame(500)}, loopLast: true}
	r := NewRecorder(src, testRate)
	_, err := r.RecordUntilSilence(context.Background(), Options{
		MaxDuration:     300 * time.Millisecond,
		SilenceDuration: 200 * time.Millisecond,
		MaxRetries:      2,
	})
	if !errors.Is(err, ErrNoSpeech) {
		t.Fatalf("expected ErrNoSpeech for net-silent clip, got %v", err)
	}
}

func TestRecordUntilSilence_CancelKeepsVoicedPartial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src := &scriptedSource{
		frames:    [][]int16{frame(8000), frame(8000)},
		loopLast:  true,
		cancelAt:  2,
		cancelCtx: cancel,
	}
	r := NewRecorder(src, testRate)
	clip, err := r.RecordUntilSilence(ctx, Options{
		MaxDuration:     5 * time.Second,
		SilenceDuration: 3 * time.Second,
	})
	if err != nil {
		t.Fatalf("expected partial clip on cancel, got %v", err)
	}
	if len(clip.PCM) != 2*(testRate/10) {
		t.Fatalf("expected 2 slices of partial audio, got %d samples", len(clip.PCM))
	}
}

func TestRecordUntilSilence_CancelWithSilentPartial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src := &scriptedSource{
		frames:    [][]int16{frame(0)},
		loopLast:  true,
		cancelAt:  1,
		cancelCtx: cancel,
	}
	r := NewRecorder(src, testRate)
	_, err := r.RecordUntilSilence(ctx, Options{
		MaxDuration:     5 * time.Second,
		SilenceDuration: 3 * time.Second,
		MaxRetries:      3,
	})
	if !errors.Is(err, ErrNoSpeech) {
		t.Fatalf("expected ErrNoSpeech on canceled silent capture, got %v", err)
	}
	// Cancellation must not trigger further retries.
	if src.reads > 2 {
		t.Fatalf("expected no retries after cancel, got %d reads", src.reads)
	}
}

func TestClipWAV_Header(t *testing.T) {
	clip := &Clip{SampleRate: testRate, PCM: frame(1000)}
	wav := clip.WAV()
	if len(wav) != 44+len(clip.PCM)*2 {
		t.Fatalf("unexpected wav size %d", len(wav))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" || string(wav[36:40]) != "data" {
		t.Fatalf("malformed wav header")
	}
}
