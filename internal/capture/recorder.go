package capture

import (
	"context"
	"errors"
	"log"
	"math"
	"time"
)

// ErrNoSpeech is returned when no usable audio was obtained after all retries.
// Callers should re-prompt the user; this is never a fatal condition.
var ErrNoSpeech = errors.New("no speech detected")

// sliceDuration is the fixed read granularity of the streaming silence check.
const sliceDuration = 100 * time.Millisecond

// FrameSource delivers live PCM16 mono audio. ReadFrame blocks until it has
// filled samples or the context is done, and returns the number of samples
// written.
type FrameSource interface {
	ReadFrame(ctx context.Context, samples []int16) (int, error)
}

// Options tune one RecordUntilSilence invocation. Zero values select the
// defaults below.
type Options struct {
	// MaxDuration caps the total collected audio per attempt. Default 5s.
	MaxDuration time.Duration
	// SilenceDuration is how long the input must stay below SilenceRMS before
	// the utterance is considered finished. Default 3s.
	SilenceDuration time.Duration
	// SilenceRMS is the per-slice energy threshold on a 0..1 scale. Default 0.01.
	SilenceRMS float64
	// MaxRetries is the number of fresh attempts before giving up. Default 3.
	MaxRetries int
	// ClipSilenceDB is the whole-clip rejection threshold in dBFS. A finished
	// clip with no slice above this level is discarded as net-silent.
	// Default -16 dB.
	ClipSilenceDB float64
}

func (o Options) withDefaults() Options {
	if o.MaxDuration <= 0 {
		o.MaxDuration = 5 * time.Second
	}
	if o.SilenceDuration <= 0 {
		o.SilenceDuration = 3 * time.Second
	}
	if o.SilenceRMS <= 0 {
		o.SilenceRMS = 0.01
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.ClipSilenceDB == 0 {
		o.ClipSilenceDB = -16
	}
	return o
}

// Recorder produces single-utterance clips from a live frame source.
type Recorder struct {
	source     FrameSource
	sampleRate int
}

func NewRecorder(source FrameSource, sampleRate int) *Recorder {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	return &Recorder{source: source, sampleRate: sampleRate}
}

// RecordUntilSilence records one spoken utterance. It reads 100ms slices,
// stops after a sustained silence run or the max duration, then applies an
// independent whole-clip silence check. Net-silent attempts are retried with
// a reset counter; after MaxRetries failed attempts it returns ErrNoSpeech.
//
// Cancellation stops collection cleanly: the partial clip goes through the
// same whole-clip check and is either returned or reported as ErrNoSpeech.
func (r *Recorder) RecordUntilSilence(ctx context.Context, opts Options) (*Clip, error) {
	opts = opts.withDefaults()

	sliceSamples := r.sampleRate / 10
	silenceSlices := int(opts.SilenceDuration / sliceDuration)
	if silenceSlices < 1 {
		// A window shorter than one slice would fire before any audio arrives.
		silenceSlices = 1
	}
	maxSlices := int(opts.MaxDuration / sliceDuration)

	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		log.Printf("capture: attempt %d of %d", attempt, opts.MaxRetries)

		pcm, interrupted := r.collect(ctx, opts, sliceSamples, silenceSlices, maxSlices)
		if len(pcm) > 0 {
			clip := &Clip{SampleRate: r.sampleRate, PCM: pcm}
			if !clipIsSilent(pcm, sliceSamples, opts.ClipSilenceDB) {
				return clip, nil
			}
			log.Printf("capture: attempt %d rejected as net-silent", attempt)
		} else {
			log.Printf("capture: attempt %d produced no audio", attempt)
		}
		if interrupted {
			// Do not retry past a cancellation; surface no-speech instead.
			return nil, ErrNoSpeech
		}
	}
	return nil, ErrNoSpeech
}

// collect gathers one attempt's worth of slices. It reports whether the
// attempt ended because of cancellation.
func (r *Recorder) collect(ctx context.Context, opts Options, sliceSamples, silenceSlices, maxSlices int) ([]int16, bool) {
	var pcm []int16
	silenceRun := 0
	buf := make([]int16, sliceSamples)

	for slice := 0; slice < maxSlices; slice++ {
		n, err := r.source.ReadFrame(ctx, buf)
		if n > 0 {
			pcm = append(pcm, buf[:n]...)
			if rms(buf[:n]) < opts.SilenceRMS {
				silenceRun++
			} else {
				silenceRun = 0
			}
			if silenceRun >= silenceSlices {
				return pcm, false
			}
		}
		if err != nil {
			return pcm, errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil
		}
		if ctx.Err() != nil {
			return pcm, true
		}
	}
	return pcm, false
}

// rms computes root-mean-square energy normalized to 0..1.
func rms(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		f := float64(s) / 32768.0
		sum += f * f
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// clipIsSilent is the secondary whole-clip check, independent of the
// streaming heuristic: the clip is kept only if at least one slice rises
// above the dBFS threshold.
func clipIsSilent(pcm []int16, sliceSamples int, thresholdDB float64) bool {
	for off := 0; off < len(pcm); off += sliceSamples {
		end := off + sliceSamples
		if end > len(pcm) {
			end = len(pcm)
		}
		level := rms(pcm[off:end])
		if level <= 0 {
			continue
		}
		if 20*math.Log10(level) > thresholdDB {
			return false
		}
	}
	return true
}
