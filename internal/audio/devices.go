// Package audio provides the live microphone source and speaker sink used by
// the voice front-end. The capture package consumes the microphone through its
// FrameSource interface; playback consumes raw PCM16 mono bytes.
package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/gen2brain/malgo"
)

// Devices owns the platform audio context shared by mic and speaker.
type Devices struct {
	malgoCtx *malgo.AllocatedContext
	Mic      *Microphone
	Speaker  *Speaker
}

// Open initializes the microphone and speaker at the given sample rate
// (PCM16 mono on both ends).
func Open(sampleRate int) (*Devices, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}

	mic, err := newMicrophone(mctx.Context, sampleRate)
	if err != nil {
		_ = mctx.Uninit()
		mctx.Free()
		return nil, err
	}

	speaker, err := newSpeaker(sampleRate)
	if err != nil {
		mic.Close()
		_ = mctx.Uninit()
		mctx.Free()
		return nil, err
	}

	return &Devices{malgoCtx: mctx, Mic: mic, Speaker: speaker}, nil
}

// Close stops both devices and releases the audio context.
func (d *Devices) Close() {
	d.Mic.Close()
	d.Speaker.Close()
	_ = d.malgoCtx.Uninit()
	d.malgoCtx.Free()
}

// Microphone captures PCM16 mono audio and exposes it as fixed frames.
type Microphone struct {
	device *malgo.Device

	mu     sync.Mutex
	cond   *sync.Cond
	buf    []byte
	closed bool
}

func newMicrophone(ctx malgo.Context, sampleRate int) (*Microphone, error) {
	m := &Microphone{buf: make([]byte, 0, sampleRate*2)}
	m.cond = sync.NewCond(&m.mu)

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.PeriodSizeInMilliseconds = 20

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			m.mu.Lock()
			m.buf = append(m.buf, input...)
			m.mu.Unlock()
			m.cond.Signal()
		},
	}

	device, err := malgo.InitDevice(ctx, deviceConfig, callbacks)
	if err != nil {
		return nil, fmt.Errorf("init microphone: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return nil, fmt.Errorf("start microphone: %w", err)
	}
	m.device = device
	return m, nil
}

// ReadFrame blocks until it can fill samples, the mic closes, or ctx is done.
func (m *Microphone) ReadFrame(ctx context.Context, samples []int16) (int, error) {
	need := len(samples) * 2

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.cond.Broadcast()
		case <-done:
		}
	}()

	m.mu.Lock()
	defer m.mu.Unlock()
	for len(m.buf) < need && !m.closed && ctx.Err() == nil {
		m.cond.Wait()
	}
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	if m.closed && len(m.buf) < need {
		return 0, fmt.Errorf("microphone closed")
	}
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(m.buf[i*2 : i*2+2]))
	}
	m.buf = m.buf[need:]
	return len(samples), nil
}

// Close stops the capture device and wakes any blocked reader.
func (m *Microphone) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()
	m.cond.Broadcast()
	if m.device != nil {
		_ = m.device.Stop()
		m.device.Uninit()
	}
}

// Speaker plays PCM16 mono bytes through the default output device.
type Speaker struct {
	otoCtx *oto.Context

	mu      sync.Mutex
	cond    *sync.Cond
	buf     []byte
	player  *oto.Player
	playing bool
	closed  bool
}

func newSpeaker(sampleRate int) (*Speaker, error) {
	opts := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   sampleRate / 10 * 2, // ~100ms
	}
	otoCtx, ready, err := oto.NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	<-ready
	s := &Speaker{otoCtx: otoCtx, buf: make([]byte, 0, sampleRate*4)}
	s.cond = sync.NewCond(&s.mu)
	return s, nil
}

// WritePCM queues audio for playback, starting the player on first write.
func (s *Speaker) WritePCM(pcm []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.buf = append(s.buf, pcm...)
	if !s.playing {
		s.playing = true
		s.player = s.otoCtx.NewPlayer(s)
		s.player.Play()
	}
	s.cond.Signal()
}

// Read implements io.Reader for oto's pull model.
func (s *Speaker) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.buf) == 0 && !s.closed {
		s.cond.Wait()
	}
	if s.closed && len(s.buf) == 0 {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}
	n := copy(p, s.buf)
	s.buf = s.buf[n:]
	return n, nil
}

// Flush drops queued audio and stops the current player.
func (s *Speaker) Flush() {
	s.mu.Lock()
	s.buf = s.buf[:0]
	player := s.player
	wasPlaying := s.playing
	s.player = nil
	s.playing = false
	s.mu.Unlock()
	if player != nil && wasPlaying {
		player.Pause()
		_ = player.Close()
	}
}

// Close stops playback permanently.
func (s *Speaker) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cond.Broadcast()
	player := s.player
	s.mu.Unlock()
	if player != nil {
		_ = player.Close()
	}
}
