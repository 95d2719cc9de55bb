package capture

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"
)

// Clip is one finished utterance: PCM16 mono samples plus their rate.
type Clip struct {
	SampleRate int
	PCM        []int16
}

// Duration reports the clip length in wall-clock time.
func (c *Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(c.PCM)) * time.Second / time.Duration(c.SampleRate)
}

// WAV renders the clip as a mono 16-bit RIFF/WAVE file in memory. This is the
// handle handed to the ASR collaborator.
func (c *Clip) WAV() []byte {
	dataLen := len(c.PCM) * 2
	buf := make([]byte, 44+dataLen)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataLen))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)                        // PCM chunk size
	binary.LittleEndian.PutUint16(buf[20:22], 1)                         // PCM format
	binary.LittleEndian.PutUint16(buf[22:24], 1)                         // mono
	binary.LittleEndian.PutUint32(buf[24:28], uint32(c.SampleRate))      // sample rate
	binary.LittleEndian.PutUint32(buf[28:32], uint32(c.SampleRate*2))    // byte rate
	binary.LittleEndian.PutUint16(buf[32:34], 2)                         // block align
	binary.LittleEndian.PutUint16(buf[34:36], 16)                        // bits per sample

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataLen))
	for i, s := range c.PCM {
		binary.LittleEndian.PutUint16(buf[44+i*2:46+i*2], uint16(s))
	}
	return buf
}

// WriteFile saves the clip as a WAV file at path.
func (c *Clip) WriteFile(path string) error {
	if err := os.WriteFile(path, c.WAV(), 0o644); err != nil {
		return fmt.Errorf("write clip: %w", err)
	}
	return nil
}
