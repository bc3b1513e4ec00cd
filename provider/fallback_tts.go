package provider

import (
	"context"
	"encoding/binary"
	"os"
	"strings"

	"github.com/auracorp/aurastudio/config"
)

// NullTTS is the always-available terminal fallback: it writes a silent WAV
// file sized to the estimated read time of the script at
// config.NarrationWordsPerMinute words per minute, so downstream stages
// (which need a narration track to time visuals against) always have one.
type NullTTS struct{}

func NewNullTTS() *NullTTS { return &NullTTS{} }

func (n *NullTTS) Name() string { return "null" }

func (n *NullTTS) Available(ctx context.Context) bool { return true }

func (n *NullTTS) Synthesize(ctx context.Context, text string, voice VoiceSpec, outPath string) (AudioMetadata, error) {
	duration := EstimateReadSeconds(text)
	if err := writeSilentWAV(outPath, duration); err != nil {
		return AudioMetadata{}, err
	}
	return AudioMetadata{Path: outPath, DurationSeconds: duration}, nil
}

// EstimateReadSeconds estimates narration length from word count at the
// configured words-per-minute rate, with a one-second floor so an empty or
// near-empty script still produces a playable track.
func EstimateReadSeconds(text string) float64 {
	words := len(strings.Fields(text))
	seconds := float64(words) / float64(config.NarrationWordsPerMinute) * 60
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}

const (
	wavSampleRate = 24000
	wavChannels   = 1
	wavBitsPerSample = 16
)

func writeSilentWAV(path string, durationSeconds float64) error {
	numSamples := int(durationSeconds * wavSampleRate)
	dataSize := numSamples * wavChannels * (wavBitsPerSample / 8)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	byteRate := wavSampleRate * wavChannels * (wavBitsPerSample / 8)
	blockAlign := wavChannels * (wavBitsPerSample / 8)

	header := make([]byte, 44)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataSize))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], uint16(wavChannels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(wavSampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], uint16(wavBitsPerSample))
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataSize))

	if _, err := f.Write(header); err != nil {
		return err
	}

	zero := make([]byte, 4096)
	remaining := dataSize
	for remaining > 0 {
		n := len(zero)
		if remaining < n {
			n = remaining
		}
		if _, err := f.Write(zero[:n]); err != nil {
			return err
		}
		remaining -= n
	}
	return nil
}
