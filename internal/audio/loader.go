package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/wav"
)

const streamBufferSize = 4096

var errUnknownFormat = errors.New("unrecognized container")

// Load decodes a WAV or MP3 byte stream into a mono clip.
// Any parse failure is reported as *DecodeError.
func Load(r io.Reader) (Clip, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Clip{}, &DecodeError{Format: "unknown", Err: err}
	}
	return Decode(data)
}

// LoadFile opens path and decodes it with Load.
func LoadFile(path string) (Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return Clip{}, fmt.Errorf("failed to open audio file %s: %w", path, err)
	}
	defer f.Close()

	clip, err := Load(f)
	if err != nil {
		return Clip{}, fmt.Errorf("%s: %w", path, err)
	}
	return clip, nil
}

// Decode parses an in-memory audio file.
func Decode(data []byte) (Clip, error) {
	format := sniff(data)

	var (
		stream beep.StreamSeekCloser
		info   beep.Format
		err    error
	)
	switch format {
	case "wav":
		stream, info, err = wav.Decode(bytes.NewReader(data))
	case "mp3":
		stream, info, err = mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	default:
		return Clip{}, &DecodeError{Format: "unknown", Err: errUnknownFormat}
	}
	if err != nil {
		return Clip{}, &DecodeError{Format: format, Err: err}
	}
	defer stream.Close()

	if info.SampleRate <= 0 {
		return Clip{}, &DecodeError{Format: format, Err: fmt.Errorf("invalid sample rate %d", info.SampleRate)}
	}

	gain := 1.0
	if format == "wav" {
		gain = wavGain(info.Precision)
	}

	samples, err := readMono(stream, gain)
	if err != nil {
		return Clip{}, &DecodeError{Format: format, Err: err}
	}

	return Clip{Samples: samples, SampleRate: int(info.SampleRate)}, nil
}

// wavGain corrects beep's signed PCM decoding, which divides by 2^bits-1
// while the encoder scales by 2^(bits-1)-1. 8-bit unsigned PCM is exact.
func wavGain(precision int) float64 {
	if precision < 2 {
		return 1
	}
	bits := float64(precision * 8)
	return (math.Exp2(bits) - 1) / (math.Exp2(bits-1) - 1)
}

// readMono drains the stream, averaging left and right into one channel
// and applying gain. Results are clamped to [-1, 1].
func readMono(s beep.StreamSeekCloser, gain float64) ([]float64, error) {
	samples := make([]float64, 0, max(s.Len(), 0))
	buf := make([][2]float64, streamBufferSize)
	for {
		n, ok := s.Stream(buf)
		for i := 0; i < n; i++ {
			samples = append(samples, clamp((buf[i][0]+buf[i][1])/2*gain))
		}
		if !ok {
			break
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}

func sniff(data []byte) string {
	switch {
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return "wav"
	case len(data) >= 3 && string(data[0:3]) == "ID3":
		return "mp3"
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return "mp3"
	}
	return ""
}
