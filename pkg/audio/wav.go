package audio

import (
	"encoding/binary"
	"errors"
	"time"
)

var ErrNotWAV = errors.New("not a RIFF/WAVE file")

// InspectWAV reads the fmt and data chunk headers of a PCM WAV file.
func InspectWAV(data []byte) (*Info, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, ErrNotWAV
	}

	var (
		channels   int
		sampleRate int
		byteRate   int
		haveFmt    bool
	)
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8

		switch id {
		case "fmt ":
			if size < 16 || body+16 > len(data) {
				return nil, ErrNotWAV
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			byteRate = int(binary.LittleEndian.Uint32(data[body+8 : body+12]))
			haveFmt = true
		case "data":
			if !haveFmt || byteRate == 0 {
				return nil, ErrNotWAV
			}
			// Streaming writers leave the size unset; trust what arrived.
			if size == 0 || body+size > len(data) {
				size = len(data) - body
			}
			if size <= 0 {
				return nil, ErrNoAudio
			}
			return &Info{
				SampleRate: sampleRate,
				Channels:   channels,
				Duration:   time.Duration(size) * time.Second / time.Duration(byteRate),
			}, nil
		}

		pos = body + size + size%2
	}
	return nil, ErrNoAudio
}
