// Package mp4probe reads stream properties from MP4 containers without
// decoding any samples.
package mp4probe

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"
)

// ErrNoVideoTrack is returned when the container has no video track.
var ErrNoVideoTrack = errors.New("mp4probe: no video track found")

// Codec represents a video codec type.
type Codec string

const (
	CodecH264    Codec = "h264"
	CodecHEVC    Codec = "hevc"
	CodecAV1     Codec = "av1"
	CodecUnknown Codec = "unknown"
)

// Info describes the first video track of a container.
type Info struct {
	Codec       Codec
	Width       int
	Height      int
	Timescale   uint32
	SampleCount int
	// FrameRate is samples per second derived from sample durations; 0 when
	// the durations are missing.
	FrameRate  float64
	Fragmented bool
}

// ProbeFile probes the MP4 file at path.
func ProbeFile(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return Probe(f)
}

// Probe parses an MP4 from reader and describes its first video track.
func Probe(reader io.ReadSeeker) (Info, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return Info{}, fmt.Errorf("decode mp4: %w", err)
	}

	if mp4File.IsFragmented() {
		return probeFragmented(mp4File)
	}
	return probeProgressive(mp4File)
}

func probeProgressive(mp4File *mp4.File) (Info, error) {
	if mp4File.Moov == nil {
		return Info{}, ErrNoVideoTrack
	}
	trak := findVideoTrack(mp4File.Moov.Traks)
	if trak == nil {
		return Info{}, ErrNoVideoTrack
	}

	info := describeTrack(trak)
	stbl := trak.Mdia.Minf.Stbl
	if stbl.Stsz != nil {
		info.SampleCount = int(stbl.Stsz.SampleNumber)
	}
	if stbl.Stts != nil {
		info.FrameRate = frameRate(info.Timescale, stbl.Stts.SampleCount, stbl.Stts.SampleTimeDelta)
		if info.SampleCount == 0 {
			for _, n := range stbl.Stts.SampleCount {
				info.SampleCount += int(n)
			}
		}
	}
	return info, nil
}

func probeFragmented(mp4File *mp4.File) (Info, error) {
	if mp4File.Init == nil || mp4File.Init.Moov == nil {
		return Info{}, ErrNoVideoTrack
	}
	trak := findVideoTrack(mp4File.Init.Moov.Traks)
	if trak == nil {
		return Info{}, ErrNoVideoTrack
	}

	info := describeTrack(trak)
	info.Fragmented = true
	trackID := trak.Tkhd.TrackID

	var trex *mp4.TrexBox
	if mvex := mp4File.Init.Moov.Mvex; mvex != nil {
		for _, t := range mvex.Trexs {
			if t.TrackID == trackID {
				trex = t
				break
			}
		}
	}

	var total uint64
	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			samples, err := frag.GetFullSamples(trex)
			if err != nil {
				return Info{}, fmt.Errorf("get samples: %w", err)
			}
			for _, s := range samples {
				info.SampleCount++
				total += uint64(s.Dur)
			}
		}
	}
	if total > 0 && info.Timescale > 0 {
		info.FrameRate = float64(info.SampleCount) * float64(info.Timescale) / float64(total)
	}
	return info, nil
}

func findVideoTrack(traks []*mp4.TrakBox) *mp4.TrakBox {
	for _, trak := range traks {
		if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
			continue
		}
		if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil {
			continue
		}
		return trak
	}
	return nil
}

func describeTrack(trak *mp4.TrakBox) Info {
	info := Info{Codec: CodecUnknown}
	if trak.Mdia.Mdhd != nil {
		info.Timescale = trak.Mdia.Mdhd.Timescale
	}

	stsd := trak.Mdia.Minf.Stbl.Stsd
	if stsd == nil {
		return info
	}
	for _, child := range stsd.Children {
		switch child.Type() {
		case "avc1", "avc3":
			info.Codec = CodecH264
		case "hvc1", "hev1":
			info.Codec = CodecHEVC
		case "av01":
			info.Codec = CodecAV1
		default:
			continue
		}
		if vse, ok := child.(*mp4.VisualSampleEntryBox); ok {
			info.Width = int(vse.Width)
			info.Height = int(vse.Height)
		}
		break
	}
	return info
}

// frameRate computes samples per second from an stts run-length table.
func frameRate(timescale uint32, counts, deltas []uint32) float64 {
	if timescale == 0 || len(counts) != len(deltas) {
		return 0
	}
	var samples, duration uint64
	for i := range counts {
		samples += uint64(counts[i])
		duration += uint64(counts[i]) * uint64(deltas[i])
	}
	if duration == 0 {
		return 0
	}
	return float64(samples) * float64(timescale) / float64(duration)
}
