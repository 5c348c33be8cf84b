package ahx

import (
	"encoding/binary"
	"fmt"
)

const instrumentHeaderSize = 22

// LoadSong parses an AHX module byte stream into an owned Song value,
// applying the revision-0 fix-ups the original loader performs before
// returning. It is a direct port of original_source/loader.c's
// ahxLoadFromRAM.
func LoadSong(data []byte) (*Song, error) {
	if len(data) < 14 {
		return nil, fmt.Errorf("ahx: %w: header needs 14 bytes, got %d", ErrTruncated, len(data))
	}
	if string(data[0:3]) != "THX" {
		return nil, fmt.Errorf("ahx: %w: missing THX magic", ErrNotAnAHX)
	}
	revision := data[3]
	if revision > 1 {
		return nil, fmt.Errorf("ahx: %w: unsupported revision %d", ErrNotAnAHX, revision)
	}

	song := &Song{Revision: revision}

	p := 6
	flags := binary.BigEndian.Uint16(data[p:])
	p += 2
	trkNullEmpty := flags&0x8000 != 0
	song.Len = int(flags & 0x3FF)
	song.SongCIAPeriodIndex = int((flags >> 13) & 3)

	if len(data) < p+8 {
		return nil, fmt.Errorf("ahx: %w: header truncated", ErrTruncated)
	}
	song.Restart = int(binary.BigEndian.Uint16(data[p:]))
	p += 2
	song.TrackLen = int(data[p])
	p++
	song.HighestTrack = int(data[p])
	p++
	song.NumInstruments = int(data[p])
	p++
	song.NumSubsongs = int(data[p])
	p++

	if song.Restart >= song.Len {
		song.Restart = 0
	}

	numTracks := song.HighestTrack + 1

	// Subsong table: NumSubsongs big-endian u16 start positions.
	subBytes := song.NumSubsongs * 2
	if len(data) < p+subBytes {
		return nil, fmt.Errorf("ahx: %w: subsong table truncated", ErrTruncated)
	}
	song.SubsongTable = make([]uint16, song.NumSubsongs)
	for i := 0; i < song.NumSubsongs; i++ {
		song.SubsongTable[i] = binary.BigEndian.Uint16(data[p:])
		p += 2
	}

	// Position table: Len positions * 4 voices * (track, transpose).
	posBytes := song.Len * 8
	if len(data) < p+posBytes {
		return nil, fmt.Errorf("ahx: %w: position table truncated", ErrTruncated)
	}
	song.PositionTable = make([]PositionEntry, song.Len*4)
	for i := 0; i < song.Len*4; i++ {
		song.PositionTable[i] = PositionEntry{
			Track:     data[p],
			Transpose: int8(data[p+1]),
		}
		p += 2
	}

	// Track table: fixed 64-row slots per track, even when TrackLen < 64.
	song.TrackTable = make([]byte, numTracks*3*64)
	tracksToRead := numTracks
	dstOff := 0
	if trkNullEmpty {
		dstOff += 3 * 64
		tracksToRead--
	}
	if tracksToRead > 0 {
		trackBytes := song.TrackLen * 3
		if len(data) < p+tracksToRead*trackBytes {
			return nil, fmt.Errorf("ahx: %w: track table truncated", ErrTruncated)
		}
		for i := 0; i < tracksToRead; i++ {
			copy(song.TrackTable[dstOff+i*3*64:], data[p:p+trackBytes])
			p += trackBytes
		}
	}

	// Instruments: 22-byte header + PerfLength*4 perf-list bytes each.
	song.Instruments = make([]Instrument, song.NumInstruments)
	for i := 0; i < song.NumInstruments; i++ {
		if len(data) < p+instrumentHeaderSize {
			return nil, fmt.Errorf("ahx: %w: instrument %d header truncated", ErrTruncated, i)
		}
		hdr := data[p : p+instrumentHeaderSize]

		ins := Instrument{
			Volume:            hdr[0],
			FilterSpeed:       hdr[1] >> 3,
			WaveLength:        hdr[1] & 0x07,
			AFrames:           hdr[2],
			AVolume:           hdr[3],
			DFrames:           hdr[4],
			DVolume:           hdr[5],
			SFrames:           hdr[6],
			RFrames:           hdr[7],
			RVolume:           hdr[8],
			FilterLowerLimit:  hdr[12],
			VibratoDelay:      hdr[13],
			VibratoDepth:      hdr[14],
			VibratoSpeed:      hdr[15],
			SquareLowerLimit:  hdr[16],
			SquareUpperLimit:  hdr[17],
			SquareSpeed:       hdr[18],
			FilterUpperLimit:  hdr[19],
			PerfSpeed:         hdr[20],
			PerfLength:        hdr[21],
		}
		p += instrumentHeaderSize

		perfBytes := int(ins.PerfLength) * 4
		if len(data) < p+perfBytes {
			return nil, fmt.Errorf("ahx: %w: instrument %d perf-list truncated", ErrTruncated, i)
		}
		ins.PerfList = make([]byte, perfListCapacityBytes)
		copy(ins.PerfList, data[p:p+perfBytes])
		p += perfBytes

		song.Instruments[i] = ins
	}

	// Optional null-terminated name, up to 255 bytes.
	nameEnd := p
	limit := p + 255
	if limit > len(data) {
		limit = len(data)
	}
	for nameEnd < limit && data[nameEnd] != 0 {
		nameEnd++
	}
	song.Name = string(data[p:nameEnd])

	if song.Revision == 0 {
		applyRevision0FixUps(song)
	}

	return song, nil
}

// applyRevision0FixUps clears the override-filter effect (track FX 4) and
// the perf-list FX 0/4 parameters on revision-0 songs, matching AHX's own
// loader-time fix-up for modules saved by the earliest tracker revision.
func applyRevision0FixUps(song *Song) {
	for t := 0; t <= song.HighestTrack; t++ {
		for row := 0; row < song.TrackLen; row++ {
			off := (t*64+row)*3 + 1
			if off+1 >= len(song.TrackTable) {
				continue
			}
			fx := song.TrackTable[off] & 0x0F
			if fx == 4 {
				song.TrackTable[off] &= 0xF0
				song.TrackTable[off+1] = 0
			}
		}
	}

	for i := range song.Instruments {
		ins := &song.Instruments[i]
		for row := 0; row < int(ins.PerfLength); row++ {
			off := row * 4
			if off+3 >= len(ins.PerfList) {
				continue
			}
			fx1 := (ins.PerfList[off] >> 2) & 7
			if fx1 == 0 || fx1 == 4 {
				ins.PerfList[off+2] = 0
			}
			fx2 := (ins.PerfList[off] >> 5) & 7
			if fx2 == 0 || fx2 == 4 {
				ins.PerfList[off+3] = 0
			}
		}
	}
}
