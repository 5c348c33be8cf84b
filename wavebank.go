package ahx

import (
	"hash/crc32"
	"sync"
)

// Waveform lengths in the triangle/sawtooth banks.
var waveLengths6 = [6]int{4, 8, 16, 32, 64, 128}

const (
	squareDutyCycles = 32
	squareEntryBytes = 128
	filterSteps      = 31

	wavebankCRC = 0x40EEB1B9
	wavebankLen = 410760
)

// WaveBank is the process-lifetime, bit-exact waveform ROM: triangle and
// sawtooth banks (6 lengths each), a 32-entry square block, a white-noise
// buffer, and for each of 31 filter steps a high-pass and low-pass
// filtered copy of every one of those waveforms. BuildWaveBank is the
// only way to obtain one; construction is deterministic and idempotent.
type WaveBank struct {
	// Triangle, Sawtooth, Squares and Noise are the unfiltered waveforms,
	// in the storage order Raw concatenates them: the 6 triangle lengths,
	// the 6 sawtooth lengths, the 32 square duty cycles, then the
	// white-noise buffer.
	Triangle [6][]int8
	Sawtooth [6][]int8
	Squares  []int8 // squareDutyCycles * squareEntryBytes
	Noise    []int8 // wavebankNoiseSize bytes

	// Raw is the unfiltered concatenation of Triangle+Sawtooth+Squares+
	// Noise in storage order (rawTotalLength bytes); it is what
	// "filter position 32" (unfiltered) addresses.
	Raw []int8

	// HighPass[filterStep] and LowPass[filterStep] are full filtered
	// copies of Raw for filter steps 0..30.
	HighPass [filterSteps][]int8
	LowPass  [filterSteps][]int8
}

// FilterSlice returns the rawTotalLength-byte table that AHX's "filter
// position" 0..63 addresses: the unfiltered Raw table at position 32,
// HighPass[31-pos] for pos in 1..31, and LowPass[pos-33] for pos in
// 33..63. Callers must check pos is in [1,63] themselves; position 0 or
// >63 has no defined table (original AHX falls back to a zeroed buffer).
func (wb *WaveBank) FilterSlice(pos int) []int8 {
	switch {
	case pos == 32:
		return wb.Raw
	case pos < 32:
		return wb.HighPass[31-pos]
	default:
		return wb.LowPass[pos-33]
	}
}

var (
	sharedWaveBank     *WaveBank
	sharedWaveBankErr  error
	sharedWaveBankOnce sync.Once
)

// BuildWaveBank returns the shared, process-lifetime WaveBank, building it
// on first call (mirroring the original's isInitWaveforms latch) and
// returning the cached instance on every subsequent call. It fails with
// ErrWaveBankCorrupt if the generated table does not match the known-good
// CRC-32, which should only ever happen if this port has a bug.
func BuildWaveBank() (*WaveBank, error) {
	sharedWaveBankOnce.Do(func() {
		sharedWaveBank, sharedWaveBankErr = buildWaveBank()
	})
	return sharedWaveBank, sharedWaveBankErr
}

func buildWaveBank() (*WaveBank, error) {
	wb := &WaveBank{}

	raw := make([]int8, 0, wavebankLen/(2*filterSteps+1)+64)

	for i, length := range waveLengths6 {
		full := 4 << i
		delta := int16(128 / (full / 4))
		offset := -(full >> 1)
		wb.Triangle[i] = generateTriangle(delta, offset, length/4-1)
		raw = append(raw, wb.Triangle[i]...)
	}
	for i := range waveLengths6 {
		wb.Sawtooth[i] = generateSawtooth(waveLengths6[i])
		raw = append(raw, wb.Sawtooth[i]...)
	}
	wb.Squares = generateSquares()
	raw = append(raw, wb.Squares...)

	wb.Noise = generateWhiteNoise(wavebankNoiseSize)
	raw = append(raw, wb.Noise...)

	wb.Raw = raw

	hi, lo := generateFilterBanks(raw)
	for i := 0; i < filterSteps; i++ {
		wb.HighPass[i] = hi[i]
		wb.LowPass[i] = lo[i]
	}

	if crc := crc32Of(wb); crc != wavebankCRC {
		return nil, ErrWaveBankCorrupt
	}
	return wb, nil
}

// generateTriangle produces one triangle-wave period, matching
// original_source/replayer.c's triangleGenerate: rise, a lone 127 sample,
// fall, then a mirrored negative half built by reflecting and negating
// the first half (with the 127 -> -128 special case).
func generateTriangle(delta int16, offset, length int) []int8 {
	out := make([]int8, 0, (length+1)*4)
	var data int16
	for i := 0; i < length+1; i++ {
		out = append(out, int8(uint8(data)))
		data += delta
	}
	out = append(out, 127)

	data = 128
	for i := 0; i < length; i++ {
		data -= delta
		out = append(out, int8(uint8(data)))
	}

	// Reflect the first half (offset samples behind the current write
	// pointer) into the second half, negating each sample.
	srcStart := len(out) + offset
	n := (length + 1) * 2
	for i := 0; i < n; i++ {
		idx := srcStart + i
		var sample int8
		if idx >= 0 && idx < len(out) {
			sample = out[idx]
		}
		if sample == 127 {
			sample = -128
		} else {
			sample = -sample
		}
		out = append(out, sample)
	}
	return out
}

// generateSawtooth produces a linear ramp from -128 to +127 over length
// samples, matching replayer.c's sawToothGenerate.
func generateSawtooth(length int) []int8 {
	out := make([]int8, length)
	delta := int8(256 / (length - 1))
	data := int8(-128)
	for i := 0; i < length; i++ {
		out[i] = data
		data += delta
	}
	return out
}

// generateSquares produces the 32-duty-cycle, 128-byte-per-entry square
// block: entry i has (64-i) leading 0x80 bytes and i trailing 0x7F bytes,
// written as u16 pairs, matching replayer.c's squareGenerate.
func generateSquares() []int8 {
	out := make([]int8, squareDutyCycles*squareEntryBytes)
	pos := 0
	for i := 1; i <= squareDutyCycles; i++ {
		for j := 0; j < 64-i; j++ {
			out[pos] = -128 // 0x80
			out[pos+1] = -128
			pos += 2
		}
		for j := 0; j < i; j++ {
			out[pos] = 0x7F
			out[pos+1] = 0x7F
			pos += 2
		}
	}
	return out
}

// generateWhiteNoise produces length bytes from the AHX LFSR, matching
// replayer.c's whiteNoiseGenerate exactly, including its rotate/XOR
// sequence.
func generateWhiteNoise(length int) []int8 {
	out := make([]int8, length)
	seed := uint32(0x41595321)
	for i := 0; i < length; i++ {
		switch {
		case seed&256 == 0:
			out[i] = int8(uint8(seed))
		case seed&0x8000 != 0:
			out[i] = -128
		default:
			out[i] = 127
		}

		seed = ror32(seed, 5)
		seed ^= 0b10011010
		tmp16 := uint16(seed)
		seed = rol32(seed, 2)
		tmp16 += uint16(seed)
		seed ^= uint32(tmp16)
		seed = ror32(seed, 3)
	}
	return out
}

func ror32(x uint32, n uint) uint32 { return (x >> n) | (x << (32 - n)) }
func rol32(x uint32, n uint) uint32 { return (x << n) | (x >> (32 - n)) }

// fp16Clip clamps a 16.16 fixed-point value to the range representable by
// an int8 in its high 16 bits, matching replayer.c's fp16Clip.
func fp16Clip(x int32) int32 {
	hi := int16(x >> 16)
	if hi > 127 {
		return 127 << 16
	}
	if hi < -128 {
		return -128 << 16
	}
	return x
}

// generateFilterBanks runs the 4-pass 3-pole integrator cascade across
// every waveform-length entry in raw (triangle/sawtooth/square/noise, in
// storage order) for each of the 31 filter steps, producing a high-pass
// and low-pass filtered copy of the whole raw table per step. This is a
// direct port of replayer.c's setUpFilterWaveForms.
func generateFilterBanks(raw []int8) (hi, lo [filterSteps][]int8) {
	d5 := ((8 << 16) * 125 / 100 / 100) >> 8
	for step := 0; step < filterSteps; step++ {
		hiBuf := make([]int8, 0, len(raw))
		loBuf := make([]int8, 0, len(raw))

		wlAdd := 0
		for _, waveLength := range lengthTable {
			var d1, d2, d3 int32
			for k := 1; k <= 4; k++ {
				if k == 4 {
					d2 &^= 0xFF
					d3 &^= 0xFF
				}
				for l := 0; l < waveLength; l++ {
					d0 := int32(raw[wlAdd+l]) << 16

					d1 = fp16Clip(d0 - d2 - d3)
					d2 = fp16Clip(d2 + (d1>>8)*int32(d5))
					d3 = fp16Clip(d3 + (d2>>8)*int32(d5))

					if k == 4 {
						hiBuf = append(hiBuf, int8(uint8(d1>>16)))
						loBuf = append(loBuf, int8(uint8(d3>>16)))
					}
				}
			}
			wlAdd += waveLength
		}

		hi[step] = hiBuf
		lo[step] = loBuf
		d5 += (3 << 16) * 125 / 100 / 100 >> 8
	}
	return hi, lo
}

// crc32Of computes the same reflected CRC-32 the original crc32b produces
// over the concatenation of every bank in storage order. hash/crc32's
// IEEE polynomial is bit-for-bit the same algorithm as crc32b (both are
// the standard reflected CRC-32), so no custom implementation is needed.
func crc32Of(wb *WaveBank) uint32 {
	h := crc32.NewIEEE()
	write := func(b []int8) {
		buf := make([]byte, len(b))
		for i, v := range b {
			buf[i] = byte(v)
		}
		h.Write(buf)
	}
	for _, t := range wb.Triangle {
		write(t)
	}
	for _, s := range wb.Sawtooth {
		write(s)
	}
	write(wb.Squares)
	write(wb.Noise)
	for _, h2 := range wb.HighPass {
		write(h2)
	}
	for _, l2 := range wb.LowPass {
		write(l2)
	}
	return h.Sum32()
}
