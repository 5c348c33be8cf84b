package ahx

import "math"

const (
	paulaNormFactor       = 1.5  // headroom for high-pass filter overshoot
	paulaStereoNormFactor = 0.5  // cumulative mid/side normalization factor, (1/sqrt(2))^2
	paulaMinOutputHz      = 8000 // floor; the real minimum is derived in NewPaulaMixer
	paulaMaxOutputHz      = 384000
)

// paulaVoice is one of Paula's four DMA audio channels, carrying both the
// "hardware register" state the replayer writes (AUD_PER/VOL/LEN/LC) and
// the mixer's own resampling state, matching original_source/paula.c's
// paulaVoice_t.
type paulaVoice struct {
	dmaActive bool

	audLC  []int8 // AUD_LC: DMA source buffer
	audLen uint16 // AUD_LEN: DMA source length, in words

	location      []int8 // current DMA read pointer into audLC
	locationPos   int
	lengthCounter uint16

	audPERdelta float64 // AUD_PER, pre-converted to a per-sample phase delta
	audVOL      float64 // AUD_VOL, pre-scaled by 1/(128*64) so sample*audVOL lies in -1.0..~0.99

	oldPeriod      int32
	dOldVoiceDelta float64

	audDAT        [2]int8
	sampleCounter int

	dPhase  float64
	dDelta  float64
	dSample float64
}

// PaulaMixer emulates an Amiga 1200 Paula's four DMA channels plus
// mid/side stereo separation and dither-free int16 quantization; it
// applies no high-pass or low-pass filtering of its own. It is driven by a replayer tick callback exactly the way the
// real AHX player interleaves SIDInterrupt() calls between audio buffer
// fills. This is a port of original_source/paula.c's single-step
// (sub-sample-delta) mixer, not the 6x-oversampled integer variant found
// in mixer.c; the single-step model is what the format's stated sample
// rates assume.
type PaulaMixer struct {
	voices [amigaVoices]paulaVoice

	masterVol     int
	dMixNormalize float64

	stereoSeparation int
	dSideFactor      float64

	outputHz          int
	dPeriodToDeltaDiv float64

	samplesPerTick64    int64
	tickSampleCounter64 int64

	paused bool

	mixBufL, mixBufR []float64

	emptySample []int8

	// onTick is invoked once per replayer tick, immediately before the
	// samples it affects are mixed, matching SIDInterrupt()'s placement
	// in paulaOutputSamples.
	onTick func()
}

// NewPaulaMixer constructs a mixer for the given output sample rate,
// calling onTick once per emulated CIA tick. outputHz is clamped to the
// range the single-step resampler can represent without deltas >= 1.0.
func NewPaulaMixer(outputHz int, onTick func()) (*PaulaMixer, error) {
	minHz := int(math.Floor(paulaPALClk/113.0)) + 1
	if outputHz < minHz {
		outputHz = minHz
	}
	if outputHz > paulaMaxOutputHz {
		outputHz = paulaMaxOutputHz
	}

	m := &PaulaMixer{
		outputHz:    outputHz,
		onTick:      onTick,
		emptySample: make([]int8, maxSampleWords*2),
	}

	m.SetStereoSeparation(20)
	m.SetMasterVolume(256)

	m.dPeriodToDeltaDiv = paulaPALClk / float64(outputHz)

	maxSamplesToMix := int(math.Ceil(float64(outputHz) / amigaCIAPeriod2Hz(ahxHighestCIAPeriod)))
	m.mixBufL = make([]float64, maxSamplesToMix)
	m.mixBufR = make([]float64, maxSamplesToMix)

	if !m.SetCIAPeriod(ahxDefaultCIAPeriod) {
		return nil, ErrNoWaveBank
	}
	m.tickSampleCounter64 = 0

	for i := range m.voices {
		m.voices[i].oldPeriod = -1
		m.voices[i].dOldVoiceDelta = 0
		m.voices[i].audLC = m.emptySample
		m.voices[i].audLen = 1
	}

	return m, nil
}

// amigaCIAPeriod2Hz converts a CIA timer period to the tick rate it
// produces; the CIA triggers on underflow, hence period+1.
func amigaCIAPeriod2Hz(period uint16) float64 {
	if period == 0 {
		return 0
	}
	return ciaPALClk / float64(period+1)
}

// SetCIAPeriod recomputes the 32.32 fixed-point samples-per-tick count
// for a new replayer tick rate. It reports false (and leaves the mixer
// state unchanged) for a period of 0, which has no defined tick rate.
func (m *PaulaMixer) SetCIAPeriod(period uint16) bool {
	hz := amigaCIAPeriod2Hz(period)
	if hz == 0 {
		return false
	}
	samplesPerTick := float64(m.outputHz) / hz
	m.samplesPerTick64 = int64(samplesPerTick * 4294967296.0)
	return true
}

// SetMasterVolume sets the overall output level, 0..256, matching
// paulaSetMasterVolume's phase-inverted normalization (a real A1200 has
// a phase-inverted analog output stage).
func (m *PaulaMixer) SetMasterVolume(vol int) {
	if vol < 0 {
		vol = 0
	}
	if vol > 256 {
		vol = 256
	}
	m.masterVol = vol
	m.dMixNormalize = (paulaNormFactor * (-32767.0 / float64(amigaVoices))) * (float64(vol) / 256.0)
}

// SetStereoSeparation sets the Amiga-panning-to-mid/side blend,
// 0 (mono) .. 100 (full Amiga hard panning).
func (m *PaulaMixer) SetStereoSeparation(percentage int) {
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}
	m.stereoSeparation = percentage
	m.dSideFactor = (float64(percentage) / 100.0) * paulaStereoNormFactor
}

// SetPeriod loads AUDxPER for channel ch. A period of 0 behaves as the
// maximum 16-bit-plus-one period (confirmed real-Amiga behavior); a
// period below 113 is clamped, as required for single-step deltas to
// stay under 1.0.
func (m *PaulaMixer) SetPeriod(ch int, period uint16) {
	v := &m.voices[ch]

	realPeriod := int32(period)
	if realPeriod == 0 {
		realPeriod = 1 + 65535
	} else if realPeriod < 113 {
		realPeriod = 113
	}

	if realPeriod != v.oldPeriod {
		v.oldPeriod = realPeriod
		v.dOldVoiceDelta = m.dPeriodToDeltaDiv / float64(realPeriod)
	}
	v.audPERdelta = v.dOldVoiceDelta
}

// SetVolume loads AUDxVOL for channel ch, 0..64 (values above 64, per
// Paula's 7-bit register, are masked then clamped).
func (m *PaulaMixer) SetVolume(ch int, vol uint16) {
	v := &m.voices[ch]
	realVol := vol & 127
	if realVol > 64 {
		realVol = 64
	}
	v.audVOL = float64(realVol) * (1.0 / (128.0 * 64.0))
}

// SetLength loads AUDxLEN for channel ch, in words, clamped to AHX's
// fixed Paula buffer size.
func (m *PaulaMixer) SetLength(ch int, length uint16) {
	if length == 0 {
		length = 1
	}
	if length > maxSampleWords {
		length = maxSampleWords
	}
	m.voices[ch].audLen = length
}

// SetData loads AUDxLC for channel ch. A nil src substitutes the shared
// zero-filled empty sample, matching Paula's behavior when no DMA source
// has ever been set.
func (m *PaulaMixer) SetData(ch int, src []int8) {
	if src == nil {
		src = m.emptySample
	}
	m.voices[ch].audLC = src
}

// StopAllDMAs silences every channel immediately, outside the mixer's
// normal tick-driven flow; callers must ensure no Render call overlaps.
func (m *PaulaMixer) StopAllDMAs() {
	for i := range m.voices {
		v := &m.voices[i]
		v.dmaActive = false
		v.audLC = m.emptySample
		v.location = m.emptySample
		v.locationPos = 0
		v.lengthCounter = 1
		v.audLen = 1
	}
}

// StartAllDMAs (re)starts every channel's DMA using its currently loaded
// AUDxPER/VOL/LEN/LC registers, pre-filling the two-sample lookahead
// buffer exactly as real Paula DMA startup does.
func (m *PaulaMixer) StartAllDMAs() {
	for i := range m.voices {
		v := &m.voices[i]

		if v.audLC == nil {
			v.audLC = m.emptySample
		}
		if v.audLen == 0 {
			v.audLen = 1
		}
		if v.audLen > maxSampleWords {
			v.audLen = maxSampleWords
		}

		v.dDelta = v.audPERdelta
		v.location = v.audLC
		v.locationPos = 0
		v.lengthCounter = v.audLen

		v.audDAT[0] = v.readAdvance()
		v.audDAT[1] = v.readAdvance()
		v.sampleCounter = 2

		v.dSample = float64(v.audDAT[0]) * v.audVOL

		v.audDAT[0] = v.audDAT[1]
		v.sampleCounter--

		v.dPhase = 0
		v.dmaActive = true
	}
}

// readAdvance reads the byte at the voice's current DMA pointer and
// advances it by one, matching the source's raw pointer increment.
func (v *paulaVoice) readAdvance() int8 {
	var b int8
	if v.locationPos < len(v.location) {
		b = v.location[v.locationPos]
	}
	v.locationPos++
	return b
}

// TogglePause flips the paused flag; while paused, Render writes silence
// and advances no replayer ticks.
func (m *PaulaMixer) TogglePause() {
	m.paused = !m.paused
}

func (m *PaulaMixer) mixChannels(numSamples int) {
	bufs := [amigaVoices]*[]float64{&m.mixBufL, &m.mixBufR, &m.mixBufR, &m.mixBufL}

	for i := range m.voices {
		v := &m.voices[i]
		if !v.dmaActive {
			continue
		}
		buf := *bufs[i]

		for j := 0; j < numSamples; j++ {
			buf[j] += v.dSample

			v.dPhase += v.dDelta
			if v.dPhase >= 1.0 {
				v.dPhase -= 1.0

				v.dDelta = v.audPERdelta

				if v.sampleCounter == 0 {
					v.lengthCounter--
					if v.lengthCounter == 0 {
						v.lengthCounter = v.audLen
						v.location = v.audLC
						v.locationPos = 0
					}

					v.audDAT[0] = v.readAdvance()
					v.audDAT[1] = v.readAdvance()
					v.sampleCounter = 2
				}

				v.dSample = float64(v.audDAT[0]) * v.audVOL

				v.audDAT[0] = v.audDAT[1]
				v.sampleCounter--
			}
		}
	}
}

func clamp16(x int32) int16 {
	if x > 32767 {
		return 32767
	}
	if x < -32768 {
		return -32768
	}
	return int16(x)
}

// mixSamples mixes numSamples frames into target (interleaved L,R int16
// pairs), applying the mid/side stereo-separation matrix unless
// separation is 100 (plain Amiga hard panning).
func (m *PaulaMixer) mixSamples(target []int16, numSamples int) {
	m.mixChannels(numSamples)

	for i := 0; i < numSamples; i++ {
		l := m.mixBufL[i]
		r := m.mixBufR[i]
		m.mixBufL[i] = 0
		m.mixBufR[i] = 0

		dl := l * m.dMixNormalize
		dr := r * m.dMixNormalize

		if m.stereoSeparation != 100 {
			mid := (dl + dr) * paulaStereoNormFactor
			side := (dl - dr) * m.dSideFactor
			dl = mid + side
			dr = mid - side
		}

		target[i*2+0] = clamp16(int32(dl))
		target[i*2+1] = clamp16(int32(dr))
	}
}

// Render fills stream (interleaved L,R int16 pairs) with numFrames of
// audio, invoking onTick once per replayer tick as it goes, and returns
// the number of frames written (always len(stream)/2). When paused, the
// buffer is zeroed and no ticks fire, matching paulaOutputSamples.
func (m *PaulaMixer) Render(stream []int16) int {
	numFrames := len(stream) / 2
	if m.paused {
		for i := range stream {
			stream[i] = 0
		}
		return numFrames
	}

	framesLeft := numFrames
	pos := 0
	for framesLeft > 0 {
		if m.tickSampleCounter64 <= 0 {
			if m.onTick != nil {
				m.onTick()
			}
			m.tickSampleCounter64 += m.samplesPerTick64
		}

		remainingTick := int((m.tickSampleCounter64 + 0xFFFFFFFF) >> 32)

		toMix := framesLeft
		if toMix > remainingTick {
			toMix = remainingTick
		}
		if toMix > len(m.mixBufL) {
			toMix = len(m.mixBufL)
		}
		if toMix <= 0 {
			toMix = 1
		}

		m.mixSamples(stream[pos*2:], toMix)
		pos += toMix
		framesLeft -= toMix
		m.tickSampleCounter64 -= int64(toMix) << 32
	}

	return numFrames
}
