package ahx

// Replayer is the AHX tracker state machine: it owns the four per-voice
// VoiceTemp states, the position/step/frame cursors, and the small RNG
// used for the noise waveform, and drives a PaulaMixer's register
// setters once per CIA tick. This is a direct, struct-of-owned-state
// port of original_source/replayer.c's global `ahx` (replayer_t) plus
// its four plyVoiceTemp_t instances, with the singleton state turned
// into an explicit, independently constructible object per SPEC_FULL.md.
type Replayer struct {
	wb   *WaveBank
	song *Song
	mix  *PaulaMixer

	voices [amigaVoices]voiceTemp

	subsong        int
	posNr          int
	noteNr         int
	posJump        int
	posJumpNote    int
	patternBreak   bool
	stepWaitFrames uint8
	tempo          uint8
	getNewPosition bool
	playing        bool

	wnRandom uint32

	loopCounter int
	loopTimes   int
	bpm         float64

	mute [amigaVoices]bool

	// onSyncCommand is invoked with the param byte of a track row's
	// "8xx" external-timing/sync command. AHX itself treats this as a
	// no-op; hosts that want sync hooks (e.g. games triggering events)
	// can observe it here instead of the core guessing semantics.
	onSyncCommand func(param uint8)
}

// NewReplayer builds a Replayer over a shared WaveBank, a borrowed Song,
// and the PaulaMixer it will drive. The mixer's tick callback should be
// wired to the returned Replayer's Tick method.
func NewReplayer(wb *WaveBank, song *Song, mix *PaulaMixer) *Replayer {
	r := &Replayer{wb: wb, song: song, mix: mix}
	for i := range r.voices {
		r.voices[i].audioPointer = make([]int8, sampleWindow)
	}
	return r
}

// SetSyncCommandHandler installs an optional observer for track "8xx"
// rows; pass nil to disable.
func (r *Replayer) SetSyncCommandHandler(fn func(param uint8)) {
	r.onSyncCommand = fn
}

// SetMute toggles channel ch's mute state; a muted channel's volume
// register is forced to 0 at register-commit time but the replayer
// state machine keeps ticking it normally.
func (r *Replayer) SetMute(ch int, muted bool) {
	r.mute[ch] = muted
}

// Play resets all replayer state and starts playback at the given
// subsong (1-based; 0 or negative plays the default/main song),
// matching ahxPlay.
func (r *Replayer) Play(subsong int) error {
	if r.song == nil {
		return ErrSongNotLoaded
	}
	if r.wb == nil {
		return ErrNoWaveBank
	}

	r.subsong = 0
	r.posNr = 0
	if subsong > 0 && len(r.song.SubsongTable) > 0 {
		idx := subsong - 1
		if idx >= len(r.song.SubsongTable) {
			idx = len(r.song.SubsongTable) - 1
		}
		r.subsong = idx + 1
		r.posNr = int(r.song.SubsongTable[idx])
	}

	r.stepWaitFrames = 0
	r.getNewPosition = true
	r.noteNr = 0

	for i := range r.voices {
		r.mix.SetVolume(i, 0)
	}
	for i := range r.voices {
		r.voices[i].reset()
	}

	r.setUpAudioChannels()
	r.mix.SetCIAPeriod(tempoCIAPeriod[r.song.SongCIAPeriodIndex])

	r.posJump = 0
	r.posJumpNote = 0
	r.patternBreak = false
	r.tempo = 6
	r.playing = true

	r.loopCounter = 0
	r.loopTimes = 0

	r.bpm = amigaCIAPeriod2Hz(tempoCIAPeriod[r.song.SongCIAPeriodIndex]) * 2.5

	r.wnRandom = 0

	return nil
}

// Stop halts playback and re-initializes every voice's replayer state,
// matching ahxStop. Per SPEC_FULL.md's resolved Open Question, every
// stop fully reinitializes the voice-temps rather than preserving any
// part of them.
func (r *Replayer) Stop() {
	r.playing = false
	for i := range r.voices {
		r.mix.SetVolume(i, 0)
	}
	for i := range r.voices {
		r.voices[i].reset()
	}
}

// setUpAudioChannels wires each voice's Paula registers to its fixed
// playback buffer and starts all four DMA channels, matching
// SetUpAudioChannels.
func (r *Replayer) setUpAudioChannels() {
	r.mix.StopAllDMAs()
	for i := range r.voices {
		r.mix.SetPeriod(i, 0x88)
		r.mix.SetData(i, r.voices[i].audioPointer)
		r.mix.SetVolume(i, 0)
		r.mix.SetLength(i, sampleWindow/2)
	}
	r.mix.StartAllDMAs()
}

// NextPattern schedules a jump to the next position, matching
// ahxNextPattern. It also resets the mixer's tick counter so a tick runs
// on the very next rendered sample; the position itself changes when the
// current row ends.
func (r *Replayer) NextPattern() {
	if r.posNr+1 < r.song.Len {
		r.posJump = r.posNr + 1
		r.patternBreak = true
		r.mix.tickSampleCounter64 = 0
	}
}

// PrevPattern schedules a jump to the previous position the same way,
// matching ahxPrevPattern.
func (r *Replayer) PrevPattern() {
	if r.posNr > 0 {
		r.posJump = r.posNr - 1
		r.patternBreak = true
		r.mix.tickSampleCounter64 = 0
	}
}

// BPM returns the current song's derived beats-per-minute figure.
func (r *Replayer) BPM() float64 { return r.bpm }

// NoteDataFor decodes the track row every voice plays at song position
// pos, row row. It reads only the loaded Song's tables, matching the
// unpacking processStep does for the live voice, but never touches
// playback state, so it is safe to call from a UI goroutine concurrently
// with Tick.
func (r *Replayer) NoteDataFor(pos, row int) []ChannelNoteData {
	if pos < 0 || pos >= r.song.Len || row < 0 || row >= r.song.TrackLen {
		return nil
	}

	notes := make([]ChannelNoteData, amigaVoices)
	for v := 0; v < amigaVoices; v++ {
		entry := r.song.PositionTable[pos*amigaVoices+v]
		if int(entry.Track) > r.song.HighestTrack {
			continue
		}

		off := (int(entry.Track)*64 + row) * 3
		b0, b1, b2 := r.song.TrackTable[off], r.song.TrackTable[off+1], r.song.TrackTable[off+2]
		notes[v] = ChannelNoteData{
			Note:       (b0 >> 2) & 0x3F,
			Instrument: ((b0 & 3) << 4) | (b1 >> 4),
			Effect:     b1 & 0xF,
			Param:      b2,
		}
	}
	return notes
}

// copyWaveformToPaulaBuffer fills a voice's fixed 0x280-byte Paula
// buffer from its currently selected source, tiling non-noise waveforms
// to fill the buffer exactly as CopyWaveformToPaulaBuffer does.
func copyWaveformToPaulaBuffer(ch *voiceTemp) {
	if ch.Waveform == 3 { // noise: one direct copy
		n := copy(ch.audioPointer, ch.audioSource)
		for ; n < len(ch.audioPointer); n++ {
			ch.audioPointer[n] = 0
		}
		return
	}

	waveLoops := (1 << (5 - ch.Wavelength)) * 5
	copyLength := (1 << ch.Wavelength) * 4
	for i := 0; i < waveLoops; i++ {
		dst := ch.audioPointer[i*copyLength:]
		n := copy(dst, ch.audioSource[:copyLength])
		for ; n < copyLength && i*copyLength+n < len(ch.audioPointer); n++ {
			dst[n] = 0
		}
	}
}

// setAudio commits one voice's pending register writes to the mixer:
// period (if PlantPeriod), waveform buffer (if NewWaveform), and volume
// unconditionally, matching SetAudio. A muted channel's committed
// volume is forced to 0.
func (r *Replayer) setAudio(chNum int, ch *voiceTemp) {
	if ch.PlantPeriod {
		r.mix.SetPeriod(chNum, uint16(ch.audioPeriod))
		ch.PlantPeriod = false
	}
	if ch.NewWaveform {
		copyWaveformToPaulaBuffer(ch)
		ch.NewWaveform = false
	}
	vol := uint16(ch.audioVolume)
	if r.mute[chNum] {
		vol = 0
	}
	r.mix.SetVolume(chNum, vol)
}

// Tick runs one full replayer tick: register commit, conditional step,
// and frame processing, in that order, matching SIDInterrupt. It is
// meant to be passed as a PaulaMixer's onTick callback.
func (r *Replayer) Tick() {
	if !r.playing {
		return
	}

	for i := range r.voices {
		r.setAudio(i, &r.voices[i])
	}

	if r.stepWaitFrames == 0 {
		if r.getNewPosition {
			posNext := r.posNr + 1
			if posNext == r.song.Len {
				posNext = 0
			}
			for i := range r.voices {
				cur := r.song.PositionTable[r.posNr*4+i]
				next := r.song.PositionTable[posNext*4+i]
				ch := &r.voices[i]
				ch.Track = cur.Track
				ch.Transpose = cur.Transpose
				ch.NextTrack = next.Track
				ch.NextTranspose = next.Transpose
			}
			r.getNewPosition = false
		}

		for i := range r.voices {
			r.processStep(&r.voices[i])
		}
		r.stepWaitFrames = r.tempo
	}

	for i := range r.voices {
		r.processFrame(&r.voices[i])
	}

	r.stepWaitFrames--
	if r.stepWaitFrames == 0 {
		if !r.patternBreak {
			r.noteNr++
			if r.noteNr == r.song.TrackLen {
				r.posJump = r.posNr + 1
				r.patternBreak = true
			}
		}

		if r.patternBreak {
			r.patternBreak = false

			r.noteNr = r.posJumpNote
			r.posJumpNote = 0

			r.posNr = r.posJump
			r.posJump = 0

			if r.posNr == r.song.Len {
				r.posNr = r.song.Restart
				r.bumpLoopCounter()
			}
			if r.posNr >= r.song.Len {
				r.posNr = 0
				r.bumpLoopCounter()
			}

			r.getNewPosition = true
		}
	}
}

func (r *Replayer) bumpLoopCounter() {
	r.loopCounter++
}

// processStep reads the current track row for one voice and applies
// every effect that fires at step granularity (once every tempo ticks),
// matching ProcessStep.
func (r *Replayer) processStep(ch *voiceTemp) {
	ch.volumeSlideUp = 0
	ch.volumeSlideDown = 0

	var note, instr, cmd, param uint8
	if int(ch.Track) > r.song.HighestTrack {
		note, instr, cmd, param = 0, 0, 0, 0
	} else {
		off := (int(ch.Track)*64 + r.noteNr) * 3
		b0, b1, b2 := r.song.TrackTable[off], r.song.TrackTable[off+1], r.song.TrackTable[off+2]
		note = (b0 >> 2) & 0x3F
		instr = ((b0 & 3) << 4) | (b1 >> 4)
		cmd = b1 & 0xF
		param = b2
	}

	if cmd == 0xE {
		eCmd := param >> 4
		eParam := param & 0xF

		if eCmd == 0xC {
			if eParam < r.tempo {
				ch.NoteCutWait = int8(eParam)
				ch.NoteCutOn = true
				ch.HardCutRelease = false
			}
		}
		if eCmd == 0xD {
			if ch.NoteDelayOn {
				ch.NoteDelayOn = false
			} else if eParam < r.tempo {
				ch.NoteDelayWait = int8(eParam)
				if ch.NoteDelayWait != 0 {
					ch.NoteDelayOn = true
					return
				}
			}
		}
	}

	if cmd == 0x0 {
		if param != 0 {
			pos := param & 0xF
			if pos <= 9 {
				r.posJump = int(param&0xF) << 8
			}
		}
	}

	if cmd == 0x8 {
		if r.onSyncCommand != nil {
			r.onSyncCommand(param)
		}
	}

	if cmd == 0xD {
		r.posJump = r.posNr + 1
		r.posJumpNote = int(param>>4)*10 + int(param&0xF)
		if r.posJumpNote >= r.song.TrackLen {
			r.posJumpNote = 0
		}
		r.patternBreak = true
	}

	if cmd == 0xB {
		r.posJump = r.posJump*100 + int(param>>4)*10 + int(param&0xF)
		r.patternBreak = true
	}

	if cmd == 0xF {
		r.tempo = param
	}

	if cmd == 0x5 || cmd == 0xA {
		ch.volumeSlideDown = param & 0xF
		ch.volumeSlideUp = param >> 4
	}

	if instr > 0 {
		ch.perfSubVolume = 64

		ch.periodPerfSlideSpeed = 0
		ch.periodSlidePeriod = 0
		ch.periodSlideLimit = 0

		ins := &emptyInstrument
		if int(instr)-1 < len(r.song.Instruments) {
			ins = &r.song.Instruments[instr-1]
		}

		ch.adsr = 0

		ch.aFrames = ins.AFrames
		delta := int16(ins.AVolume) << 8
		if ch.aFrames != 0 {
			delta /= int16(ch.aFrames)
		}
		ch.aDelta = delta

		ch.dFrames = ins.DFrames
		delta = (int16(ins.DVolume) - int16(ins.AVolume)) << 8
		if ch.dFrames != 0 {
			delta /= int16(ch.dFrames)
		}
		ch.dDelta = delta

		ch.sFrames = ins.SFrames

		ch.rFrames = ins.RFrames
		delta = (int16(ins.RVolume) - int16(ins.DVolume)) << 8
		if ch.rFrames != 0 {
			delta /= int16(ch.rFrames)
		}
		ch.rDelta = delta

		ch.Wavelength = ins.WaveLength & 0x07
		if ch.Wavelength > 5 {
			ch.Wavelength = 5
		}

		ch.NoteMaxVolume = ins.Volume

		ch.vibratoCurrent = 0
		ch.vibratoDelay = ins.VibratoDelay
		ch.vibratoDepth = ins.VibratoDepth & 0x0F
		ch.vibratoSpeed = ins.VibratoSpeed
		ch.VibratoPeriod = 0
		ch.HardCutRelease = ins.VibratoDepth&128 != 0
		ch.HardCut = (ins.VibratoDepth & 0x70) >> 4

		ch.IgnoreSquare = false
		ch.squareSlidingIn = false
		ch.squareWait = 0
		ch.squareOn = false

		shift := uint(5 - ch.Wavelength)
		lowerLimit := int16(ins.SquareLowerLimit >> shift)
		upperLimit := int16(ins.SquareUpperLimit >> shift)
		if lowerLimit <= upperLimit {
			ch.squareLowerLimit = lowerLimit
			ch.squareUpperLimit = upperLimit
		} else {
			ch.squareLowerLimit = upperLimit
			ch.squareUpperLimit = lowerLimit
		}

		ch.IgnoreFilter = 0
		ch.filterWait = 0
		ch.filterOn = false
		ch.filterSlidingIn = false

		ch.filterSpeed = ins.FilterSpeed

		fLower := ins.FilterLowerLimit
		fUpper := ins.FilterUpperLimit
		if fLower&128 != 0 {
			ch.filterSpeed |= 32
		}
		if fUpper&128 != 0 {
			ch.filterSpeed |= 64
		}
		fLower &^= 128
		fUpper &^= 128

		fl, fu := int16(fLower), int16(fUpper)
		if fl <= fu {
			ch.filterLowerLimit = fl
			ch.filterUpperLimit = fu
		} else {
			ch.filterLowerLimit = fu
			ch.filterUpperLimit = fl
		}

		ch.filterPos = 32
		ch.perfWait = 0
		ch.perfSpeed = ins.PerfSpeed
		ch.perfCurrent = 0

		ch.Instrument = ins
	}

	if cmd == 0x9 {
		ch.squarePos = int16(param >> (5 - ch.Wavelength))
		ch.PlantSquare = true
		ch.IgnoreSquare = true
	}

	if cmd == 0x4 {
		if param < 0x40 {
			ch.IgnoreFilter = int16(param)
		} else {
			ch.filterPos = int16(param) - 0x40
		}
	}

	ch.periodSlideOn = false

	if cmd == 0x3 || cmd == 0x5 {
		if cmd == 0x3 && param != 0 {
			ch.periodSlideSpeed = int16(param)
		}

		doSlide := true
		if note != 0 {
			periodLimit := periodTable[ch.TrackPeriod] - periodTable[note]
			test := periodLimit + ch.periodSlidePeriod
			if test == 0 {
				doSlide = false
			} else {
				ch.periodSlideLimit = -periodLimit
			}
		}

		if doSlide {
			ch.periodSlideOn = true
			ch.periodSlideWithLimit = true
			note = 0
		}
	}

	if note != 0 {
		ch.TrackPeriod = int16(note)
		ch.PlantPeriod = true
	}

	if cmd == 0x1 {
		ch.periodSlideSpeed = -int16(param)
		ch.periodSlideOn = true
		ch.periodSlideWithLimit = false
	}

	if cmd == 0x2 {
		ch.periodSlideSpeed = int16(param)
		ch.periodSlideOn = true
		ch.periodSlideWithLimit = false
	}

	if cmd == 0xE {
		eCmd := param >> 4
		eParam := param & 0xF

		if eCmd == 0x1 {
			ch.periodSlidePeriod += -int16(eParam)
			ch.PlantPeriod = true
		}
		if eCmd == 0x2 {
			ch.periodSlidePeriod += int16(eParam)
			ch.PlantPeriod = true
		}
		if eCmd == 0x4 {
			ch.vibratoDepth = eParam
		}
		if eCmd == 0xA {
			ch.NoteMaxVolume += eParam
			if ch.NoteMaxVolume > 0x40 {
				ch.NoteMaxVolume = 0x40
			}
		}
		if eCmd == 0xB {
			ch.NoteMaxVolume -= eParam
			if int8(ch.NoteMaxVolume) < 0 {
				ch.NoteMaxVolume = 0
			}
		}
	}

	if cmd == 0xC {
		p := int16(param)
		if p <= 0x40 {
			ch.NoteMaxVolume = uint8(p)
		} else {
			p -= 0x50
			if p >= 0 {
				if p <= 0x40 {
					for i := range r.voices {
						r.voices[i].TrackMasterVolume = uint8(p)
					}
				} else {
					p -= 0xA0 - 0x50
					if p >= 0 && p <= 0x40 {
						ch.TrackMasterVolume = uint8(p)
					}
				}
			}
		}
	}
}

// pListCommandParse interprets one perf-list command/param pair,
// matching pListCommandParse.
func (r *Replayer) pListCommandParse(ch *voiceTemp, cmd, param uint8) {
	switch cmd {
	case 0x0:
		if param == 0 {
			return
		}
		if ch.IgnoreFilter != 0 {
			ch.filterPos = ch.IgnoreFilter
			ch.IgnoreFilter = 0
		} else {
			ch.filterPos = int16(param)
			ch.NewWaveform = true
		}

	case 0x1:
		ch.periodPerfSlideSpeed = int16(param)
		ch.periodPerfSlideOn = true

	case 0x2:
		ch.periodPerfSlideSpeed = -int16(param)
		ch.periodPerfSlideOn = true

	case 0x3:
		if ch.IgnoreSquare {
			ch.IgnoreSquare = false
		} else {
			ch.squarePos = int16(param >> (5 - ch.Wavelength))
		}

	case 0x4:
		if param == 0 {
			ch.squareOn = !ch.squareOn
			ch.squareInit = ch.squareOn
			ch.squareSignum = 1
		} else {
			if param&0x0F != 0 {
				ch.squareOn = !ch.squareOn
				ch.squareInit = ch.squareOn
				ch.squareSignum = 1
				if param&0x0F == 0x0F {
					ch.squareSignum = -ch.squareSignum
				}
			}
			if param&0xF0 != 0 {
				ch.filterOn = !ch.filterOn
				ch.filterInit = ch.filterOn
				ch.filterSignum = 1
				if param&0xF0 == 0xF0 {
					ch.filterSignum = -ch.filterSignum
				}
			}
		}

	case 0x5:
		ch.perfCurrent = uint8(int(param) - 1)

	case 0x6:
		p := int16(param)
		if p <= 0x40 {
			ch.NoteMaxVolume = uint8(p)
		} else {
			p -= 0x50
			if p >= 0 {
				if p <= 0x40 {
					ch.perfSubVolume = uint8(p)
				} else {
					p -= 0xA0 - 0x50
					if p >= 0 && p <= 0x40 {
						ch.TrackMasterVolume = uint8(p)
					}
				}
			}
		}

	case 0x7:
		ch.perfSpeed = param
		ch.perfWait = int16(param)
	}
}

// processFrame runs every per-tick (not just per-step) update for one
// voice: hard-cut/note-cut/note-delay, ADSR, volume slide, portamento,
// vibrato, perf-list advance, square/filter modulation, waveform source
// selection, and final period/volume derivation. Matches ProcessFrame.
func (r *Replayer) processFrame(ch *voiceTemp) {
	if ch.HardCut != 0 {
		track := ch.Track

		noteNr := r.noteNr + 1
		if noteNr == r.song.TrackLen {
			noteNr = 0
			track = ch.NextTrack
		}

		off := (int(track)*64 + noteNr) * 3
		nextInstr := ((r.song.TrackTable[off] & 3) << 4) | (r.song.TrackTable[off+1] >> 4)
		if nextInstr != 0 {
			rng := int16(r.tempo) - int16(ch.HardCut)
			if rng < 0 {
				rng = 0
			}

			if !ch.NoteCutOn {
				ch.NoteCutOn = true
				ch.NoteCutWait = int8(rng)
				ch.HardCutReleaseF = -(int16(ch.NoteCutWait) - int16(r.tempo))
			}
			ch.HardCut = 0
		}
	}

	if ch.NoteCutOn {
		if ch.NoteCutWait == 0 {
			ch.NoteCutOn = false
			if ch.HardCutRelease {
				ins := ch.Instrument
				if ins == nil {
					ins = &emptyInstrument
				}
				hc := ch.HardCutReleaseF
				if hc == 0 {
					hc = 1
				}
				ch.rFrames = uint8(hc)
				ch.rDelta = -((ch.adsr - int16(ins.RVolume)<<8) / hc)
				ch.aFrames = 0
				ch.dFrames = 0
				ch.sFrames = 0
			} else {
				ch.NoteMaxVolume = 0
			}
		}
		ch.NoteCutWait--
	}

	if ch.NoteDelayOn {
		if ch.NoteDelayWait == 0 {
			r.processStep(ch)
		} else {
			ch.NoteDelayWait--
		}
	}

	ins := ch.Instrument
	if ins == nil {
		ins = &emptyInstrument
	}

	switch {
	case ch.aFrames != 0:
		ch.adsr += ch.aDelta
		ch.aFrames--
		if ch.aFrames == 0 {
			ch.adsr = int16(ins.AVolume) << 8
		}
	case ch.dFrames != 0:
		ch.adsr += ch.dDelta
		ch.dFrames--
		if ch.dFrames == 0 {
			ch.adsr = int16(ins.DVolume) << 8
		}
	case ch.sFrames != 0:
		ch.sFrames--
	case ch.rFrames != 0:
		ch.adsr += ch.rDelta
		ch.rFrames--
		if ch.rFrames == 0 {
			ch.adsr = int16(ins.RVolume) << 8
		}
	}

	ch.NoteMaxVolume -= ch.volumeSlideDown
	ch.NoteMaxVolume += ch.volumeSlideUp
	if v := int8(ch.NoteMaxVolume); v < 0 {
		ch.NoteMaxVolume = 0
	} else if v > 0x40 {
		ch.NoteMaxVolume = 0x40
	}

	if ch.periodSlideOn {
		if ch.periodSlideWithLimit {
			speed := ch.periodSlideSpeed

			period := ch.periodSlidePeriod - ch.periodSlideLimit
			if period != 0 {
				if period > 0 {
					speed = -speed
				}

				limitTest := (period + speed) ^ period
				if limitTest >= 0 {
					ch.periodSlidePeriod += speed
				} else {
					ch.periodSlidePeriod = ch.periodSlideLimit
				}
				ch.PlantPeriod = true
			}
		} else {
			ch.periodSlidePeriod += ch.periodSlideSpeed
			ch.PlantPeriod = true
		}
	}

	if ch.vibratoDepth != 0 {
		if ch.vibratoDelay != 0 {
			ch.vibratoDelay--
		} else {
			ch.VibratoPeriod = (vibTable[ch.vibratoCurrent] * int16(ch.vibratoDepth)) >> 7
			ch.PlantPeriod = true
			ch.vibratoCurrent = (ch.vibratoCurrent + ch.vibratoSpeed) & 63
		}
	}

	if ch.Instrument != nil {
		if int(ch.perfCurrent) == int(ins.PerfLength) {
			if ch.perfWait != 0 {
				ch.perfWait--
			} else {
				ch.periodPerfSlideSpeed = 0
			}
		} else {
			signedOverflow := ch.perfWait == 128

			ch.perfWait--
			if signedOverflow || int8(ch.perfWait) <= 0 {
				off := int(ch.perfCurrent) * 4
				bytes := ins.PerfList[off : off+4]

				cmd2 := (bytes[0] >> 5) & 7
				cmd1 := (bytes[0] >> 2) & 7
				wave := ((bytes[0] << 1) & 6) | (bytes[1] >> 7)
				fixed := bytes[1]&0x40 != 0
				note := bytes[1] & 0x3F
				param1 := bytes[2]
				param2 := bytes[3]

				if wave != 0 {
					if wave > 4 {
						wave = 0
					}
					ch.Waveform = wave - 1
					ch.NewWaveform = true
					ch.periodPerfSlideSpeed = 0
					ch.periodPerfSlidePeriod = 0
				}

				ch.periodPerfSlideOn = false

				r.pListCommandParse(ch, cmd1, param1)
				r.pListCommandParse(ch, cmd2, param2)

				if note != 0 {
					ch.InstrPeriod = int16(note)
					ch.PlantPeriod = true
					ch.FixedNote = fixed
				}

				ch.perfCurrent++
				ch.perfWait = int16(ch.perfSpeed)
			}
		}
	}

	if ch.periodPerfSlideOn {
		ch.periodPerfSlidePeriod -= ch.periodPerfSlideSpeed
		if ch.periodPerfSlidePeriod != 0 {
			ch.PlantPeriod = true
		}
	}

	if ch.Waveform == 2 && ch.squareOn {
		ch.squareWait--
		if int8(ch.squareWait) <= 0 {
			if ch.squareInit {
				ch.squareInit = false

				if int8(ch.squarePos) <= int8(ch.squareLowerLimit) {
					ch.squareSlidingIn = true
					ch.squareSignum = 1
				} else if int8(ch.squarePos) >= int8(ch.squareUpperLimit) {
					ch.squareSlidingIn = true
					ch.squareSignum = -1
				}
			}

			if ch.squarePos == ch.squareLowerLimit || ch.squarePos == ch.squareUpperLimit {
				if ch.squareSlidingIn {
					ch.squareSlidingIn = false
				} else {
					ch.squareSignum = -ch.squareSignum
				}
			}

			ch.squarePos += int16(ch.squareSignum)
			ch.PlantSquare = true
			ch.squareWait = int8(ins.SquareSpeed)
		}
	}

	if ch.filterOn {
		ch.filterWait--
		if int8(ch.filterWait) <= 0 {
			if ch.filterInit {
				ch.filterInit = false

				if int8(ch.filterPos) <= int8(ch.filterLowerLimit) {
					ch.filterSlidingIn = true
					ch.filterSignum = 1
				} else if int8(ch.filterPos) >= int8(ch.filterUpperLimit) {
					ch.filterSlidingIn = true
					ch.filterSignum = -1
				}
			}

			cycles := int16(1)
			if ch.filterSpeed < 4 {
				cycles = 5 - int16(ch.filterSpeed)
			}

			for i := int16(0); i < cycles; i++ {
				if ch.filterPos == ch.filterLowerLimit || ch.filterPos == ch.filterUpperLimit {
					if ch.filterSlidingIn {
						ch.filterSlidingIn = false
					} else {
						ch.filterSignum = -ch.filterSignum
					}
				}
				ch.filterPos += int16(ch.filterSignum)
			}

			ch.NewWaveform = true

			ch.filterWait = int8(ch.filterSpeed) - 3
			if ch.filterWait < 1 {
				ch.filterWait = 1
			}
		}
	}

	if ch.Waveform == 2 || ch.PlantSquare {
		var src []int8
		if ch.filterPos == 0 || ch.filterPos > 63 {
			src = make([]int8, squareEntryBytes*squareDutyCycles)
		} else {
			src = r.wb.FilterSlice(int(ch.filterPos))[rawSquaresOffset:]
		}

		whichSquare := uint8(ch.squarePos) << (5 - ch.Wavelength)
		if int8(whichSquare) > 0x20 {
			whichSquare = 0x40 - whichSquare
			ch.SquareReverse = true
		}
		whichSquare--
		if int8(whichSquare) < 0 {
			whichSquare = 0
		}
		src = src[int(whichSquare)<<7:]

		delta := (1 << 5) >> ch.Wavelength
		cycles := (1 << ch.Wavelength) << 2

		for i := 0; i < cycles; i++ {
			ch.squareTempBuffer[i] = src[i*delta]
		}

		ch.NewWaveform = true
		ch.PlantSquare = false
	}

	if ch.Waveform == 3 {
		ch.NewWaveform = true
	}

	if ch.NewWaveform {
		if ch.Waveform == 2 { // square: already filtered into squareTempBuffer
			ch.audioSource = ch.squareTempBuffer[:]
		} else {
			var base []int8
			if ch.filterPos == 0 || ch.filterPos > 63 {
				base = make([]int8, rawTotalLength)
			} else {
				base = r.wb.FilterSlice(int(ch.filterPos))
			}

			switch ch.Waveform {
			case 0, 1: // triangle, sawtooth
				catOffset := rawTriangleOffset
				if ch.Waveform == 1 {
					catOffset = rawSawtoothOffset
				}
				ch.audioSource = base[catOffset+waveOffsets[ch.Wavelength]:]

			case 3: // noise
				seed := r.wnRandom
				offset := rawNoiseOffset + int(seed&uint32(wavebankNoiseSize-sampleWindow-1))
				ch.audioSource = base[offset : offset+sampleWindow]

				seed += 2239384
				seed = ror32(seed, 8)
				seed += 782323
				seed ^= 0b1001011
				seed -= 6735
				r.wnRandom = seed
			}
		}
	}

	note := ch.InstrPeriod
	if !ch.FixedNote {
		note += int16(ch.Transpose)
		note += ch.TrackPeriod - 1
	}
	if note > 5*12 {
		note = 5 * 12
	}

	var period int16
	if note < 0 {
		if note < -129 {
			note = -129
		}
		period = int16(beforePeriodTable68020[note+129])
	} else {
		period = periodTable[note]
	}

	if !ch.FixedNote {
		period += ch.periodSlidePeriod
	}
	period += ch.periodPerfSlidePeriod
	period += ch.VibratoPeriod

	if period < 113 {
		period = 113
	} else if period > 3424 {
		period = 3424
	}
	ch.audioPeriod = period

	finalVol := uint16(ch.adsr) >> 8
	finalVol = (finalVol * uint16(ch.NoteMaxVolume)) >> 6
	finalVol = (finalVol * uint16(ch.perfSubVolume)) >> 6
	ch.audioVolume = uint8((finalVol * uint16(ch.TrackMasterVolume)) >> 6)
}
