package ahx

// voiceTemp is one channel's replayer-side playback state: everything
// that evolves tick-by-tick as ProcessStep/ProcessFrame interpret the
// current track row, perf-list, and instrument envelope. It mirrors
// original_source/replayer.c's plyVoiceTemp_t field-for-field, with two
// deliberate Go-idiomatic departures documented in DESIGN.md: perfList
// is tracked as a row cursor into the instrument's PerfList slice rather
// than a raw pointer, and the perf-list jump command stores param-1 in
// that cursor (255 for param 0), so the row advance that follows the
// command lands on row param.
type voiceTemp struct {
	Track         uint8
	Transpose     int8
	NextTrack     uint8
	NextTranspose int8

	TrackMasterVolume uint8
	NoteMaxVolume     uint8
	perfSubVolume     uint8

	adsr    int16
	aFrames uint8
	aDelta  int16
	dFrames uint8
	dDelta  int16
	sFrames uint8
	rFrames uint8
	rDelta  int16

	TrackPeriod int16 // note number last planted from a track row, 0 = none
	InstrPeriod int16 // note number from the perf-list; used alone when FixedNote, else added to Transpose and TrackPeriod
	FixedNote   bool
	PlantPeriod bool
	audioPeriod int16

	periodSlideSpeed      int16
	periodSlidePeriod     int16
	periodSlideLimit      int16
	periodSlideOn         bool
	periodSlideWithLimit  bool
	periodPerfSlideSpeed  int16
	periodPerfSlidePeriod int16
	periodPerfSlideOn     bool

	vibratoCurrent uint8
	vibratoDelay   uint8
	vibratoDepth   uint8
	vibratoSpeed   uint8
	VibratoPeriod  int16

	HardCut         uint8
	HardCutRelease  bool
	HardCutReleaseF int16

	NoteCutOn   bool
	NoteCutWait int8

	NoteDelayOn   bool
	NoteDelayWait int8

	Waveform   uint8 // 0..3 (triangle/sawtooth/square/noise)
	Wavelength uint8 // 0..5

	IgnoreSquare     bool
	squareOn         bool
	squareInit       bool
	squareWait       int8
	squareSignum     int8
	squareSlidingIn  bool
	squarePos        int16
	squareLowerLimit int16
	squareUpperLimit int16
	PlantSquare      bool
	SquareReverse    bool

	// IgnoreFilter doubles as a bool and, when set, the filterPos value
	// to restore on the next pList filter-init command, matching the
	// source's uint8-as-both-flag-and-value field.
	IgnoreFilter     int16
	filterOn         bool
	filterInit       bool
	filterWait       int8
	filterSignum     int8
	filterSlidingIn  bool
	filterSpeed      uint8
	filterPos        int16
	filterLowerLimit int16
	filterUpperLimit int16

	volumeSlideUp   uint8
	volumeSlideDown uint8

	perfWait    int16
	perfSpeed   uint8
	perfCurrent uint8 // row cursor into Instrument.PerfList, wraps mod 256

	Instrument *Instrument

	NewWaveform bool
	audioVolume uint8

	// audioSource is the (unfiltered-or-filtered) waveform data to copy
	// into audioPointer on the next CopyWaveformToPaulaBuffer call.
	audioSource []int8

	// audioPointer is this channel's fixed-size Paula DMA buffer.
	audioPointer []int8

	// squareTempBuffer holds this frame's computed square/filter-swept
	// waveform when Waveform selects the square oscillator.
	squareTempBuffer [squareEntryBytes]int8
}

// reset reinitializes a voice to its post-Stop/pre-Play state, matching
// InitVoiceXTemp's memset-then-defaults (but preserving the caller-owned
// audioPointer buffer, which InitVoiceXTemp also never touches).
func (ch *voiceTemp) reset() {
	audioPointer := ch.audioPointer
	*ch = voiceTemp{}
	ch.audioPointer = audioPointer

	ch.TrackMasterVolume = 64
	ch.squareSignum = 1
	ch.squareLowerLimit = 1
	ch.squareUpperLimit = 63
}
