package ahx

// Song is the owned, immutable-once-loaded result of LoadSong. All tables
// are flat slices indexed the same way the original binary format lays
// them out, which keeps the replayer's address arithmetic a straight
// translation of the source instead of a reinterpretation.
type Song struct {
	Revision uint8

	Len                int // song length in positions, 1..1023
	Restart            int // restart position, < Len
	TrackLen           int // rows per track, 1..64
	HighestTrack       int
	NumInstruments     int
	NumSubsongs        int
	SongCIAPeriodIndex int // 0..3, indexes tempoCIAPeriod

	SubsongTable  []uint16        // ordered subsong start positions
	PositionTable []PositionEntry // len(Len*4), one per voice per position
	TrackTable    []byte          // len((HighestTrack+1)*64*3)
	Instruments   []Instrument    // len(NumInstruments), 0-based (track instr field is instr-1)
	Name          string
}

// PositionEntry is one voice's (track, transpose) pair for a position.
type PositionEntry struct {
	Track     uint8
	Transpose int8
}

// Instrument mirrors the AHX instrument header plus its perf-list.
type Instrument struct {
	Name string

	Volume     uint8
	WaveLength uint8 // 0..5

	AFrames, AVolume uint8
	DFrames, DVolume uint8
	SFrames          uint8
	RFrames, RVolume uint8

	// FilterLowerLimit/FilterUpperLimit carry their raw high bit (which
	// folds extra FilterSpeed bits in) exactly as loaded; the replayer's
	// instrument-trigger step is responsible for peeling those bits off,
	// matching the source's ch->filterSpeed |= 32 / |= 64 quirk.
	FilterLowerLimit, FilterUpperLimit uint8
	FilterSpeed                        uint8 // base filter speed (0..31), before the |=32/|=64 quirk bits are folded in

	VibratoDelay uint8
	VibratoDepth uint8 // raw byte: bit7=hard-cut-release, bits6-4=hard-cut, bits3-0=depth
	VibratoSpeed uint8

	SquareLowerLimit, SquareUpperLimit, SquareSpeed uint8

	PerfSpeed  uint8
	PerfLength uint8

	// PerfList is always exactly 256*4 bytes: perfLength*4 real bytes
	// followed by zero padding out to the safety margin AHX's own
	// loader guarantees, so the pListCommandParse "jump to step" quirk
	// (which performs no range check) always lands in defined memory.
	PerfList []byte
}

const perfListCapacityRows = 256
const perfListCapacityBytes = perfListCapacityRows * 4
