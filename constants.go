package ahx

// Tuning constants, lifted verbatim from AHX 2.3d-sp3's replayer/mixer
// (original_source/replayer.c, mixer.c, mixer.h).
const (
	amigaPALXtalHz = 28375160
	amigaPALCCKHz  = amigaPALXtalHz / 8.0
	paulaPALClk    = amigaPALCCKHz
	ciaPALClk      = amigaPALCCKHz / 5.0

	ahxDefaultCIAPeriod = 14209
	ahxHighestCIAPeriod = 3552

	amigaVoices = 4

	// maxSampleWords is Paula's fixed sample-buffer size in the AHX
	// player, in words (0x280 bytes / 2).
	maxSampleWords = 0x140

	// wavebankNoiseSize is the white-noise entry's length, both inside
	// the pre-filtered WaveBank struct and as the runtime seed-windowing
	// buffer the replayer reads from for the noise waveform (the same
	// buffer serves both roles, matching the source's NOIZE_SIZE
	// constant). It is sized precisely so the bank's total (raw + 31
	// high-pass + 31 low-pass copies of triangle + sawtooth + square +
	// noise) comes out to exactly 410760 bytes.
	wavebankNoiseSize = 1920

	sampleWindow = 0x280
)

// tempoCIAPeriod maps the 2-bit header "tempo index" (songCIAPeriodIndex)
// to the Amiga PAL CIA period driving the replayer tick rate.
var tempoCIAPeriod = [4]uint16{14209, 7104, 4736, 3552}

// waveOffsets is the byte offset of each wavelength's data within a
// single filter-step's triangle/sawtooth bank entry.
var waveOffsets = [6]int{0x00, 0x04, 0x0C, 0x1C, 0x3C, 0x7C}

// lengthTable lists every waveform-length entry the filter generator
// iterates over, in storage order: 6 triangle lengths, 6 sawtooth
// lengths, 32 square duty cycles (all 0x80 bytes), then the noise entry.
var lengthTable = func() [6 + 6 + 32 + 1]int {
	var t [6 + 6 + 32 + 1]int
	for i := 0; i < 6; i++ {
		t[i] = 4 << i
		t[6+i] = 4 << i
	}
	for i := 0; i < 32; i++ {
		t[12+i] = 0x80
	}
	t[12+32] = wavebankNoiseSize
	return t
}()

// Byte offsets of each waveform category within the concatenated raw (or
// any single filter-step) table: triangle, sawtooth, square, noise.
const (
	rawTriangleOffset = 0
	rawSawtoothOffset = 4 + 8 + 16 + 32 + 64 + 128                  // 252
	rawSquaresOffset  = rawSawtoothOffset + (4 + 8 + 16 + 32 + 64 + 128) // 504
	rawNoiseOffset    = rawSquaresOffset + squareDutyCycles*squareEntryBytes // 4600
	rawTotalLength    = rawNoiseOffset + wavebankNoiseSize          // 6520
)

// periodTable maps a clamped note index (0..60) to an Amiga hardware
// period. Index 0 is a sentinel "no note" entry.
var periodTable = [1 + 60]int16{
	0,
	3424, 3232, 3048, 2880, 2712, 2560, 2416, 2280, 2152, 2032, 1920, 1812,
	1712, 1616, 1524, 1440, 1356, 1280, 1208, 1140, 1076, 1016, 960, 906,
	856, 808, 762, 720, 678, 640, 604, 570, 538, 508, 480, 453,
	428, 404, 381, 360, 339, 320, 302, 285, 269, 254, 240, 226,
	214, 202, 190, 180, 170, 160, 151, 143, 135, 127, 120, 113,
}

// beforePeriodTable68020 holds the 129 16-bit words that sit immediately
// before periodTable in the original 68020 binary. AHX never clamps
// negative notes before indexing the period table, so an out-of-bounds
// read of up to 129 words before it is part of the format's observable
// behavior and real songs depend on it; this table reproduces those
// bytes so a negative note still produces the same "garbage" period the
// original hardware did.
var beforePeriodTable68020 = [129]uint16{
	0xF6F2, 0xEEEA, 0xE6E3, 0x201B, 0x1612, 0x0E0A, 0x0603, 0x00FD, 0xFAF8, 0xF6F4,
	0xF2F1, 0x100D, 0x0A08, 0x0604, 0x0201, 0x00FF, 0xFEFE, 0xFEFE, 0xFEFF, 0x4A30,
	0x0170, 0x0000, 0x0027, 0x66FF, 0x0000, 0x00B2, 0x4A30, 0x0170, 0x0000, 0x0026,
	0x6712, 0x3770, 0x0170, 0x0000, 0x0064, 0x0006, 0x51F0, 0x0170, 0x0000, 0x0026,
	0x4A30, 0x0170, 0x0000, 0x0022, 0x67FF, 0x0000, 0x007C, 0x48E7, 0x3F68, 0x2470,
	0x0170, 0x0000, 0x005C, 0x0C30, 0x0003, 0x0170, 0x0000, 0x0014, 0x67FF, 0x0000,
	0x0042, 0x7C01, 0x7405, 0x9430, 0x0170, 0x0000, 0x0015, 0xE56E, 0xCCFC, 0x0005,
	0x5346, 0x2270, 0x0170, 0x0000, 0x0060, 0x7E01, 0x7400, 0x1430, 0x0170, 0x0000,
	0x0015, 0xE52F, 0x5347, 0x2619, 0x24C3, 0x51CF, 0xFFFA, 0x51CE, 0xFFDE, 0x60FF,
	0x0000, 0x0016, 0x2270, 0x0170, 0x0000, 0x0060, 0x7E4F, 0x24D9, 0x24D9, 0x51CF,
	0xFFFA, 0x4CDF, 0x16FC, 0x51F0, 0x0170, 0x0000, 0x0022, 0x3770, 0x0170, 0x0000,
	0x0066, 0x0008, 0x4E75, 0x377C, 0x0000, 0x0008, 0x4E75, 0x0004, 0x0000, 0x0001,
	0x0000, 0x0015, 0x4C70, 0x0015, 0x4D6C, 0x000E, 0xA9C4, 0x0015, 0x5E68,
}

// vibTable is a 64-entry sine table (peak +/-255) used by vibrato.
var vibTable = [64]int16{
	0, 24, 49, 74, 97, 120, 141, 161,
	180, 197, 212, 224, 235, 244, 250, 253,
	255, 253, 250, 244, 235, 224, 212, 197,
	180, 161, 141, 120, 97, 74, 49, 24,
	0, -24, -49, -74, -97, -120, -141, -161,
	-180, -197, -212, -224, -235, -244, -250, -253,
	-255, -253, -250, -244, -235, -224, -212, -197,
	-180, -161, -141, -120, -97, -74, -49, -24,
}

// emptyInstrument is the default instrument substituted whenever a
// track references instrument 0 or an out-of-range instrument number.
var emptyInstrument = Instrument{
	AFrames:          1,
	DFrames:          1,
	SFrames:          1,
	RFrames:          1,
	PerfSpeed:        1,
	SquareLowerLimit: 0x20,
	SquareUpperLimit: 0x3F,
	SquareSpeed:      1,
	FilterLowerLimit: 1,
	FilterUpperLimit: 0x1F,
	WaveLength:       0,
	FilterSpeed:      4,
}
