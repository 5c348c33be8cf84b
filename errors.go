package ahx

import "errors"

// Error taxonomy surfaced to callers, matching the original player's
// error codes (Success/FileIO/NotAnAhx/OutOfMemory/NoWaves/SongNotLoaded).
var (
	// ErrFileIO is returned by file-based helpers when the underlying
	// read fails. The in-memory loader never returns it directly.
	ErrFileIO = errors.New("ahx: file i/o error")

	// ErrNotAnAHX is returned when the byte stream does not start with
	// the "THX" magic or carries an unsupported revision (> 1).
	ErrNotAnAHX = errors.New("ahx: not an AHX module")

	// ErrTruncated stands in for the original's OutOfMemory: the byte
	// stream ended before a table the header promised was fully read.
	ErrTruncated = errors.New("ahx: truncated module data")

	// ErrWaveBankCorrupt is returned by BuildWaveBank when the CRC-32
	// self-check over the generated waveform table fails.
	ErrWaveBankCorrupt = errors.New("ahx: wavebank failed crc check")

	// ErrSongNotLoaded is returned by Play when no Song has been
	// attached to the Player.
	ErrSongNotLoaded = errors.New("ahx: no song loaded")

	// ErrNoWaveBank is returned by Play when the Player was built
	// without a WaveBank.
	ErrNoWaveBank = errors.New("ahx: wavebank not built")
)
