// Package config validates the playback tuning knobs shared by the
// ahxplay and ahxwav command-line tools. It is adapted from the
// teacher's reverb-preset package of the same name: AHX has no
// post-filter stage to configure, so instead of reverb presets this
// package validates the output sample rate, master volume, stereo
// separation and starting subsong flags the tools accept, returning one
// validating parse function per tunable alongside an error, the same
// shape the teacher used for ReverbFromFlag.
package config

import "fmt"

// minOutputHz/maxOutputHz bound the sample rates NewPaulaMixer will
// accept without silently clamping them out from under the caller.
const (
	minOutputHz = 31389 // Paula PAL clock / 113, plus one
	maxOutputHz = 96000

	minMasterVolume = 0
	maxMasterVolume = 256

	minStereoSeparation = 0
	maxStereoSeparation = 100
)

// OutputHzFromFlag validates a requested output sample rate.
func OutputHzFromFlag(hz int) (int, error) {
	if hz < minOutputHz || hz > maxOutputHz {
		return 0, fmt.Errorf("output sample rate %d out of range [%d, %d]", hz, minOutputHz, maxOutputHz)
	}
	return hz, nil
}

// MasterVolumeFromFlag validates a requested master volume, matching the
// range PaulaMixer.SetMasterVolume accepts (0..256, scaled linearly; the
// mixer's output stage is phase-inverted like a real A1200's).
func MasterVolumeFromFlag(vol int) (int, error) {
	if vol < minMasterVolume || vol > maxMasterVolume {
		return 0, fmt.Errorf("master volume %d out of range [%d, %d]", vol, minMasterVolume, maxMasterVolume)
	}
	return vol, nil
}

// StereoSeparationFromFlag validates a requested stereo separation
// percentage, matching the range PaulaMixer.SetStereoSeparation accepts
// (0 = mono downmix, 100 = full Amiga hard panning).
func StereoSeparationFromFlag(percentage int) (int, error) {
	if percentage < minStereoSeparation || percentage > maxStereoSeparation {
		return 0, fmt.Errorf("stereo separation %d out of range [%d, %d]", percentage, minStereoSeparation, maxStereoSeparation)
	}
	return percentage, nil
}

// SubsongFromFlag validates a requested starting subsong against the
// loaded song's subsong count. A value of 0 always means "the song's
// default subsong" and is valid regardless of count.
func SubsongFromFlag(subsong, numSubsongs int) (int, error) {
	if subsong < 0 {
		return 0, fmt.Errorf("subsong %d is negative", subsong)
	}
	if subsong > 0 && subsong > numSubsongs {
		return 0, fmt.Errorf("subsong %d exceeds song's %d subsongs", subsong, numSubsongs)
	}
	return subsong, nil
}
