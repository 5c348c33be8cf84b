package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"atomicgo.dev/keyboard"
	"atomicgo.dev/keyboard/keys"
	"github.com/chriskillpack/ahxplayer"
	"github.com/fatih/color"
	"github.com/gordonklaus/portaudio"
)

var (
	white   = color.New(color.FgWhite).SprintfFunc()
	cyan    = color.New(color.FgCyan).SprintfFunc()
	magenta = color.New(color.FgMagenta).SprintfFunc()
	yellow  = color.New(color.FgYellow).SprintfFunc()
	blue    = color.New(color.FgHiBlue).SprintFunc()
	green   = color.New(color.FgGreen).SprintfFunc()
)

const (
	escape     = "\x1b["
	hideCursor = escape + "?25l"
	showCursor = escape + "?25h"
)

const (
	audioBufferSize   = 756 / 2
	patternRowsBefore = 4
	patternRowsAfter  = 4
	uiLineCount       = 11

	// numChannels is fixed: the Paula chip this player emulates always
	// drives exactly four voices, unlike the teacher's arbitrary-channel
	// MOD format.
	numChannels = 4
)

// AudioPlayer encapsulates audio playback and UI rendering. Unlike the
// teacher's MOD player it has no reverb stage to own: AHX's Paula model
// has no post-filter concept to feed one.
type AudioPlayer struct {
	player *ahx.Player
	stream *portaudio.Stream

	// UI state
	uiWriter        io.Writer
	selectedChannel int
	soloChannel     int
	muteState       uint8
	lastPos         ahx.PlayerPosition
	havePos         bool

	// Lifecycle management
	ctx            context.Context
	cancelFn       context.CancelFunc
	wg             sync.WaitGroup
	stopOnce       sync.Once
	terminated     bool
	keyboardDoneCh chan struct{}
}

// NewAudioPlayer creates a new AudioPlayer instance.
func NewAudioPlayer(player *ahx.Player, noUI bool) *AudioPlayer {
	var uiw io.Writer = os.Stdout
	if noUI {
		uiw = io.Discard
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &AudioPlayer{
		player:         player,
		uiWriter:       uiw,
		soloChannel:    -1,
		ctx:            ctx,
		cancelFn:       cancel,
		keyboardDoneCh: make(chan struct{}),
	}
}

// Run starts the audio playback and UI rendering.
func (ap *AudioPlayer) Run() error {
	if err := ap.Initialize(); err != nil {
		return err
	}

	if err := ap.setupAudioStream(); err != nil {
		return err
	}

	ap.setupSignalHandlers()
	ap.setupKeyboardHandlers()

	// Hide the cursor
	fmt.Fprint(ap.uiWriter, hideCursor)

	// Main render loop
	for {
		select {
		case <-ap.ctx.Done():
			goto exit
		default:
		}

		pos := ap.player.Position()

		if ap.shouldUpdateUI(pos) {
			ap.renderUI(pos)
			ap.lastPos = pos
			ap.havePos = true
		}
	}

exit:

	// Show the cursor
	fmt.Fprint(ap.uiWriter, showCursor)

	// Wait for keyboard listener to fully exit and restore terminal state
	select {
	case <-ap.keyboardDoneCh:
		// Keyboard cleanup completed
	case <-time.After(500 * time.Millisecond):
		// Timeout waiting for keyboard cleanup
	}

	ap.wg.Wait()
	return nil
}

// Initialize handles PortAudio initialization.
func (ap *AudioPlayer) Initialize() error {
	return portaudio.Initialize()
}

// setupAudioStream creates and starts the audio stream.
func (ap *AudioPlayer) setupAudioStream() error {
	stream, err := portaudio.OpenDefaultStream(
		0, 2,
		float64(*flagHz),
		audioBufferSize,
		ap.streamCallback,
	)
	if err != nil {
		return err
	}

	ap.stream = stream

	if err := stream.Start(); err != nil {
		stream.Close()
		return err
	}

	return nil
}

// streamCallback is called by PortAudio to generate audio samples. Render
// always fills the whole buffer, with silence while paused or stopped, so
// there is nothing further to gate here.
func (ap *AudioPlayer) streamCallback(out []int16) {
	ap.player.Render(out)
}

// setupSignalHandlers handles OS signals like SIGINT.
func (ap *AudioPlayer) setupSignalHandlers() {
	sigch := make(chan os.Signal, 5)
	signal.Notify(sigch, syscall.SIGINT)

	ap.wg.Add(1)
	go func() {
		defer ap.wg.Done()
		for {
			select {
			case <-ap.ctx.Done():
				return
			case sig := <-sigch:
				if sig == syscall.SIGINT {
					ap.Stop()
					return
				}
			}
		}
	}()
}

// setupKeyboardHandlers handles keyboard input.
func (ap *AudioPlayer) setupKeyboardHandlers() {
	ap.wg.Add(1)
	go func() {
		defer ap.wg.Done()
		keyboard.Listen(func(key keys.Key) (stop bool, err error) {
			// Check for immediate exit keys first
			if key.Code == keys.CtrlC || key.Code == keys.Escape {
				ap.Stop()
				return true, nil
			}

			ap.handleKeyPress(key)

			return false, nil
		})
		// Signal that keyboard listener has fully exited
		close(ap.keyboardDoneCh)
	}()
}

// handleKeyPress processes a single key press.
func (ap *AudioPlayer) handleKeyPress(key keys.Key) {
	switch key.Code {
	case keys.Left:
		ap.selectedChannel = max(ap.selectedChannel-1, 0)

	case keys.Right:
		ap.selectedChannel = min(ap.selectedChannel+1, numChannels-1)

	case keys.Space:
		ap.player.TogglePause()

	case keys.RuneKey:
		if len(key.Runes) > 0 {
			switch key.Runes[0] {
			case 'q':
				ch := ap.selectedChannel
				ap.muteState ^= 1 << ch
				ap.player.Mute(ch, ap.muteState&(1<<ch) != 0)

			case 's':
				if ap.soloChannel != ap.selectedChannel {
					ap.soloChannel = ap.selectedChannel
					for i := 0; i < numChannels; i++ {
						ap.player.Mute(i, i != ap.selectedChannel)
					}
				} else {
					ap.soloChannel = -1
					for i := 0; i < numChannels; i++ {
						ap.player.Mute(i, false)
					}
				}
			}
		}
	}
}

// Stop performs clean shutdown.
func (ap *AudioPlayer) Stop() {
	ap.stopOnce.Do(func() {
		ap.player.Stop()
		ap.cancelFn()

		if ap.stream != nil {
			ap.stream.Stop()
			ap.stream.Close()
		}

		if !ap.terminated {
			portaudio.Terminate()
			ap.terminated = true
		}

		fmt.Fprint(ap.uiWriter, showCursor)
	})
}

// renderUI renders the complete UI.
func (ap *AudioPlayer) renderUI(pos ahx.PlayerPosition) {
	ap.renderHeader(pos)
	ap.renderChannelHeaders()
	ap.renderPatternRows(pos)

	// Move cursor back to the top
	fmt.Fprintf(ap.uiWriter, escape+"%dF", uiLineCount)
}

// renderHeader renders the title and playback info.
func (ap *AudioPlayer) renderHeader(pos ahx.PlayerPosition) {
	if name := ap.player.SongName(); name != "" {
		fmt.Fprint(ap.uiWriter, name+" ")
	}
	fmt.Fprintf(ap.uiWriter, "%s %02X %s %02X %s %.1f\n",
		blue("pos"), pos.Position,
		blue("row"), pos.Row,
		blue("bpm"), ap.player.BPM())
}

// renderChannelHeaders renders the channel number headers.
func (ap *AudioPlayer) renderChannelHeaders() {
	fmt.Fprint(ap.uiWriter, "        ")
	for i := 0; i < numChannels; i++ {
		const chanstr = "%2d       "
		if i == ap.selectedChannel {
			fmt.Fprint(ap.uiWriter, green(chanstr, i+1))
			continue
		}
		fmt.Fprintf(ap.uiWriter, chanstr, i+1)
	}
	fmt.Fprintln(ap.uiWriter)
}

// renderPatternRows renders the pattern data rows.
func (ap *AudioPlayer) renderPatternRows(pos ahx.PlayerPosition) {
	for i := -patternRowsBefore; i <= patternRowsAfter; i++ {
		ap.renderNoteRow(pos.Position, pos.Row+i, i == 0)
	}
}

// renderNoteRow renders a single row of note data.
func (ap *AudioPlayer) renderNoteRow(position, row int, isCurrent bool) {
	nd := ap.player.NoteDataFor(position, row)
	if nd == nil {
		fmt.Fprintln(ap.uiWriter)
		return
	}

	if isCurrent {
		fmt.Fprint(ap.uiWriter, ">>> ")
	} else {
		fmt.Fprint(ap.uiWriter, "    ")
	}

	for ni, n := range nd {
		formatNote(ni, len(nd), n, ap.uiWriter)
	}

	if isCurrent {
		fmt.Fprint(ap.uiWriter, " <<<")
	}
	fmt.Fprintln(ap.uiWriter)
}

// formatNote writes one voice's decoded track row: note, instrument,
// effect command and parameter, in that order, matching the field order
// processStep decodes them in.
func formatNote(ni, total int, n ahx.ChannelNoteData, w io.Writer) {
	fmt.Fprint(w, white("%02X", n.Note), " ", cyan("%2X", n.Instrument), " ", magenta("%X", n.Effect), yellow("%02X", n.Param))
	if ni < total-1 {
		fmt.Fprint(w, "|")
	}
}

// shouldUpdateUI reports whether the position has moved since the last
// render, so the UI redraws only once per row instead of once per poll.
func (ap *AudioPlayer) shouldUpdateUI(pos ahx.PlayerPosition) bool {
	if !ap.havePos {
		return true
	}
	return ap.lastPos != pos
}

// play is the original entry point, now a thin wrapper around AudioPlayer.
func play(player *ahx.Player, noUI bool) {
	ap := NewAudioPlayer(player, noUI)

	// Ensure cleanup on any exit path
	defer func() {
		if ap.stream != nil {
			ap.stream.Stop()
			ap.stream.Close()
		}
		if !ap.terminated {
			portaudio.Terminate()
		}
		fmt.Fprint(ap.uiWriter, showCursor)
	}()

	if err := ap.Run(); err != nil {
		log.Fatal(err)
	}
}
