package ahx

import "sync"

// PlayerPosition reports where playback currently is in the song, for a
// host UI to render without reaching into replayer internals.
type PlayerPosition struct {
	Position int // song position, 0..Song.Len-1
	Row      int // row within the position's tracks, 0..Song.TrackLen-1
}

// ChannelNoteData is one voice's decoded track row: the note/instrument
// pair and effect command packed into the track table exactly as
// processStep unpacks them, plus the row's effect command and parameter.
type ChannelNoteData struct {
	Note       uint8
	Instrument uint8
	Effect     uint8
	Param      uint8
}

// Player is the top-level, concurrency-safe façade a host embeds: it
// owns a WaveBank, a loaded Song, a Replayer, and the PaulaMixer the
// Replayer drives, wiring them together the way the original player's
// ahxInit/ahxLoadSong/ahxPlay/ahxOutputSamples entry points did as one
// global singleton. Every exported method takes the same lock, so a
// Player may be driven from one goroutine (typically an audio
// callback) while another goroutine issues transport commands.
type Player struct {
	mu sync.Mutex

	wb   *WaveBank
	song *Song
	mix  *PaulaMixer
	rep  *Replayer

	// PositionCh receives the current position after every replayer tick,
	// whether or not it changed, for a host (a WAV writer, a live CLI) to
	// report progress without polling Position() every sample. Sends are
	// non-blocking: a reader that falls behind simply misses intermediate
	// positions.
	PositionCh chan PlayerPosition
}

// NewPlayer builds a Player rendering at outputHz. It builds the shared
// WaveBank eagerly so BuildWaveBank's CRC self-check runs during
// construction rather than silently on first Play.
func NewPlayer(outputHz int) (*Player, error) {
	wb, err := BuildWaveBank()
	if err != nil {
		return nil, err
	}

	p := &Player{wb: wb, PositionCh: make(chan PlayerPosition, 1)}

	mix, err := NewPaulaMixer(outputHz, p.tick)
	if err != nil {
		return nil, err
	}
	p.mix = mix

	return p, nil
}

// tick is the PaulaMixer's onTick callback; it runs under the Player's
// lock since Render (below) holds it for the whole call.
func (p *Player) tick() {
	if p.rep != nil {
		p.rep.Tick()

		select {
		case p.PositionCh <- PlayerPosition{Position: p.rep.posNr, Row: p.rep.noteNr}:
		default:
		}
	}
}

// LoadSong parses an AHX module and attaches it to the player, replacing
// any previously loaded song. Playback is stopped as a side effect.
func (p *Player) LoadSong(data []byte) error {
	song, err := LoadSong(data)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.song = song
	p.rep = NewReplayer(p.wb, song, p.mix)
	return nil
}

// Play starts playback of the loaded song's given subsong (1-based; 0
// plays the song's default/main subsong).
func (p *Player) Play(subsong int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rep == nil {
		return ErrSongNotLoaded
	}
	return p.rep.Play(subsong)
}

// Stop halts playback; the mixer keeps rendering silence until Play is
// called again.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rep != nil {
		p.rep.Stop()
	}
}

// TogglePause flips the mixer's paused flag without resetting any
// replayer state, so playback resumes exactly where it left off.
func (p *Player) TogglePause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mix.TogglePause()
}

// Render fills stream (interleaved int16 L,R pairs) with audio, driving
// the replayer tick-by-tick as needed, and returns the number of frames
// written. Safe to call from a dedicated audio callback goroutine.
func (p *Player) Render(stream []int16) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mix.Render(stream)
}

// Mute sets channel ch's (0..3) mute state.
func (p *Player) Mute(ch int, muted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rep != nil {
		p.rep.SetMute(ch, muted)
	}
}

// NextPattern/PrevPattern schedule a jump to the next/previous position,
// matching the original player's pattern-skip hotkeys. The position
// changes when the current row ends.
func (p *Player) NextPattern() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rep != nil {
		p.rep.NextPattern()
	}
}

func (p *Player) PrevPattern() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rep != nil {
		p.rep.PrevPattern()
	}
}

// Position returns the current song position and row within it.
func (p *Player) Position() PlayerPosition {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rep == nil {
		return PlayerPosition{}
	}
	return PlayerPosition{Position: p.rep.posNr, Row: p.rep.noteNr}
}

// NoteDataFor decodes the track rows all four voices play at song
// position pos, row row, without touching any live playback state. Hosts
// use it to render pattern rows around the current position (including
// ahead of or behind playback), the same live-tracker display the
// original interactive player drives off its position callback.
func (p *Player) NoteDataFor(pos, row int) []ChannelNoteData {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rep == nil {
		return nil
	}
	return p.rep.NoteDataFor(pos, row)
}

// BPM returns the tempo in beats per minute derived by the most recent
// Play, or 0 if the loaded song has not been played yet. Stop keeps the
// last value.
func (p *Player) BPM() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rep == nil {
		return 0
	}
	return p.rep.BPM()
}

// SetStereoSeparation and SetMasterVolume forward directly to the
// underlying mixer; both are safe to call at any time.
func (p *Player) SetStereoSeparation(percentage int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mix.SetStereoSeparation(percentage)
}

func (p *Player) SetMasterVolume(vol int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mix.SetMasterVolume(vol)
}

// OnSyncCommand installs a callback invoked whenever a track row carries
// the "8xx" external-timing command; pass nil to disable. AHX itself
// never defines semantics for this command, so hosts (e.g. games
// synchronizing music to events) own its meaning entirely. The handler
// belongs to the loaded song's replayer: it has no effect while no song
// is loaded, and a later LoadSong discards it.
func (p *Player) OnSyncCommand(fn func(param uint8)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rep != nil {
		p.rep.SetSyncCommandHandler(fn)
	}
}

// SongName returns the loaded song's title, or "" if none is loaded.
func (p *Player) SongName() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.song == nil {
		return ""
	}
	return p.song.Name
}

// NumSubsongs returns the loaded song's subsong count, or 0 if none is
// loaded.
func (p *Player) NumSubsongs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.song == nil {
		return 0
	}
	return p.song.NumSubsongs
}
