package ahx

import "testing"

// minimalSong builds the smallest well-formed AHX byte stream the loader
// accepts: one position, one one-row track (silence), no instruments.
func minimalSong(t *testing.T) []byte {
	t.Helper()
	data := make([]byte, 27)
	copy(data[0:3], "THX")
	data[3] = 1 // revision
	data[6] = 0x00
	data[7] = 0x01 // flags: Len = 1
	// data[8:10] Restart = 0
	data[10] = 1 // TrackLen = 1
	data[11] = 0 // HighestTrack = 0
	data[12] = 0 // NumInstruments = 0
	data[13] = 0 // NumSubsongs = 0
	// position table (8 bytes of zero), track table (3 bytes of zero)
	return data
}

func TestPlayerLoadAndPlaySilence(t *testing.T) {
	p, err := NewPlayer(44100)
	if err != nil {
		t.Fatalf("NewPlayer() error = %v", err)
	}

	if err := p.LoadSong(minimalSong(t)); err != nil {
		t.Fatalf("LoadSong() error = %v", err)
	}
	if err := p.Play(0); err != nil {
		t.Fatalf("Play() error = %v", err)
	}

	stream := make([]int16, 4096)
	n := p.Render(stream)
	if n != len(stream)/2 {
		t.Errorf("Render() frames = %d, want %d", n, len(stream)/2)
	}
}

func TestPlayerPlayWithoutSongFails(t *testing.T) {
	p, err := NewPlayer(44100)
	if err != nil {
		t.Fatalf("NewPlayer() error = %v", err)
	}
	if err := p.Play(0); err != ErrSongNotLoaded {
		t.Errorf("Play() error = %v, want ErrSongNotLoaded", err)
	}
}

func TestPlayerStopThenRenderIsSilent(t *testing.T) {
	p, err := NewPlayer(44100)
	if err != nil {
		t.Fatalf("NewPlayer() error = %v", err)
	}
	if err := p.LoadSong(minimalSong(t)); err != nil {
		t.Fatalf("LoadSong() error = %v", err)
	}
	if err := p.Play(0); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	p.Stop()

	stream := make([]int16, 2048)
	for i := range stream {
		stream[i] = 999
	}
	p.Render(stream)
	for i, v := range stream {
		if v != 0 {
			t.Fatalf("stream[%d] = %d, want 0 after Stop", i, v)
		}
	}
}

func TestPlayerTogglePause(t *testing.T) {
	p, err := NewPlayer(44100)
	if err != nil {
		t.Fatalf("NewPlayer() error = %v", err)
	}
	if err := p.LoadSong(minimalSong(t)); err != nil {
		t.Fatalf("LoadSong() error = %v", err)
	}
	if err := p.Play(0); err != nil {
		t.Fatalf("Play() error = %v", err)
	}

	p.TogglePause()
	stream := make([]int16, 200)
	for i := range stream {
		stream[i] = 42
	}
	p.Render(stream)
	for i, v := range stream {
		if v != 0 {
			t.Fatalf("stream[%d] = %d, want 0 while paused", i, v)
		}
	}
}

func TestPlayerMuteAndPatternNav(t *testing.T) {
	p, err := NewPlayer(44100)
	if err != nil {
		t.Fatalf("NewPlayer() error = %v", err)
	}
	if err := p.LoadSong(minimalSong(t)); err != nil {
		t.Fatalf("LoadSong() error = %v", err)
	}
	if err := p.Play(0); err != nil {
		t.Fatalf("Play() error = %v", err)
	}

	p.Mute(0, true)
	p.NextPattern()
	p.PrevPattern()

	stream := make([]int16, 1024)
	p.Render(stream) // must not panic with a single-position song
}

func TestPlayerPositionAndNoteData(t *testing.T) {
	p, err := NewPlayer(44100)
	if err != nil {
		t.Fatalf("NewPlayer() error = %v", err)
	}
	if err := p.LoadSong(minimalSong(t)); err != nil {
		t.Fatalf("LoadSong() error = %v", err)
	}
	if err := p.Play(0); err != nil {
		t.Fatalf("Play() error = %v", err)
	}

	if got := p.Position(); got != (PlayerPosition{}) {
		t.Errorf("Position() = %+v, want zero value before any ticks", got)
	}

	notes := p.NoteDataFor(0, 0)
	if len(notes) != amigaVoices {
		t.Fatalf("NoteDataFor(0, 0) returned %d channels, want %d", len(notes), amigaVoices)
	}
	for i, n := range notes {
		if n != (ChannelNoteData{}) {
			t.Errorf("NoteDataFor(0, 0)[%d] = %+v, want zero value for the silent minimal song", i, n)
		}
	}

	if got := p.NoteDataFor(1, 0); got != nil {
		t.Errorf("NoteDataFor(1, 0) = %+v, want nil for out-of-range position", got)
	}
	if got := p.NoteDataFor(0, 1); got != nil {
		t.Errorf("NoteDataFor(0, 1) = %+v, want nil for out-of-range row", got)
	}

	stream := make([]int16, 4096)
	p.Render(stream)

	select {
	case pos := <-p.PositionCh:
		_ = pos // just confirm a position was published while rendering
	default:
		t.Error("PositionCh had nothing queued after Render advanced playback")
	}
}

func TestPlayerSongName(t *testing.T) {
	p, err := NewPlayer(44100)
	if err != nil {
		t.Fatalf("NewPlayer() error = %v", err)
	}
	if got := p.SongName(); got != "" {
		t.Errorf("SongName() = %q, want empty before load", got)
	}
	if err := p.LoadSong(minimalSong(t)); err != nil {
		t.Fatalf("LoadSong() error = %v", err)
	}
	if got := p.SongName(); got != "" {
		t.Errorf("SongName() = %q, want empty for unnamed minimal song", got)
	}
}
