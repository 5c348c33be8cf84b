package ahx

import "testing"

func newTestMixer(t *testing.T) *PaulaMixer {
	t.Helper()
	m, err := NewPaulaMixer(44100, nil)
	if err != nil {
		t.Fatalf("NewPaulaMixer() error = %v", err)
	}
	return m
}

func TestNewPaulaMixerClampsOutputHz(t *testing.T) {
	m, err := NewPaulaMixer(1, nil)
	if err != nil {
		t.Fatalf("NewPaulaMixer() error = %v", err)
	}
	if float64(m.outputHz) < paulaPALClk/113.0 {
		t.Errorf("outputHz = %d, want >= min single-step rate", m.outputHz)
	}

	m2, err := NewPaulaMixer(10_000_000, nil)
	if err != nil {
		t.Fatalf("NewPaulaMixer() error = %v", err)
	}
	if m2.outputHz != paulaMaxOutputHz {
		t.Errorf("outputHz = %d, want %d", m2.outputHz, paulaMaxOutputHz)
	}
}

func TestPausedRenderYieldsSilence(t *testing.T) {
	m := newTestMixer(t)
	m.TogglePause()

	stream := make([]int16, 200)
	for i := range stream {
		stream[i] = 1234
	}
	n := m.Render(stream)
	if n != 100 {
		t.Fatalf("Render() frames = %d, want 100", n)
	}
	for i, v := range stream {
		if v != 0 {
			t.Fatalf("stream[%d] = %d, want 0 while paused", i, v)
		}
	}
}

func TestSetVolumeMasksAndClamps(t *testing.T) {
	m := newTestMixer(t)
	m.SetVolume(0, 127) // top bit of 7-bit register set, clamps to 64
	if got, want := m.voices[0].audVOL, 64.0/(128.0*64.0); got != want {
		t.Errorf("audVOL = %v, want %v", got, want)
	}
}

func TestSetPeriodClampsLow(t *testing.T) {
	m := newTestMixer(t)
	m.SetPeriod(0, 10)
	if m.voices[0].oldPeriod != 113 {
		t.Errorf("oldPeriod = %d, want 113", m.voices[0].oldPeriod)
	}
}

func TestSetPeriodZeroWraps(t *testing.T) {
	m := newTestMixer(t)
	m.SetPeriod(0, 0)
	if m.voices[0].oldPeriod != 1+65535 {
		t.Errorf("oldPeriod = %d, want %d", m.voices[0].oldPeriod, 1+65535)
	}
}

func TestSetLengthClampsToMax(t *testing.T) {
	m := newTestMixer(t)
	m.SetLength(0, 0xFFFF)
	if m.voices[0].audLen != maxSampleWords {
		t.Errorf("audLen = %d, want %d", m.voices[0].audLen, maxSampleWords)
	}
	m.SetLength(0, 0)
	if m.voices[0].audLen != 1 {
		t.Errorf("audLen = %d, want 1 after zero-length normalization", m.voices[0].audLen)
	}
}

func TestStartStopAllDMAs(t *testing.T) {
	m := newTestMixer(t)
	data := make([]int8, 8)
	for i := range data {
		data[i] = int8(i * 10)
	}
	m.SetData(0, data)
	m.SetLength(0, 4)
	m.SetPeriod(0, 200)
	m.SetVolume(0, 64)
	m.StartAllDMAs()

	if !m.voices[0].dmaActive {
		t.Fatal("voice 0 not active after StartAllDMAs")
	}
	if m.voices[0].audDAT[0] != data[1] {
		t.Errorf("audDAT[0] = %d, want %d", m.voices[0].audDAT[0], data[1])
	}

	m.StopAllDMAs()
	for i := range m.voices {
		if m.voices[i].dmaActive {
			t.Errorf("voice %d still active after StopAllDMAs", i)
		}
	}
}

func TestRenderProducesNonSilentOutputWhenDriven(t *testing.T) {
	ticks := 0
	m, err := NewPaulaMixer(44100, func() { ticks++ })
	if err != nil {
		t.Fatalf("NewPaulaMixer() error = %v", err)
	}

	data := make([]int8, 64)
	for i := range data {
		if i%2 == 0 {
			data[i] = 100
		} else {
			data[i] = -100
		}
	}
	for ch := 0; ch < amigaVoices; ch++ {
		m.SetData(ch, data)
		m.SetLength(ch, 32)
		m.SetPeriod(ch, 200)
		m.SetVolume(ch, 64)
	}
	m.StartAllDMAs()

	stream := make([]int16, 2*4096)
	m.Render(stream)

	if ticks == 0 {
		t.Error("expected at least one replayer tick during render")
	}

	nonZero := false
	for _, s := range stream {
		if s != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Error("expected non-silent output with active voices")
	}
}

func TestAmigaCIAPeriod2HzZero(t *testing.T) {
	if got := amigaCIAPeriod2Hz(0); got != 0 {
		t.Errorf("amigaCIAPeriod2Hz(0) = %v, want 0", got)
	}
}

func TestSetCIAPeriodRejectsZero(t *testing.T) {
	m := newTestMixer(t)
	if m.SetCIAPeriod(0) {
		t.Error("SetCIAPeriod(0) = true, want false")
	}
}

func TestClamp16(t *testing.T) {
	cases := []struct {
		in   int32
		want int16
	}{
		{0, 0},
		{32767, 32767},
		{32768, 32767},
		{-32768, -32768},
		{-32769, -32768},
	}
	for _, c := range cases {
		if got := clamp16(c.in); got != c.want {
			t.Errorf("clamp16(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}
