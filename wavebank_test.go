package ahx

import "testing"

func TestBuildWaveBankSucceeds(t *testing.T) {
	wb, err := BuildWaveBank()
	if err != nil {
		t.Fatalf("BuildWaveBank() error = %v", err)
	}
	if wb == nil {
		t.Fatal("BuildWaveBank() returned nil bank with nil error")
	}
}

func TestBuildWaveBankIsCached(t *testing.T) {
	wb1, err := BuildWaveBank()
	if err != nil {
		t.Fatalf("BuildWaveBank() error = %v", err)
	}
	wb2, err := BuildWaveBank()
	if err != nil {
		t.Fatalf("BuildWaveBank() second call error = %v", err)
	}
	if wb1 != wb2 {
		t.Fatal("BuildWaveBank() returned different instances across calls")
	}
}

func TestWaveBankTriangleLengths(t *testing.T) {
	wb, err := BuildWaveBank()
	if err != nil {
		t.Fatalf("BuildWaveBank() error = %v", err)
	}
	for i, want := range waveLengths6 {
		if got := len(wb.Triangle[i]); got != want {
			t.Errorf("Triangle[%d] length = %d, want %d", i, got, want)
		}
	}
}

func TestWaveBankSawtoothLengths(t *testing.T) {
	wb, err := BuildWaveBank()
	if err != nil {
		t.Fatalf("BuildWaveBank() error = %v", err)
	}
	for i, want := range waveLengths6 {
		if got := len(wb.Sawtooth[i]); got != want {
			t.Errorf("Sawtooth[%d] length = %d, want %d", i, got, want)
		}
	}
	// A sawtooth ramps monotonically from -128 up to (but not exceeding)
	// 127 across its length.
	saw := wb.Sawtooth[5]
	if saw[0] != -128 {
		t.Errorf("Sawtooth[5][0] = %d, want -128", saw[0])
	}
	for i := 1; i < len(saw); i++ {
		if saw[i] < saw[i-1] {
			t.Errorf("Sawtooth[5] not monotonic at index %d: %d -> %d", i, saw[i-1], saw[i])
		}
	}
}

func TestWaveBankSquaresShape(t *testing.T) {
	wb, err := BuildWaveBank()
	if err != nil {
		t.Fatalf("BuildWaveBank() error = %v", err)
	}
	if got, want := len(wb.Squares), squareDutyCycles*squareEntryBytes; got != want {
		t.Fatalf("len(Squares) = %d, want %d", got, want)
	}
	// Duty-cycle entry 1 has 63 leading low samples and 1 trailing high
	// sample, each written twice (u16 pairs).
	entry := wb.Squares[0:squareEntryBytes]
	for i := 0; i < 126; i++ {
		if entry[i] != -128 {
			t.Errorf("Squares entry 0 byte %d = %d, want -128", i, entry[i])
		}
	}
	if entry[126] != 0x7F || entry[127] != 0x7F {
		t.Errorf("Squares entry 0 tail = %d,%d, want 0x7F,0x7F", entry[126], entry[127])
	}
}

func TestWaveBankNoiseLength(t *testing.T) {
	wb, err := BuildWaveBank()
	if err != nil {
		t.Fatalf("BuildWaveBank() error = %v", err)
	}
	if got := len(wb.Noise); got != wavebankNoiseSize {
		t.Fatalf("len(Noise) = %d, want %d", got, wavebankNoiseSize)
	}
}

func TestWaveBankFilterBankCounts(t *testing.T) {
	wb, err := BuildWaveBank()
	if err != nil {
		t.Fatalf("BuildWaveBank() error = %v", err)
	}
	rawLen := 0
	for _, n := range lengthTable {
		rawLen += n
	}
	for i := 0; i < filterSteps; i++ {
		if got := len(wb.HighPass[i]); got != rawLen {
			t.Errorf("HighPass[%d] length = %d, want %d", i, got, rawLen)
		}
		if got := len(wb.LowPass[i]); got != rawLen {
			t.Errorf("LowPass[%d] length = %d, want %d", i, got, rawLen)
		}
	}
}

func TestWaveBankTotalSize(t *testing.T) {
	wb, err := BuildWaveBank()
	if err != nil {
		t.Fatalf("BuildWaveBank() error = %v", err)
	}
	if got := len(wb.Raw); got != rawTotalLength {
		t.Errorf("len(Raw) = %d, want %d", got, rawTotalLength)
	}

	total := len(wb.Raw)
	for i := 0; i < filterSteps; i++ {
		total += len(wb.HighPass[i]) + len(wb.LowPass[i])
	}
	if total != wavebankLen {
		t.Errorf("total wavebank size = %d, want %d", total, wavebankLen)
	}
}

func TestFp16Clip(t *testing.T) {
	cases := []struct {
		in   int32
		want int32
	}{
		{0, 0},
		{127 << 16, 127 << 16},
		{128 << 16, 127 << 16},
		{-128 << 16, -128 << 16},
		{-129 << 16, -128 << 16},
	}
	for _, c := range cases {
		if got := fp16Clip(c.in); got != c.want {
			t.Errorf("fp16Clip(%#x) = %#x, want %#x", c.in, got, c.want)
		}
	}
}

func TestRorRol32RoundTrip(t *testing.T) {
	x := uint32(0x41595321)
	if got := rol32(ror32(x, 5), 5); got != x {
		t.Errorf("rol32(ror32(x,5),5) = %#x, want %#x", got, x)
	}
}
