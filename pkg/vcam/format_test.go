package vcam

import "testing"

func TestFourCCRoundTrip(t *testing.T) {
	for _, tag := range []string{"RGB24", "YUY2", "NV12", "I420"} {
		fourcc := FourCCFromString(tag)
		if got := fourcc.String(); got != tag {
			t.Errorf("FourCC round trip for %q: got %q", tag, got)
		}
	}
}

func TestVideoFormatValid(t *testing.T) {
	valid := NewVideoFormat(FourCCFromString("RGB24"), 640, 480, []Fraction{{Num: 30, Den: 1}})
	if !valid.Valid() {
		t.Fatalf("expected format to be valid")
	}

	zeroWidth := NewVideoFormat(FourCCFromString("RGB24"), 0, 480, []Fraction{{Num: 30, Den: 1}})
	if zeroWidth.Valid() {
		t.Fatalf("expected zero width to be invalid")
	}

	noRates := NewVideoFormat(FourCCFromString("RGB24"), 640, 480, nil)
	if noRates.Valid() {
		t.Fatalf("expected empty frame rate list to be invalid")
	}

	badRate := NewVideoFormat(FourCCFromString("RGB24"), 640, 480, []Fraction{{Num: 30, Den: 0}})
	if badRate.Valid() {
		t.Fatalf("expected zero denominator to be invalid")
	}
}

func TestVideoFormatEqual(t *testing.T) {
	a := NewVideoFormat(FourCCFromString("RGB24"), 640, 480, []Fraction{{Num: 30, Den: 1}})
	b := NewVideoFormat(FourCCFromString("RGB24"), 640, 480, []Fraction{{Num: 60, Den: 2}})
	if !a.Equal(b) {
		t.Fatalf("expected equal formats, got %+v vs %+v", a, b)
	}

	c := NewVideoFormat(FourCCFromString("YUY2"), 640, 480, []Fraction{{Num: 30, Den: 1}})
	if a.Equal(c) {
		t.Fatalf("expected different fourcc to compare unequal")
	}
}

func TestVideoFormatByteSize(t *testing.T) {
	rgb24 := NewVideoFormat(FourCCFromString("RGB24"), 4, 4, []Fraction{{Num: 30, Den: 1}})
	if got := rgb24.ByteSize(); got != 48 {
		t.Fatalf("RGB24 4x4 ByteSize() = %d, want 48", got)
	}

	nv12 := NewVideoFormat(FourCCFromString("NV12"), 4, 4, []Fraction{{Num: 30, Den: 1}})
	if got := nv12.ByteSize(); got != 24 {
		t.Fatalf("NV12 4x4 ByteSize() = %d, want 24", got)
	}
}
