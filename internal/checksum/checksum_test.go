package checksum

import "testing"

func TestSum_Deterministic(t *testing.T) {
	a := Sum([]byte("<h4>Intro</h4>"))
	b := Sum([]byte("<h4>Intro</h4>"))
	if a != b {
		t.Fatalf("sums differ: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("len = %d, want 64", len(a))
	}
	if a == Sum([]byte("<h5>Intro</h5>")) {
		t.Error("different inputs produced the same sum")
	}
}

func TestShort(t *testing.T) {
	if got := Short("abc"); got != "abc" {
		t.Errorf("Short(abc) = %q", got)
	}
	if got := Short(Sum(nil)); len(got) != 12 {
		t.Errorf("len(Short) = %d, want 12", len(got))
	}
}
