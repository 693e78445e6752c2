package util

import "testing"

func TestParseFlag(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", " on "} {
		if !ParseFlag(v, false) {
			t.Fatalf("expected %q to be on", v)
		}
	}
	for _, v := range []string{"0", "false", "off", "maybe"} {
		if ParseFlag(v, true) {
			t.Fatalf("expected %q to be off", v)
		}
	}
	if !ParseFlag("", true) {
		t.Fatalf("expected default for empty value")
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" a, ,b,c ")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("unexpected list %v", got)
	}
	if SplitList("") != nil {
		t.Fatalf("expected nil for empty input")
	}
}

func TestParseDefaults(t *testing.T) {
	if ParseIntDefault("x", 7) != 7 || ParseIntDefault(" 12", 0) != 12 {
		t.Fatalf("ParseIntDefault mismatch")
	}
	if ParseFloatDefault("", 1.5) != 1.5 || ParseFloatDefault("2.25", 0) != 2.25 {
		t.Fatalf("ParseFloatDefault mismatch")
	}
}
