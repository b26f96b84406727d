package classify

import (
	"reflect"
	"testing"
)

func TestClassifySelectionWinsOverText(t *testing.T) {
	in := Classify("whatever the user typed", "opt_plans")
	if in.Kind != KindSelection {
		t.Fatalf("kind = %v, want KindSelection", in.Kind)
	}
	if in.SelectionID != "opt_plans" {
		t.Errorf("selection id = %q", in.SelectionID)
	}
}

func TestClassifyNumber(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"1", 1},
		{"  42  ", 42},
		{"0", 0},
		{"00", 0},
	}
	for _, c := range cases {
		in := Classify(c.text, "")
		if in.Kind != KindNumber {
			t.Errorf("Classify(%q).Kind = %v, want KindNumber", c.text, in.Kind)
			continue
		}
		if in.Number != c.want {
			t.Errorf("Classify(%q).Number = %d, want %d", c.text, in.Number, c.want)
		}
	}
}

func TestClassifyEmojiDigits(t *testing.T) {
	in := Classify("1️⃣", "")
	if in.Kind != KindNumber || in.Number != 1 {
		t.Fatalf("emoji digit not mapped: %+v", in)
	}
	// raw keeps the ASCII form so reserved-token checks see plain digits
	if in.Raw != "1" {
		t.Errorf("raw = %q, want \"1\"", in.Raw)
	}
}

func TestClassifyRawPreservesZeroZero(t *testing.T) {
	in := Classify("00", "")
	if in.Raw != "00" {
		t.Errorf("raw = %q, want \"00\"", in.Raw)
	}
}

func TestClassifyText(t *testing.T) {
	in := Classify("  Bom Dia pessoal, oi  ", "")
	if in.Kind != KindText {
		t.Fatalf("kind = %v, want KindText", in.Kind)
	}
	if in.Normalized != "bom dia pessoal, oi" {
		t.Errorf("normalized = %q", in.Normalized)
	}
	// tokens of 2 runes or fewer are dropped, diacritics preserved
	want := []string{"bom", "dia", "pessoal,"}
	if !reflect.DeepEqual(in.Keywords, want) {
		t.Errorf("keywords = %v, want %v", in.Keywords, want)
	}
}

func TestClassifyDiacriticsPreserved(t *testing.T) {
	in := Classify("renovação", "")
	if len(in.Keywords) != 1 || in.Keywords[0] != "renovação" {
		t.Errorf("keywords = %v", in.Keywords)
	}
}

func TestClassifyEmptyInput(t *testing.T) {
	in := Classify("", "")
	if in.Kind != KindText {
		t.Fatalf("empty input should classify as text, got %v", in.Kind)
	}
	if len(in.Keywords) != 0 {
		t.Errorf("keywords = %v, want none", in.Keywords)
	}
}
