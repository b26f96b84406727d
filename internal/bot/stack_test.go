package bot

import (
	"reflect"
	"testing"
)

func TestStackLIFOLaw(t *testing.T) {
	// pop(push(S, k)) == (S, k) for any S and k
	cases := []Stack{
		{},
		{"main"},
		{"main", "plans", "premium"},
	}
	for _, s := range cases {
		before := s.Encode()
		after, key := s.Push("support").Pop()
		if key != "support" {
			t.Errorf("pop returned %q, want %q", key, "support")
		}
		if after.Encode() != before {
			t.Errorf("stack after push+pop = %s, want %s", after.Encode(), before)
		}
	}
}

func TestPopEmptyReturnsHome(t *testing.T) {
	s := Stack{}
	rest, key := s.Pop()
	if key != HomeMenuKey {
		t.Errorf("pop on empty stack = %q, want %q", key, HomeMenuKey)
	}
	if len(rest) != 0 {
		t.Errorf("pop on empty stack should leave it empty, got %v", rest)
	}
}

func TestPushDoesNotMutateReceiver(t *testing.T) {
	s := Stack{"main"}
	_ = s.Push("plans")
	if !reflect.DeepEqual(s, Stack{"main"}) {
		t.Errorf("push mutated the receiver: %v", s)
	}
}

func TestReset(t *testing.T) {
	s := Stack{"main", "plans"}
	if got := s.Reset(); len(got) != 0 {
		t.Errorf("reset = %v, want empty", got)
	}
}

func TestParseStackRoundTrip(t *testing.T) {
	s := Stack{"main", "plans"}
	if got := ParseStack(s.Encode()); !reflect.DeepEqual(got, s) {
		t.Errorf("round trip = %v, want %v", got, s)
	}
}

func TestParseStackMalformed(t *testing.T) {
	for _, raw := range []string{"", "not json", `{"a":1}`} {
		if got := ParseStack(raw); len(got) != 0 {
			t.Errorf("ParseStack(%q) = %v, want empty", raw, got)
		}
	}
}
