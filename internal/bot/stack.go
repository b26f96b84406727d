package bot

import "encoding/json"

// HomeMenuKey is the root menu every instance must have. Back on an empty
// stack and the 00 command both land here.
const HomeMenuKey = "main"

// Stack is the ordered trail of ancestor menu keys, most recent last. It
// never contains the current menu itself.
type Stack []string

// Push returns a new stack with key appended. The receiver is not mutated so
// a held reference survives a later Pop unchanged.
func (s Stack) Push(key string) Stack {
	out := make(Stack, len(s), len(s)+1)
	copy(out, s)
	return append(out, key)
}

// Pop removes and returns the most recent key. Popping an empty stack
// returns the home key: back can never fail.
func (s Stack) Pop() (Stack, string) {
	if len(s) == 0 {
		return Stack{}, HomeMenuKey
	}
	out := make(Stack, len(s)-1)
	copy(out, s[:len(s)-1])
	return out, s[len(s)-1]
}

func (s Stack) Reset() Stack {
	return Stack{}
}

// ParseStack decodes the Contact navigation_stack column. Malformed data
// degrades to an empty stack rather than failing the message.
func ParseStack(raw string) Stack {
	if raw == "" {
		return Stack{}
	}
	var s Stack
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Stack{}
	}
	return s
}

func (s Stack) Encode() string {
	if len(s) == 0 {
		return "[]"
	}
	data, err := json.Marshal(s)
	if err != nil {
		return "[]"
	}
	return string(data)
}
