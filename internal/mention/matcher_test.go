package mention

import "testing"

func TestFind(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		caret     int
		wantOK    bool
		wantQuery string
		wantStart int
	}{
		{name: "token at caret", text: "hello @jo", caret: 9, wantOK: true, wantQuery: "jo", wantStart: 6},
		{name: "bare at sign", text: "@", caret: 1, wantOK: true, wantQuery: "", wantStart: 0},
		{name: "terminated by space", text: "hello @jo ", caret: 10, wantOK: false},
		{name: "no at sign", text: "hello world", caret: 11, wantOK: false},
		{name: "empty text", text: "", caret: 0, wantOK: false},
		{name: "caret before token", text: "hey @jo", caret: 3, wantOK: false},
		{name: "caret mid token", text: "hey @johan bye", caret: 7, wantOK: true, wantQuery: "jo", wantStart: 4},
		{name: "consecutive tokens", text: "@ann @bo", caret: 8, wantOK: true, wantQuery: "bo", wantStart: 5},
		{name: "dots and dashes", text: "cc @a.b-c_d", caret: 11, wantOK: true, wantQuery: "a.b-c_d", wantStart: 3},
		{name: "email style query", text: "@jo@corp", caret: 8, wantOK: true, wantQuery: "jo@corp", wantStart: 0},
		{name: "caret past end clamps", text: "@jo", caret: 50, wantOK: true, wantQuery: "jo", wantStart: 0},
		{name: "negative caret clamps", text: "@jo", caret: -2, wantOK: false},
		{name: "multibyte prefix", text: "héllo @jo", caret: 9, wantOK: true, wantQuery: "jo", wantStart: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := Find(tt.text, tt.caret)
			if ok != tt.wantOK {
				t.Fatalf("Find(%q, %d) ok = %v, want %v", tt.text, tt.caret, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if m.Query != tt.wantQuery {
				t.Errorf("query = %q, want %q", m.Query, tt.wantQuery)
			}
			if m.Start != tt.wantStart {
				t.Errorf("start = %d, want %d", m.Start, tt.wantStart)
			}
		})
	}
}

func TestSpliceReplacesToken(t *testing.T) {
	text := "hello @jo"
	m, ok := Find(text, len(text))
	if !ok {
		t.Fatal("expected a live token")
	}

	out, caret := Splice(text, len(text), m.Start, "john.doe")
	if out != "hello @john.doe " {
		t.Errorf("text = %q, want %q", out, "hello @john.doe ")
	}
	if caret != len([]rune(out)) {
		t.Errorf("caret = %d, want end of text %d", caret, len([]rune(out)))
	}
}

func TestSpliceMidText(t *testing.T) {
	// Caret sits inside the token; the tail after the caret survives.
	text := "hey @johan bye"
	out, caret := Splice(text, 7, 4, "jordan")

	if out != "hey @jordan han bye" {
		t.Errorf("text = %q, want %q", out, "hey @jordan han bye")
	}
	wantCaret := len([]rune("hey @jordan "))
	if caret != wantCaret {
		t.Errorf("caret = %d, want %d", caret, wantCaret)
	}
}

func TestSpliceClampsOffsets(t *testing.T) {
	out, caret := Splice("@x", 99, -5, "ann")
	if out != "@ann " {
		t.Errorf("text = %q, want %q", out, "@ann ")
	}
	if caret != len([]rune(out)) {
		t.Errorf("caret = %d, want %d", caret, len([]rune(out)))
	}
}

func TestSpliceMultibytePrefix(t *testing.T) {
	text := "héllo @j"
	m, ok := Find(text, 8)
	if !ok {
		t.Fatal("expected a live token")
	}

	out, caret := Splice(text, 8, m.Start, "jo")
	if out != "héllo @jo " {
		t.Errorf("text = %q, want %q", out, "héllo @jo ")
	}
	if caret != len([]rune(out)) {
		t.Errorf("caret = %d, want rune offset %d", caret, len([]rune(out)))
	}
}
