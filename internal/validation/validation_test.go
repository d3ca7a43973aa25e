package validation

import "testing"

func TestMaxMessageLength(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want int
	}{
		{"default", "", 4000},
		{"custom", "500", 500},
		{"garbage", "abc", 4000},
		{"zero", "0", 4000},
		{"negative", "-5", 4000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MAX_MESSAGE_LENGTH", tt.env)
			if got := MaxMessageLength(); got != tt.want {
				t.Errorf("MaxMessageLength() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTrimAndLimit(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"trims whitespace", "  hello  ", 100, "hello"},
		{"truncates", "abcdef", 3, "abc"},
		{"no limit", "abcdef", 0, "abcdef"},
		{"empty", "   ", 100, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndLimit(tt.input, tt.max); got != tt.want {
				t.Errorf("TrimAndLimit(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
		})
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		input  string
		wantID uint
		wantOK bool
	}{
		{"7", 7, true},
		{"0", 0, false},
		{"", 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
		{"4294967296", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			id, ok := ParseID(tt.input)
			if id != tt.wantID || ok != tt.wantOK {
				t.Errorf("ParseID(%q) = (%d, %v), want (%d, %v)",
					tt.input, id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestParseCursor(t *testing.T) {
	tests := []struct {
		input  string
		wantID uint
		wantOK bool
	}{
		{"", 0, true},
		{"0", 0, true},
		{"15", 15, true},
		{"abc", 0, false},
		{"-1", 0, false},
	}

	for _, tt := range tests {
		name := tt.input
		if name == "" {
			name = "empty"
		}
		t.Run(name, func(t *testing.T) {
			id, ok := ParseCursor(tt.input)
			if id != tt.wantID || ok != tt.wantOK {
				t.Errorf("ParseCursor(%q) = (%d, %v), want (%d, %v)",
					tt.input, id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}
