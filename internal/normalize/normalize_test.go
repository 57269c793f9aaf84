package normalize

import "testing"

func TestFold(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Running", "running"},
		{"  Acme Corp  ", "acme corp"},
		{"", ""},
		{"   ", ""},
		{"LÉA", "léa"},
	}
	for _, c := range cases {
		if got := Fold(c.in); got != c.want {
			t.Errorf("Fold(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestEqual(t *testing.T) {
	if !Equal("Running", "running ") {
		t.Error("expected case/whitespace-insensitive equality")
	}
	if Equal("Acme", "Globex") {
		t.Error("distinct values must not compare equal")
	}
}

func TestFirstToken(t *testing.T) {
	if got := FirstToken("  Software Engineer "); got != "Software" {
		t.Errorf("FirstToken = %q, want %q", got, "Software")
	}
	if got := FirstToken("   "); got != "" {
		t.Errorf("FirstToken of blank = %q, want empty", got)
	}
}
