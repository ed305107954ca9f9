package main

import "testing"

func TestToPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "just text", "just text"},
		{
			"strips tags and hidden elements",
			`<html><head><title>T</title><style>body{color:red}</style></head>
			<body><script>var x = "<p>no</p>";</script><p>Hello <b>world</b></p><p>again</p></body></html>`,
			"T Hello world again",
		},
		{"tag boundaries separate words", "<p>one</p><p>two</p>", "one two"},
		{"entities", "a&amp;b &nbsp; c", "a&b c"},
		{"unbalanced markup", "<div><p>open <i>tags", "open tags"},
		{"uppercase script", "<SCRIPT>alert(1)</SCRIPT>ok", "ok"},
		{"self-closing script", `<p>Intro</p><script src="a.js"/>var secret = 1;</script><p>Hello</p>`, "Intro Hello"},
		{"self-closing style", "<p>a</p><style/>p{color:red}</style><p>b</p>", "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToPlainText(tt.in); got != tt.want {
				t.Errorf("ToPlainText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<html><head><title>\n  Sky  Report </title></head></html>", "Sky Report"},
		{"<title>First</title><title>Second</title>", "First"},
		{"<p>no title</p>", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExtractTitle(tt.in); got != tt.want {
			t.Errorf("ExtractTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
