package markup

import "testing"

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Plain string passes through", "  Hallo  ", "Hallo"},
		{"Single paragraph", "<p>Meine Antwort</p>", "Meine Antwort"},
		{"Paragraphs become lines", "<p>Erste Zeile</p><p>Zweite Zeile</p>", "Erste Zeile\nZweite Zeile"},
		{"Inline formatting is dropped", "<p>Das ist <strong>wichtig</strong> und <em>klar</em>.</p>", "Das ist wichtig und klar."},
		{"Line break", "<p>a<br>b</p>", "a\nb"},
		{"Entities are decoded", "<p>Tom &amp; Jerry &lt;3</p>", "Tom & Jerry <3"},
		{"Empty editor residue", "<p><br></p>", ""},
		{"Unordered list", "<ul><li>eins</li><li>zwei</li></ul>", "- eins\n- zwei"},
		{"Ordered list", "<ol><li>eins</li><li>zwei</li></ol>", "1. eins\n2. zwei"},
		{"Blank paragraphs collapse", "<p>a</p><p><br></p><p><br></p><p>b</p>", "a\n\nb"},
		{"Source formatting between blocks", "<p>a</p>\n\n<ul>\n<li>b</li>\n<li>c</li>\n</ul>", "a\n- b\n- c"},
		{"Newline between inline tags is a space", "<p><b>x</b>\n<i>y</i></p>", "x y"},
		{"Preformatted text keeps its lines", "<pre>a\n\nb</pre>", "a\n\nb"},
		{"Script content is ignored", "<p>x</p><script>alert(1)</script>", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlainText(tt.in); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsBlank(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"   ", true},
		{"<p><br></p>", true},
		{"<p>&nbsp;</p>", true},
		{"<p> </p><p></p>", true},
		{"<p>x</p>", false},
		{"text", false},
	}

	for _, tt := range tests {
		if got := IsBlank(tt.in); got != tt.want {
			t.Errorf("IsBlank(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
