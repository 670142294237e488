package lines

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_UniversalNewlines(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"lf", "a\nb\n", []string{"a", "b"}},
		{"crlf", "a\r\nb\r\n", []string{"a", "b"}},
		{"lone cr", "a\rb\rc", []string{"a", "b", "c"}},
		{"mixed", "a\r\n\nb\rc\n", []string{"a", "", "b", "c"}},
		{"no trailing newline", "a\nb", []string{"a", "b"}},
		{"trailing cr", "a\r", []string{"a"}},
		{"empty", "", []string{}},
		{"blank lines keep numbering", "\n\nx\n", []string{"", "", "x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Split(tc.in))
		})
	}
}

func TestSplit_LongLine(t *testing.T) {
	long := strings.Repeat("x", 200*1024)
	got := Split("a\n" + long + "\nb")
	require.Len(t, got, 3)
	assert.Equal(t, long, got[1])
}

func TestFromHTML_BreaksAndBlocks(t *testing.T) {
	html := `<html><head><title>Rapport</title><style>p{}</style></head><body>
<p>WARN&gt; Titre : ABC123 Code-barres 000456789 déjà présent</p>
<div>ligne 2<br>ligne 3</div>
<script>var x = 1;</script>
</body></html>`

	got, err := FromHTML(html)
	require.NoError(t, err)

	var nonEmpty []string
	for _, l := range got {
		if s := strings.TrimSpace(l); s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	assert.Equal(t, []string{
		"WARN> Titre : ABC123 Code-barres 000456789 déjà présent",
		"ligne 2",
		"ligne 3",
	}, nonEmpty)
}

func TestIsHTML(t *testing.T) {
	assert.True(t, IsHTML("a.HTML"))
	assert.True(t, IsHTML("b.htm"))
	assert.False(t, IsHTML("c.txt"))
}
