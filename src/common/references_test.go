package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewriteReferences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "src attribute keeps query string",
			in:   `<img src="img/foo.png?v=2">`,
			want: `<img src="img/foo.webp?v=2">`,
		},
		{
			name: "quoted image path",
			in:   `const a = 'assets/img/personajes/aray.png';`,
			want: `const a = 'assets/img/personajes/aray.webp';`,
		},
		{
			name: "case insensitive",
			in:   `var b = "IMG/Fondo.PNG";`,
			want: `var b = "IMG/Fondo.webp";`,
		},
		{
			name: "css url without quotes",
			in:   `body { background: url(../fondos/mapa.png); }`,
			want: `body { background: url(../fondos/mapa.webp); }`,
		},
		{
			name: "css url with query",
			in:   `.x { background-image: url("sprites/coin.png?h=1"); }`,
			want: `.x { background-image: url("sprites/coin.webp?h=1"); }`,
		},
		{
			name: "href attribute",
			in:   `<link rel="icon" href='favicon.png'>`,
			want: `<link rel="icon" href='favicon.webp'>`,
		},
		{
			name: "js image property",
			in:   `{ name: "rio", image: fondos/rio.png, }`,
			want: `{ name: "rio", image: fondos/rio.webp, }`,
		},
		{
			name: "array literal",
			in:   `frames = [a.png]`,
			want: `frames = [a.webp]`,
		},
		{
			name: "plain prose untouched",
			in:   "We export png images and convert them later.\n",
			want: "We export png images and convert them later.\n",
		},
		{
			name: "image property needs a delimiter after the extension",
			in:   `{ image: base + ".png" }`,
			want: `{ image: base + ".png" }`,
		},
		{
			name: "quoted path without img marker untouched",
			in:   `title = "logo.png"`,
			want: `title = "logo.png"`,
		},
		{
			name: "mismatched quotes untouched",
			in:   `x = "img/a.png' + y`,
			want: `x = "img/a.png' + y`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed, err := RewriteReferences(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in != tt.want, changed)
		})
	}
}

func TestRewriteReferencesIsStable(t *testing.T) {
	in := `<img src="img/a.png"><div style="background:url(img/b.png)"></div>`

	once, changed, err := RewriteReferences(in)
	require.NoError(t, err)
	require.True(t, changed)

	twice, changed, err := RewriteReferences(once)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, once, twice)
}

func TestRewriteReferencesBytesRejectsInvalidUTF8(t *testing.T) {
	_, _, err := RewriteReferencesBytes([]byte{'"', 0xff, 0xfe, '"'})
	assert.Error(t, err)
}

func TestEstimateReplacements(t *testing.T) {
	tests := []struct {
		name   string
		before string
		after  string
		want   int
	}{
		{"nothing", "abc", "abc", 0},
		{"one rewritten", `"img/a.png"`, `"img/a.webp"`, 0},
		{"one left over", `"img/a.png" logo.png`, `"img/a.webp" logo.png`, 1},
		{"pre-existing webp", `"img/a.png" b.webp`, `"img/a.webp" b.webp`, -1},
		{"case folded", `A.PNG b.png`, `A.PNG b.png`, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateReplacements(tt.before, tt.after))
		})
	}
}
