package converter

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"assetpipe/src/config"
	"assetpipe/src/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for i := 0; i < 16; i++ {
		img.SetNRGBA(i, i, color.NRGBA{B: 200, A: 128})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	writeFile(t, path, buf.Bytes())
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func newTestConverter(t *testing.T) (*Converter, *config.Config, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default(t.TempDir())
	var out bytes.Buffer
	return New(cfg, logging.Discard(), &out), cfg, &out
}

func TestShouldConvert(t *testing.T) {
	c, _, _ := newTestConverter(t)

	tests := []struct {
		name string
		want bool
	}{
		{"aray.png", true},
		{"FONDO.PNG", true},
		{"mapa - copia.png", true},
		{"README.png", false},
		{"notes.md.png", false},
		{"thumbs.db.png", false},
		{"list.txt.png", false},
		{"photo.jpg", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.ShouldConvert(tt.name))
		})
	}
}

func TestRunConvertsAndRewrites(t *testing.T) {
	c, cfg, out := newTestConverter(t)
	imgRoot := cfg.ImageRoot()
	assetRoot := cfg.AssetRoot()

	writePNG(t, filepath.Join(imgRoot, "personajes", "aray.png"))
	writePNG(t, filepath.Join(imgRoot, "fondos", "rio.PNG"))
	writePNG(t, filepath.Join(imgRoot, "readme.png"))
	writeFile(t, filepath.Join(imgRoot, "broken.png"), []byte("garbage"))

	html := filepath.Join(assetRoot, "index.html")
	writeFile(t, html, []byte(`<img src="img/personajes/aray.png?v=2">`+"\n"))
	prose := filepath.Join(assetRoot, "js", "notes.js")
	writeFile(t, prose, []byte("// we used to ship png files\n"))
	vendored := filepath.Join(assetRoot, "node_modules", "lib", "x.js")
	writeFile(t, vendored, []byte(`var a = "img/a.png";`))
	binary := filepath.Join(assetRoot, "data", "bad.json")
	writeFile(t, binary, []byte{'[', 0xff, '.', 'p', 'n', 'g', ']'})

	summary, err := c.Run()
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Found)
	assert.Equal(t, 2, summary.Converted)
	assert.Equal(t, 1, summary.Failed)

	assert.True(t, exists(filepath.Join(imgRoot, "personajes", "aray.webp")))
	assert.True(t, exists(filepath.Join(imgRoot, "fondos", "rio.webp")))
	assert.False(t, exists(filepath.Join(imgRoot, "readme.webp")))
	assert.False(t, exists(filepath.Join(imgRoot, "broken.webp")))
	assert.True(t, exists(filepath.Join(imgRoot, "personajes", "aray.png")), "originals are kept")

	assert.Equal(t, `<img src="img/personajes/aray.webp?v=2">`+"\n", readFile(t, html))
	assert.Equal(t, "// we used to ship png files\n", readFile(t, prose))
	assert.Equal(t, `var a = "img/a.png";`, readFile(t, vendored))

	assert.Equal(t, []string{"index.html"}, summary.References.Updated)
	assert.Equal(t, 1, summary.References.Errors)

	report := out.String()
	assert.Contains(t, report, "❌ Error converting broken.png")
	assert.Contains(t, report, "2 succeeded, 1 failed")
	assert.Contains(t, report, "📝 Updated: index.html")
	assert.Contains(t, report, "1 files updated")
}

func TestRunWithoutPNGsSkipsReferences(t *testing.T) {
	c, cfg, out := newTestConverter(t)

	html := filepath.Join(cfg.AssetRoot(), "index.html")
	writeFile(t, html, []byte(`<img src="img/a.png">`))

	summary, err := c.Run()
	require.NoError(t, err)
	assert.Zero(t, summary.Found)
	assert.Equal(t, `<img src="img/a.png">`, readFile(t, html))
	assert.Contains(t, out.String(), "No PNG files found")
}

func TestUpdateReferencesOnlyTextAssets(t *testing.T) {
	c, cfg, _ := newTestConverter(t)
	root := cfg.AssetRoot()

	css := filepath.Join(root, "css", "style.css")
	writeFile(t, css, []byte(`body { background: url("../img/fondo.png"); }`))
	upper := filepath.Join(root, "PAGE.HTML")
	writeFile(t, upper, []byte(`<img src="img/a.png">`))
	php := filepath.Join(root, "php", "ranking.php")
	writeFile(t, php, []byte(`<img src="img/a.png">`))

	summary, err := c.UpdateReferences()
	require.NoError(t, err)

	assert.Equal(t, `body { background: url("../img/fondo.webp"); }`, readFile(t, css))
	assert.Equal(t, `<img src="img/a.png">`, readFile(t, upper), "extension match is case sensitive")
	assert.Equal(t, `<img src="img/a.png">`, readFile(t, php))
	assert.Equal(t, []string{filepath.Join("css", "style.css")}, summary.Updated)
}

func TestUpdateReferencesTwiceIsNoop(t *testing.T) {
	c, cfg, _ := newTestConverter(t)
	js := filepath.Join(cfg.AssetRoot(), "js", "sprites.js")
	writeFile(t, js, []byte(`const s = { image: sprites/coin.png, frames: [a.png] };`))

	first, err := c.UpdateReferences()
	require.NoError(t, err)
	assert.Equal(t, 1, first.FilesUpdated())

	second, err := c.UpdateReferences()
	require.NoError(t, err)
	assert.Zero(t, second.FilesUpdated())
	assert.Equal(t, `const s = { image: sprites/coin.webp, frames: [a.webp] };`, readFile(t, js))
}
