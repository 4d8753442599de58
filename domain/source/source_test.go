package source

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestAcquire_ValidImage(t *testing.T) {
	s := NewSource(nil)
	h, err := s.Acquire(&Candidate{Name: "a.png", MediaType: "image/png", Data: pngBytes(t, 40, 20)})
	require.NoError(t, err)
	require.NotNil(t, h)
	require.Equal(t, image.Pt(40, 20), h.Bounds())
	require.EqualValues(t, 1, s.Live())
	require.False(t, h.Released())
}

func TestAcquire_RejectsNonImages(t *testing.T) {
	s := NewSource(nil)
	cases := []*Candidate{
		nil,
		{Name: "empty.png", MediaType: "image/png"},
		{Name: "doc.pdf", MediaType: "application/pdf", Data: []byte("%PDF-1.4")},
		{Name: "noext", MediaType: "", Data: pngBytes(t, 2, 2)},
		{Name: "broken.png", MediaType: "image/png", Data: []byte("not really a png")},
	}
	for _, c := range cases {
		h, err := s.Acquire(c)
		require.ErrorIs(t, err, ErrInvalidFileType)
		require.Nil(t, h)
	}
	require.EqualValues(t, 0, s.Live())
}

func TestRelease_RunsHooksOnceAndCountsDown(t *testing.T) {
	s := NewSource(nil)
	h, err := s.Acquire(&Candidate{Name: "a.png", MediaType: "image/png", Data: pngBytes(t, 4, 4)})
	require.NoError(t, err)
	calls := 0
	h.OnRelease(func() { calls++ })
	h.Release()
	h.Release()
	require.Equal(t, 1, calls)
	require.True(t, h.Released())
	require.Nil(t, h.Data)
	require.Equal(t, image.Point{}, h.Bounds())
	require.EqualValues(t, 0, s.Live())

	// hooks registered late still run
	late := false
	h.OnRelease(func() { late = true })
	require.True(t, late)
}

func TestCandidateFromPath_DeclaresByExtension(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "photo.PNG")
	require.NoError(t, os.WriteFile(p, pngBytes(t, 3, 3), 0o644))
	c, err := CandidateFromPath(p)
	require.NoError(t, err)
	require.Equal(t, "image/png", c.MediaType)
	require.Equal(t, "photo.PNG", c.Name)

	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0o644))
	c, err = CandidateFromPath(txt)
	require.NoError(t, err)
	_, err = NewSource(nil).Acquire(c)
	require.ErrorIs(t, err, ErrInvalidFileType)
}

func TestDeclaredType_SniffsUnknownExtension(t *testing.T) {
	require.Equal(t, "image/png", DeclaredType("capture", pngBytes(t, 2, 2)))
	require.Equal(t, "", DeclaredType("capture", nil))
}
