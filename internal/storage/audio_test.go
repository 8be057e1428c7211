package storage

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("audio_file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	files := form.File["audio_file"]
	require.Len(t, files, 1)
	return files[0]
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestAudioStore_EnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	store := NewAudioStore(dir)

	require.NoError(t, store.EnsureDir())
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Existing directory is fine.
	assert.NoError(t, store.EnsureDir())
	assert.Equal(t, dir, store.Dir())
}

func TestAudioStore_Save(t *testing.T) {
	dir := t.TempDir()
	store := NewAudioStore(dir)
	store.now = fixedClock(time.Date(2024, 3, 5, 14, 7, 9, 0, time.Local))

	path, err := store.Save(fileHeader(t, "meeting.m4a", []byte("audio-bytes")))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "20240305_140709_meeting.m4a"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "audio-bytes", string(data))
}

func TestAudioStore_SameSecondCollisionOverwrites(t *testing.T) {
	dir := t.TempDir()
	store := NewAudioStore(dir)
	store.now = fixedClock(time.Date(2024, 3, 5, 14, 7, 9, 0, time.Local))

	first, err := store.Save(fileHeader(t, "memo.wav", []byte("first")))
	require.NoError(t, err)
	second, err := store.Save(fileHeader(t, "memo.wav", []byte("second")))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	data, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAudioStore_FileName(t *testing.T) {
	store := NewAudioStore("uploads")
	store.now = fixedClock(time.Date(2023, 12, 31, 23, 59, 59, 0, time.Local))

	assert.Equal(t, "20231231_235959_녹음 1.mp3", store.FileName("녹음 1.mp3"))
	assert.Equal(t, "20231231_235959_evil.wav", store.FileName("../../evil.wav"))
}

func TestAudioStore_SaveErrors(t *testing.T) {
	t.Run("nil header", func(t *testing.T) {
		_, err := NewAudioStore(t.TempDir()).Save(nil)
		assert.Error(t, err)
	})

	t.Run("missing directory", func(t *testing.T) {
		store := NewAudioStore(filepath.Join(t.TempDir(), "does-not-exist"))
		_, err := store.Save(fileHeader(t, "a.wav", []byte("x")))
		assert.ErrorContains(t, err, "failed to save file")
	})
}

func TestWriteFile_RemovesPartialFile(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "partial.wav")
	src := io.MultiReader(strings.NewReader("half a rec"), iotest.ErrReader(errors.New("connection reset")))

	err := writeFile(dst, src)
	require.Error(t, err)

	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr))
}
