package stremerd_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/stremer/stremerd"
)

func testTime() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestCleanPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/", ""},
		{".", ""},
		{"a/b", "a/b"},
		{"/a/b/", "a/b"},
		{`a\b`, "a/b"},
		{"///music", "music"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, stremerd.CleanPath(tt.in), "input %q", tt.in)
	}
}

func TestIsValidPath(t *testing.T) {
	valid := []string{"", "a", "a/b/c", "Фото/2024", "with space/file.txt"}
	for _, p := range valid {
		assert.True(t, stremerd.IsValidPath(p), "expected valid: %q", p)
	}

	invalid := []string{"..", "a/../b", "a//b", "./a", "a/./b", "a/.", "a\x00b", "a\x1fb"}
	for _, p := range invalid {
		assert.False(t, stremerd.IsValidPath(p), "expected invalid: %q", p)
	}
}

func TestSplitRoot(t *testing.T) {
	root, rest := stremerd.SplitRoot("music/album/track.mp3")
	assert.Equal(t, "music", root)
	assert.Equal(t, "album/track.mp3", rest)

	root, rest = stremerd.SplitRoot("music")
	assert.Equal(t, "music", root)
	assert.Equal(t, "", rest)
}

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "a/b/c", stremerd.JoinPath("a", "b", "c"))
	assert.Equal(t, "b", stremerd.JoinPath("", "b", ""))
	assert.Equal(t, "", stremerd.JoinPath("", ""))
}

func TestBaseAndParent(t *testing.T) {
	assert.Equal(t, "c", stremerd.BaseName("a/b/c"))
	assert.Equal(t, "a/b", stremerd.ParentPath("a/b/c"))
	assert.Equal(t, "a", stremerd.BaseName("a"))
	assert.Equal(t, "", stremerd.ParentPath("a"))
}

func int64p(v int64) *int64 { return &v }

func TestSearchFiltersMatches(t *testing.T) {
	file := stremerd.NewFileItem("Holiday.MP4", 1500, testTime(), "videos/Holiday.MP4")

	assert.True(t, stremerd.SearchFilters{NamePattern: "holiday"}.Matches(file))
	assert.False(t, stremerd.SearchFilters{NamePattern: "work"}.Matches(file))

	assert.True(t, stremerd.SearchFilters{Kind: stremerd.KindFile}.Matches(file))
	assert.False(t, stremerd.SearchFilters{Kind: stremerd.KindDir}.Matches(file))

	assert.True(t, stremerd.SearchFilters{SizeMin: int64p(1000)}.Matches(file))
	assert.False(t, stremerd.SearchFilters{SizeMin: int64p(2000)}.Matches(file))
	assert.True(t, stremerd.SearchFilters{SizeMax: int64p(1500)}.Matches(file))
	assert.False(t, stremerd.SearchFilters{SizeMax: int64p(1000)}.Matches(file))
}

func TestSearchFiltersMissingAttributeFailsBound(t *testing.T) {
	dir := stremerd.NewDirItem("photos", testTime(), "photos")

	// Directories carry no size, so any size bound must reject them.
	assert.False(t, stremerd.SearchFilters{SizeMin: int64p(0)}.Matches(dir))
	assert.False(t, stremerd.SearchFilters{SizeMax: int64p(1 << 40)}.Matches(dir))

	noMtime := stremerd.FileItem{Name: "x", Kind: stremerd.KindFile}
	assert.False(t, stremerd.SearchFilters{ModifiedAfter: int64p(0)}.Matches(noMtime))
}
