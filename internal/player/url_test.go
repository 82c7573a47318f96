package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTubeID(t *testing.T) {
	cases := []struct {
		name   string
		rawURL string
		wantID string
		wantOK bool
	}{
		{"watch link", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"watch link extra params", "https://youtube.com/watch?foo=1&v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"short link", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"embed link", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"v path link", "http://youtube.com/v/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"playlist wins over video id", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PL0123456789abc", "PL0123456789abc", true},
		{"playlist only", "https://www.youtube.com/playlist?list=PL0123456789abc", "PL0123456789abc", true},
		{"direct clip", "https://example.com/movie.mp4", "", false},
		{"short id", "https://youtu.be/shortid", "", false},
		{"bare host", "https://www.youtube.com/", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, ok := TubeID(tc.rawURL)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantID, id)
		})
	}
}

func TestIsPlaylistID(t *testing.T) {
	assert.True(t, IsPlaylistID("PL0123456789abc"))
	assert.False(t, IsPlaylistID("dQw4w9WgXcQ"))
}

func TestSplitClipBundle(t *testing.T) {
	cases := []struct {
		name       string
		raw        string
		src        string
		captionURL string
		title      string
	}{
		{
			"plain locator",
			"https://example.com/movie.mp4",
			"https://example.com/movie.mp4", "", "",
		},
		{
			"with captions",
			"https://example.com/movie.mp4~sub~https://example.com/movie.vtt",
			"https://example.com/movie.mp4", "https://example.com/movie.vtt", "",
		},
		{
			"with escaped title",
			"https://example.com/movie.mp4~title~My%20Movie",
			"https://example.com/movie.mp4", "", "My Movie",
		},
		{
			"full bundle",
			"https://example.com/movie.mp4~sub~https://example.com/movie.vtt~title~Night%20Show",
			"https://example.com/movie.mp4", "https://example.com/movie.vtt", "Night Show",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src, captionURL, title := SplitClipBundle(tc.raw)
			assert.Equal(t, tc.src, src)
			assert.Equal(t, tc.captionURL, captionURL)
			assert.Equal(t, tc.title, title)
		})
	}
}
