package player

import (
	"net/url"
	"regexp"
	"strings"
)

// Streaming-service link shapes: an 11-character video id in the known
// path forms, or a playlist id carried in the list query parameter.
var (
	tubeLinkRe = regexp.MustCompile(`^https?://(?:www\.)?(?:youtube\.com/(?:watch\?(?:.*&)?v=|embed/|v/)|youtu\.be/)([A-Za-z0-9_-]{11})`)
	tubeListRe = regexp.MustCompile(`[?&]list=(PL[A-Za-z0-9_-]+)`)
)

const playlistIDPrefix = "PL"

// TubeID extracts the embed id from a streaming-service link. Playlist
// links yield the playlist id; plain video links yield the video id.
// ok is false when the locator is not a known streaming-service shape.
func TubeID(rawURL string) (id string, ok bool) {
	if m := tubeListRe.FindStringSubmatch(rawURL); m != nil {
		return m[1], true
	}
	if m := tubeLinkRe.FindStringSubmatch(rawURL); m != nil {
		return m[1], true
	}
	return "", false
}

// IsPlaylistID reports whether a tube id names a playlist rather than a
// single video.
func IsPlaylistID(id string) bool {
	return strings.HasPrefix(id, playlistIDPrefix)
}

// Clip bundle separators. A direct media locator may carry an optional
// caption-track locator and an escaped display title out of band:
//
//	media~sub~captionURL~title~escapedTitle
const (
	captionSeparator = "~sub~"
	titleSeparator   = "~title~"
)

// SplitClipBundle unpacks a direct media locator bundle. Missing parts
// come back empty.
func SplitClipBundle(raw string) (src, captionURL, title string) {
	rest := raw
	if i := strings.Index(rest, titleSeparator); i >= 0 {
		escaped := rest[i+len(titleSeparator):]
		rest = rest[:i]
		if unescaped, err := url.QueryUnescape(escaped); err == nil {
			title = unescaped
		} else {
			title = escaped
		}
	}
	if i := strings.Index(rest, captionSeparator); i >= 0 {
		captionURL = rest[i+len(captionSeparator):]
		rest = rest[:i]
	}
	return rest, captionURL, title
}
