// Package tags reads and writes the ID3v2 frames of MP3 files as logical
// raw tag keys (see meta.RawTags)
package tags

import (
	"sort"

	"github.com/franz/tag-enforcer/internal/meta"
)

// frameIDs maps logical raw keys to ID3v2.3/2.4 frame ids
var frameIDs = map[string]string{
	meta.RawTitle:               "TIT2",
	meta.RawArtist:              "TPE1",
	meta.RawAlbum:               "TALB",
	meta.RawAlbumArtist:         "TPE2",
	meta.RawGenre:               "TCON",
	meta.RawTrack:               "TRCK",
	meta.RawDisc:                "TPOS",
	meta.RawYear:                "TYER",
	meta.RawReleaseTime:         "TDRL",
	meta.RawOriginalReleaseTime: "TDOR",
	meta.RawRecordingTime:       "TDRC",
}

// v22Frames are the ID3v2.2 names of the same frames. dhowden/tag reports
// them as-is; there is no v2.2 equivalent of the release time frames.
var v22Frames = map[string]string{
	"TT2": meta.RawTitle,
	"TP1": meta.RawArtist,
	"TAL": meta.RawAlbum,
	"TP2": meta.RawAlbumArtist,
	"TCO": meta.RawGenre,
	"TRK": meta.RawTrack,
	"TPA": meta.RawDisc,
	"TYE": meta.RawYear,
}

// FrameID returns the ID3v2 frame for a logical key
func FrameID(key string) (string, bool) {
	id, ok := frameIDs[key]
	return id, ok
}

// Keys returns the logical keys with a dedicated frame, sorted
func Keys() []string {
	keys := make([]string, 0, len(frameIDs))
	for k := range frameIDs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// keyForFrame reverses frameIDs and v22Frames
func keyForFrame(frame string) (string, bool) {
	for key, id := range frameIDs {
		if id == frame {
			return key, true
		}
	}
	key, ok := v22Frames[frame]
	return key, ok
}
