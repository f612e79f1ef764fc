package tags

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"

	"github.com/franz/tag-enforcer/internal/meta"
	"github.com/franz/tag-enforcer/internal/util"
)

// Read returns the raw tags of an MP3 file keyed by logical name. Frames
// without a logical name are ignored. A file without any tag yields an
// empty map.
func Read(path string) (meta.RawTags, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if errors.Is(err, tag.ErrNoTagsFound) {
		return meta.RawTags{}, nil
	}
	if err != nil {
		// dhowden/tag has issues with some UTF-16 encoded ID3 tags
		util.DebugLog("dhowden/tag failed on %s (%v), retrying with id3v2", path, err)
		return readWithID3v2(path)
	}
	switch m.Format() {
	case tag.ID3v2_2, tag.ID3v2_3, tag.ID3v2_4:
	case tag.ID3v1:
		return fromID3v1(m), nil
	default:
		return nil, fmt.Errorf("%w: %s has %s tags", util.ErrUnsupported, path, m.Format())
	}

	raw := meta.RawTags{}
	for name, value := range m.Raw() {
		key, ok := keyForFrame(name)
		if !ok {
			continue
		}
		s, ok := value.(string)
		if !ok {
			continue
		}
		raw[key] = strings.TrimRight(s, "\x00")
	}

	// TCON may hold an ID3v1 genre reference such as "(17)"
	if _, ok := raw[meta.RawGenre]; ok && m.Genre() != "" {
		raw[meta.RawGenre] = m.Genre()
	}

	return raw, nil
}

// fromID3v1 maps the fixed ID3v1 fields
func fromID3v1(m tag.Metadata) meta.RawTags {
	raw := meta.RawTags{
		meta.RawTitle:  m.Title(),
		meta.RawArtist: m.Artist(),
		meta.RawAlbum:  m.Album(),
		meta.RawGenre:  m.Genre(),
	}
	if m.Year() > 0 {
		raw[meta.RawYear] = strconv.Itoa(m.Year())
	}
	if track, _ := m.Track(); track > 0 {
		raw[meta.RawTrack] = strconv.Itoa(track)
	}
	for k, v := range raw {
		if v == "" {
			delete(raw, k)
		}
	}
	return raw
}

// readWithID3v2 reads the same frames with bogem/id3v2
func readWithID3v2(path string) (meta.RawTags, error) {
	id3tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read tags: %w", err)
	}
	defer id3tag.Close()

	raw := meta.RawTags{}
	for key, frame := range frameIDs {
		if text := getTextFrame(id3tag, frame); text != "" {
			raw[key] = text
		}
	}
	return raw, nil
}

func getTextFrame(id3tag *id3v2.Tag, frameID string) string {
	frames := id3tag.GetFrames(frameID)
	if len(frames) == 0 {
		return ""
	}
	if tf, ok := frames[0].(id3v2.TextFrame); ok {
		return strings.TrimRight(tf.Text, "\x00")
	}
	return ""
}
