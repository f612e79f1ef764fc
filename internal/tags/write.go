package tags

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/bogem/id3v2/v2"

	"github.com/franz/tag-enforcer/internal/util"
)

const id3Magic = "ID3"

// Write stores tags in the MP3 file at path. Keys with a dedicated frame
// (see FrameID) replace that frame; other keys go to TXXX frames described
// by the key. An empty value removes the frame. Frames not named in tags,
// such as cover art, are kept.
func Write(path string, tags map[string]string) error {
	id3tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if errors.Is(err, id3v2.ErrUnsupportedVersion) {
		// ID3v2.2 or older tags - strip them and retry
		util.WarnLog("Replacing unsupported ID3v2.2 tag in %s", path)
		if stripErr := stripID3v2Tag(path); stripErr != nil {
			return fmt.Errorf("strip unsupported ID3v2.2 tag: %w", stripErr)
		}
		id3tag, err = id3v2.Open(path, id3v2.Options{Parse: true})
	}
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer id3tag.Close()

	// ID3v2.4 with UTF-8 for Unicode support
	id3tag.SetVersion(4)
	id3tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := tags[key]
		frame, ok := FrameID(key)
		if !ok {
			setUserText(id3tag, key, value)
			continue
		}
		id3tag.DeleteFrames(frame)
		if value != "" {
			id3tag.AddTextFrame(frame, id3v2.EncodingUTF8, value)
		}
	}

	if err := id3tag.Save(); err != nil {
		return fmt.Errorf("save tags: %w", err)
	}
	return nil
}

// setUserText replaces the TXXX frame with the given description
func setUserText(id3tag *id3v2.Tag, description, value string) {
	var keep []id3v2.UserDefinedTextFrame
	for _, f := range id3tag.GetFrames("TXXX") {
		if udf, ok := f.(id3v2.UserDefinedTextFrame); ok && udf.Description != description {
			keep = append(keep, udf)
		}
	}
	id3tag.DeleteFrames("TXXX")
	for _, udf := range keep {
		id3tag.AddUserDefinedTextFrame(udf)
	}
	if value == "" {
		return
	}
	id3tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
		Encoding:    id3v2.EncodingUTF8,
		Description: description,
		Value:       value,
	})
}

// stripID3v2Tag removes the ID3v2 tag from the start of an MP3 file.
// bogem/id3v2 cannot rewrite ID3v2.2 tags in place.
func stripID3v2Tag(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	if len(data) < 10 || string(data[:3]) != id3Magic {
		return nil
	}

	// Synchsafe size in bytes 6-9, plus the 10-byte header
	size := int(data[6])<<21 | int(data[7])<<14 | int(data[8])<<7 | int(data[9])
	tagSize := size + 10
	if data[5]&0x10 != 0 {
		tagSize += 10 // footer
	}

	if tagSize >= len(data) {
		return fmt.Errorf("ID3v2 tag size (%d) exceeds file size (%d)", tagSize, len(data))
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}

	if err := os.WriteFile(path, data[tagSize:], info.Mode()); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
