package animals

import (
	"fmt"

	"go.senan.xyz/taglib"
)

// commentTag is the TagLib property key for comments.
const commentTag = "COMMENT"

// TagAlbum is written to every processed reference clip.
const TagAlbum = "Marine Animal Sounds"

// WriteTags stores the animal's name, category and description in the
// audio file at path.
func WriteTags(path string, a Animal) error {
	tags := map[string][]string{
		taglib.Title: {a.Name},
		taglib.Album: {TagAlbum},
	}
	if a.Category != "" {
		tags[taglib.Genre] = []string{string(a.Category)}
	}
	if a.Description != "" {
		tags[commentTag] = []string{a.Description}
	}

	if err := taglib.WriteTags(path, tags, 0); err != nil {
		return fmt.Errorf("failed to write tags to %s: %w", path, err)
	}
	return nil
}

// ReadTitle returns the title tag of the file, or "" if it has none.
func ReadTitle(path string) string {
	tags, err := taglib.ReadTags(path)
	if err != nil {
		return ""
	}
	if v := tags[taglib.Title]; len(v) > 0 {
		return v[0]
	}
	return ""
}
