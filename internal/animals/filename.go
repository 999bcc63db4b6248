package animals

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

const (
	processedPrefix = "processed_"
	soundExt        = ".wav"
	imageExt        = ".jpg"
)

var (
	// Anything that is not a word character, whitespace or hyphen.
	punctuationPattern = regexp.MustCompile(`[^\w\s-]`)
	separatorPattern   = regexp.MustCompile(`[-\s]+`)
)

// CleanFilename converts an animal name to the stem used for its asset
// files: punctuation stripped, whitespace and hyphen runs joined by a single
// underscore, lowercased. The asset pipeline and the reference resolver must
// both use it.
func CleanFilename(name string) string {
	name = strings.TrimSpace(name)
	name = punctuationPattern.ReplaceAllString(name, "")
	name = separatorPattern.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	return strings.ToLower(name)
}

// SoundFile returns the processed reference filename for an animal.
func SoundFile(name string) string {
	return processedPrefix + CleanFilename(name) + soundExt
}

// ImageFile returns the image filename for an animal.
func ImageFile(name string) string {
	return CleanFilename(name) + imageExt
}

// IsProcessedSound reports whether filename is exactly the name SoundFile
// produces for some animal, so the reference resolver can find it again.
func IsProcessedSound(filename string) bool {
	key := KeyFromSoundFile(filename)
	return key != "" && filepath.Ext(filename) == soundExt && CleanFilename(key) == key
}

// KeyFromSoundFile returns the cleaned name stem of a processed filename,
// e.g. "processed_humpback_whale.wav" -> "humpback_whale". It returns ""
// when filename lacks the processed prefix.
func KeyFromSoundFile(filename string) string {
	base := filepath.Base(filename)
	if !strings.HasPrefix(base, processedPrefix) {
		return ""
	}
	return strings.TrimPrefix(strings.TrimSuffix(base, filepath.Ext(base)), processedPrefix)
}

// NameFromSoundFile recovers a display name from a processed filename,
// e.g. "processed_humpback_whale.wav" -> "Humpback Whale".
func NameFromSoundFile(filename string) string {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	stem = strings.TrimPrefix(stem, processedPrefix)

	words := strings.Fields(strings.ReplaceAll(stem, "_", " "))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
