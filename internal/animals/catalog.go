// Package animals holds the built-in marine animal catalog and the naming
// rules that connect an animal to its sound and image assets.
package animals

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Category groups animals for display.
type Category string

const (
	Mammal     Category = "Mammal"
	Fish       Category = "Fish"
	Crustacean Category = "Crustacean"
)

const defaultDescription = "Listen to this amazing marine animal! 🌊"

// Animal is one catalog entry.
type Animal struct {
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	Description string   `json:"description"`
}

// Key returns the normalized identifier of the animal.
func (a Animal) Key() string { return CleanFilename(a.Name) }

var builtin = []Animal{
	{"Dolphin", Mammal, "Dolphins make high-pitched whistles and clicks that sound like happy giggles! 🐬"},
	{"Beluga", Mammal, "Belugas are called \"canaries of the sea\" with their high-pitched calls! 🐳"},
	{"Orca", Mammal, "Orcas make distinctive whistles and clicks that sound like underwater songs! 🐋"},
	{"Humpback Whale", Mammal, "Humpback whales sing beautiful songs that echo through the ocean! 🐋"},
	{"Harbor Seal", Mammal, "Harbor seals make deep barking sounds like a friendly puppy! 🦭"},
	{"Right Whale", Mammal, "Right whales make low, peaceful sounds like gentle ocean waves! 🐋"},
	{"Gray Whale", Mammal, "Gray whales make deep, gentle sounds like underwater sighs! 🐋"},
	{"Sperm Whale", Mammal, "Sperm whales make deep clicking sounds like underwater drums! 🐋"},
	{"Bowhead Whale", Mammal, "Bowhead whales sing complex songs that last for hours! 🐋"},
	{"Minke Whale", Mammal, "Minke whales make short, high-pitched sounds like underwater chirps! 🐋"},
	{"Pilot Whale", Mammal, "Pilot whales make whistling sounds like underwater flutes! 🐋"},
	{"Rissos Dolphin", Mammal, ""},
	{"Cuviers Beaked Whale", Mammal, "Cuvier's beaked whales make clicking sounds like underwater sonar! 🐋"},
	{"Leopard Seal", Mammal, ""},
	{"Weddell Seal", Mammal, "Weddell seals make whistling sounds like underwater wind! 🦭"},
	{"Bearded Seal", Mammal, "Bearded seals make trilling sounds like underwater birds! 🦭"},
	{"Ringed Seal", Mammal, ""},
	{"Walrus", Mammal, ""},
	{"Manatee", Mammal, ""},
	{"Snapping Shrimp", Crustacean, "Snapping shrimp make popping sounds like underwater bubbles! 🦐"},
	{"Atlantic Croaker", Fish, "Atlantic croakers make croaking sounds like underwater frogs! 🐟"},
	{"Barred Grunt", Fish, "Barred grunts make grunting sounds like underwater pigs! 🐟"},
	{"Black Drum", Fish, "Black drums make drumming sounds like underwater percussion! 🐟"},
	{"Oyster Toadfish", Fish, "Oyster toadfish make boat whistle sounds like underwater trains! 🐟"},
	{"Perch", Fish, "Perch make clicking sounds like underwater crickets! 🐟"},
	{"Scalyfin Corvina", Fish, ""},
	{"Midshipman", Fish, "Midshipmen make humming sounds like underwater bees! 🐟"},
	{"Bar Jack", Fish, "Bar jacks make clicking sounds like underwater castanets! 🐟"},
}

// Catalog indexes animals by their normalized key.
type Catalog struct {
	animals []Animal
	byKey   map[string]Animal
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return NewCatalog(builtin)
}

// NewCatalog builds a catalog. Later entries with a duplicate key are ignored.
func NewCatalog(list []Animal) *Catalog {
	c := &Catalog{byKey: make(map[string]Animal, len(list))}
	for _, a := range list {
		if a.Description == "" {
			a.Description = defaultDescription
		}
		k := a.Key()
		if _, dup := c.byKey[k]; dup || k == "" {
			continue
		}
		c.byKey[k] = a
		c.animals = append(c.animals, a)
	}
	return c
}

// All returns every animal in catalog order.
func (c *Catalog) All() []Animal {
	out := make([]Animal, len(c.animals))
	copy(out, c.animals)
	return out
}

// Len returns the number of animals.
func (c *Catalog) Len() int { return len(c.animals) }

// Lookup finds an animal by display name or normalized key.
func (c *Catalog) Lookup(name string) (Animal, bool) {
	a, ok := c.byKey[CleanFilename(name)]
	return a, ok
}

// Entry is an animal whose reference sound exists on disk. Key is the
// filename stem of Sound, which the reference resolver accepts even when
// the display name came from a title tag.
type Entry struct {
	Animal
	Key   string `json:"key"`
	Sound string `json:"sound"`
	Image string `json:"image,omitempty"`
}

// Available scans soundsDir for processed reference WAVs and returns the
// matching entries sorted by name. Files that are not in the catalog are
// included under the name found in their title tag, or derived from the
// filename. Image is set only when imagesDir holds a matching picture.
func (c *Catalog) Available(soundsDir, imagesDir string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(soundsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read sounds directory: %w", err)
	}

	var out []Entry
	for _, de := range dirEntries {
		if de.IsDir() || !IsProcessedSound(de.Name()) {
			continue
		}
		path := filepath.Join(soundsDir, de.Name())
		key := KeyFromSoundFile(de.Name())

		animal, ok := c.Lookup(key)
		if !ok {
			name := ReadTitle(path)
			if name == "" {
				name = NameFromSoundFile(de.Name())
			}
			animal = Animal{Name: name, Description: defaultDescription}
		}

		entry := Entry{Animal: animal, Key: key, Sound: de.Name()}
		if imagesDir != "" {
			img := ImageFile(key)
			if _, err := os.Stat(filepath.Join(imagesDir, img)); err == nil {
				entry.Image = img
			}
		}
		out = append(out, entry)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
