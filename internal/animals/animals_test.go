package animals

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aykutaksit/marine-animals/internal/audio"
)

func TestCleanFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "single word", in: "Dolphin", want: "dolphin"},
		{name: "two words", in: "Humpback Whale", want: "humpback_whale"},
		{name: "apostrophe", in: "Cuvier's Beaked Whale", want: "cuviers_beaked_whale"},
		{name: "risso apostrophe", in: "Risso's Dolphin", want: "rissos_dolphin"},
		{name: "hyphen", in: "Long-finned Pilot Whale", want: "long_finned_pilot_whale"},
		{name: "repeated whitespace", in: "Harbor   Seal", want: "harbor_seal"},
		{name: "surrounding space", in: "  Orca  ", want: "orca"},
		{name: "punctuation only", in: "(Walrus)!", want: "walrus"},
		{name: "already clean", in: "bar_jack", want: "bar_jack"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanFilename(tt.in); got != tt.want {
				t.Errorf("CleanFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAssetFilenames(t *testing.T) {
	if got := SoundFile("Humpback Whale"); got != "processed_humpback_whale.wav" {
		t.Errorf("SoundFile() = %q", got)
	}
	if got := ImageFile("Snapping Shrimp"); got != "snapping_shrimp.jpg" {
		t.Errorf("ImageFile() = %q", got)
	}
	if got := NameFromSoundFile("processed_humpback_whale.wav"); got != "Humpback Whale" {
		t.Errorf("NameFromSoundFile() = %q", got)
	}
	if got := KeyFromSoundFile("/x/processed_humpback_whale.wav"); got != "humpback_whale" {
		t.Errorf("KeyFromSoundFile() = %q", got)
	}
}

func TestIsProcessedSound(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"/x/processed_orca.wav", true},
		{"processed_humpback_whale.wav", true},
		{"orca.wav", false},
		{"processed_orca.mp3", false},
		{"processed_orca.WAV", false},
		{"processed_Orca.wav", false},
		{"processed_orca whale.wav", false},
		{"processed_.wav", false},
		{".partial-processed_orca.wav", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := IsProcessedSound(tt.filename); got != tt.want {
				t.Errorf("IsProcessedSound(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	if c.Len() != 28 {
		t.Errorf("catalog has %d animals, want 28", c.Len())
	}

	for _, a := range c.All() {
		if a.Description == "" {
			t.Errorf("%s has no description", a.Name)
		}
		if a.Category != Mammal && a.Category != Fish && a.Category != Crustacean {
			t.Errorf("%s has unknown category %q", a.Name, a.Category)
		}
	}

	a, ok := c.Lookup("humpback_whale")
	if !ok || a.Name != "Humpback Whale" {
		t.Errorf("Lookup(humpback_whale) = %+v, %v", a, ok)
	}
	if _, ok := c.Lookup("Kraken"); ok {
		t.Error("Lookup(Kraken) should fail")
	}
}

func TestNewCatalogSkipsDuplicates(t *testing.T) {
	c := NewCatalog([]Animal{
		{Name: "Orca", Category: Mammal},
		{Name: "orca", Category: Fish},
		{Name: "!!!"},
	})
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
	if a, _ := c.Lookup("Orca"); a.Category != Mammal || a.Description != defaultDescription {
		t.Errorf("Lookup(Orca) = %+v", a)
	}
}

func writeClip(t *testing.T, path string) {
	t.Helper()
	clip := audio.Clip{Samples: make([]float64, 2205), SampleRate: 22050}
	for i := range clip.Samples {
		clip.Samples[i] = 0.1
	}
	if err := audio.WriteWAVFile(path, clip); err != nil {
		t.Fatal(err)
	}
}

func TestAvailable(t *testing.T) {
	sounds := t.TempDir()
	images := t.TempDir()

	writeClip(t, filepath.Join(sounds, SoundFile("Orca")))
	writeClip(t, filepath.Join(sounds, SoundFile("Bar Jack")))
	writeClip(t, filepath.Join(sounds, "orca.wav"))
	os.WriteFile(filepath.Join(sounds, "notes.txt"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(images, ImageFile("Orca")), []byte("jpg"), 0644)

	entries, err := Default().Available(sounds, images)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(entries), entries)
	}

	if entries[0].Name != "Bar Jack" || entries[0].Image != "" {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].Name != "Orca" || entries[1].Image != "orca.jpg" || entries[1].Sound != "processed_orca.wav" {
		t.Errorf("entries[1] = %+v", entries[1])
	}
	if entries[0].Key != "bar_jack" || entries[1].Key != "orca" {
		t.Errorf("keys = %q, %q", entries[0].Key, entries[1].Key)
	}
}

func TestAvailableTitledEntryKeepsFileKey(t *testing.T) {
	sounds := t.TempDir()
	path := filepath.Join(sounds, "processed_kraken.wav")
	writeClip(t, path)
	if err := WriteTags(path, Animal{Name: "The Kraken"}); err != nil {
		t.Fatal(err)
	}
	writeClip(t, filepath.Join(sounds, "processed_Sea_Monster.WAV"))

	entries, err := Default().Available(sounds, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d: %+v", len(entries), entries)
	}
	if entries[0].Name != "The Kraken" || entries[0].Key != "kraken" {
		t.Errorf("entry = %+v, want name The Kraken with key kraken", entries[0])
	}
}

func TestAvailableMissingDir(t *testing.T) {
	entries, err := Default().Available(filepath.Join(t.TempDir(), "nope"), "")
	if err != nil || len(entries) != 0 {
		t.Errorf("Available() = %v, %v; want empty", entries, err)
	}
}

func TestWriteAndReadTags(t *testing.T) {
	path := filepath.Join(t.TempDir(), SoundFile("Walrus"))
	writeClip(t, path)

	walrus, _ := Default().Lookup("Walrus")
	if err := WriteTags(path, walrus); err != nil {
		t.Fatalf("WriteTags failed: %v", err)
	}
	if got := ReadTitle(path); got != "Walrus" {
		t.Errorf("ReadTitle() = %q, want Walrus", got)
	}
}

func TestReadTitleMissingFile(t *testing.T) {
	if got := ReadTitle(filepath.Join(t.TempDir(), "missing.wav")); got != "" {
		t.Errorf("ReadTitle() = %q, want empty", got)
	}
}
