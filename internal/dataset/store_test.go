package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/noisylabs/speechset/internal/catalog"
)

// Helper to open a manifest store backed by a temp directory.
func setupStore(t *testing.T) (*Store, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "speechset.sqlite3")
	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open manifest store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})

	return store, dbPath
}

func testExample(path string, label catalog.Label, category string) Example {
	return Example{
		ID:         uuid.NewString(),
		Path:       path,
		Label:      int(label),
		Category:   category,
		SourceID:   "item-" + filepath.Base(path),
		SampleRate: 44100,
		DurationMs: 1500,
		SizeBytes:  132300,
	}
}

func TestOpenCreatesManifest(t *testing.T) {
	store, dbPath := setupStore(t)

	if store == nil {
		t.Fatal("Expected non-nil store")
	}
	if store.DB == nil {
		t.Fatal("Expected non-nil GORM handle")
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("Manifest file was not created at %s", dbPath)
	}
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "speechset.sqlite3")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open store under missing directory: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("Manifest file was not created at %s", dbPath)
	}
}

func TestAddAndList(t *testing.T) {
	store, _ := setupStore(t)

	b := testExample("data/clean/002_b.wav", catalog.LabelSpeech, "librivox-speech")
	a := testExample("data/dirty/001_a.wav", catalog.LabelNoise, "drone")
	for _, ex := range []Example{b, a} {
		if err := store.Add(&ex); err != nil {
			t.Fatalf("Failed to add example: %v", err)
		}
	}

	got, err := store.List()
	if err != nil {
		t.Fatalf("Failed to list examples: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 examples, got %d", len(got))
	}
	// List orders by path, so the dirty file comes first.
	if got[0].Path != a.Path || got[1].Path != b.Path {
		t.Errorf("Unexpected order: %s, %s", got[0].Path, got[1].Path)
	}
	if got[1].Category != "librivox-speech" {
		t.Errorf("Expected category librivox-speech, got %s", got[1].Category)
	}
}

func TestAddDuplicatePathFails(t *testing.T) {
	store, _ := setupStore(t)

	ex := testExample("data/clean/001_a.wav", catalog.LabelSpeech, "librivox-speech")
	if err := store.Add(&ex); err != nil {
		t.Fatalf("Failed to add example: %v", err)
	}

	dup := testExample("data/clean/001_a.wav", catalog.LabelSpeech, "librivox-speech")
	if err := store.Add(&dup); err == nil {
		t.Error("Expected error when adding duplicate path, got nil")
	}
}

func TestAddBatch(t *testing.T) {
	store, _ := setupStore(t)

	batch := make([]Example, 0, 10)
	for i := 0; i < 10; i++ {
		batch = append(batch, testExample(
			filepath.Join("data/dirty", FormatIndex(i, 2)+"_x.wav"),
			catalog.LabelNoise, "music",
		))
	}
	if err := store.AddBatch(batch); err != nil {
		t.Fatalf("Failed to add batch: %v", err)
	}

	got, err := store.List()
	if err != nil {
		t.Fatalf("Failed to list examples: %v", err)
	}
	if len(got) != 10 {
		t.Errorf("Expected 10 examples, got %d", len(got))
	}

	if err := store.AddBatch(nil); err != nil {
		t.Errorf("Empty batch should be a no-op, got %v", err)
	}
}

func TestByLabelAndSources(t *testing.T) {
	store, _ := setupStore(t)

	speech := testExample("data/clean/001_s.wav", catalog.LabelSpeech, "librivox-speech")
	noise := testExample("data/dirty/001_n.wav", catalog.LabelNoise, "ambient")
	mixed := testExample("data/augmented/002_mix_aug.wav", catalog.LabelNoise, "ambient")
	mixed.Augmented = true
	mixed.MixedWith = "item-n"

	for _, ex := range []Example{speech, noise, mixed} {
		ex := ex
		if err := store.Add(&ex); err != nil {
			t.Fatalf("Failed to add example: %v", err)
		}
	}

	noisy, err := store.ByLabel(catalog.LabelNoise)
	if err != nil {
		t.Fatalf("Failed to query by label: %v", err)
	}
	if len(noisy) != 2 {
		t.Errorf("Expected 2 noise examples, got %d", len(noisy))
	}

	sources, err := store.Sources(catalog.LabelNoise)
	if err != nil {
		t.Fatalf("Failed to query sources: %v", err)
	}
	if len(sources) != 1 {
		t.Fatalf("Expected 1 non-augmented noise source, got %d", len(sources))
	}
	if sources[0].Path != noise.Path {
		t.Errorf("Expected source %s, got %s", noise.Path, sources[0].Path)
	}
}

func TestHasPath(t *testing.T) {
	store, _ := setupStore(t)

	ex := testExample("data/clean/001_a.wav", catalog.LabelSpeech, "librivox-speech")
	if err := store.Add(&ex); err != nil {
		t.Fatalf("Failed to add example: %v", err)
	}

	ok, err := store.HasPath(ex.Path)
	if err != nil {
		t.Fatalf("Failed to check path: %v", err)
	}
	if !ok {
		t.Error("Expected HasPath to report true for stored example")
	}

	ok, err = store.HasPath("data/clean/missing.wav")
	if err != nil {
		t.Fatalf("Failed to check missing path: %v", err)
	}
	if ok {
		t.Error("Expected HasPath to report false for unknown path")
	}
}

func TestHasSource(t *testing.T) {
	store, _ := setupStore(t)

	ex := testExample("data/dirty/001_n.wav", catalog.LabelNoise, "music")
	ex.SourceID = "some-album"
	if err := store.Add(&ex); err != nil {
		t.Fatalf("Failed to add example: %v", err)
	}
	// Augmented rows reference sources but do not count as ingested.
	mix := testExample("data/augmented/002_mix_aug.wav", catalog.LabelNoise, "music")
	mix.SourceID = "some-reading"
	mix.Augmented = true
	if err := store.Add(&mix); err != nil {
		t.Fatalf("Failed to add example: %v", err)
	}

	ok, err := store.HasSource("some-album")
	if err != nil {
		t.Fatalf("Failed to check source: %v", err)
	}
	if !ok {
		t.Error("Expected HasSource true for ingested item")
	}

	ok, err = store.HasSource("some-reading")
	if err != nil {
		t.Fatalf("Failed to check source: %v", err)
	}
	if ok {
		t.Error("Expected HasSource false when only an augmented row references the item")
	}
}

func TestCountByLabel(t *testing.T) {
	store, _ := setupStore(t)

	for i := 0; i < 3; i++ {
		ex := testExample(filepath.Join("data/clean", FormatIndex(i, 1)+"_s.wav"), catalog.LabelSpeech, "librivox-speech")
		if err := store.Add(&ex); err != nil {
			t.Fatalf("Failed to add example: %v", err)
		}
	}
	ex := testExample("data/dirty/0_n.wav", catalog.LabelNoise, "noise")
	if err := store.Add(&ex); err != nil {
		t.Fatalf("Failed to add example: %v", err)
	}

	counts, err := store.CountByLabel()
	if err != nil {
		t.Fatalf("Failed to count by label: %v", err)
	}
	if counts[int(catalog.LabelSpeech)] != 3 {
		t.Errorf("Expected 3 speech examples, got %d", counts[int(catalog.LabelSpeech)])
	}
	if counts[int(catalog.LabelNoise)] != 1 {
		t.Errorf("Expected 1 noise example, got %d", counts[int(catalog.LabelNoise)])
	}
}

func TestCountByCategory(t *testing.T) {
	store, _ := setupStore(t)

	paths := map[string]string{
		"data/dirty/0_a.wav": "music",
		"data/dirty/1_b.wav": "music",
		"data/dirty/2_c.wav": "drone",
	}
	for path, category := range paths {
		ex := testExample(path, catalog.LabelNoise, category)
		if err := store.Add(&ex); err != nil {
			t.Fatalf("Failed to add example: %v", err)
		}
	}

	counts, err := store.CountByCategory()
	if err != nil {
		t.Fatalf("Failed to count by category: %v", err)
	}
	if counts["music"] != 2 {
		t.Errorf("Expected 2 music examples, got %d", counts["music"])
	}
	if counts["drone"] != 1 {
		t.Errorf("Expected 1 drone example, got %d", counts["drone"])
	}
}

func TestDeleteByPath(t *testing.T) {
	store, _ := setupStore(t)

	ex := testExample("data/clean/001_a.wav", catalog.LabelSpeech, "librivox-speech")
	if err := store.Add(&ex); err != nil {
		t.Fatalf("Failed to add example: %v", err)
	}

	if err := store.DeleteByPath(ex.Path); err != nil {
		t.Fatalf("Failed to delete example: %v", err)
	}

	ok, err := store.HasPath(ex.Path)
	if err != nil {
		t.Fatalf("Failed to check path: %v", err)
	}
	if ok {
		t.Error("Expected example to be gone after delete")
	}

	// Deleting a missing path is not an error.
	if err := store.DeleteByPath("data/clean/missing.wav"); err != nil {
		t.Errorf("Expected nil error deleting missing path, got %v", err)
	}
}

func TestNilStoreGuards(t *testing.T) {
	var store *Store

	if _, err := store.List(); err == nil {
		t.Error("Expected error from nil store List")
	}
	if err := store.Add(&Example{}); err == nil {
		t.Error("Expected error from nil store Add")
	}
	if err := store.Close(); err != nil {
		t.Errorf("Expected nil error from nil store Close, got %v", err)
	}
}
