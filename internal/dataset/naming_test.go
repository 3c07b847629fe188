package dataset

import "testing"

func TestPrefixWidth(t *testing.T) {
	tests := []struct {
		name       string
		numClean   int
		numDirty   int
		numAugment int
		expected   int
	}{
		{name: "dirty plus mixes dominates", numClean: 10, numDirty: 10, numAugment: 20, expected: 2},
		{name: "clean dominates", numClean: 100, numDirty: 5, numAugment: 0, expected: 3},
		{name: "small pools", numClean: 3, numDirty: 2, numAugment: 20, expected: 1},
		{name: "boundary to two digits", numClean: 9, numDirty: 9, numAugment: 1, expected: 2},
		{name: "empty dataset", numClean: 0, numDirty: 0, numAugment: 5, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PrefixWidth(tt.numClean, tt.numDirty, tt.numAugment)
			if got != tt.expected {
				t.Errorf("PrefixWidth(%d, %d, %d) = %d, expected %d",
					tt.numClean, tt.numDirty, tt.numAugment, got, tt.expected)
			}
		})
	}
}

func TestFormatIndex(t *testing.T) {
	if got := FormatIndex(7, 3); got != "007" {
		t.Errorf("FormatIndex(7, 3) = %q, expected %q", got, "007")
	}
	if got := FormatIndex(12, 2); got != "12" {
		t.Errorf("FormatIndex(12, 2) = %q, expected %q", got, "12")
	}
}

func TestCleanStem(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain", input: "plain.wav", expected: "plain"},
		{name: "spaces become underscores", input: "my track.mp3", expected: "my_track"},
		{name: "dash seam collapses", input: "My Track-_one.mp3", expected: "My_Track_one"},
		{name: "dash without seam survives", input: "a b-c.ogg", expected: "a_b-c"},
		{name: "no extension", input: "reading", expected: "reading"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanStem(tt.input); got != tt.expected {
				t.Errorf("CleanStem(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestExampleName(t *testing.T) {
	got := ExampleName(3, 2, "item id", "Great - Tune.mp3")
	expected := "03_item_id_Great__Tune.wav"
	if got != expected {
		t.Errorf("ExampleName = %q, expected %q", got, expected)
	}
}

func TestMixName(t *testing.T) {
	got := MixName(12, 2, "003_itemx_fooba.wav", "07_dd.wav")
	expected := "12_003_i07_dd_aug.wav"
	if got != expected {
		t.Errorf("MixName = %q, expected %q", got, expected)
	}
}
