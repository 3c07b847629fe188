package catalog

import (
	"errors"
	"testing"
)

func TestLabelForSpeech(t *testing.T) {
	label, err := LabelFor(CategorySpeech)
	if err != nil {
		t.Fatalf("LabelFor(%q) returned error: %v", CategorySpeech, err)
	}
	if label != LabelSpeech {
		t.Errorf("LabelFor(%q) = %d, want %d", CategorySpeech, label, LabelSpeech)
	}
}

func TestLabelForNoiseCategories(t *testing.T) {
	for _, c := range Noise() {
		label, err := LabelFor(c)
		if err != nil {
			t.Fatalf("LabelFor(%q) returned error: %v", c, err)
		}
		if label != LabelNoise {
			t.Errorf("LabelFor(%q) = %d, want %d", c, label, LabelNoise)
		}
	}
}

func TestLabelForUnknownCategory(t *testing.T) {
	tests := []string{"podcast", "speech", "", "LIBRIVOX-SPEECH"}

	for _, tag := range tests {
		t.Run(tag, func(t *testing.T) {
			_, err := LabelFor(Category(tag))
			if err == nil {
				t.Fatalf("LabelFor(%q) succeeded, want error", tag)
			}
			if !errors.Is(err, ErrUnknownCategory) {
				t.Errorf("LabelFor(%q) error = %v, want ErrUnknownCategory", tag, err)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		want        Category
		expectError bool
	}{
		{name: "speech tag", input: "librivox-speech", want: CategorySpeech},
		{name: "noise tag", input: "drone", want: CategoryDrone},
		{name: "78rpm tag", input: "78rpm", want: Category78RPM},
		{name: "unknown tag", input: "vaporwave", expectError: true},
		{name: "empty tag", input: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.expectError {
				if err == nil {
					t.Fatalf("Parse(%q) succeeded, want error", tt.input)
				}
				if !errors.Is(err, ErrUnknownCategory) {
					t.Errorf("Parse(%q) error = %v, want ErrUnknownCategory", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSubject(t *testing.T) {
	if got := CategorySpeech.Subject(); got != "librivox" {
		t.Errorf("speech subject = %q, want %q", got, "librivox")
	}
	if got := CategoryDrone.Subject(); got != "drone" {
		t.Errorf("drone subject = %q, want %q", got, "drone")
	}
}

func TestAllCoversEveryLabel(t *testing.T) {
	if len(All()) != 7 {
		t.Fatalf("All() returned %d categories, want 7", len(All()))
	}
	speech := 0
	for _, c := range All() {
		label, err := LabelFor(c)
		if err != nil {
			t.Fatalf("LabelFor(%q) returned error: %v", c, err)
		}
		if label == LabelSpeech {
			speech++
		}
	}
	if speech != 1 {
		t.Errorf("got %d speech categories, want exactly 1", speech)
	}
}
