// Package catalog enumerates the archive categories the dataset is built
// from and fixes the category-to-label classification rule.
package catalog

import (
	"errors"
	"fmt"
)

// Label is the binary class of a dataset example.
type Label int

const (
	// LabelNoise marks music, noise, ambient sound, or speech mixed
	// with any of those.
	LabelNoise Label = 0
	// LabelSpeech marks clean, unmixed speech.
	LabelSpeech Label = 1
)

func (l Label) String() string {
	if l == LabelSpeech {
		return "speech"
	}
	return "noise"
}

// Category is one of the archive classification tags used to select
// source material.
type Category string

const (
	CategorySpeech       Category = "librivox-speech"
	CategoryMusic        Category = "music"
	CategoryInstrumental Category = "instrumental"
	Category78RPM        Category = "78rpm"
	CategoryAmbient      Category = "ambient"
	CategoryNoise        Category = "noise"
	CategoryDrone        Category = "drone"
)

// ErrUnknownCategory reports a tag outside the enumerated set. Callers
// treat it as a configuration error and abort rather than retry.
var ErrUnknownCategory = errors.New("unknown category")

// labels is the classification rule: librivox-speech is the positive
// class, every other tag contributes negative examples.
var labels = map[Category]Label{
	CategorySpeech:       LabelSpeech,
	CategoryMusic:        LabelNoise,
	CategoryInstrumental: LabelNoise,
	Category78RPM:        LabelNoise,
	CategoryAmbient:      LabelNoise,
	CategoryNoise:        LabelNoise,
	CategoryDrone:        LabelNoise,
}

// subjects overrides the archive search subject where it differs from
// the tag itself. Speech candidates come from the librivox collection.
var subjects = map[Category]string{
	CategorySpeech: "librivox",
}

// All returns every known category in a stable order, speech first.
func All() []Category {
	return []Category{
		CategorySpeech,
		CategoryMusic,
		CategoryInstrumental,
		Category78RPM,
		CategoryAmbient,
		CategoryNoise,
		CategoryDrone,
	}
}

// Noise returns the negative-class categories in a stable order.
func Noise() []Category {
	return All()[1:]
}

// Parse validates a category tag from user input.
func Parse(s string) (Category, error) {
	c := Category(s)
	if _, ok := labels[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// LabelFor returns the binary label for a category. Unknown categories
// are rejected; no example is produced for them.
func LabelFor(c Category) (Label, error) {
	l, ok := labels[c]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, string(c))
	}
	return l, nil
}

// Subject returns the archive search subject for the category.
func (c Category) Subject() string {
	if s, ok := subjects[c]; ok {
		return s
	}
	return string(c)
}
