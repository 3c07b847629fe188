package dataset

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// PrefixWidth returns the digit count for zero-padded index prefixes,
// sized so the largest planned index fits: either the clean count or
// the dirty count plus however many mixes can actually be built.
func PrefixWidth(numClean, numDirty, numAugment int) int {
	planned := numDirty + min(numAugment, numClean, numDirty)
	largest := max(numClean, planned)
	if largest < 1 {
		return 1
	}
	return len(strconv.Itoa(largest))
}

// FormatIndex renders idx zero-padded to width digits.
func FormatIndex(idx, width int) string {
	return fmt.Sprintf("%0*d", width, idx)
}

// CleanStem strips the extension from a source filename and rewrites
// it for dataset use: spaces become underscores, and the "-_" seams
// that leaves behind collapse to a single underscore.
func CleanStem(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	stem = strings.ReplaceAll(stem, " ", "_")
	stem = strings.ReplaceAll(stem, "-_", "_")
	return stem
}

// ExampleName names a fetched example file from its dataset index, the
// archive item identifier and the original filename.
func ExampleName(idx, width int, identifier, filename string) string {
	name := FormatIndex(idx, width) + "_" + identifier + "_" + CleanStem(filename) + ".wav"
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ReplaceAll(name, "-_", "_")
}

// MixName names an augmented example after both of its parents, using
// a short prefix of each so the lineage stays readable.
func MixName(idx, width int, cleanName, dirtyName string) string {
	return FormatIndex(idx, width) + "_" + stemPrefix(cleanName) + stemPrefix(dirtyName) + "_aug.wav"
}

func stemPrefix(name string) string {
	stem := CleanStem(filepath.Base(name))
	if len(stem) > 5 {
		stem = stem[:5]
	}
	return stem
}
