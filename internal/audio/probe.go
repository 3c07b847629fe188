package audio

import (
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/tcolgate/mp3"
)

// Tags holds the embedded title and artist of a source file. Absent or
// unreadable tags are not an error; the zero value is returned instead.
type Tags struct {
	Title  string
	Artist string
}

// ReadTags extracts embedded metadata from an audio file. Files without
// tags (common for archive uploads) yield empty fields.
func ReadTags(path string) Tags {
	f, err := os.Open(path)
	if err != nil {
		return Tags{}
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		return Tags{}
	}

	return Tags{
		Title:  strings.TrimSpace(meta.Title()),
		Artist: strings.TrimSpace(meta.Artist()),
	}
}

// MP3Duration walks the frames of an MP3 file and sums their durations.
// Frame walking is slower than trusting a header but survives files with
// missing or wrong Xing headers, which archive uploads often have.
func MP3Duration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	decoder := mp3.NewDecoder(f)
	var frame mp3.Frame
	var skipped int
	var total time.Duration

	for {
		if err := decoder.Decode(&frame, &skipped); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, err
		}
		total += frame.Duration()
	}

	return total, nil
}
