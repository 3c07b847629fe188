package dataset

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/noisylabs/speechset/internal/audio"
	"github.com/noisylabs/speechset/internal/catalog"
	"github.com/noisylabs/speechset/pkg/logger"
	"github.com/noisylabs/speechset/pkg/utils"
)

// Builder synthesizes additional noise-labeled examples by mixing
// speech recordings with noise material already in the manifest.
type Builder struct {
	store      *Store
	outDir     string
	targetPeak float64
	rng        *rand.Rand
	log        *logger.Logger
}

// NewBuilder returns a Builder writing mixed WAVs into outDir. A zero
// seed picks one from the clock; any other seed makes pair selection
// reproducible across runs over the same manifest.
func NewBuilder(store *Store, outDir string, targetPeak float64, seed int64, log *logger.Logger) *Builder {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if log == nil {
		log = logger.GetLogger().Named("augment")
	}
	return &Builder{
		store:      store,
		outDir:     outDir,
		targetPeak: targetPeak,
		rng:        rand.New(rand.NewSource(seed)),
		log:        log,
	}
}

// Augment mixes up to limit speech/noise pairs into new examples,
// capped by whichever source pool is smaller. Pairs are sampled
// without replacement, so no source file is mixed twice in one run.
// Every mix carries the noise label. Returns how many examples were
// written; an error aborts the run with the count so far.
func (b *Builder) Augment(ctx context.Context, limit int) (int, error) {
	speech, err := b.store.Sources(catalog.LabelSpeech)
	if err != nil {
		return 0, err
	}
	noise, err := b.store.Sources(catalog.LabelNoise)
	if err != nil {
		return 0, err
	}

	n := min(len(speech), len(noise), limit)
	if n <= 0 {
		b.log.Warnf("nothing to augment: %d speech and %d noise sources, limit %d", len(speech), len(noise), limit)
		return 0, nil
	}

	if err := utils.MakeDir(b.outDir); err != nil {
		return 0, fmt.Errorf("failed to create augment directory: %w", err)
	}

	width := PrefixWidth(len(speech), len(noise), limit)
	speechPicks := b.rng.Perm(len(speech))[:n]
	noisePicks := b.rng.Perm(len(noise))[:n]

	b.log.Infof("mixing %d speech/noise pairs into %s", n, b.outDir)

	written := 0
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		default:
		}

		s := speech[speechPicks[i]]
		d := noise[noisePicks[i]]

		name := MixName(len(noise)+i, width, filepath.Base(s.Path), filepath.Base(d.Path))
		outPath := filepath.Join(b.outDir, name)
		exists, err := b.store.HasPath(outPath)
		if err != nil {
			return written, err
		}
		if exists {
			b.log.Debugf("mix %s already present, skipping", name)
			continue
		}

		ex, err := b.mixPair(outPath, s, d)
		if err != nil {
			return written, err
		}
		if err := b.store.Add(ex); err != nil {
			return written, err
		}
		written++
	}

	b.log.Infof("finished augmenting: %d mixed examples", written)
	return written, nil
}

func (b *Builder) mixPair(outPath string, s, d Example) (*Example, error) {
	speech, err := audio.ReadWAV(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read speech source %s: %w", s.Path, err)
	}
	noise, err := audio.ReadWAV(d.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read noise source %s: %w", d.Path, err)
	}

	mixed, err := audio.Mix(speech, noise)
	if err != nil {
		return nil, fmt.Errorf("failed to mix %s with %s: %w", s.Path, d.Path, err)
	}
	mixed = audio.NormalizePeak(mixed, b.targetPeak)

	if err := audio.WriteWAV(outPath, mixed); err != nil {
		return nil, fmt.Errorf("failed to write mix %s: %w", outPath, err)
	}
	size, err := utils.FileSize(outPath)
	if err != nil {
		return nil, err
	}

	return &Example{
		ID:         uuid.NewString(),
		Path:       outPath,
		Label:      int(catalog.LabelNoise),
		Category:   d.Category,
		SourceID:   s.SourceID,
		MixedWith:  d.SourceID,
		Augmented:  true,
		SampleRate: mixed.Rate,
		DurationMs: mixed.Duration().Milliseconds(),
		SizeBytes:  size,
	}, nil
}
