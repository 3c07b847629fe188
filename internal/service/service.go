// Package service wires the archive client, fetcher, manifest store
// and augment builder into the operations the CLI exposes.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/noisylabs/speechset/internal/archive"
	"github.com/noisylabs/speechset/internal/audio"
	"github.com/noisylabs/speechset/internal/catalog"
	"github.com/noisylabs/speechset/internal/config"
	"github.com/noisylabs/speechset/internal/dataset"
	"github.com/noisylabs/speechset/internal/fetcher"
	"github.com/noisylabs/speechset/pkg/logger"
	"github.com/noisylabs/speechset/pkg/utils"
)

type DatasetService struct {
	cfg         config.Config
	client      *archive.Client
	store       *dataset.Store
	fetcher     *fetcher.Fetcher
	fetcherOpts []fetcher.Option
	log         *logger.Logger
}

type Option func(*DatasetService)

// WithStore substitutes an already opened manifest store.
func WithStore(store *dataset.Store) Option {
	return func(s *DatasetService) { s.store = store }
}

// WithClient substitutes a preconfigured archive client.
func WithClient(client *archive.Client) Option {
	return func(s *DatasetService) { s.client = client }
}

// WithFetcherOptions forwards options to the fetcher the service builds.
func WithFetcherOptions(opts ...fetcher.Option) Option {
	return func(s *DatasetService) { s.fetcherOpts = opts }
}

func WithLogger(log *logger.Logger) Option {
	return func(s *DatasetService) { s.log = log }
}

func NewDatasetService(cfg config.Config, opts ...Option) (*DatasetService, error) {
	s := &DatasetService{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}

	if s.log == nil {
		s.log = logger.GetLogger()
	}
	if s.store == nil {
		store, err := dataset.Open(cfg.ManifestPath())
		if err != nil {
			return nil, err
		}
		s.store = store
	}
	if s.client == nil {
		s.client = archive.NewClient(
			archive.WithBaseURL(cfg.ArchiveURL),
			archive.WithMaxRetries(cfg.MaxRetries),
			archive.WithRequestsPerSecond(cfg.RequestsPerSec),
		)
	}
	if s.fetcher == nil {
		s.fetcher = fetcher.New(cfg, s.client, s.store, s.fetcherOpts...)
	}

	return s, nil
}

// CategoryResult pairs one category with its fetch outcome.
type CategoryResult struct {
	Category catalog.Category
	Stats    fetcher.Stats
}

// Summary is the closing report of a full pipeline run.
type Summary struct {
	Results      []CategoryResult
	Mixed        int
	Speech       int64
	Noise        int64
	ByCategory   map[string]int64
	FetchedBytes int64
}

// Fetch downloads up to count items for the named category. Unknown
// category names are configuration errors.
func (s *DatasetService) Fetch(ctx context.Context, name string, count int) (fetcher.Stats, error) {
	category, err := catalog.Parse(name)
	if err != nil {
		return fetcher.Stats{}, err
	}
	return s.fetcher.Fetch(ctx, category, count)
}

// Run executes the whole pipeline: speech, every noise category, then
// augmentation, and returns the closing summary.
func (s *DatasetService) Run(ctx context.Context, cleanCount, dirtyCount, augmentCount int) (*Summary, error) {
	sum := &Summary{}

	// 1. Speech material.
	stats, err := s.fetcher.Fetch(ctx, catalog.CategorySpeech, cleanCount)
	if err != nil {
		return nil, fmt.Errorf("fetching %s failed: %w", catalog.CategorySpeech, err)
	}
	sum.Results = append(sum.Results, CategoryResult{Category: catalog.CategorySpeech, Stats: stats})
	sum.FetchedBytes += stats.Bytes

	// 2. Noise material, one pass per category.
	for _, category := range catalog.Noise() {
		stats, err := s.fetcher.Fetch(ctx, category, dirtyCount)
		if err != nil {
			return nil, fmt.Errorf("fetching %s failed: %w", category, err)
		}
		sum.Results = append(sum.Results, CategoryResult{Category: category, Stats: stats})
		sum.FetchedBytes += stats.Bytes
	}

	// 3. Mix speech into the noise beds.
	mixed, err := s.Augment(ctx, augmentCount)
	if err != nil {
		return nil, fmt.Errorf("augmentation failed: %w", err)
	}
	sum.Mixed = mixed

	// 4. Totals for the closing report.
	labelCounts, err := s.store.CountByLabel()
	if err != nil {
		return nil, err
	}
	sum.Speech = labelCounts[int(catalog.LabelSpeech)]
	sum.Noise = labelCounts[int(catalog.LabelNoise)]

	categoryCounts, err := s.store.CountByCategory()
	if err != nil {
		return nil, err
	}
	sum.ByCategory = categoryCounts

	return sum, nil
}

// Augment mixes up to limit speech/noise pairs into new examples.
func (s *DatasetService) Augment(ctx context.Context, limit int) (int, error) {
	b := dataset.NewBuilder(s.store, s.cfg.AugmentedDir(), s.cfg.TargetPeak, s.cfg.Seed, nil)
	return b.Augment(ctx, limit)
}

// Inspection describes one WAV on disk.
type Inspection struct {
	Path       string
	SampleRate int
	Samples    int
	Duration   time.Duration
	Peak       float64
	RMS        float64
	Centroid   float64
	SizeBytes  int64
	PNGPath    string
}

// Inspect decodes a WAV and reports its level and spectral statistics,
// optionally rendering a spectrogram PNG next to it.
func (s *DatasetService) Inspect(path, pngPath string) (*Inspection, error) {
	// 1. Decode.
	snd, err := audio.ReadWAV(path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	size, err := utils.FileSize(path)
	if err != nil {
		return nil, err
	}

	// 2. Level and spectral statistics.
	insp := &Inspection{
		Path:       path,
		SampleRate: snd.Rate,
		Samples:    len(snd.Samples),
		Duration:   snd.Duration(),
		Peak:       audio.Peak(snd.Samples),
		RMS:        audio.RMS(snd.Samples),
		SizeBytes:  size,
	}
	centroid, err := audio.SpectralCentroid(snd.Samples, snd.Rate)
	if err != nil {
		s.log.Warnf("no spectral centroid for %s: %v", path, err)
	} else {
		insp.Centroid = centroid
	}

	// 3. Optional spectrogram render.
	if pngPath != "" {
		if err := audio.SaveSpectrogramPNG(path, pngPath, 0, 0); err != nil {
			return nil, fmt.Errorf("failed to render spectrogram: %w", err)
		}
		insp.PNGPath = pngPath
	}

	return insp, nil
}

// List returns manifest rows, optionally filtered to one label. The
// filter accepts "speech" or "noise"; empty means everything.
func (s *DatasetService) List(filter string) ([]dataset.Example, error) {
	switch filter {
	case "":
		return s.store.List()
	case catalog.LabelSpeech.String():
		return s.store.ByLabel(catalog.LabelSpeech)
	case catalog.LabelNoise.String():
		return s.store.ByLabel(catalog.LabelNoise)
	default:
		return nil, fmt.Errorf("unknown label filter %q (want %q or %q)",
			filter, catalog.LabelSpeech.String(), catalog.LabelNoise.String())
	}
}

// Prune drops manifest rows whose WAV no longer exists on disk, so the
// next fetch is free to ingest those items again. Returns how many rows
// were removed.
func (s *DatasetService) Prune() (int, error) {
	examples, err := s.store.List()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, ex := range examples {
		if utils.FileExists(ex.Path) {
			continue
		}
		if err := s.store.DeleteByPath(ex.Path); err != nil {
			return removed, err
		}
		s.log.Debugf("pruned %s, file missing", ex.Path)
		removed++
	}
	if removed > 0 {
		s.log.Infof("pruned %d stale manifest rows", removed)
	}
	return removed, nil
}

func (s *DatasetService) Close() error {
	return s.store.Close()
}
