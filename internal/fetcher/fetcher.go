// Package fetcher pulls labeled source material out of the public
// archive and files it into the dataset layout. It plans a batch from
// search results, downloads raw audio concurrently, then ingests the
// downloads one by one so index prefixes stay stable.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/noisylabs/speechset/internal/archive"
	"github.com/noisylabs/speechset/internal/audio"
	"github.com/noisylabs/speechset/internal/catalog"
	"github.com/noisylabs/speechset/internal/config"
	"github.com/noisylabs/speechset/internal/dataset"
	"github.com/noisylabs/speechset/pkg/logger"
	"github.com/noisylabs/speechset/pkg/utils"
)

// validExtensions are the container formats worth downloading; anything
// else attached to an item (images, torrents, text) is ignored.
var validExtensions = map[string]bool{
	".mp3":  true,
	".aac":  true,
	".mp4":  true,
	".ogg":  true,
	".wav":  true,
	".opus": true,
}

// errSkipItem marks per-item failures that should not abort the batch.
var errSkipItem = errors.New("skipping item")

// Stats summarizes one fetch batch.
type Stats struct {
	Requested int
	Fetched   int
	Cached    int
	Skipped   int
	Bytes     int64
}

// ConvertFunc turns an arbitrary audio container into a mono WAV and
// returns the path it wrote. Swapped out in tests.
type ConvertFunc func(ctx context.Context, inputPath, outputDir string, cfg audio.ConvertConfig) (string, error)

// Fetcher downloads archive items for one category at a time and turns
// them into labeled dataset examples.
type Fetcher struct {
	cfg      config.Config
	client   *archive.Client
	store    *dataset.Store
	convert  ConvertFunc
	progress io.Writer
	log      *logger.Logger
}

type Option func(*Fetcher)

// WithConvert overrides the audio conversion step.
func WithConvert(fn ConvertFunc) Option {
	return func(f *Fetcher) { f.convert = fn }
}

// WithProgressOutput redirects the progress bar, or silences it when
// given io.Discard.
func WithProgressOutput(w io.Writer) Option {
	return func(f *Fetcher) { f.progress = w }
}

func WithLogger(log *logger.Logger) Option {
	return func(f *Fetcher) { f.log = log }
}

func New(cfg config.Config, client *archive.Client, store *dataset.Store, opts ...Option) *Fetcher {
	f := &Fetcher{
		cfg:     cfg,
		client:  client,
		store:   store,
		convert: audio.ConvertToMonoWAV,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.log == nil {
		f.log = logger.GetLogger().Named("fetch")
	}
	return f
}

type candidate struct {
	item archive.Item
	file archive.FileEntry
}

type downloadResult struct {
	cand    candidate
	rawPath string
	err     error
}

// Fetch downloads up to count items tagged with the category's subject
// and ingests them as labeled examples. Items that fail along the way
// are skipped and counted, never fatal; the archive holding fewer
// usable items than requested is not an error either. Storage failures
// abort the batch.
func (f *Fetcher) Fetch(ctx context.Context, category catalog.Category, count int) (Stats, error) {
	stats := Stats{Requested: count}

	label, err := catalog.LabelFor(category)
	if err != nil {
		return stats, err
	}
	if count <= 0 {
		return stats, nil
	}

	cands, err := f.plan(ctx, category, count, &stats)
	if err != nil {
		return stats, err
	}
	if len(cands) == 0 {
		f.log.Warnf("no new usable %s items found", category)
		return stats, nil
	}
	if len(cands) < count-stats.Cached {
		f.log.Warnf("archive has %d usable %s items, %d requested", len(cands)+stats.Cached, category, count)
	}

	f.log.Infof("downloading %d %s items", len(cands), category)
	results := f.download(ctx, category, cands)

	// Ingest in identifier order so reruns assign the same prefixes.
	sort.Slice(results, func(i, j int) bool {
		return results[i].cand.item.Identifier < results[j].cand.item.Identifier
	})

	if err := f.ingest(ctx, category, label, results, &stats); err != nil {
		return stats, err
	}

	f.log.Infof("%s: %d fetched, %d cached, %d skipped", category, stats.Fetched, stats.Cached, stats.Skipped)
	return stats, nil
}

// plan walks search pages and picks up to count candidates with a
// usable original audio file. Items already in the manifest count
// toward the quota as cached so reruns stay idempotent.
func (f *Fetcher) plan(ctx context.Context, category catalog.Category, count int, stats *Stats) ([]candidate, error) {
	subject := category.Subject()

	var out []candidate
	for page := 1; len(out)+stats.Cached < count; page++ {
		items, total, err := f.client.Search(ctx, subject, f.cfg.RowsPerPage, page)
		if err != nil {
			return nil, fmt.Errorf("failed to search for %s: %w", category, err)
		}
		if len(items) == 0 {
			break
		}

		for _, item := range items {
			if len(out)+stats.Cached >= count {
				break
			}

			ingested, err := f.store.HasSource(item.Identifier)
			if err != nil {
				return nil, err
			}
			if ingested {
				f.log.Debugf("%s already ingested, skipping", item.Identifier)
				stats.Cached++
				continue
			}

			meta, err := f.client.Metadata(ctx, item.Identifier)
			if err != nil {
				f.log.Warnf("skipping %s: %v", item.Identifier, err)
				stats.Skipped++
				continue
			}
			file, ok := f.usableFile(meta)
			if !ok {
				f.log.Debugf("skipping %s: no usable audio file", item.Identifier)
				stats.Skipped++
				continue
			}
			if category == catalog.CategorySpeech && reviewsFlagNoise(meta.Reviews) {
				f.log.Debugf("skipping %s: reviewers call the recording noisy", item.Identifier)
				stats.Skipped++
				continue
			}

			out = append(out, candidate{item: item, file: file})
		}

		if page*f.cfg.RowsPerPage >= total {
			break
		}
	}
	return out, nil
}

// usableFile picks the first original audio file within the size cap.
func (f *Fetcher) usableFile(meta *archive.ItemMetadata) (archive.FileEntry, bool) {
	if meta.Metadata.Mediatype != "audio" {
		return archive.FileEntry{}, false
	}
	for _, file := range meta.Files {
		if file.Source != "original" {
			continue
		}
		if !validExtensions[strings.ToLower(filepath.Ext(file.Name))] {
			continue
		}
		if file.SizeBytes() > f.cfg.MaxFileBytes() {
			continue
		}
		return file, true
	}
	return archive.FileEntry{}, false
}

// reviewsFlagNoise reports whether any reviewer describes the recording
// as noisy. Only speech candidates are screened this way; the noise
// categories are wanted noisy.
func reviewsFlagNoise(reviews []archive.Review) bool {
	for _, r := range reviews {
		text := strings.ToLower(r.Title + " " + r.Body)
		if strings.Contains(text, "noisy") || strings.Contains(text, "background noise") {
			return true
		}
	}
	return false
}

// download fans the candidates out over a worker pool and collects raw
// files under data/raw/<category>/<identifier>/.
func (f *Fetcher) download(ctx context.Context, category catalog.Category, cands []candidate) []downloadResult {
	popts := []mpb.ContainerOption{mpb.WithWidth(64)}
	if f.progress != nil {
		popts = append(popts, mpb.WithOutput(f.progress))
	}
	p := mpb.New(popts...)
	bar := p.AddBar(int64(len(cands)),
		mpb.PrependDecorators(
			decor.Name(string(category)+": "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.EwmaETA(decor.ET_STYLE_GO, 60),
		),
	)

	workers := f.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU() - 1
		if workers < 2 {
			workers = 2
		}
	}

	jobs := make(chan candidate, len(cands))
	results := make(chan downloadResult, len(cands))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for cand := range jobs {
				results <- f.fetchRaw(ctx, category, cand)
			}
		}()
	}

	for _, cand := range cands {
		jobs <- cand
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]downloadResult, 0, len(cands))
	for r := range results {
		bar.Increment()
		out = append(out, r)
	}
	p.Wait()
	return out
}

func (f *Fetcher) fetchRaw(ctx context.Context, category catalog.Category, cand candidate) downloadResult {
	itemDir := filepath.Join(f.cfg.RawDir(), string(category), cand.item.Identifier)
	rawPath := filepath.Join(itemDir, cand.file.Name)

	if utils.FileExists(rawPath) {
		f.log.Debugf("%s exists, skipping re-download", rawPath)
		return downloadResult{cand: cand, rawPath: rawPath}
	}

	n, err := f.client.Download(ctx, cand.item.Identifier, cand.file.Name, rawPath)
	if err != nil {
		return downloadResult{cand: cand, err: err}
	}
	f.log.Debugf("downloaded %s (%s)", rawPath, humanize.Bytes(uint64(n)))
	return downloadResult{cand: cand, rawPath: rawPath}
}

// ingest converts each raw download to a normalized mono WAV, names it
// with a stable zero-padded prefix and records it in the manifest.
func (f *Fetcher) ingest(ctx context.Context, category catalog.Category, label catalog.Label, results []downloadResult, stats *Stats) error {
	destDir := f.cfg.DirtyDir()
	if label == catalog.LabelSpeech {
		destDir = f.cfg.CleanDir()
	}
	if err := utils.MakeDir(destDir); err != nil {
		return fmt.Errorf("failed to create %s: %w", destDir, err)
	}

	speech, err := f.store.Sources(catalog.LabelSpeech)
	if err != nil {
		return err
	}
	noise, err := f.store.Sources(catalog.LabelNoise)
	if err != nil {
		return err
	}

	incoming := 0
	for _, r := range results {
		if r.err == nil {
			incoming++
		}
	}
	cleanTotal, dirtyTotal := len(speech), len(noise)
	idx := len(speech)
	if label == catalog.LabelNoise {
		idx = len(noise)
		dirtyTotal += incoming
	} else {
		cleanTotal += incoming
	}
	width := dataset.PrefixWidth(cleanTotal, dirtyTotal, f.cfg.NumAugment)

	for _, r := range results {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if r.err != nil {
			f.log.Warnf("skipping %s: %v", r.cand.item.Identifier, r.err)
			stats.Skipped++
			continue
		}

		ex, err := f.ingestOne(ctx, category, label, r, idx, width, destDir)
		if err != nil {
			if errors.Is(err, errSkipItem) {
				f.log.Warnf("%v", err)
				stats.Skipped++
				continue
			}
			return err
		}
		if err := f.store.Add(ex); err != nil {
			return err
		}

		idx++
		stats.Fetched++
		stats.Bytes += ex.SizeBytes
	}
	return nil
}

func (f *Fetcher) ingestOne(ctx context.Context, category catalog.Category, label catalog.Label, r downloadResult, idx, width int, destDir string) (*dataset.Example, error) {
	item := r.cand.item

	// A truncated or non-audio payload shows up here, before ffmpeg
	// gets involved.
	if strings.EqualFold(filepath.Ext(r.rawPath), ".mp3") {
		if _, err := audio.MP3Duration(r.rawPath); err != nil {
			return nil, fmt.Errorf("%w %s: does not decode as mp3: %v", errSkipItem, item.Identifier, err)
		}
	}

	wavPath, err := f.convert(ctx, r.rawPath, filepath.Dir(r.rawPath), audio.ConvertConfig{SampleRate: f.cfg.SampleRate})
	if err != nil {
		return nil, fmt.Errorf("%w %s: conversion failed: %v", errSkipItem, item.Identifier, err)
	}

	snd, err := audio.ReadWAV(wavPath)
	if err != nil {
		return nil, fmt.Errorf("%w %s: decoding failed: %v", errSkipItem, item.Identifier, err)
	}
	snd = audio.NormalizePeak(snd, f.cfg.TargetPeak)

	// Drop the intermediate; the raw dir keeps only the original
	// download. When the original is itself a WAV the two paths
	// coincide and it stays.
	if wavPath != r.rawPath {
		if err := utils.DeleteFile(wavPath); err != nil {
			f.log.Warnf("could not remove %s: %v", wavPath, err)
		}
	}

	name := dataset.ExampleName(idx, width, item.Identifier, r.cand.file.Name)
	destPath := filepath.Join(destDir, name)
	if err := audio.WriteWAV(destPath, snd); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", destPath, err)
	}
	size, err := utils.FileSize(destPath)
	if err != nil {
		return nil, err
	}

	tags := audio.ReadTags(r.rawPath)
	title := tags.Title
	if title == "" {
		title = item.Title
	}

	return &dataset.Example{
		ID:         uuid.NewString(),
		Path:       destPath,
		Label:      int(label),
		Category:   string(category),
		SourceID:   item.Identifier,
		Title:      title,
		Artist:     tags.Artist,
		SampleRate: snd.Rate,
		DurationMs: snd.Duration().Milliseconds(),
		SizeBytes:  size,
	}, nil
}
