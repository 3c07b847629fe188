package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"

	"github.com/noisylabs/speechset/internal/catalog"
	"github.com/noisylabs/speechset/internal/config"
	"github.com/noisylabs/speechset/internal/service"
	"github.com/noisylabs/speechset/pkg/logger"
)

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// addCommonFlags registers the flags every command shares.
func addCommonFlags(fs *flag.FlagSet) (configPath, dataDir, logLevel *string) {
	configPath = fs.String("config", getEnvOrDefault("SPEECHSET_CONFIG", ""), "Path to YAML config file")
	dataDir = fs.String("data", "", "Data directory override (env: SPEECHSET_DATA_DIR, default: data)")
	logLevel = fs.String("log-level", "", "Log level: DEBUG, INFO, WARN (env: SPEECHSET_LOG_LEVEL)")
	return configPath, dataDir, logLevel
}

func loadConfig(configPath, dataDir, logLevel string) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	return cfg, cfg.Validate()
}

func createService(cfg config.Config) *service.DatasetService {
	fmt.Println("\n🔧 Initializing service...")
	svc, err := service.NewDatasetService(cfg)
	if err != nil {
		fmt.Printf("❌ Failed to create service: %v\n", err)
		logger.GetLogger().Errorf("Service initialization failed: %v", err)
		os.Exit(1)
	}
	return svc
}

func main() {
	log := logger.GetLogger()

	printBanner()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := os.Args[1]
	log.Infof("Executing command: %s", command)

	switch command {
	case "fetch":
		handleFetch(ctx)
	case "run":
		handleRun(ctx)
	case "augment":
		handleAugment(ctx)
	case "inspect":
		handleInspect()
	case "list":
		handleList()
	case "prune":
		handlePrune()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printBanner() {
	banner := `
                            _         _
 ___ _ __   ___  ___  ___ | |__  ___ | |_
/ __| '_ \ / _ \/ _ \/ __|| '_ \/ __|| __|
\__ \ |_) |  __/  __/ (__ | | | \__ \| |_
|___/ .__/ \___|\___|\___||_| |_|___/ \__|
    |_|

        Speech / Noise Dataset Builder
`
	fmt.Println(banner)
}

func handleFetch(ctx context.Context) {
	log := logger.GetLogger()

	fetchCmd := flag.NewFlagSet("fetch", flag.ExitOnError)
	category := fetchCmd.String("category", "", "Category tag to fetch (required)")
	count := fetchCmd.Int("count", 10, "How many items to fetch")
	configPath, dataDir, logLevel := addCommonFlags(fetchCmd)
	fetchCmd.Parse(os.Args[2:])

	if *category == "" {
		fmt.Println("Error: --category is required")
		fmt.Printf("Known categories: %s\n", categoryList())
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath, *dataDir, *logLevel)
	if err != nil {
		fmt.Printf("❌ Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	svc := createService(cfg)
	defer svc.Close()

	fmt.Printf("📥 Fetching up to %d %s item(s)...\n\n", *count, *category)

	stats, err := svc.Fetch(ctx, *category, *count)
	if err != nil {
		fmt.Printf("\n❌ Fetch failed: %v\n", err)
		log.Errorf("Fetch failed: %v", err)
		os.Exit(1)
	}

	fmt.Printf("\n✅ %s: %d fetched, %d cached, %d skipped (%s)\n",
		*category, stats.Fetched, stats.Cached, stats.Skipped, humanize.Bytes(uint64(stats.Bytes)))
}

func handleRun(ctx context.Context) {
	log := logger.GetLogger()

	runCmd := flag.NewFlagSet("run", flag.ExitOnError)
	clean := runCmd.Int("clean", 20, "Speech items to fetch")
	dirty := runCmd.Int("dirty", 10, "Items to fetch per noise category")
	augment := runCmd.Int("augment", -1, "Mixed examples to build (default: num_augment from config)")
	configPath, dataDir, logLevel := addCommonFlags(runCmd)
	runCmd.Parse(os.Args[2:])

	cfg, err := loadConfig(*configPath, *dataDir, *logLevel)
	if err != nil {
		fmt.Printf("❌ Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if *augment < 0 {
		*augment = cfg.NumAugment
	}

	svc := createService(cfg)
	defer svc.Close()

	fmt.Println("📥 Building dataset, this may take a while...")
	fmt.Println()

	sum, err := svc.Run(ctx, *clean, *dirty, *augment)
	if err != nil {
		fmt.Printf("\n❌ Run failed: %v\n", err)
		log.Errorf("Run failed: %v", err)
		os.Exit(1)
	}

	fmt.Println("\n📊 Dataset summary:")
	for _, res := range sum.Results {
		fmt.Printf("   %-16s %3d fetched, %3d cached, %3d skipped\n",
			res.Category, res.Stats.Fetched, res.Stats.Cached, res.Stats.Skipped)
	}
	fmt.Printf("   %-16s %3d mixed\n", "augmented", sum.Mixed)
	fmt.Println()
	fmt.Printf("✅ %d speech / %d noise examples on disk, %s fetched this run\n",
		sum.Speech, sum.Noise, humanize.Bytes(uint64(sum.FetchedBytes)))
}

func handleAugment(ctx context.Context) {
	log := logger.GetLogger()

	augmentCmd := flag.NewFlagSet("augment", flag.ExitOnError)
	limit := augmentCmd.Int("limit", -1, "Mixed examples to build (default: num_augment from config)")
	configPath, dataDir, logLevel := addCommonFlags(augmentCmd)
	augmentCmd.Parse(os.Args[2:])

	cfg, err := loadConfig(*configPath, *dataDir, *logLevel)
	if err != nil {
		fmt.Printf("❌ Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if *limit < 0 {
		*limit = cfg.NumAugment
	}

	svc := createService(cfg)
	defer svc.Close()

	fmt.Printf("🎛  Mixing up to %d speech/noise pair(s)...\n", *limit)

	written, err := svc.Augment(ctx, *limit)
	if err != nil {
		fmt.Printf("\n❌ Augmentation failed: %v\n", err)
		log.Errorf("Augment failed: %v", err)
		os.Exit(1)
	}

	fmt.Printf("\n✅ Built %d mixed example(s)\n", written)
}

func handleInspect() {
	log := logger.GetLogger()

	if len(os.Args) < 3 || strings.HasPrefix(os.Args[2], "-") {
		fmt.Println("Usage: speechset inspect <wav_file> [--png <path>]")
		os.Exit(1)
	}
	wavPath := os.Args[2]

	inspectCmd := flag.NewFlagSet("inspect", flag.ExitOnError)
	png := inspectCmd.String("png", "", "Render a spectrogram PNG to this path")
	configPath, dataDir, logLevel := addCommonFlags(inspectCmd)
	inspectCmd.Parse(os.Args[3:])

	cfg, err := loadConfig(*configPath, *dataDir, *logLevel)
	if err != nil {
		fmt.Printf("❌ Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	svc := createService(cfg)
	defer svc.Close()

	fmt.Printf("🔍 Inspecting %s...\n", wavPath)

	insp, err := svc.Inspect(wavPath, *png)
	if err != nil {
		fmt.Printf("\n❌ Inspect failed: %v\n", err)
		log.Errorf("Inspect failed: %v", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Printf("   File:      %s (%s)\n", filepath.Base(insp.Path), humanize.Bytes(uint64(insp.SizeBytes)))
	fmt.Printf("   Rate:      %d Hz\n", insp.SampleRate)
	fmt.Printf("   Samples:   %d (%s)\n", insp.Samples, insp.Duration)
	fmt.Printf("   Peak:      %.3f\n", insp.Peak)
	fmt.Printf("   RMS:       %.3f\n", insp.RMS)
	fmt.Printf("   Centroid:  %.0f Hz\n", insp.Centroid)
	if insp.PNGPath != "" {
		fmt.Printf("   Spectrogram: %s\n", insp.PNGPath)
	}
}

func handleList() {
	log := logger.GetLogger()

	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	label := listCmd.String("label", "", "Filter by label: speech or noise")
	configPath, dataDir, logLevel := addCommonFlags(listCmd)
	listCmd.Parse(os.Args[2:])

	cfg, err := loadConfig(*configPath, *dataDir, *logLevel)
	if err != nil {
		fmt.Printf("❌ Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	svc := createService(cfg)
	defer svc.Close()

	rows, err := svc.List(*label)
	if err != nil {
		fmt.Printf("❌ Failed to list examples: %v\n", err)
		log.Errorf("List failed: %v", err)
		os.Exit(1)
	}

	if len(rows) == 0 {
		fmt.Println("\n📭 No examples in dataset")
		return
	}

	fmt.Printf("\n📚 %d example(s):\n\n", len(rows))
	for i, ex := range rows {
		fmt.Printf("%d. %s [%s]\n", i+1, filepath.Base(ex.Path), catalog.Label(ex.Label))
		fmt.Printf("   Category: %s | Source: %s", ex.Category, ex.SourceID)
		if ex.MixedWith != "" {
			fmt.Printf(" + %s", ex.MixedWith)
		}
		fmt.Println()
		if ex.DurationMs > 0 {
			secs := ex.DurationMs / 1000
			fmt.Printf("   Duration: %d:%02d | Size: %s\n", secs/60, secs%60, humanize.Bytes(uint64(ex.SizeBytes)))
		}
		fmt.Println()
	}
	log.Infof("Listed %d examples", len(rows))
}

func handlePrune() {
	log := logger.GetLogger()

	pruneCmd := flag.NewFlagSet("prune", flag.ExitOnError)
	configPath, dataDir, logLevel := addCommonFlags(pruneCmd)
	pruneCmd.Parse(os.Args[2:])

	cfg, err := loadConfig(*configPath, *dataDir, *logLevel)
	if err != nil {
		fmt.Printf("❌ Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	svc := createService(cfg)
	defer svc.Close()

	removed, err := svc.Prune()
	if err != nil {
		fmt.Printf("❌ Prune failed: %v\n", err)
		log.Errorf("Prune failed: %v", err)
		os.Exit(1)
	}

	if removed == 0 {
		fmt.Println("\n✅ Manifest is consistent, nothing to prune")
		return
	}
	fmt.Printf("\n🧹 Removed %d stale manifest row(s) whose files are gone\n", removed)
}

func categoryList() string {
	names := make([]string, 0, len(catalog.All()))
	for _, c := range catalog.All() {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}

func printUsage() {
	fmt.Println("speechset - Speech / Noise Dataset Builder")
	fmt.Println("\nCommon Options (every command):")
	fmt.Println("  --config <path>    YAML config file (env: SPEECHSET_CONFIG)")
	fmt.Println("  --data <dir>       Data directory (env: SPEECHSET_DATA_DIR, default: data)")
	fmt.Println("  --log-level <lvl>  DEBUG, INFO, WARN (env: SPEECHSET_LOG_LEVEL, default: INFO)")
	fmt.Println("\nUsage:")
	fmt.Println("  speechset fetch --category <tag> [--count <n>]")
	fmt.Println("  speechset run [--clean <n>] [--dirty <n>] [--augment <n>]")
	fmt.Println("  speechset augment [--limit <n>]")
	fmt.Println("  speechset inspect <wav_file> [--png <path>]")
	fmt.Println("  speechset list [--label speech|noise]")
	fmt.Println("  speechset prune")
	fmt.Println("\nCategories:")
	fmt.Printf("  %s\n", categoryList())
	fmt.Println("\nExamples:")
	fmt.Println("  # Pull 20 drone recordings")
	fmt.Println("  speechset fetch --category drone --count 20")
	fmt.Println()
	fmt.Println("  # Build the whole dataset with defaults")
	fmt.Println("  speechset run")
	fmt.Println()
	fmt.Println("  # Rebuild mixes only, reproducibly")
	fmt.Println("  SPEECHSET_SEED=42 speechset augment --limit 50")
	fmt.Println()
	fmt.Println("  # Check one file and render its spectrogram")
	fmt.Println("  speechset inspect data/clean/0_reading.wav --png reading.png")
}
