package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/timmy/vendorseo/internal/config"
	"github.com/timmy/vendorseo/internal/domain"
	"github.com/timmy/vendorseo/internal/logger"
	"github.com/timmy/vendorseo/internal/repository"
	"github.com/timmy/vendorseo/internal/service"
	"github.com/timmy/vendorseo/internal/source/staging"
)

type report struct {
	City        string                   `json:"city"`
	Niche       string                   `json:"niche"`
	Location    *domain.EnrichedLocation `json:"location"`
	Competitors *domain.CompetitorSet    `json:"competitors,omitempty"`
	Seeds       []domain.AutosuggestSeed `json:"seeds"`
	Saved       *domain.LocationRecord   `json:"saved,omitempty"`
}

func main() {
	appLogger := logger.New(&logger.EnvConfig{
		Level:       "info",
		Format:      "json",
		Output:      os.Stderr,
		ServiceName: "vendorseo-enrich",
		Environment: "local",
	})
	logger.SetDefaultLogger(appLogger)

	city := flag.String("city", "", "City to enrich (required)")
	niche := flag.String("niche", "fashion", "Business niche used for competitor names")
	seeds := flag.String("seeds", "", "Comma-separated autosuggest seed terms (default: \"<niche> <city>\")")
	save := flag.Bool("save", false, "Merge discovered neighbourhoods into the location registry as areas")
	importID := flag.String("import", "", "Staging source to bulk import into the location registry instead of enriching a city")
	stagingDir := flag.String("staging", "./data/staging", "Directory holding staging sources (<dir>/<source>/manifest.jsonl)")
	batch := flag.Int("batch", 50, "Items per batch when importing")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	if strings.TrimSpace(*city) == "" && *importID == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	if *importID != "" {
		runImport(ctx, appLogger, cfg, *stagingDir, *importID, *batch)
		return
	}

	geocoder := service.NewGeocoder(&service.GeocoderConfig{
		BaseURL:   cfg.Geocoder.BaseURL,
		Country:   cfg.Geocoder.Country,
		UserAgent: cfg.Geocoder.UserAgent,
		Timeout:   cfg.Geocoder.Timeout,
	}, nil)
	autosuggest := service.NewAutosuggestClient(&service.AutosuggestConfig{
		BaseURL: cfg.Autosuggest.BaseURL,
		Timeout: cfg.Autosuggest.Timeout,
	}, nil)
	finder := service.NewCompetitorFinder(
		service.NewOverpassClient(&service.OverpassConfig{URL: cfg.Overpass.URL, Timeout: cfg.Overpass.Timeout}, nil),
		autosuggest,
		&service.CompetitorFinderConfig{
			RadiusMeters:   cfg.Overpass.RadiusMeters,
			MaxSuggestions: cfg.Autosuggest.MaxSuggestions,
		},
		nil,
	)

	out := report{City: *city, Niche: *niche, Seeds: []domain.AutosuggestSeed{}}

	loc, err := geocoder.Resolve(ctx, *city)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to resolve city")
	}
	if loc == nil {
		appLogger.WithField(logger.FieldCity, *city).Warn("City not found, nothing to enrich")
	} else {
		out.Competitors = finder.Find(ctx, *city, *niche, loc.Lat, loc.Lon)
		loc.Neighborhoods = out.Competitors.Neighborhoods
		out.Seeds = autosuggest.ExpandSeeds(ctx, seedTerms(*seeds, *niche, *city))
	}
	out.Location = loc

	if *save && loc != nil && len(loc.Neighborhoods) > 0 {
		stores, err := repository.NewStores(&cfg.Database)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize database")
		}
		defer stores.Close()

		rec, err := service.NewLocationService(stores.Locations).
			AddAreas(ctx, *city, string(domain.CategoryArea), loc.Neighborhoods)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to save neighbourhoods")
		}
		out.Saved = rec
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		appLogger.WithError(err).Fatal("Failed to write report")
	}

	appLogger.WithFields(logger.Fields{
		logger.FieldCity:  *city,
		logger.FieldCount: len(out.Seeds),
		"resolved":        loc != nil,
	}).Info("Enrichment completed")
}

func runImport(ctx context.Context, appLogger *logger.Logger, cfg *config.Config, dir, id string, batch int) {
	stores, err := repository.NewStores(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}
	defer stores.Close()

	src := staging.NewAdapter(dir, id)
	stats, err := service.NewLocationService(stores.Locations).Import(ctx, src, batch)
	if err != nil {
		appLogger.WithError(err).Error("Import stopped early")
	}
	if stats != nil {
		appLogger.WithFields(logger.Fields{
			"total":     stats.TotalItems,
			"processed": stats.ProcessedItems,
			"skipped":   stats.SkippedItems,
			"failed":    stats.FailedItems,
			"malformed": src.Skipped(),
		}).Info("Import completed")
	}
}

func seedTerms(raw, niche, city string) []string {
	var terms []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}
	if len(terms) == 0 {
		terms = []string{niche + " " + city}
	}
	return terms
}
