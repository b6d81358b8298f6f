package staging

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/timmy/vendorseo/internal/logger"
	"github.com/timmy/vendorseo/internal/source"
)

// ManifestFileName is the JSONL manifest file name in staging sources.
const ManifestFileName = "manifest.jsonl"

// ManifestItem is one line of manifest.jsonl.
type ManifestItem struct {
	ID          string   `json:"id"`
	City        string   `json:"city"`
	Category    string   `json:"category"`
	Areas       []string `json:"areas"`
	CollectedAt string   `json:"collected_at"`
}

// Adapter reads area lists from <basePath>/<sourceID>/manifest.jsonl.
type Adapter struct {
	basePath string
	sourceID string
	items    []source.AreaItem
	skipped  int
	loaded   bool
}

// NewAdapter creates a new staging adapter.
// Parameters:
//   - basePath: base path to the staging directory.
//   - sourceID: identifier for the staging source.
// Returns:
//   - *Adapter: initialized staging adapter.
func NewAdapter(basePath, sourceID string) *Adapter {
	return &Adapter{
		basePath: basePath,
		sourceID: sourceID,
	}
}

// GetSourceID returns the source identifier with a "staging:" prefix.
func (a *Adapter) GetSourceID() string {
	return "staging:" + a.sourceID
}

// FetchBatch returns up to limit items starting at cursor, an index string.
// The manifest is read on the first call.
func (a *Adapter) FetchBatch(ctx context.Context, cursor string, limit int) ([]source.AreaItem, string, error) {
	if !a.loaded {
		if err := a.loadItems(ctx); err != nil {
			return nil, "", fmt.Errorf("failed to load staging items: %w", err)
		}
		a.loaded = true
	}

	startIndex := 0
	if cursor != "" {
		var err error
		startIndex, err = strconv.Atoi(cursor)
		if err != nil || startIndex < 0 {
			return nil, "", fmt.Errorf("invalid cursor %q", cursor)
		}
	}
	if limit <= 0 {
		limit = len(a.items)
	}

	if startIndex >= len(a.items) {
		return []source.AreaItem{}, "", nil
	}

	endIndex := startIndex + limit
	if endIndex > len(a.items) {
		endIndex = len(a.items)
	}

	nextCursor := ""
	if endIndex < len(a.items) {
		nextCursor = strconv.Itoa(endIndex)
	}

	return a.items[startIndex:endIndex], nextCursor, nil
}

// Skipped reports how many manifest lines were malformed or incomplete.
func (a *Adapter) Skipped() int {
	return a.skipped
}

func (a *Adapter) loadItems(ctx context.Context) error {
	manifestPath := filepath.Join(a.basePath, a.sourceID, ManifestFileName)

	file, err := os.Open(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("manifest file not found: %s", manifestPath)
		}
		return fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	a.items = []source.AreaItem{}
	a.skipped = 0

	lineNo := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var item ManifestItem
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			a.skipped++
			logger.CtxWarn(ctx, "Skipping malformed manifest line %d: %v", lineNo, err)
			continue
		}
		if strings.TrimSpace(item.City) == "" || len(item.Areas) == 0 {
			a.skipped++
			continue
		}

		id := item.ID
		if id == "" {
			id = strconv.Itoa(lineNo)
		}
		a.items = append(a.items, source.AreaItem{
			SourceID: fmt.Sprintf("%s_%s", a.sourceID, id),
			City:     strings.TrimSpace(item.City),
			Category: item.Category,
			Areas:    item.Areas,
		})
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading manifest: %w", err)
	}

	// Stable order for resumable cursors.
	sort.SliceStable(a.items, func(i, j int) bool {
		return a.items[i].SourceID < a.items[j].SourceID
	})

	return nil
}

// ListStagingSources lists the staging sources under basePath that have a manifest.
func ListStagingSources(basePath string) ([]string, error) {
	entries, err := os.ReadDir(basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	var sources []string
	for _, entry := range entries {
		if entry.IsDir() {
			manifestPath := filepath.Join(basePath, entry.Name(), ManifestFileName)
			if _, err := os.Stat(manifestPath); err == nil {
				sources = append(sources, entry.Name())
			}
		}
	}

	return sources, nil
}
