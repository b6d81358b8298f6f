package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned by Load for a missing or foreign key.
var ErrRunNotFound = errors.New("run report not found")

// RunArchive writes keyword-generation reports as JSON objects keyed by
// <prefix>/<vendor>/<yyyy>/<mm>/<dd>/<uuid>.json.
type RunArchive struct {
	store  ObjectStorage
	prefix string
	now    func() time.Time
}

// NewRunArchive wraps store.
func NewRunArchive(store ObjectStorage, prefix string) *RunArchive {
	return &RunArchive{store: store, prefix: strings.Trim(prefix, "/"), now: time.Now}
}

// Archive serializes report and uploads it, returning the object key.
func (a *RunArchive) Archive(ctx context.Context, vendorID string, report interface{}) (string, error) {
	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode run report: %w", err)
	}

	key := path.Join(a.prefix, safeSegment(vendorID), a.now().UTC().Format("2006/01/02"), uuid.New().String()+".json")
	if err := a.store.Upload(ctx, key, bytes.NewReader(body), int64(len(body)), "application/json"); err != nil {
		return "", err
	}
	return key, nil
}

// Load reads back a report written by Archive. The key must sit under the
// vendor's own prefix.
func (a *RunArchive) Load(ctx context.Context, vendorID, key string) ([]byte, error) {
	key = strings.TrimPrefix(key, "/")
	if strings.Contains(key, "..") || !strings.HasPrefix(key, a.vendorPrefix(vendorID)) {
		return nil, ErrRunNotFound
	}

	ok, err := a.store.Exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRunNotFound
	}

	rc, err := a.store.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read run report: %w", err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("run report %s is not valid JSON", key)
	}
	return body, nil
}

func (a *RunArchive) vendorPrefix(vendorID string) string {
	return path.Join(a.prefix, safeSegment(vendorID)) + "/"
}

func safeSegment(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(s)
	if s == "" {
		return "unknown"
	}
	return s
}
