package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

type memoryStore struct {
	objects map[string][]byte
	types   map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryStore) Upload(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = b
	m.types[key] = contentType
	return nil
}

func (m *memoryStore) Download(_ context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(m.objects[key])), nil
}

func (m *memoryStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.objects[key]
	return ok, nil
}

func TestRunArchiveKeyLayout(t *testing.T) {
	store := newMemoryStore()
	archive := NewRunArchive(store, "/seo-runs/")
	archive.now = func() time.Time { return time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC) }

	key, err := archive.Archive(context.Background(), "vendor/../42", map[string]interface{}{"keywords": []string{"a"}})
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	if !strings.HasPrefix(key, "seo-runs/vendor___42/2025/03/09/") || !strings.HasSuffix(key, ".json") {
		t.Errorf("key = %q", key)
	}
	if store.types[key] != "application/json" {
		t.Errorf("content type = %q", store.types[key])
	}

	var decoded map[string][]string
	if err := json.Unmarshal(store.objects[key], &decoded); err != nil {
		t.Fatalf("stored body is not JSON: %v", err)
	}
	if len(decoded["keywords"]) != 1 {
		t.Errorf("decoded = %v", decoded)
	}
}

func TestDetectStorageType(t *testing.T) {
	tests := map[string]StorageType{
		"https://acct.r2.cloudflarestorage.com": StorageTypeR2,
		"s3.eu-west-1.amazonaws.com":            StorageTypeS3,
		"localhost:9000":                        StorageTypeS3Compatible,
	}
	for endpoint, want := range tests {
		if got := detectStorageType(endpoint); got != want {
			t.Errorf("detectStorageType(%q) = %q, want %q", endpoint, got, want)
		}
	}
}

func TestRunArchiveLoad(t *testing.T) {
	store := newMemoryStore()
	archive := NewRunArchive(store, "seo-runs")

	key, err := archive.Archive(context.Background(), "v-1", map[string]string{"model": "m1"})
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	body, err := archive.Load(context.Background(), "v-1", "/"+key)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !strings.Contains(string(body), `"model": "m1"`) {
		t.Errorf("body = %s", body)
	}

	tests := []struct {
		name     string
		vendorID string
		key      string
	}{
		{"other vendor", "v-2", key},
		{"missing object", "v-1", "seo-runs/v-1/2025/01/01/nope.json"},
		{"traversal", "v-1", "seo-runs/v-1/../v-2/x.json"},
		{"outside prefix", "v-1", "elsewhere/v-1/x.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := archive.Load(context.Background(), tt.vendorID, tt.key); !errors.Is(err, ErrRunNotFound) {
				t.Errorf("Load() error = %v, want ErrRunNotFound", err)
			}
		})
	}
}

func TestRunArchiveLoadRejectsCorruptObject(t *testing.T) {
	store := newMemoryStore()
	store.objects["seo-runs/v-1/bad.json"] = []byte("{not json")
	archive := NewRunArchive(store, "seo-runs")

	_, err := archive.Load(context.Background(), "v-1", "seo-runs/v-1/bad.json")
	if err == nil || errors.Is(err, ErrRunNotFound) {
		t.Errorf("Load() error = %v, want decode failure", err)
	}
}
