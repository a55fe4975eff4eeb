package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cybersafe-india/pagetrans"
)

func TestExporter_Export(t *testing.T) {
	c := NewMemory(3600)
	c.Store("Hello", "hi", "नमस्ते")
	c.Store("World", "hi", "विश्व")

	exporter := NewExporter(c)
	var buf bytes.Buffer

	err := exporter.Export(&buf, map[string]string{"site": "cybersafe"})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	// Parse the output
	var export ExportFormat
	if err := json.Unmarshal(buf.Bytes(), &export); err != nil {
		t.Fatalf("Failed to parse export: %v", err)
	}

	if export.Version != "1.0" {
		t.Errorf("Expected version 1.0, got %s", export.Version)
	}

	if len(export.Entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(export.Entries))
	}

	if export.Entries[0] != (Entry{Lang: "hi", Source: "Hello", Translated: "नमस्ते"}) {
		t.Errorf("Unexpected first entry: %+v", export.Entries[0])
	}

	if export.Metadata["site"] != "cybersafe" {
		t.Errorf("Expected metadata site=cybersafe, got %v", export.Metadata)
	}

	if !strings.Contains(buf.String(), `"source": "Hello"`) {
		t.Errorf("Expected source field in JSON, got: %s", buf.String())
	}
}

func TestImporter_Import(t *testing.T) {
	jsonData := `{
		"version": "1.0",
		"exported_at": "2026-01-01T00:00:00Z",
		"entries": [
			{"lang": "hi", "source": "Hello", "translated": "नमस्ते"},
			{"lang": "ta", "source": "Hello", "translated": "வணக்கம்"},
			{"lang": "", "source": "orphan", "translated": "x"}
		],
		"metadata": {"site": "cybersafe"}
	}`

	c := NewMemory(3600)
	importer := NewImporter(c)

	result, err := importer.Import(strings.NewReader(jsonData))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if result.Imported != 2 {
		t.Errorf("Expected 2 imported, got %d", result.Imported)
	}

	if result.Failed != 1 {
		t.Errorf("Expected 1 failed, got %d", result.Failed)
	}

	if result.Metadata["site"] != "cybersafe" {
		t.Errorf("Expected metadata to be carried, got %v", result.Metadata)
	}

	// Verify entries are in cache
	if val, ok := c.Lookup("Hello", "hi"); !ok || val != "नमस्ते" {
		t.Errorf("hi entry not found or wrong value: %s", val)
	}

	if val, ok := c.Lookup("Hello", "ta"); !ok || val != "வணக்கம்" {
		t.Errorf("ta entry not found or wrong value: %s", val)
	}
}

type failingCache struct {
	*Memory
}

func (f failingCache) Store(text, lang, translated string) error {
	return &pagetrans.CacheError{Message: "read only"}
}

func TestImporter_StoreFailure(t *testing.T) {
	jsonData := `{"version":"1.0","entries":[{"lang":"hi","source":"Hello","translated":"नमस्ते"}]}`

	importer := NewImporter(failingCache{NewMemory(0)})
	result, err := importer.Import(strings.NewReader(jsonData))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Imported != 0 || result.Failed != 1 {
		t.Errorf("Expected 0 imported / 1 failed, got %+v", result)
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	// Create and populate source cache
	src := NewMemory(3600)
	src.Store("Report fraud", "hi", "धोखाधड़ी की रिपोर्ट करें")
	src.Store("Report fraud", "mr", "फसवणुकीची तक्रार करा")

	path := filepath.Join(t.TempDir(), "cache.json")

	if err := NewExporter(src).ExportToFile(path, nil); err != nil {
		t.Fatalf("ExportToFile failed: %v", err)
	}

	// Import into new cache
	dst := NewMemory(3600)
	result, err := NewImporter(dst).ImportFromFile(path)
	if err != nil {
		t.Fatalf("ImportFromFile failed: %v", err)
	}

	if result.Imported != 2 {
		t.Errorf("Expected 2 imported, got %d", result.Imported)
	}

	// Verify
	if val, ok := dst.Lookup("Report fraud", "mr"); !ok || val != "फसवणुकीची तक्रार करा" {
		t.Errorf("mr entry not found or wrong value")
	}
}

func TestExporter_EmptyCache(t *testing.T) {
	c := NewMemory(3600)
	exporter := NewExporter(c)

	var buf bytes.Buffer
	err := exporter.Export(&buf, nil)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	if !strings.Contains(buf.String(), `"entries": []`) {
		t.Errorf("Empty export should carry an empty entries array, got: %s", buf.String())
	}
}

func TestImporter_InvalidJSON(t *testing.T) {
	c := NewMemory(3600)
	importer := NewImporter(c)

	_, err := importer.Import(strings.NewReader("invalid json"))
	if err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

func TestImporter_MissingFile(t *testing.T) {
	_, err := NewImporter(NewMemory(0)).ImportFromFile(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}
