package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"top-ten/internal/catalog"
)

func TestCreateMigrationWritesPair(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	upPath, downPath, err := createMigration(dir, "add_year_index", now)
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if filepath.Base(upPath) != "20260301123000_add_year_index.up.sql" {
		t.Fatalf("unexpected up path %s", upPath)
	}
	if _, err := os.Stat(downPath); err != nil {
		t.Fatalf("expected down migration: %v", err)
	}
	if _, _, err := createMigration(dir, "add_year_index", now); err == nil {
		t.Fatalf("expected existing migration to be refused")
	}
	if _, _, err := createMigration(dir, "bad name", now); err == nil {
		t.Fatalf("expected name with spaces to be refused")
	}
}

func TestExportThenImport(t *testing.T) {
	ctx := context.Background()
	repo := catalog.NewMemoryRepository()
	category, err := repo.CreateCategory(ctx, catalog.CategoryInput{Name: "Music", Icon: "note"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	list, err := repo.CreateList(ctx, catalog.ListInput{CategoryID: category.ID, Title: "Best selling albums"}, 0)
	if err != nil {
		t.Fatalf("create list: %v", err)
	}

	out := filepath.Join(t.TempDir(), "scrape.json")
	if err := runExport(ctx, repo, exportOptions{out: out}, &bytes.Buffer{}); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	var entries []catalog.ExportEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != list.ID || entries[0].Category != "Music" {
		t.Fatalf("unexpected export %+v", entries)
	}

	items := filepath.Join(t.TempDir(), "items.json")
	payload := `[{"list_id": ` + jsonNumber(list.ID) + `, "rank": 1, "name": "Thriller"}]`
	if err := os.WriteFile(items, []byte(payload), 0o644); err != nil {
		t.Fatalf("write items: %v", err)
	}
	var stdout bytes.Buffer
	if err := runImport(ctx, repo, items, &stdout); err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(stdout.String(), "Imported items for 1 lists") {
		t.Fatalf("unexpected import output %q", stdout.String())
	}

	stdout.Reset()
	if err := runExport(ctx, repo, exportOptions{}, &stdout); err != nil {
		t.Fatalf("export: %v", err)
	}
	if strings.TrimSpace(stdout.String()) != "[]" {
		t.Fatalf("expected nothing left to scrape, got %q", stdout.String())
	}
}

func jsonNumber(id uint) string {
	data, _ := json.Marshal(id)
	return string(data)
}
