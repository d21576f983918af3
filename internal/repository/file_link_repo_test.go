package repository

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/hitoshi/accountlink/internal/model"
)

type countingRecorder struct {
	ops []string
}

func (c *countingRecorder) RecordStoreError(op string) {
	c.ops = append(c.ops, op)
}

func sampleLinks() []model.LinkRecord {
	return []model.LinkRecord{
		{DiscordID: "111", DiscordUsername: "alice#0001", SteamID: "76561198000000001"},
		{DiscordID: "222", DiscordUsername: "bob#0002", SteamID: "76561198000000002"},
		{DiscordID: "333", DiscordUsername: "carol#0003", SteamID: "76561198000000003"},
	}
}

func TestFileLinkRepo_MissingFile_ReturnsEmpty(t *testing.T) {
	rec := &countingRecorder{}
	repo := NewFileLinkRepo(filepath.Join(t.TempDir(), "links.json"), rec)

	links, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if links == nil || len(links) != 0 {
		t.Errorf("Load() = %v, want empty non-nil slice", links)
	}
	if len(rec.ops) != 0 {
		t.Errorf("missing file should not be recorded as a store error, got %v", rec.ops)
	}
}

func TestFileLinkRepo_CorruptFile_ReturnsEmpty(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed json", `[{"discordId": "111",`},
		{"wrong shape", `{"discordId": "111"}`},
		{"empty file", ``},
		{"invalid utf8 garbage", "\xff\xfe\x00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "links.json")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("failed to write fixture: %v", err)
			}
			rec := &countingRecorder{}
			repo := NewFileLinkRepo(path, rec)

			links, err := repo.Load(context.Background())
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if len(links) != 0 {
				t.Errorf("Load() = %v, want empty", links)
			}
			if len(rec.ops) != 1 || rec.ops[0] != "load" {
				t.Errorf("recorded ops = %v, want [load]", rec.ops)
			}
		})
	}
}

func TestFileLinkRepo_NullFile_ReturnsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.json")
	if err := os.WriteFile(path, []byte("null"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	links, err := NewFileLinkRepo(path, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if links == nil || len(links) != 0 {
		t.Errorf("Load() = %v, want empty non-nil slice", links)
	}
}

func TestFileLinkRepo_RoundTrip_PreservesFieldsAndOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewFileLinkRepo(filepath.Join(t.TempDir(), "links.json"), nil)
	want := sampleLinks()

	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}

	// save(load()) が恒等であること
	before, err := os.ReadFile(repo.Path())
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	if err := repo.Save(ctx, got); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	after, err := os.ReadFile(repo.Path())
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	if string(before) != string(after) {
		t.Errorf("file changed after save(load()):\nbefore: %s\nafter: %s", before, after)
	}
}

func TestFileLinkRepo_Save_PrettyPrintedJSONArray(t *testing.T) {
	repo := NewFileLinkRepo(filepath.Join(t.TempDir(), "links.json"), nil)

	if err := repo.Save(context.Background(), sampleLinks()[:1]); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(repo.Path())
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}

	want := `[
  {
    "discordId": "111",
    "discordUsername": "alice#0001",
    "steamId": "76561198000000001"
  }
]`
	if string(data) != want {
		t.Errorf("file content =\n%s\nwant\n%s", data, want)
	}
}

func TestFileLinkRepo_Save_NilWritesEmptyArray(t *testing.T) {
	repo := NewFileLinkRepo(filepath.Join(t.TempDir(), "links.json"), nil)

	if err := repo.Save(context.Background(), nil); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(repo.Path())
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("file content = %q, want %q", data, "[]")
	}
}

func TestFileLinkRepo_Save_UnwritablePath_ReturnsError(t *testing.T) {
	rec := &countingRecorder{}
	// ディレクトリ自体を保存先に指定すると書き込みに失敗する
	repo := NewFileLinkRepo(t.TempDir(), rec)

	if err := repo.Save(context.Background(), sampleLinks()); err == nil {
		t.Fatal("expected error when writing to a directory path")
	}
	if len(rec.ops) != 1 || rec.ops[0] != "save" {
		t.Errorf("recorded ops = %v, want [save]", rec.ops)
	}
}

func TestFileLinkRepo_Save_OverwritesWholeFile(t *testing.T) {
	ctx := context.Background()
	repo := NewFileLinkRepo(filepath.Join(t.TempDir(), "links.json"), nil)

	if err := repo.Save(ctx, sampleLinks()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := repo.Save(ctx, sampleLinks()[2:]); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 1 || got[0].DiscordID != "333" {
		t.Errorf("Load() = %+v, want only the last saved record", got)
	}
}
