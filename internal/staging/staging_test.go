package staging_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dripfeed/internal/contentdate"
	"dripfeed/internal/logging"
	"dripfeed/internal/sourcefile"
	"dripfeed/internal/staging"
	"dripfeed/internal/testsupport"
)

func newManager(t *testing.T, root string) *staging.Manager {
	t.Helper()
	return staging.NewManager(root, 0, contentdate.FilenameExtractor{}, logging.NewNop())
}

func TestDiscoverSkipsFilesWithoutStableID(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteSourceFile(t, dir, "2024-01-01", "keep")
	testsupport.WriteFile(t, filepath.Join(dir, "2024-01-01_no_id.md"), []byte("x"))
	testsupport.WriteFile(t, filepath.Join(dir, ".hidden_uid-hide.md"), []byte("x"))
	if err := os.Mkdir(filepath.Join(dir, "subdir_uid-dirs"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	mgr := newManager(t, t.TempDir())
	files, err := mgr.Discover([]string{dir})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("Discover returned %d files, want 1: %+v", len(files), files)
	}
	if files[0].StableID != "keep" {
		t.Fatalf("StableID = %q, want keep", files[0].StableID)
	}
	if files[0].OriginDir != dir {
		t.Fatalf("OriginDir = %q, want %q", files[0].OriginDir, dir)
	}
}

func TestDiscoverMissingFolderIsFatal(t *testing.T) {
	mgr := newManager(t, t.TempDir())
	_, err := mgr.Discover([]string{filepath.Join(t.TempDir(), "absent")})
	if err == nil {
		t.Fatal("Discover on missing folder succeeded, want error")
	}
}

func TestGroupByDateDropsUndatedFiles(t *testing.T) {
	dir := t.TempDir()
	dated := testsupport.WriteSourceFile(t, dir, "2024-01-02", "good")
	undatedPath := filepath.Join(dir, "note_uid-bad1.md")
	testsupport.WriteFile(t, undatedPath, []byte("x"))

	mgr := newManager(t, t.TempDir())
	files := []sourcefile.File{
		{Path: dated, OriginDir: dir, Name: filepath.Base(dated), StableID: "good"},
		{Path: undatedPath, OriginDir: dir, Name: "note_uid-bad1.md", StableID: "bad1"},
	}
	groups := mgr.GroupByDate(files)
	if len(groups) != 1 {
		t.Fatalf("groups = %v, want exactly one date", groups)
	}
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	batch := groups[day]
	if len(batch) != 1 || batch[0].StableID != "good" {
		t.Fatalf("groups[%s] = %+v, want the dated file only", day.Format(time.DateOnly), batch)
	}
	if !batch[0].ContentDate.Equal(day) {
		t.Fatal("ContentDate not set on grouped file")
	}
}

func TestSortedDatesAscending(t *testing.T) {
	groups := map[time.Time][]sourcefile.File{
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC): nil,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC): nil,
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC): nil,
	}
	dates := staging.SortedDates(groups)
	want := []string{"2024-01-01", "2024-01-02", "2024-01-03"}
	for i, date := range dates {
		if date.Format(time.DateOnly) != want[i] {
			t.Fatalf("dates[%d] = %s, want %s", i, date.Format(time.DateOnly), want[i])
		}
	}
}

func TestStageThenRestoreAllIsReversible(t *testing.T) {
	origin := t.TempDir()
	root := filepath.Join(t.TempDir(), "staging")
	mgr := newManager(t, root)

	paths := []string{
		testsupport.WriteSourceFile(t, origin, "2024-01-01", "aaaa"),
		testsupport.WriteSourceFile(t, origin, "2024-01-02", "bbbb"),
		testsupport.WriteSourceFile(t, origin, "2024-01-03", "cccc"),
	}
	files, err := mgr.Discover([]string{origin})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	record := staging.Record{}
	if err := mgr.Stage(files, record); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	for _, path := range paths {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("%s still present after staging", path)
		}
	}
	if len(record) != 3 {
		t.Fatalf("record has %d entries, want 3", len(record))
	}

	if err := mgr.RestoreAll(record); err != nil {
		t.Fatalf("RestoreAll: %v", err)
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("%s missing after RestoreAll: %v", path, err)
		}
	}
	if len(record) != 0 {
		t.Fatalf("record not emptied by RestoreAll: %v", record)
	}

	// Only the staging map file may remain under the root.
	entries := listFiles(t, root)
	if len(entries) != 0 {
		t.Fatalf("staged files left behind: %v", entries)
	}
}

func TestRestoreForDateCopiesDeletesAndTouches(t *testing.T) {
	origin := t.TempDir()
	root := filepath.Join(t.TempDir(), "staging")
	mgr := newManager(t, root)

	path := testsupport.WriteSourceFile(t, origin, "2024-01-05", "dddd")
	name := filepath.Base(path)
	files, err := mgr.Discover([]string{origin})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	record := staging.Record{}
	if err := mgr.Stage(files, record); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	stagingPath := record[name].StagingPath

	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	files[0].ContentDate = day
	before := time.Now().Add(-time.Second)
	restored, err := mgr.RestoreForDate(context.Background(), day, files, record)
	if err != nil {
		t.Fatalf("RestoreForDate: %v", err)
	}
	if restored != 1 {
		t.Fatalf("restored = %d, want 1", restored)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("restored file missing: %v", err)
	}
	if info.ModTime().Before(before) {
		t.Fatalf("mtime %v not refreshed", info.ModTime())
	}
	if _, err := os.Stat(stagingPath); !os.IsNotExist(err) {
		t.Fatal("staging copy not deleted after restore")
	}
	if len(record) != 0 {
		t.Fatalf("record entry not removed: %v", record)
	}
}

func TestRestoreForDateSkipsUnstagedFiles(t *testing.T) {
	mgr := newManager(t, filepath.Join(t.TempDir(), "staging"))
	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	files := []sourcefile.File{{Name: "never-staged_uid-x1y2.md", StableID: "x1y2", ContentDate: day}}

	restored, err := mgr.RestoreForDate(context.Background(), day, files, staging.Record{})
	if err != nil {
		t.Fatalf("RestoreForDate: %v", err)
	}
	if restored != 0 {
		t.Fatalf("restored = %d, want 0", restored)
	}
}

func TestRecordPersistsAcrossManagers(t *testing.T) {
	origin := t.TempDir()
	root := filepath.Join(t.TempDir(), "staging")
	mgr := newManager(t, root)

	testsupport.WriteSourceFile(t, origin, "2024-02-01", "eeee")
	files, err := mgr.Discover([]string{origin})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	record := staging.Record{}
	if err := mgr.Stage(files, record); err != nil {
		t.Fatalf("Stage: %v", err)
	}

	// A fresh manager (as after a crash and restart) sees the same map.
	reloaded, err := newManager(t, root).LoadRecord()
	if err != nil {
		t.Fatalf("LoadRecord: %v", err)
	}
	if len(reloaded) != 1 {
		t.Fatalf("reloaded record = %v, want 1 entry", reloaded)
	}
	entry := reloaded[files[0].Name]
	if entry.OriginDir != origin {
		t.Fatalf("OriginDir = %q, want %q", entry.OriginDir, origin)
	}
}

func TestCleanupStagingRemovesRoot(t *testing.T) {
	origin := t.TempDir()
	root := filepath.Join(t.TempDir(), "staging")
	mgr := newManager(t, root)

	testsupport.WriteSourceFile(t, origin, "2024-03-01", "ffff")
	files, err := mgr.Discover([]string{origin})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if err := mgr.Stage(files, staging.Record{}); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if err := mgr.CleanupStaging(); err != nil {
		t.Fatalf("CleanupStaging: %v", err)
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Fatal("staging root still present after cleanup")
	}
}

func listFiles(t *testing.T, root string) []string {
	t.Helper()
	var found []string
	err := filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.Type().IsRegular() && entry.Name() != "staging-map.json" {
			found = append(found, path)
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("walk staging root: %v", err)
	}
	return found
}
