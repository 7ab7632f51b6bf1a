package lookup

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "feed.toml", `
[[feed]]
cft_name = "hay"
display_name = "Hay"
cft_id = 213
region_name = "Europe"
fwi_to_dmi = 0.86
`)
	writeFile(t, dir, "herd.toml", `
[[herd_section]]
cft_name = "cow_milk"
display_name = "Milking cows"

[[herd_variety]]
cft_name = "Holstein"
display_name = "Holstein-Friesian"
`)
	writeFile(t, dir, "fertilizer.toml", `
[[fertilizer]]
key = "urea"
cft_id = 11
inhibition = false
`)

	tables, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	feed, ok := tables.Feed("hay")
	if !ok || feed.FWIToDMI != 0.86 || feed.CFTID != 213 {
		t.Fatalf("Feed(hay): got %+v ok=%v", feed, ok)
	}
	if _, ok := tables.Feed("unknown"); ok {
		t.Fatal("Feed(unknown): expected miss")
	}

	herd, ok := tables.Herd("cow_milk")
	if !ok || herd.Display != "Milking cows" {
		t.Fatalf("Herd(cow_milk): got %+v ok=%v", herd, ok)
	}

	if got := tables.VarietyNames(); len(got) != 1 || got[0] != "Holstein" {
		t.Fatalf("VarietyNames: got %v", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatal("Load: expected error for missing tables")
	}
}

func TestDefault(t *testing.T) {
	tables := Default()
	if _, ok := tables.Feed("grass_silage"); !ok {
		t.Fatal("Default: grass_silage missing")
	}
	if _, ok := tables.Herd("cow_milk"); !ok {
		t.Fatal("Default: cow_milk missing")
	}
	if len(tables.VarietyNames()) == 0 {
		t.Fatal("Default: no varieties")
	}
}
