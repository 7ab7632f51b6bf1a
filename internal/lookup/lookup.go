// Package lookup loads the business reference tables that drive
// normalization and payload construction: feed types with their
// as-fed-to-dry-matter factors, herd sections, breed varieties, and
// fertilizer definitions. Tables are loaded once per batch from TOML
// files and are immutable afterwards.
package lookup

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// FeedType describes one feed item: its canonical name, the CFT item
// id used in payloads, and the factor converting as-fed weight (FWI)
// to dry-matter intake (DMI). A zero factor means the feed cannot be
// converted and FWI surveys naming it are rejected.
type FeedType struct {
	CFTName    string  `toml:"cft_name"`
	Display    string  `toml:"display_name"`
	CFTID      int     `toml:"cft_id"`
	RegionName string  `toml:"region_name"`
	FWIToDMI   float64 `toml:"fwi_to_dmi"`
}

// HerdSection is a named sub-population of the herd.
type HerdSection struct {
	CFTName string `toml:"cft_name"`
	Display string `toml:"display_name"`
}

// HerdVariety is an allowed breed name.
type HerdVariety struct {
	CFTName string `toml:"cft_name"`
	Display string `toml:"display_name"`
}

// Fertilizer describes one fertilizer product applied on the farm.
type Fertilizer struct {
	Key        string `toml:"key"`
	CFTID      int    `toml:"cft_id"`
	Inhibition bool   `toml:"inhibition"`
}

type feedFile struct {
	Feed []FeedType `toml:"feed"`
}

type herdFile struct {
	HerdSection []HerdSection `toml:"herd_section"`
	HerdVariety []HerdVariety `toml:"herd_variety"`
}

type fertilizerFile struct {
	Fertilizer []Fertilizer `toml:"fertilizer"`
}

// Tables bundles all reference tables for one batch.
type Tables struct {
	Feeds        []FeedType
	HerdSections []HerdSection
	Varieties    []HerdVariety
	Fertilizers  []Fertilizer

	feedByName map[string]FeedType
	herdByName map[string]HerdSection
}

// Load reads feed.toml, herd.toml and fertilizer.toml from dir.
func Load(dir string) (*Tables, error) {
	var feeds feedFile
	if err := readTOML(filepath.Join(dir, "feed.toml"), &feeds); err != nil {
		return nil, err
	}
	var herds herdFile
	if err := readTOML(filepath.Join(dir, "herd.toml"), &herds); err != nil {
		return nil, err
	}
	var ferts fertilizerFile
	if err := readTOML(filepath.Join(dir, "fertilizer.toml"), &ferts); err != nil {
		return nil, err
	}
	return New(feeds.Feed, herds.HerdSection, herds.HerdVariety, ferts.Fertilizer), nil
}

func readTOML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read lookup table: %w", err)
	}
	if err := toml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// New builds Tables from in-memory slices. Used by Load and by tests.
func New(feeds []FeedType, sections []HerdSection, varieties []HerdVariety, ferts []Fertilizer) *Tables {
	t := &Tables{
		Feeds:        feeds,
		HerdSections: sections,
		Varieties:    varieties,
		Fertilizers:  ferts,
		feedByName:   make(map[string]FeedType, len(feeds)),
		herdByName:   make(map[string]HerdSection, len(sections)),
	}
	for _, f := range feeds {
		t.feedByName[f.CFTName] = f
	}
	for _, s := range sections {
		t.herdByName[s.CFTName] = s
	}
	return t
}

// Feed resolves a feed type by its canonical name.
func (t *Tables) Feed(name string) (FeedType, bool) {
	f, ok := t.feedByName[name]
	return f, ok
}

// Herd resolves a herd section by its canonical name.
func (t *Tables) Herd(name string) (HerdSection, bool) {
	h, ok := t.herdByName[name]
	return h, ok
}

// VarietyNames returns the allowed breed names for categorical validation.
func (t *Tables) VarietyNames() []string {
	out := make([]string, len(t.Varieties))
	for i, v := range t.Varieties {
		out[i] = v.CFTName
	}
	return out
}

// SectionDisplayNames returns the display names of all herd sections.
func (t *Tables) SectionDisplayNames() []string {
	out := make([]string, len(t.HerdSections))
	for i, s := range t.HerdSections {
		out[i] = s.Display
	}
	return out
}

// Default returns the built-in reference tables matching the survey
// template. Used when no config directory is supplied, and by tests.
func Default() *Tables {
	return New(
		[]FeedType{
			{CFTName: "grass_silage", Display: "Grass silage", CFTID: 211, RegionName: "Europe", FWIToDMI: 0.30},
			{CFTName: "maize_silage", Display: "Maize silage", CFTID: 212, RegionName: "Europe", FWIToDMI: 0.33},
			{CFTName: "hay", Display: "Hay", CFTID: 213, RegionName: "Europe", FWIToDMI: 0.86},
			{CFTName: "straw", Display: "Straw", CFTID: 214, RegionName: "Europe", FWIToDMI: 0.88},
			{CFTName: "concentrate", Display: "Compound concentrate", CFTID: 215, RegionName: "Europe", FWIToDMI: 0.87},
			{CFTName: "pasture", Display: "Fresh pasture", CFTID: 216, RegionName: "Europe", FWIToDMI: 0.20},
		},
		[]HerdSection{
			{CFTName: "calf_dairy", Display: "Dairy calves"},
			{CFTName: "heifer", Display: "Heifers"},
			{CFTName: "cow_milk", Display: "Milking cows"},
			{CFTName: "cow_dry", Display: "Dry cows"},
		},
		[]HerdVariety{
			{CFTName: "Holstein", Display: "Holstein-Friesian"},
			{CFTName: "Jersey", Display: "Jersey"},
			{CFTName: "Simmental", Display: "Simmental"},
			{CFTName: "Polish Red", Display: "Polish Red"},
		},
		[]Fertilizer{
			{Key: "ammonium_nitrate", CFTID: 9, Inhibition: false},
			{Key: "urea", CFTID: 11, Inhibition: false},
			{Key: "npk", CFTID: 44, Inhibition: false},
		},
	)
}
