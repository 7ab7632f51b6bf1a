// Package survey implements extraction of canonical records from
// uploaded survey workbooks: cell casting, unit normalization,
// categorical translation, and the per-survey configuration checks.
package survey

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"dairypipe/internal/lookup"
	"dairypipe/internal/record"
	"dairypipe/internal/schema"
)

// ErrSurveyFatal marks conditions that abort one survey's extraction.
// The batch continues with the remaining workbooks.
var ErrSurveyFatal = errors.New("survey fatal")

// feedPrecision is the fixed rounding applied to normalized feed
// values for downstream stability.
const feedPrecision = 6

// FeedConfig captures the three feed-recording conventions resolved
// from the survey's selector cells.
type FeedConfig struct {
	// ConvertFWI is set when values are recorded as-fed and must be
	// multiplied by the feed's dry-matter factor.
	ConvertFWI bool
	// PerHerd is set when values are recorded at herd level and must
	// be divided by the herd section's animal count.
	PerHerd bool
	// MultidayDivisor is the recording period in days; values above 1
	// divide the recorded amount down to a single day.
	MultidayDivisor int
}

// Cast coerces a raw cell value to the declared type. Empty raw values
// take the schema default when one is declared, otherwise cast to nil.
// A coercion failure is a field-level error, not survey-fatal.
func Cast(raw any, typ schema.FieldType, def string) (any, error) {
	if !record.IsPresent(raw) {
		if def == "" {
			return nil, nil
		}
		raw = def
	}
	switch typ {
	case schema.Int:
		n, ok := record.AsInt(raw)
		if !ok {
			return nil, fmt.Errorf("cannot cast %v to int", raw)
		}
		return n, nil
	case schema.Float:
		f, ok := record.AsFloat(raw)
		if !ok {
			return nil, fmt.Errorf("cannot cast %v to float", raw)
		}
		return roundTo(f, feedPrecision), nil
	case schema.String:
		return strings.TrimSpace(fmt.Sprintf("%v", raw)), nil
	default:
		return nil, fmt.Errorf("unknown declared type %q", typ)
	}
}

// NormalizeFeedValue converts a feed amount to kg dry matter per head
// per day. The metric must follow feed.<feed>.<herd_section>.<unit>.
// Lookup failures (unknown feed or herd section, missing conversion
// factor, missing or non-positive herd count) are survey-fatal: they
// mean the workbook's structure cannot be trusted.
func NormalizeFeedValue(value any, metric string, tables *lookup.Tables, rec record.Record, cfg FeedConfig) (any, error) {
	feedName, herdName, err := parseFeedMetric(metric)
	if err != nil {
		return nil, err
	}

	feed, ok := tables.Feed(feedName)
	if !ok {
		return nil, fmt.Errorf("%w: unknown feed type %q in metric %s", ErrSurveyFatal, feedName, metric)
	}
	if _, ok := tables.Herd(herdName); !ok {
		return nil, fmt.Errorf("%w: unknown herd section %q in metric %s", ErrSurveyFatal, herdName, metric)
	}

	if !record.IsPresent(value) {
		return nil, nil
	}
	v, ok := record.AsFloat(value)
	if !ok {
		return nil, fmt.Errorf("feed value %v is not numeric", value)
	}

	if cfg.ConvertFWI {
		if feed.FWIToDMI <= 0 {
			return nil, fmt.Errorf("%w: missing FWI to DMI factor for feed %q", ErrSurveyFatal, feedName)
		}
		v *= feed.FWIToDMI
	}

	if cfg.PerHerd {
		countKey := herdName + ".herd_count"
		count, ok := record.AsFloat(rec[countKey])
		if !ok || count <= 0 {
			return nil, fmt.Errorf("%w: herd count missing or invalid for %q (expected metric %s)", ErrSurveyFatal, herdName, countKey)
		}
		v /= count
	}

	if cfg.MultidayDivisor > 1 {
		v /= float64(cfg.MultidayDivisor)
	}

	return roundTo(v, feedPrecision), nil
}

// parseFeedMetric splits feed.<feed>.<herd_section>.<unit> into its
// feed and herd-section components.
func parseFeedMetric(metric string) (feed, herd string, err error) {
	parts := strings.SplitN(metric, ".", 4)
	if len(parts) != 4 || parts[0] != "feed" {
		return "", "", fmt.Errorf("%w: invalid feed metric format %q", ErrSurveyFatal, metric)
	}
	return parts[1], parts[2], nil
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify folds text to a lowercase ASCII hyphen-separated identifier:
// diacritics are stripped via NFKD, non-alphanumeric runs collapse to
// one hyphen, leading and trailing hyphens are trimmed.
func Slugify(text string) string {
	decomposed := norm.NFKD.String(text)
	var b strings.Builder
	for _, r := range decomposed {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	s := strings.ToLower(b.String())
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow10(places)
	return math.Round(v*scale) / scale
}
