// Package cft builds request payloads for the Cool Farm Tool dairy
// endpoint, submits them, and flattens responses into wide result rows.
package cft

import (
	"fmt"
	"strings"

	"dairypipe/internal/lookup"
	"dairypipe/internal/record"
)

// CFT unit identifiers used in payloads.
const (
	unitFertilizerRate = 12 // t/ha
	unitFeedWeight     = 7  // kg
	unitMilkVolume     = 15 // litres
	unitTemperature    = 5  // °C
)

// Quantity is a value with a CFT unit. Unit is either a unit id (int)
// or a unit name (string), depending on the field.
type Quantity struct {
	Value any `json:"value"`
	Unit  any `json:"unit"`
}

type Farm struct {
	Country             string   `json:"country"`
	Territory           *string  `json:"territory"`
	Climate             string   `json:"climate"`
	AverageTemperature  Quantity `json:"average_temperature"`
	Latitude            float64  `json:"latitude"`
	Longitude           float64  `json:"longitude"`
	SoilCharacteristics string   `json:"soil_characteristics"`
	FarmIdentifier      string   `json:"farm_identifier"`
}

type General struct {
	GrazingArea        Quantity `json:"grazing_area"`
	FeedApproach       int      `json:"feed_approach"`
	FertilizerApproach int      `json:"fertilizer_approach"`
}

type MilkProduction struct {
	Variety        any      `json:"variety"`
	ReportingYear  any      `json:"reporting_year"`
	DateTime       string   `json:"date_time"`
	DateMonth      int      `json:"date_month"`
	Name           string   `json:"name"`
	ProductDry     Quantity `json:"product_dry"`
	FatContent     any      `json:"fat_content"`
	ProteinContent any      `json:"protein_content"`
	ProteinMeasure int      `json:"protein_measure"`
}

type HerdSectionInput struct {
	Phase            string   `json:"phase"`
	Animals          any      `json:"animals"`
	LiveWeight       Quantity `json:"live_weight"`
	SoldAnimals      any      `json:"sold_animals"`
	SoldWeight       Quantity `json:"sold_weight"`
	PurchasedAnimals any      `json:"purchased_animals"`
	PurchasedWeight  Quantity `json:"purchased_weight"`
}

type GrazingInput struct {
	HerdSection string `json:"herd_section"`
	Days        any    `json:"days"`
	Hours       any    `json:"hours"`
	Category    int    `json:"category"`
	Quality     int    `json:"quality"`
}

type CustomIngredients struct {
	NTotalPercentage   float64 `json:"n_total_percentage"`
	NAmmoniaPercentage float64 `json:"n_ammonia_percentage"`
	NNitricPercentage  float64 `json:"n_nitric_percentage"`
	NUreaPercentage    float64 `json:"n_urea_percentage"`
	P2O5Percentage     float64 `json:"p2o5_percentage"`
	P2O5PercentageType int     `json:"p2o5_percentage_type_id"`
	K2OPercentage      float64 `json:"k2o_percentage"`
	K2OPercentageType  int     `json:"k2o_percentage_type_id"`
}

type FertilizerInput struct {
	Type              int                `json:"type"`
	Production        int                `json:"production"`
	CustomIngredients *CustomIngredients `json:"custom_ingredients,omitempty"`
	ApplicationRate   Quantity           `json:"application_rate"`
	ApplicationDate   string             `json:"application_date"`
	RateMeasure       string             `json:"rate_measure"`
	Inhibition        bool               `json:"inhibition"`
}

type FeedComponent struct {
	Item        int      `json:"item"`
	Region      string   `json:"region"`
	HerdSection string   `json:"herd_section"`
	DryMatter   Quantity `json:"dry_matter"`
	Certified   bool     `json:"certified"`
}

type ManureInput struct {
	HerdSection string `json:"herd_section"`
	Type        int    `json:"type"`
	Allocation  int    `json:"allocation"`
}

// Payload is one dairy assessment request.
type Payload struct {
	Farm           Farm               `json:"farm"`
	General        General            `json:"general"`
	MilkProduction MilkProduction     `json:"milk_production"`
	HerdSections   []HerdSectionInput `json:"herd_sections"`
	Grazing        []GrazingInput     `json:"grazing"`
	Fertilisers    []FertilizerInput  `json:"fertilisers"`
	FeedComponents []FeedComponent    `json:"feed_components"`
	FeedAdditives  []any              `json:"feed_additives"`
	Manure         []ManureInput      `json:"manure"`
	Bedding        []any              `json:"bedding"`
	DirectEnergy   []any              `json:"direct_energy"`
	Transport      []any              `json:"transport"`
}

// Builder assembles payloads from canonical records using the
// reference tables for feed items, herd sections and fertilizers.
type Builder struct {
	Tables *lookup.Tables
}

// Build assembles the full payload for one record. Farm location and
// climate are fixed: all surveyed farms are in the same Polish region.
func (b *Builder) Build(rec record.Record) (*Payload, error) {
	id := rec.SurveyID()
	if id == "" {
		return nil, fmt.Errorf("build payload: record without survey_id")
	}
	return &Payload{
		Farm: Farm{
			Country:             "Poland",
			Territory:           nil,
			Climate:             "Cool Temperate Moist",
			AverageTemperature:  Quantity{Value: 10, Unit: unitTemperature},
			Latitude:            52.679,
			Longitude:           20.030,
			SoilCharacteristics: "Sandy Soils",
			FarmIdentifier:      id,
		},
		General: General{
			GrazingArea:        Quantity{Value: rec["general.grazing_area_ha"], Unit: "ha"},
			FeedApproach:       1, // dry matter intake
			FertilizerApproach: 2, // grazing, grass silage and hay area combined
		},
		MilkProduction: MilkProduction{
			Variety:        rec["main_breed_variety"],
			ReportingYear:  rec[record.FieldMilkYear],
			DateTime:       "start",
			DateMonth:      1, // season always starts in January
			Name:           id,
			ProductDry:     Quantity{Value: rec["total_milk_production_litres"], Unit: unitMilkVolume},
			FatContent:     rec["milk_fat_content_percent"],
			ProteinContent: rec["milk_protein_content_percent"],
			ProteinMeasure: 1, // true protein
		},
		HerdSections:   b.herdSections(rec),
		Grazing:        b.grazing(rec),
		Fertilisers:    b.fertilisers(rec),
		FeedComponents: b.feedComponents(rec),
		FeedAdditives:  []any{},
		Manure:         b.manure(),
		Bedding:        []any{},
		DirectEnergy:   []any{},
		Transport:      []any{},
	}, nil
}

func (b *Builder) herdSections(rec record.Record) []HerdSectionInput {
	out := make([]HerdSectionInput, 0, len(b.Tables.HerdSections))
	for _, hs := range b.Tables.HerdSections {
		p := hs.CFTName
		out = append(out, HerdSectionInput{
			Phase:            p,
			Animals:          rec[p+".herd_count"],
			LiveWeight:       Quantity{Value: rec[p+".herd_weight_kg"], Unit: "kg"},
			SoldAnimals:      rec[p+".sold_count"],
			SoldWeight:       Quantity{Value: rec[p+".sold_weight_kg"], Unit: "kg"},
			PurchasedAnimals: rec[p+".purchased_count"],
			PurchasedWeight:  Quantity{Value: rec[p+".purchased_weight_kg"], Unit: "kg"},
		})
	}
	return out
}

func (b *Builder) grazing(rec record.Record) []GrazingInput {
	out := make([]GrazingInput, 0, len(b.Tables.HerdSections))
	for _, hs := range b.Tables.HerdSections {
		p := hs.CFTName
		out = append(out, GrazingInput{
			HerdSection: p,
			Days:        rec[p+".grazing_days"],
			Hours:       rec[p+".grazing_hours_per_day"],
			Category:    2, // confined pasture
			Quality:     grazingQualityID(rec[p+".grazing_quality"]),
		})
	}
	return out
}

// grazingQualityID maps the normalized quality value to its CFT id.
// Absent quality defaults to high.
func grazingQualityID(v any) int {
	s, _ := v.(string)
	if strings.EqualFold(s, "LOW") {
		return 2
	}
	return 1
}

func (b *Builder) fertilisers(rec record.Record) []FertilizerInput {
	out := make([]FertilizerInput, 0, len(b.Tables.Fertilizers))
	for _, f := range b.Tables.Fertilizers {
		in := FertilizerInput{
			Type:       f.CFTID,
			Production: 8, // Europe 2014
			ApplicationRate: Quantity{
				Value: rec["fertilizers."+f.Key+".t_per_ha"],
				Unit:  unitFertilizerRate,
			},
			ApplicationDate: "unknown",
			RateMeasure:     "product",
			Inhibition:      f.Inhibition,
		}
		// Custom NPK blend composition fixed by the programme.
		if f.CFTID == 44 {
			in.CustomIngredients = &CustomIngredients{
				NTotalPercentage:   6,
				NAmmoniaPercentage: 6,
				P2O5Percentage:     20,
				P2O5PercentageType: 4, // P2O5
				K2OPercentage:      30,
				K2OPercentageType:  5, // K2O
			}
		}
		out = append(out, in)
	}
	return out
}

func (b *Builder) feedComponents(rec record.Record) []FeedComponent {
	out := make([]FeedComponent, 0, len(b.Tables.Feeds)*len(b.Tables.HerdSections))
	for _, feed := range b.Tables.Feeds {
		for _, hs := range b.Tables.HerdSections {
			out = append(out, FeedComponent{
				Item:        feed.CFTID,
				Region:      feed.RegionName,
				HerdSection: hs.CFTName,
				DryMatter: Quantity{
					Value: rec["feed." + feed.CFTName + "." + hs.CFTName + ".kgDMI_head_day"],
					Unit:  unitFeedWeight,
				},
				Certified: false,
			})
		}
	}
	return out
}

// manure allocates every herd section 50/50 between pit storage and
// solid storage, the only storage split used by the surveyed farms.
func (b *Builder) manure() []ManureInput {
	out := make([]ManureInput, 0, len(b.Tables.HerdSections)*2)
	for _, hs := range b.Tables.HerdSections {
		out = append(out,
			ManureInput{HerdSection: hs.CFTName, Type: 6, Allocation: 50}, // pit storage
			ManureInput{HerdSection: hs.CFTName, Type: 1, Allocation: 50}, // solid storage
		)
	}
	return out
}
