// Package comparison derives relatable real-world equivalences from a
// carbon total: miles driven, gallons of gasoline burned, and tree
// seedlings grown. It backs the comparison card returned alongside
// footprint results.
package comparison

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"carbonview/internal/types"
)

// Unit identifies one of the comparison equivalences.
type Unit string

const (
	UnitMiles Unit = "miles"
	UnitGas   Unit = "gas"
	UnitTrees Unit = "trees"
)

// EPA greenhouse-gas equivalency factors, per kg CO2e.
const (
	milesPerKg = 2.48138958
	gasPerKg   = 0.1125239
	treesPerKg = 0.0165352
)

// Item is one rendered equivalence: an icon reference, the converted
// total, and two descriptive strings framing the number.
type Item struct {
	Icon  string  `json:"icon"`
	Total float64 `json:"total"`
	Label string  `json:"label"`
	Text  string  `json:"text"`
}

// Option reports a selectable unit and whether it is the active one.
type Option struct {
	Unit   Unit `json:"unit"`
	Active bool `json:"active"`
}

// Card holds the three equivalences for a carbon total plus which one is
// currently selected. The selection starts at miles; Select moves it and
// exactly one unit is ever active.
type Card struct {
	kgSum     float64
	selection Unit
	items     map[Unit]Item
	printer   *message.Printer
}

// NewCard builds a comparison card from estimation results. All three
// equivalences are recomputed from the summed CO2e; an empty result list
// yields zeros throughout. The language tag drives number formatting.
func NewCard(results []types.EstimationResult, tag language.Tag) *Card {
	kgSum := types.SumCO2e(results)
	return &Card{
		kgSum:     kgSum,
		selection: UnitMiles,
		items: map[Unit]Item{
			UnitMiles: {
				Icon:  "eco",
				Total: kgSum * milesPerKg,
				Label: "Miles driven",
				Text:  "miles driven by an average passenger vehicle",
			},
			UnitGas: {
				Icon:  "local_gas_station",
				Total: kgSum * gasPerKg,
				Label: "Gallons of gasoline",
				Text:  "gallons of gasoline consumed",
			},
			UnitTrees: {
				Icon:  "park",
				Total: kgSum * treesPerKg,
				Label: "Tree seedlings",
				Text:  "tree seedlings grown for 10 years",
			},
		},
		printer: message.NewPrinter(tag),
	}
}

// KgSum returns the aggregate the card was built from.
func (c *Card) KgSum() float64 { return c.kgSum }

// Selection returns the active unit.
func (c *Card) Selection() Unit { return c.selection }

// Select makes the given unit active. Unknown units leave the selection
// unchanged.
func (c *Card) Select(u Unit) {
	if _, ok := c.items[u]; ok {
		c.selection = u
	}
}

// Selected returns the item for the active unit.
func (c *Card) Selected() Item { return c.items[c.selection] }

// Item returns the equivalence for a specific unit, computed regardless of
// selection.
func (c *Card) Item(u Unit) (Item, bool) {
	item, ok := c.items[u]
	return item, ok
}

// Options lists the three units in display order with their active flags.
func (c *Card) Options() []Option {
	units := []Unit{UnitMiles, UnitGas, UnitTrees}
	opts := make([]Option, 0, len(units))
	for _, u := range units {
		opts = append(opts, Option{Unit: u, Active: u == c.selection})
	}
	return opts
}

// FormatTotal renders the active unit's total with locale-aware grouping,
// rounded to one fractional digit.
func (c *Card) FormatTotal() string {
	return c.printer.Sprint(number.Decimal(
		c.Selected().Total,
		number.MinFractionDigits(1),
		number.MaxFractionDigits(1),
	))
}
