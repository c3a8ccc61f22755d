// Package domain defines the core inventory entities, value types, and the
// persistence contracts used by labstock.
package domain

import "encoding/json"

// Category identifies one of the four fixed item collections.
type Category string

// Supported category identifiers used in API paths and persistence buckets.
const (
	// CategoryChemicals holds consumable chemical stock.
	CategoryChemicals Category = "chemicals"
	// CategoryGlassware holds countable glassware stock.
	CategoryGlassware Category = "glassware"
	// CategoryInstruments holds lab instruments.
	CategoryInstruments Category = "instruments"
	// CategoryMisc holds everything else.
	CategoryMisc Category = "misc"
)

// Categories lists all categories in display order.
var Categories = []Category{CategoryChemicals, CategoryGlassware, CategoryInstruments, CategoryMisc}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryChemicals, CategoryGlassware, CategoryInstruments, CategoryMisc:
		return true
	}
	return false
}

// ChemicalState represents the physical state of a chemical item.
type ChemicalState string

// Canonical chemical states.
const (
	StateSolid  ChemicalState = "solid"
	StateLiquid ChemicalState = "liquid"
	StateGas    ChemicalState = "gas"
)

// Valid reports whether s is a known chemical state.
func (s ChemicalState) Valid() bool {
	switch s {
	case StateSolid, StateLiquid, StateGas:
		return true
	}
	return false
}

// Unit represents the measurement unit of a chemical quantity.
type Unit string

// Canonical chemical units.
const (
	UnitGram       Unit = "g"
	UnitMilliliter Unit = "mL"
	UnitLiter      Unit = "L"
	UnitPieces     Unit = "pcs"
	UnitOther      Unit = "other"
)

// Valid reports whether u is a known unit.
func (u Unit) Valid() bool {
	switch u {
	case UnitGram, UnitMilliliter, UnitLiter, UnitPieces, UnitOther:
		return true
	}
	return false
}

// EquipmentStatus represents the working condition of a non-chemical item.
type EquipmentStatus string

// Canonical equipment statuses.
const (
	StatusWorking       EquipmentStatus = "Working"
	StatusNonFunctional EquipmentStatus = "Non-functional"
	StatusNeedsRepair   EquipmentStatus = "Needs repair"
)

// Valid reports whether s is a known equipment status.
func (s EquipmentStatus) Valid() bool {
	switch s {
	case StatusWorking, StatusNonFunctional, StatusNeedsRepair:
		return true
	}
	return false
}

// LogEntry is an immutable audit record of a single consumption or damage
// event. Original is the quantity before the event, Balance the quantity
// after, clamped at zero.
type LogEntry struct {
	Date     string  `json:"date"`
	Amount   float64 `json:"amount"`
	Original float64 `json:"original"`
	Balance  float64 `json:"balance"`
}

// Item is a stock record. Chemical items carry State, Unit, Expiry, Threshold
// and a consumption log; the other categories carry Specs, Status and a damage
// log. Dates are stored in DD/MM/YYYY text form, the same form they are
// entered and displayed in.
type Item struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Location string  `json:"location,omitempty"`
	Purchase string  `json:"purchase,omitempty"`
	ImageKey string  `json:"image_key,omitempty"`

	State          ChemicalState `json:"state,omitempty"`
	Unit           Unit          `json:"unit,omitempty"`
	Expiry         string        `json:"expiry,omitempty"`
	Threshold      *float64      `json:"threshold,omitempty"`
	ConsumptionLog []LogEntry    `json:"consumption_log,omitempty"`

	Specs     string          `json:"specs,omitempty"`
	Status    EquipmentStatus `json:"status,omitempty"`
	DamageLog []LogEntry      `json:"damage_log,omitempty"`
}

// CloneItem returns a deep copy of it so callers never alias store state.
func CloneItem(it Item) Item {
	cp := it
	if it.Threshold != nil {
		v := *it.Threshold
		cp.Threshold = &v
	}
	cp.ConsumptionLog = append([]LogEntry(nil), it.ConsumptionLog...)
	cp.DamageLog = append([]LogEntry(nil), it.DamageLog...)
	return cp
}

// Default settings applied on first load and to any loaded record missing a field.
const (
	DefaultLowThreshold   = 10
	DefaultNearExpiryDays = 30
	DefaultPIN            = "9999"
)

// Settings holds the process-wide alert thresholds and the shared PIN.
type Settings struct {
	LowThreshold   float64 `json:"low_threshold"`
	NearExpiryDays int     `json:"near_expiry_days"`
	PIN            string  `json:"pin"`
}

// DefaultSettings returns the first-run settings record.
func DefaultSettings() Settings {
	return Settings{
		LowThreshold:   DefaultLowThreshold,
		NearExpiryDays: DefaultNearExpiryDays,
		PIN:            DefaultPIN,
	}
}

type settingsPayload struct {
	LowThreshold   *float64 `json:"low_threshold"`
	NearExpiryDays *int     `json:"near_expiry_days"`
	PIN            *string  `json:"pin"`
}

// UnmarshalJSON decodes settings, substituting defaults for absent fields so
// snapshots written by older versions hydrate to a complete record.
func (s *Settings) UnmarshalJSON(data []byte) error {
	var payload settingsPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	*s = DefaultSettings()
	if payload.LowThreshold != nil {
		s.LowThreshold = *payload.LowThreshold
	}
	if payload.NearExpiryDays != nil {
		s.NearExpiryDays = *payload.NearExpiryDays
	}
	if payload.PIN != nil {
		s.PIN = *payload.PIN
	}
	return nil
}

// Snapshot is the full serialized store state: one ordered collection per
// category plus settings. It is the unit of persistence; backends write it
// whole after every successful transaction.
type Snapshot struct {
	Chemicals   []Item   `json:"chemicals"`
	Glassware   []Item   `json:"glassware"`
	Instruments []Item   `json:"instruments"`
	Misc        []Item   `json:"misc"`
	Settings    Settings `json:"settings"`
}

// Collection returns the snapshot slice for the given category.
func (s *Snapshot) Collection(c Category) []Item {
	switch c {
	case CategoryChemicals:
		return s.Chemicals
	case CategoryGlassware:
		return s.Glassware
	case CategoryInstruments:
		return s.Instruments
	case CategoryMisc:
		return s.Misc
	}
	return nil
}

// SetCollection replaces the snapshot slice for the given category.
func (s *Snapshot) SetCollection(c Category, items []Item) {
	switch c {
	case CategoryChemicals:
		s.Chemicals = items
	case CategoryGlassware:
		s.Glassware = items
	case CategoryInstruments:
		s.Instruments = items
	case CategoryMisc:
		s.Misc = items
	}
}

// SearchHit pairs a matched item with the category it was found in.
type SearchHit struct {
	Category Category `json:"category"`
	Item     Item     `json:"item"`
}
