package domain

// Tier buckets a carpark's primary availability for map colouring.
type Tier string

const (
	TierHigh   Tier = "high"   // more than 50 lots
	TierMedium Tier = "medium" // more than 10 lots
	TierLow    Tier = "low"
)

// Category groups a carpark for icon selection.
type Category string

const (
	CategoryCar          Category = "car"
	CategoryHeavyVehicle Category = "heavy_vehicle"
	CategoryMotorcycle   Category = "motorcycle"
	CategoryMixed        Category = "mixed"
	CategoryUnknown      Category = "unknown"
)

// Consolidate groups the flat record table by CarParkID, emitting one
// ConsolidatedCarpark per ID in first-seen group order. The lot-type list
// preserves first-seen order; a repeated (ID, lot type) row updates the
// count in place so the latest-fetched value wins. Representative
// Development and coordinates are taken from the group's first row, which
// depends on feed row order; in well-formed data those fields are
// identical across a carpark's rows.
func Consolidate(records []CarparkRecord) []ConsolidatedCarpark {
	index := make(map[string]int, len(records))
	carparks := make([]ConsolidatedCarpark, 0, len(records))

	for _, rec := range records {
		i, ok := index[rec.CarParkID]
		if !ok {
			index[rec.CarParkID] = len(carparks)
			carparks = append(carparks, ConsolidatedCarpark{
				CarParkID:   rec.CarParkID,
				Development: rec.Development,
				Coordinate:  rec.Coordinate(),
				Lots:        []LotAvailability{{LotType: rec.LotType, AvailableLots: rec.AvailableLots}},
			})
			continue
		}

		cp := &carparks[i]
		updated := false
		for j := range cp.Lots {
			if cp.Lots[j].LotType == rec.LotType {
				cp.Lots[j].AvailableLots = rec.AvailableLots
				updated = true
				break
			}
		}
		if !updated {
			cp.Lots = append(cp.Lots, LotAvailability{LotType: rec.LotType, AvailableLots: rec.AvailableLots})
		}
	}

	return carparks
}

// PrimaryAvailability is the car-lot count when a "C" entry exists,
// otherwise the sum of all lot counts.
func (c ConsolidatedCarpark) PrimaryAvailability() int {
	total := 0
	for _, lot := range c.Lots {
		if lot.LotType == LotTypeCar {
			return lot.AvailableLots
		}
		total += lot.AvailableLots
	}
	return total
}

// AvailabilityTier buckets the primary availability. Both boundaries are
// strict: exactly 50 is medium, exactly 10 is low.
func (c ConsolidatedCarpark) AvailabilityTier() Tier {
	return TierFor(c.PrimaryAvailability())
}

// TierFor buckets an available-lot count into a colour tier.
func TierFor(lots int) Tier {
	switch {
	case lots > 50:
		return TierHigh
	case lots > 10:
		return TierMedium
	default:
		return TierLow
	}
}

// Category returns "mixed" for carparks with more than one lot type, the
// single type's category otherwise, and "unknown" when the only type is
// not a recognised code.
func (c ConsolidatedCarpark) Category() Category {
	if len(c.Lots) > 1 {
		return CategoryMixed
	}
	if len(c.Lots) == 0 {
		return CategoryUnknown
	}
	switch c.Lots[0].LotType {
	case LotTypeCar:
		return CategoryCar
	case LotTypeHeavyVehicle:
		return CategoryHeavyVehicle
	case LotTypeMotorcycle:
		return CategoryMotorcycle
	default:
		return CategoryUnknown
	}
}
