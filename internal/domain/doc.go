// Package domain models Singapore carpark availability data and the
// nearest-carpark query primitives built on top of it.
//
// # Data Source
//
// Availability records come from the LTA DataMall CarParkAvailabilityv2
// feed at https://datamall2.mytransport.sg/ltaodataservice/. The feed is
// offset-paginated via the OData $skip parameter and returns at most 500
// records per page. Authentication is a static AccountKey header.
//
// # Feed Conventions
//
// Location format:
//
//	"<latitude> <longitude>" as a single whitespace-separated string,
//	e.g. "1.3521 103.8198". A handful of rows carry empty or malformed
//	locations; those rows are dropped during cleaning, never fatally.
//
// Lot types:
//
//	"C" car, "H" heavy vehicle, "Y" motorcycle. Anything else is treated
//	as unknown. A physical carpark offering several lot types appears as
//	one feed row per lot type, all sharing the same CarParkID, Development
//	and Location. Consolidation merges those rows back into one logical
//	carpark; see [Consolidate].
//
// Availability classification:
//
//	A carpark's primary availability is its car-lot count when a "C" row
//	exists, otherwise the sum of all its lot counts. The count buckets
//	into three tiers used for map colouring: >50 high (green), >10 medium
//	(orange), otherwise low (red). Both boundaries are strict.
//
// # Geocoding and Routing
//
// Destination addresses resolve through the OneMap search API and walking
// routes through the OneMap routing API; both are modelled here as the
// [Geocoder] and [RoutePlanner] interfaces so the query path stays
// independent of the HTTP adapters.
package domain
