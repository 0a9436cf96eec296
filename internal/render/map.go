// Package render writes interactive Leaflet maps of carpark availability
// as self-contained HTML files.
package render

import (
	"encoding/json"
	"fmt"
	"html"
	"html/template"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parkscout/carpark-finder/internal/domain"
)

// Singapore city centre, the default viewport for the full-island map.
const (
	centreLatitude  = 1.3521
	centreLongitude = 103.8198
	cityZoom        = 12
	nearestZoom     = 15
)

func tierColor(t domain.Tier) string {
	switch t {
	case domain.TierHigh:
		return "#2e8b57"
	case domain.TierMedium:
		return "#e8900c"
	default:
		return "#d43f3a"
	}
}

func categoryGlyph(c domain.Category) string {
	switch c {
	case domain.CategoryCar:
		return "&#128663;"
	case domain.CategoryHeavyVehicle:
		return "&#128666;"
	case domain.CategoryMotorcycle:
		return "&#127949;"
	case domain.CategoryMixed:
		return "P"
	default:
		return "?"
	}
}

func lotTypeName(t domain.LotType) string {
	switch t {
	case domain.LotTypeCar:
		return "Cars"
	case domain.LotTypeHeavyVehicle:
		return "Heavy vehicles"
	case domain.LotTypeMotorcycle:
		return "Motorcycles"
	default:
		return string(t)
	}
}

// marker is the JSON shape handed to the Leaflet script.
type marker struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Color    string  `json:"color"`
	Glyph    string  `json:"glyph"`
	Category string  `json:"category"`
	Popup    string  `json:"popup"`
	Weight   float64 `json:"weight"`
	Label    string  `json:"label,omitempty"`
}

type destinationMarker struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Popup string  `json:"popup"`
}

type mapPage struct {
	Title       string
	CenterLat   float64
	CenterLng   float64
	Zoom        int
	Cluster     bool
	Heat        bool
	MarkersJSON template.JS
	DestJSON    template.JS
}

// MapWriter renders availability maps to HTML files.
type MapWriter struct {
	logger *slog.Logger
}

// NewMapWriter creates a MapWriter.
func NewMapWriter(logger *slog.Logger) *MapWriter {
	return &MapWriter{logger: logger}
}

// RenderCityMap writes the full-island availability map: clustered
// markers per vehicle category, colour-coded by availability tier, with
// an availability heat overlay.
func (m *MapWriter) RenderCityMap(w io.Writer, carparks []domain.ConsolidatedCarpark) error {
	markers := make([]marker, 0, len(carparks))
	for _, cp := range carparks {
		if cp.Coordinate.IsZero() {
			continue
		}
		markers = append(markers, marker{
			Lat:      cp.Coordinate.Latitude,
			Lng:      cp.Coordinate.Longitude,
			Color:    tierColor(cp.AvailabilityTier()),
			Glyph:    categoryGlyph(cp.Category()),
			Category: string(cp.Category()),
			Popup:    carparkPopup(cp),
			Weight:   float64(cp.PrimaryAvailability()),
		})
	}

	page, err := newMapPage("Singapore Carpark Availability", centreLatitude, centreLongitude, cityZoom, markers, nil)
	if err != nil {
		return err
	}
	page.Cluster = true
	page.Heat = true
	return mapTemplate.Execute(w, page)
}

// RenderNearestMap writes the query-result map: the destination plus the
// ranked carparks as numbered markers, closest first.
func (m *MapWriter) RenderNearestMap(w io.Writer, dest domain.Destination, ranked []domain.RankedCarpark) error {
	markers := make([]marker, 0, len(ranked))
	for i, rc := range ranked {
		markers = append(markers, marker{
			Lat:      rc.Coordinate.Latitude,
			Lng:      rc.Coordinate.Longitude,
			Color:    tierColor(rc.AvailabilityTier()),
			Glyph:    categoryGlyph(rc.Category()),
			Category: string(rc.Category()),
			Popup:    rankedPopup(rc),
			Weight:   float64(rc.PrimaryAvailability()),
			Label:    fmt.Sprintf("%d", i+1),
		})
	}

	dm := &destinationMarker{
		Lat:   dest.Coordinate.Latitude,
		Lng:   dest.Coordinate.Longitude,
		Popup: "<b>Destination</b><br>" + html.EscapeString(dest.Address),
	}
	page, err := newMapPage("Nearest Carparks", dest.Coordinate.Latitude, dest.Coordinate.Longitude, nearestZoom, markers, dm)
	if err != nil {
		return err
	}
	return mapTemplate.Execute(w, page)
}

// WriteCityMap renders the city map to path, creating parent directories.
func (m *MapWriter) WriteCityMap(path string, carparks []domain.ConsolidatedCarpark) error {
	return m.writeFile(path, func(w io.Writer) error {
		return m.RenderCityMap(w, carparks)
	})
}

// WriteNearestMap renders the query-result map to path.
func (m *MapWriter) WriteNearestMap(path string, dest domain.Destination, ranked []domain.RankedCarpark) error {
	return m.writeFile(path, func(w io.Writer) error {
		return m.RenderNearestMap(w, dest, ranked)
	})
}

func (m *MapWriter) writeFile(path string, render func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create map directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create map file: %w", err)
	}
	defer f.Close()

	if err := render(f); err != nil {
		return fmt.Errorf("render map: %w", err)
	}
	m.logger.Info("map written", "path", path)
	return nil
}

func newMapPage(title string, lat, lng float64, zoom int, markers []marker, dest *destinationMarker) (*mapPage, error) {
	markersJSON, err := json.Marshal(markers)
	if err != nil {
		return nil, fmt.Errorf("encode markers: %w", err)
	}
	destJSON := []byte("null")
	if dest != nil {
		if destJSON, err = json.Marshal(dest); err != nil {
			return nil, fmt.Errorf("encode destination: %w", err)
		}
	}
	return &mapPage{
		Title:       title,
		CenterLat:   lat,
		CenterLng:   lng,
		Zoom:        zoom,
		MarkersJSON: template.JS(markersJSON),
		DestJSON:    template.JS(destJSON),
	}, nil
}

func carparkPopup(cp domain.ConsolidatedCarpark) string {
	var b strings.Builder
	name := cp.Development
	if name == "" {
		name = cp.CarParkID
	}
	fmt.Fprintf(&b, "<b>%s</b><br>ID: %s", html.EscapeString(name), html.EscapeString(cp.CarParkID))
	for _, lot := range cp.Lots {
		fmt.Fprintf(&b, "<br>%s: %d lots", lotTypeName(lot.LotType), lot.AvailableLots)
	}
	return b.String()
}

func rankedPopup(rc domain.RankedCarpark) string {
	var b strings.Builder
	b.WriteString(carparkPopup(rc.ConsolidatedCarpark))
	fmt.Fprintf(&b, "<br>Walk: %.2f km (%.1f min)", rc.Walking.DistanceKm, rc.Walking.DurationMinutes)
	fmt.Fprintf(&b, "<br>Straight line: %.2f km", rc.GeodesicKm)
	return b.String()
}

var mapTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
{{- if .Cluster}}
<link rel="stylesheet" href="https://unpkg.com/leaflet.markercluster@1.5.3/dist/MarkerCluster.css">
<link rel="stylesheet" href="https://unpkg.com/leaflet.markercluster@1.5.3/dist/MarkerCluster.Default.css">
<script src="https://unpkg.com/leaflet.markercluster@1.5.3/dist/leaflet.markercluster.js"></script>
{{- end}}
{{- if .Heat}}
<script src="https://unpkg.com/leaflet.heat@0.2.0/dist/leaflet-heat.js"></script>
{{- end}}
<style>
html, body, #map { height: 100%; margin: 0; }
.carpark-pin {
  display: flex; align-items: center; justify-content: center;
  width: 28px; height: 28px; border-radius: 50% 50% 50% 0;
  transform: rotate(-45deg); border: 1px solid #444;
}
.carpark-pin span { transform: rotate(45deg); font-size: 14px; color: #fff; }
.legend {
  position: absolute; bottom: 16px; left: 16px; z-index: 1000;
  background: #fff; padding: 8px 12px; border-radius: 4px;
  box-shadow: 0 1px 4px rgba(0,0,0,.3); font: 13px/1.6 sans-serif;
}
.legend i { display: inline-block; width: 12px; height: 12px; border-radius: 50%; margin-right: 6px; }
</style>
</head>
<body>
<div id="map"></div>
<div class="legend">
<b>Available lots</b><br>
<i style="background:#2e8b57"></i>More than 50<br>
<i style="background:#e8900c"></i>10 to 50<br>
<i style="background:#d43f3a"></i>Fewer than 10
</div>
<script>
var map = L.map('map').setView([{{.CenterLat}}, {{.CenterLng}}], {{.Zoom}});
L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
  attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);

var markers = {{.MarkersJSON}};
var destination = {{.DestJSON}};

function pinIcon(m) {
  var label = m.label ? m.label : m.glyph;
  return L.divIcon({
    className: '',
    html: '<div class="carpark-pin" style="background:' + m.color + '"><span>' + label + '</span></div>',
    iconSize: [28, 28],
    iconAnchor: [14, 28]
  });
}

{{- if .Cluster}}
var groups = {};
markers.forEach(function (m) {
  if (!groups[m.category]) {
    groups[m.category] = L.markerClusterGroup();
  }
  groups[m.category].addLayer(L.marker([m.lat, m.lng], { icon: pinIcon(m) }).bindPopup(m.popup));
});
var overlays = {};
Object.keys(groups).forEach(function (cat) {
  overlays[cat] = groups[cat];
  map.addLayer(groups[cat]);
});
{{- if .Heat}}
var heat = L.heatLayer(markers.map(function (m) { return [m.lat, m.lng, m.weight]; }), { radius: 20 });
overlays['availability heat'] = heat;
{{- end}}
L.control.layers(null, overlays).addTo(map);
{{- else}}
var bounds = [];
markers.forEach(function (m) {
  L.circle([m.lat, m.lng], { radius: 40, color: m.color, weight: 1, fillOpacity: 0.15 }).addTo(map);
  L.marker([m.lat, m.lng], { icon: pinIcon(m) }).bindPopup(m.popup).addTo(map);
  bounds.push([m.lat, m.lng]);
});
if (destination) {
  L.marker([destination.lat, destination.lng]).bindPopup(destination.popup).addTo(map).openPopup();
  bounds.push([destination.lat, destination.lng]);
}
if (bounds.length > 1) {
  map.fitBounds(bounds, { padding: [40, 40] });
}
{{- end}}
</script>
</body>
</html>
`))
