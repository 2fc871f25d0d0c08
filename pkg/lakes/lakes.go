// Package lakes loads the lake polygon layer and normalizes it to
// geographic coordinates (EPSG:4326) for zonal extraction.
package lakes

import (
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"

	"github.com/hab-forecasting/lakezonal/pkg/logging"
)

// IDField is the required identity field on the lake layer.
const IDField = "lake_id"

// nameCandidates are tried in order for the display-name column.
var nameCandidates = []string{"lake_name", "Lake_name", "name", "Name"}

// longlatWGS84 is the target spatial reference for all lake geometry.
const longlatWGS84 = "+proj=longlat +datum=WGS84 +no_defs"

// Lake is one polygon with its stable identity and optional display name.
// Geometry is in lon/lat degrees and has been repaired before use.
type Lake struct {
	ID   string
	Name string
	Geom geom.Polygonal
}

// Table is the loaded lake layer. It is built once per run and read-only
// during extraction.
type Table struct {
	Lakes []Lake
}

// Len returns the number of lakes.
func (t *Table) Len() int { return len(t.Lakes) }

// Load reads a polygon shapefile, reprojects it to EPSG:4326 and repairs
// each geometry. The layer must carry a lake_id field and a CRS; both
// failures are fatal to the run.
func Load(path string) (*Table, error) {
	nameField := detectNameField(path)

	d, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("open lake layer %s: %w", path, err)
	}
	defer d.Close()

	sr, err := d.SR()
	if err != nil || sr == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrMissingCRS)
	}
	dst, err := proj.Parse(longlatWGS84)
	if err != nil {
		return nil, fmt.Errorf("parse target SR: %w", err)
	}
	ct, err := sr.NewTransform(dst)
	if err != nil {
		return nil, fmt.Errorf("build transform to EPSG:4326: %w", err)
	}

	fields := []string{IDField}
	if nameField != "" {
		fields = append(fields, nameField)
	}

	t := &Table{}
	for {
		g, attrs, more := d.DecodeRowFields(fields...)
		if !more {
			break
		}
		id, ok := attrs[IDField]
		if !ok || id == "" {
			return nil, fmt.Errorf("%s: %w", path, ErrMissingID)
		}

		gg, err := g.Transform(ct)
		if err != nil {
			return nil, fmt.Errorf("reproject lake %s: %w", id, err)
		}
		poly, ok := gg.(geom.Polygonal)
		if !ok {
			return nil, fmt.Errorf("lake %s: %w", id, ErrNoGeometry)
		}

		name := id
		if nameField != "" {
			if v, ok := attrs[nameField]; ok && v != "" {
				name = v
			}
		}

		t.Lakes = append(t.Lakes, Lake{ID: id, Name: name, Geom: Repair(poly)})
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("decode lake layer %s: %w", path, err)
	}
	if len(t.Lakes) == 0 {
		return nil, fmt.Errorf("%s: no lake polygons decoded", path)
	}

	logging.L().Info().
		Str("layer", path).
		Int("lakes", len(t.Lakes)).
		Str("name_field", nameField).
		Msg("lake layer loaded")
	return t, nil
}

// Repair normalizes possibly degenerate geometry (self-intersections,
// inconsistent winding) by reconstructing it through a self-union, the
// polygon-clipping equivalent of a zero-width buffer. The original
// geometry is returned when reconstruction degenerates to nothing.
func Repair(p geom.Polygonal) geom.Polygonal {
	fixed := p.Union(p)
	if fixed == nil || fixed.Area() == 0 {
		return p
	}
	return fixed
}

// detectNameField probes the layer for a display-name column. The probe
// decodes a single row per candidate; a missing DBF column surfaces as a
// decoder error or an absent map key.
func detectNameField(path string) string {
	for _, cand := range nameCandidates {
		d, err := shp.NewDecoder(path)
		if err != nil {
			return ""
		}
		_, attrs, more := d.DecodeRowFields(IDField, cand)
		decodeErr := d.Error()
		d.Close()
		if !more || decodeErr != nil {
			continue
		}
		if _, ok := attrs[cand]; ok {
			return cand
		}
	}
	return ""
}
