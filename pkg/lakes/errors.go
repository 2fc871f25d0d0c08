package lakes

import "errors"

var (
	// ErrMissingID indicates the lake layer has no usable identity field.
	ErrMissingID = errors.New("lake layer missing lake_id field")
	// ErrMissingCRS indicates the lake layer carries no coordinate reference system.
	ErrMissingCRS = errors.New("lake layer missing CRS")
	// ErrNoGeometry indicates a row decoded without polygonal geometry.
	ErrNoGeometry = errors.New("lake row has no polygonal geometry")
)
