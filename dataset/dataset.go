// Package dataset loads the three corridor input tables (segments,
// intersections, OD demand) from CSV files, MongoDB or PostgreSQL, and can
// generate a synthetic demo network when no real data is wired up.
package dataset

import (
	"github.com/sirupsen/logrus"

	"github.com/citylab/corridorsim/corridor"
)

var log = logrus.WithField("module", "dataset")

// Tables bundles the three input tables of one corridor study area.
type Tables struct {
	Segments      []corridor.Segment
	Intersections []corridor.Intersection
	Demand        []corridor.ODEntry
}
