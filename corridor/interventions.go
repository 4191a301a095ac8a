package corridor

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// InterventionType names the supported infrastructure mutations.
type InterventionType string

const (
	InterventionAddLanes     InterventionType = "add_lanes"
	InterventionSignalTiming InterventionType = "signal_timing"
	InterventionClosure      InterventionType = "segment_closure"
	InterventionTruckBan     InterventionType = "truck_ban"
	InterventionReroute      InterventionType = "traffic_reroute"
)

// TimeWindow is an hour-of-day range for metadata-only interventions.
type TimeWindow struct {
	StartHour int `json:"start_hour"`
	EndHour   int `json:"end_hour"`
}

type signalTimes struct {
	cycleSec int
	greenSec int
}

// entity identifies one mutable field group touched by an intervention,
// for the per-entity rollback stacks.
type entity struct {
	kind string // "lanes", "closed" or "signal"
	id   string
}

// InterventionRecord captures everything needed to exactly invert one
// applied intervention. It is created on apply and deleted on rollback.
type InterventionRecord struct {
	ID            string           `json:"intervention_id"`
	Type          InterventionType `json:"type"`
	Segments      []string         `json:"segments,omitempty"`
	Intersections []string         `json:"intersections,omitempty"`

	// metadata-only payloads; these never touch the network
	Window      *TimeWindow `json:"time_window,omitempty"`
	FromSegment string      `json:"from_segment,omitempty"`
	ToSegments  []string    `json:"to_segments,omitempty"`
	Percentage  float64     `json:"percentage,omitempty"`

	prevLanes   map[string]int
	prevSignals map[string]signalTimes
	closed      []string
	entities    []entity
}

// InterventionResult is the caller-facing outcome of one application.
type InterventionResult struct {
	InterventionID string           `json:"intervention_id"`
	Type           InterventionType `json:"type"`
	Affected       int              `json:"affected"`
	Change         string           `json:"change"`
	Skipped        []string         `json:"skipped,omitempty"`
}

// InterventionEngine is the only writer of the network's mutable fields.
// Every applied intervention pushes its entities onto per-entity LIFO
// stacks; rollback enforces stack discipline so overlapping mutations can
// only unwind in exact reverse application order.
type InterventionEngine struct {
	network *Network

	seq     int
	records map[string]*InterventionRecord
	order   []string            // record ids in application order
	stacks  map[entity][]string // per-entity record ids, push order
}

func NewInterventionEngine(network *Network) *InterventionEngine {
	return &InterventionEngine{
		network: network,
		records: make(map[string]*InterventionRecord),
		stacks:  make(map[entity][]string),
	}
}

func (e *InterventionEngine) newRecord(t InterventionType) *InterventionRecord {
	rec := &InterventionRecord{
		ID:          fmt.Sprintf("%s_%d", t, e.seq),
		Type:        t,
		prevLanes:   make(map[string]int),
		prevSignals: make(map[string]signalTimes),
	}
	e.seq++
	return rec
}

func (e *InterventionEngine) commit(rec *InterventionRecord) {
	e.records[rec.ID] = rec
	e.order = append(e.order, rec.ID)
	for _, ent := range rec.entities {
		e.stacks[ent] = append(e.stacks[ent], rec.ID)
	}
}

// AddLanes adds numLanes to each named segment. Unknown segments are
// skipped and reported; the remaining segments are still modified.
func (e *InterventionEngine) AddLanes(segmentIDs []string, numLanes int) (InterventionResult, error) {
	if numLanes <= 0 {
		return InterventionResult{}, errors.Errorf("num_lanes must be positive, got %d", numLanes)
	}
	rec := e.newRecord(InterventionAddLanes)
	skipped := make([]string, 0)
	for _, segID := range segmentIDs {
		seg, err := e.network.Segment(segID)
		if err != nil {
			skipped = append(skipped, segID)
			continue
		}
		rec.prevLanes[segID] = seg.Lanes
		rec.entities = append(rec.entities, entity{kind: "lanes", id: segID})
		rec.Segments = append(rec.Segments, segID)
		e.network.UpdateLanes(segID, seg.Lanes+numLanes)
	}
	e.commit(rec)
	return InterventionResult{
		InterventionID: rec.ID,
		Type:           rec.Type,
		Affected:       len(rec.Segments),
		Change:         fmt.Sprintf("+%d lanes", numLanes),
		Skipped:        skipped,
	}, nil
}

// ModifySignalTiming sets absolute cycle/green times at each intersection;
// nil leaves the corresponding field unchanged.
func (e *InterventionEngine) ModifySignalTiming(intersectionIDs []string, cycleSec, greenSec *int) (InterventionResult, error) {
	if cycleSec == nil && greenSec == nil {
		return InterventionResult{}, errors.New("signal timing intervention must set cycle or green time")
	}
	rec := e.newRecord(InterventionSignalTiming)
	skipped := make([]string, 0)
	for _, intID := range intersectionIDs {
		in, err := e.network.Intersection(intID)
		if err != nil {
			skipped = append(skipped, intID)
			continue
		}
		rec.prevSignals[intID] = signalTimes{cycleSec: in.CycleTimeSec, greenSec: in.GreenTimeSec}
		rec.entities = append(rec.entities, entity{kind: "signal", id: intID})
		rec.Intersections = append(rec.Intersections, intID)
		e.network.SetSignalTiming(intID, cycleSec, greenSec)
	}
	e.commit(rec)
	change := ""
	if cycleSec != nil {
		change += fmt.Sprintf("cycle=%ds ", *cycleSec)
	}
	if greenSec != nil {
		change += fmt.Sprintf("green=%ds", *greenSec)
	}
	return InterventionResult{
		InterventionID: rec.ID,
		Type:           rec.Type,
		Affected:       len(rec.Intersections),
		Change:         change,
		Skipped:        skipped,
	}, nil
}

// CloseSegments removes each segment's directed edge from routing.
// Unknown or already-closed segments are skipped and reported.
func (e *InterventionEngine) CloseSegments(segmentIDs []string) (InterventionResult, error) {
	rec := e.newRecord(InterventionClosure)
	skipped := make([]string, 0)
	for _, segID := range segmentIDs {
		if err := e.network.CloseSegment(segID); err != nil {
			skipped = append(skipped, segID)
			continue
		}
		rec.closed = append(rec.closed, segID)
		rec.entities = append(rec.entities, entity{kind: "closed", id: segID})
		rec.Segments = append(rec.Segments, segID)
	}
	e.commit(rec)
	return InterventionResult{
		InterventionID: rec.ID,
		Type:           rec.Type,
		Affected:       len(rec.Segments),
		Change:         "closed",
		Skipped:        skipped,
	}, nil
}

// TruckBan records a truck restriction on the named segments. Metadata
// only: the engine does not filter the OD table itself, callers do that
// before the next simulation run.
func (e *InterventionEngine) TruckBan(segmentIDs []string, window *TimeWindow) (InterventionResult, error) {
	rec := e.newRecord(InterventionTruckBan)
	skipped := make([]string, 0)
	for _, segID := range segmentIDs {
		if _, err := e.network.Segment(segID); err != nil {
			skipped = append(skipped, segID)
			continue
		}
		rec.Segments = append(rec.Segments, segID)
	}
	rec.Window = window
	e.commit(rec)
	change := "trucks banned 24h"
	if window != nil {
		change = fmt.Sprintf("trucks banned %02d:00-%02d:00", window.StartHour, window.EndHour)
	}
	return InterventionResult{
		InterventionID: rec.ID,
		Type:           rec.Type,
		Affected:       len(rec.Segments),
		Change:         change,
		Skipped:        skipped,
	}, nil
}

// RerouteTraffic records a reroute plan from one segment to alternatives.
// Metadata only, like TruckBan.
func (e *InterventionEngine) RerouteTraffic(fromSegment string, toSegments []string, percentage float64) (InterventionResult, error) {
	if _, err := e.network.Segment(fromSegment); err != nil {
		return InterventionResult{}, errors.Wrapf(err, "reroute source %s", fromSegment)
	}
	rec := e.newRecord(InterventionReroute)
	rec.FromSegment = fromSegment
	rec.ToSegments = toSegments
	rec.Percentage = percentage
	e.commit(rec)
	return InterventionResult{
		InterventionID: rec.ID,
		Type:           rec.Type,
		Affected:       len(toSegments),
		Change:         fmt.Sprintf("%.0f%% rerouted from %s", percentage, fromSegment),
	}, nil
}

// InterventionRequest is one item of a heterogeneous batch.
type InterventionRequest struct {
	Type            InterventionType `json:"type"`
	SegmentIDs      []string         `json:"segment_ids,omitempty"`
	IntersectionIDs []string         `json:"intersection_ids,omitempty"`
	NumLanes        int              `json:"num_lanes,omitempty"`
	CycleTimeSec    *int             `json:"cycle_time,omitempty"`
	GreenTimeSec    *int             `json:"green_time,omitempty"`
	Window          *TimeWindow      `json:"time_window,omitempty"`
	FromSegment     string           `json:"from_segment,omitempty"`
	ToSegments      []string         `json:"to_segments,omitempty"`
	Percentage      float64          `json:"percentage,omitempty"`
}

// InterventionOutcome reports one batch item's result or failure.
type InterventionOutcome struct {
	Result *InterventionResult `json:"result,omitempty"`
	Error  string              `json:"error,omitempty"`
}

// ApplyMultiple applies a heterogeneous batch. Items are independent: a
// failing item is reported in place and never stops the rest.
func (e *InterventionEngine) ApplyMultiple(requests []InterventionRequest) []InterventionOutcome {
	outcomes := make([]InterventionOutcome, 0, len(requests))
	for _, req := range requests {
		var result InterventionResult
		var err error
		switch req.Type {
		case InterventionAddLanes:
			numLanes := req.NumLanes
			if numLanes == 0 {
				numLanes = 1
			}
			result, err = e.AddLanes(req.SegmentIDs, numLanes)
		case InterventionSignalTiming:
			result, err = e.ModifySignalTiming(req.IntersectionIDs, req.CycleTimeSec, req.GreenTimeSec)
		case InterventionClosure:
			result, err = e.CloseSegments(req.SegmentIDs)
		case InterventionTruckBan:
			result, err = e.TruckBan(req.SegmentIDs, req.Window)
		case InterventionReroute:
			pct := req.Percentage
			if pct == 0 {
				pct = 100
			}
			result, err = e.RerouteTraffic(req.FromSegment, req.ToSegments, pct)
		default:
			err = errors.Wrapf(ErrUnknownInterventionType, "%q", req.Type)
		}
		if err != nil {
			outcomes = append(outcomes, InterventionOutcome{Error: err.Error()})
			continue
		}
		outcomes = append(outcomes, InterventionOutcome{Result: &result})
	}
	return outcomes
}

// Active returns the surviving records in application order.
func (e *InterventionEngine) Active() []*InterventionRecord {
	return lo.Map(e.order, func(id string, _ int) *InterventionRecord {
		return e.records[id]
	})
}

// RollbackIntervention restores the record's captured values and deletes
// it. The record must be the most recent surviving writer of every entity
// it touched; otherwise ErrRollbackOrder is returned and nothing changes.
func (e *InterventionEngine) RollbackIntervention(id string) error {
	rec, ok := e.records[id]
	if !ok {
		return ErrInterventionNotFound
	}
	for _, ent := range rec.entities {
		stack := e.stacks[ent]
		if len(stack) == 0 || stack[len(stack)-1] != id {
			return errors.Wrapf(ErrRollbackOrder, "%s on %s %s", id, ent.kind, ent.id)
		}
	}

	for segID, lanes := range rec.prevLanes {
		e.network.UpdateLanes(segID, lanes)
	}
	for intID, times := range rec.prevSignals {
		cycle, green := times.cycleSec, times.greenSec
		e.network.SetSignalTiming(intID, &cycle, &green)
	}
	for _, segID := range rec.closed {
		e.network.ReopenSegment(segID)
	}

	for _, ent := range rec.entities {
		stack := e.stacks[ent]
		e.stacks[ent] = stack[:len(stack)-1]
	}
	delete(e.records, id)
	e.order = lo.Without(e.order, id)
	log.Infof("intervention %s rolled back", id)
	return nil
}

// ResetAll rolls back every surviving record in exact reverse application
// order, which always satisfies the per-entity stack discipline. Returns
// the number of records unwound.
func (e *InterventionEngine) ResetAll() int {
	count := 0
	for i := len(e.order) - 1; i >= 0; i-- {
		if err := e.RollbackIntervention(e.order[i]); err != nil {
			// unreachable under the stack discipline
			log.Errorf("reset: rollback of %s failed: %v", e.order[i], err)
			continue
		}
		count++
	}
	return count
}
