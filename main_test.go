package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/citylab/corridorsim/corridor"
	"github.com/citylab/corridorsim/dataset"
)

func newTestServer(t *testing.T) *httptest.Server {
	tables := dataset.Generate(dataset.GenerateConfig{Seed: 1})
	server, err := NewCorridorServer(tables, 0, nil)
	assert.NoError(t, err)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	resp, err := http.Get(url)
	assert.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func postJSON(t *testing.T, url string, in, out any) *http.Response {
	body, err := json.Marshal(in)
	assert.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	assert.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestBaselineEndpoint(t *testing.T) {
	ts := newTestServer(t)

	var resp scenarioResponse
	r := getJSON(t, ts.URL+"/baseline", &resp)
	assert.Equal(t, http.StatusOK, r.StatusCode)
	assert.Equal(t, "baseline", resp.Result.Scenario)
	assert.NotEmpty(t, resp.Result.Segments)
	assert.NotEmpty(t, resp.Zones)
	for _, z := range resp.Zones {
		assert.GreaterOrEqual(t, z.TotalAQI, z.BackgroundAQI)
	}
}

func TestRunWithInterventions(t *testing.T) {
	ts := newTestServer(t)
	getJSON(t, ts.URL+"/baseline", nil)

	var topo corridor.TopologyReport
	getJSON(t, ts.URL+"/topology", &topo)
	assert.Greater(t, topo.Segments, 0)

	req := runRequest{
		Scenario: "more_lanes",
		Interventions: []corridor.InterventionRequest{
			{Type: corridor.InterventionAddLanes, SegmentIDs: []string{"S101A"}, NumLanes: 1},
		},
	}
	var resp runResponse
	r := postJSON(t, ts.URL+"/run", req, &resp)
	assert.Equal(t, http.StatusOK, r.StatusCode)
	assert.Equal(t, "more_lanes", resp.Result.Scenario)
	assert.Len(t, resp.Outcomes, 1)
	assert.Empty(t, resp.Outcomes[0].Error)
	assert.NotEmpty(t, resp.Comparison)
}

func TestRunRejectsBaselineName(t *testing.T) {
	ts := newTestServer(t)
	r := postJSON(t, ts.URL+"/run", runRequest{Scenario: "baseline"}, nil)
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
}

func TestSegmentLookup(t *testing.T) {
	ts := newTestServer(t)
	getJSON(t, ts.URL+"/baseline", nil)

	r := getJSON(t, ts.URL+"/segment/S101A", nil)
	assert.Equal(t, http.StatusOK, r.StatusCode)

	r = getJSON(t, ts.URL+"/segment/NOPE", nil)
	assert.Equal(t, http.StatusNotFound, r.StatusCode)
}

func TestInterventionLifecycle(t *testing.T) {
	ts := newTestServer(t)

	var outcomes []corridor.InterventionOutcome
	r := postJSON(t, ts.URL+"/interventions", []corridor.InterventionRequest{
		{Type: corridor.InterventionClosure, SegmentIDs: []string{"S102A"}},
	}, &outcomes)
	assert.Equal(t, http.StatusOK, r.StatusCode)
	assert.Len(t, outcomes, 1)
	assert.Empty(t, outcomes[0].Error)
	id := outcomes[0].Result.InterventionID

	var active []corridor.InterventionRecord
	getJSON(t, ts.URL+"/interventions", &active)
	assert.Len(t, active, 1)

	r = postJSON(t, ts.URL+"/interventions/rollback", map[string]string{"intervention_id": id}, nil)
	assert.Equal(t, http.StatusOK, r.StatusCode)

	r = postJSON(t, ts.URL+"/interventions/rollback", map[string]string{"intervention_id": id}, nil)
	assert.Equal(t, http.StatusNotFound, r.StatusCode)

	getJSON(t, ts.URL+"/interventions", &active)
	assert.Empty(t, active)
}

func TestResetEndpoint(t *testing.T) {
	ts := newTestServer(t)
	postJSON(t, ts.URL+"/interventions", []corridor.InterventionRequest{
		{Type: corridor.InterventionAddLanes, SegmentIDs: []string{"S101A"}, NumLanes: 2},
		{Type: corridor.InterventionClosure, SegmentIDs: []string{"S102A"}},
	}, nil)

	var resp map[string]any
	r := postJSON(t, ts.URL+"/interventions/reset", nil, &resp)
	assert.Equal(t, http.StatusOK, r.StatusCode)
	assert.EqualValues(t, 2, resp["interventions_reset"])
}

func TestValidateAndStats(t *testing.T) {
	ts := newTestServer(t)

	var report corridor.ValidationReport
	getJSON(t, ts.URL+"/validate", &report)
	assert.True(t, report.Valid)

	var stats map[string]any
	r := getJSON(t, ts.URL+"/stats", &stats)
	assert.Equal(t, http.StatusOK, r.StatusCode)
	assert.Contains(t, stats, "topology")
}
