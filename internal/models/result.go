// Package models defines the per-recordable outcomes and run report produced
// by the collector. They are serialized to JSON for the gather.json manifest.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// State is the lifecycle position of one recordable within a run.
type State int

const (
	StatePending State = iota
	StateRunning
	StateSucceeded
	StateSkipped
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalJSON encodes the state by name.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Result is the outcome of one recordable: either Success{name, content} or
// Skipped{name, reason}. Content itself lives in the artifact file.
type Result struct {
	Name     string        `json:"name"`
	Kind     string        `json:"kind"`
	State    State         `json:"state"`
	File     string        `json:"file,omitempty"`
	Bytes    int           `json:"bytes,omitempty"`
	SHA256   string        `json:"sha256,omitempty"`
	Reason   string        `json:"reason,omitempty"`
	Error    string        `json:"error,omitempty"`
	Start    time.Time     `json:"start"`
	Duration time.Duration `json:"duration_ns"`
}

// Succeeded reports whether an artifact was written.
func (r Result) Succeeded() bool { return r.State == StateSucceeded }

// RunReport summarizes one collection run in registry order.
type RunReport struct {
	Dir         string        `json:"dir"`
	Start       time.Time     `json:"start"`
	Duration    time.Duration `json:"duration_ns"`
	Interrupted bool          `json:"interrupted,omitempty"`
	Results     []Result      `json:"results"`
}

// Succeeded returns the results that produced an artifact.
func (r *RunReport) Succeeded() []Result {
	return r.filter(StateSucceeded)
}

// Skipped returns the results that produced no artifact.
func (r *RunReport) Skipped() []Result {
	return r.filter(StateSkipped)
}

func (r *RunReport) filter(s State) []Result {
	out := make([]Result, 0, len(r.Results))
	for _, res := range r.Results {
		if res.State == s {
			out = append(out, res)
		}
	}
	return out
}

// Manifest is the gather.json document written next to the artifacts.
type Manifest struct {
	Version string            `json:"version"`
	RunID   string            `json:"run_id"`
	Args    any               `json:"args,omitempty"`
	Run     ManifestRun       `json:"run"`
	Results map[string]Result `json:"results"`
}

// ManifestRun holds the run timing block of the manifest.
type ManifestRun struct {
	Start     float64 `json:"start"`
	At        string  `json:"at"`
	TotalTime float64 `json:"total_time"`
}

// NewManifest builds the manifest for a finished run.
func NewManifest(version, runID string, args any, report *RunReport) Manifest {
	results := make(map[string]Result, len(report.Results))
	for _, res := range report.Results {
		results[res.Name] = res
	}
	return Manifest{
		Version: version,
		RunID:   runID,
		Args:    args,
		Run: ManifestRun{
			Start:     float64(report.Start.UnixNano()) / float64(time.Second),
			At:        report.Start.Format(time.ANSIC),
			TotalTime: report.Duration.Seconds(),
		},
		Results: results,
	}
}
