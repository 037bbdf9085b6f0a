package build

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
)

// Report summarizes one build for logs, the --report flag and tests.
type Report struct {
	BuildID      string        `json:"buildId"`
	SiteID       string        `json:"siteId"`
	TargetItemID string        `json:"targetItemId,omitempty"`
	Status       Status        `json:"status"`
	Start        time.Time     `json:"start"`
	End          time.Time     `json:"end"`
	Stages       []StageTiming `json:"stages"`
	Descriptors  int           `json:"descriptors"`
	Rendered     int           `json:"rendered"`
	StaticFiles  int           `json:"staticFiles"`
	FilesWritten int           `json:"filesWritten"`
	FilesFailed  int           `json:"filesFailed"`
	Failures     []ItemFailure `json:"failures,omitempty"`
	Warnings     []string      `json:"warnings,omitempty"`
}

// StageTiming is the duration and result of one named stage.
type StageTiming struct {
	Name       string              `json:"name"`
	DurationMS float64             `json:"durationMs"`
	Result     metrics.ResultLabel `json:"result"`
	Error      string              `json:"error,omitempty"`
}

// ItemFailure is one descriptor whose render failed.
type ItemFailure struct {
	ItemID string `json:"itemId"`
	Path   string `json:"path"`
	Error  string `json:"error"`
}

func newReport(buildID string, req Request, start time.Time) *Report {
	return &Report{
		BuildID:      buildID,
		SiteID:       req.SiteID,
		TargetItemID: req.TargetItemID,
		Start:        start,
	}
}

// Stage returns the timing recorded for name.
func (r *Report) Stage(name string) (StageTiming, bool) {
	for _, s := range r.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return StageTiming{}, false
}

// StageNames lists the recorded stages in execution order.
func (r *Report) StageNames() []string {
	out := make([]string, len(r.Stages))
	for i, s := range r.Stages {
		out[i] = s.Name
	}
	return out
}

// WriteJSON writes the indented JSON form of the report to path.
func (r *Report) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding build report: %w", err)
	}
	// #nosec G306 -- build reports are not secret
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing build report: %w", err)
	}
	return nil
}

func (r *Report) record(name string, d time.Duration, result metrics.ResultLabel, err error) {
	t := StageTiming{Name: name, DurationMS: float64(d.Microseconds()) / 1000, Result: result}
	if err != nil {
		t.Error = err.Error()
	}
	r.Stages = append(r.Stages, t)
}
