package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/df07/go-probegrid/pkg/config"
	"github.com/df07/go-probegrid/pkg/core"
	"github.com/df07/go-probegrid/pkg/group"
	"github.com/df07/go-probegrid/pkg/probegrid"
)

// maxWorkers bounds the worker count a client may ask for
const maxWorkers = 64

// RunRequest asks the server to cull every group of a scene
type RunRequest struct {
	Scene   string                          `json:"scene"`   // Built-in id or "file:<name>"
	Bake    string                          `json:"bake"`    // "none", "normal" or "simple"
	Workers int                             `json:"workers"` // 0 uses every CPU
	Groups  map[string]config.GroupOverride `json:"groups"`  // Settings overrides by group name
}

// GroupResult is the outcome of culling one group
type GroupResult struct {
	Name       string                 `json:"name"`
	Planned    int                    `json:"planned"`
	Removed    int                    `json:"removed"`
	Remaining  int                    `json:"remaining"`
	Passes     []probegrid.CullResult `json:"passes"`
	DurationMs int64                  `json:"durationMs"`
	Error      string                 `json:"error,omitempty"`
	Probes     [][3]float64           `json:"probes"` // World space
}

// RunResponse summarizes a run
type RunResponse struct {
	Scene       string        `json:"scene"`
	Groups      []GroupResult `json:"groups"`
	TotalProbes int           `json:"totalProbes"`
	ElapsedMs   int64         `json:"elapsedMs"`
}

// handleRun culls a scene and returns the surviving probes of every group
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	cfg, err := s.configFor(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	startTime := time.Now()
	job, err := cfg.Prepare(r.Context(), s.logger)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Use request context to stop culling when the client disconnects
	results := job.Run(r.Context(), nil)
	writeJSON(w, http.StatusOK, summarize(job, results, startTime))
}

func summarize(job *config.Job, results []group.Result, startTime time.Time) RunResponse {
	response := RunResponse{
		Scene:  job.Scene.Name,
		Groups: make([]GroupResult, 0, len(results)),
	}
	for _, result := range results {
		g := job.Groups[result.TaskID]
		gr := GroupResult{
			Name:       g.Name,
			Planned:    result.Report.Planned,
			Removed:    result.Report.Removed(),
			Remaining:  result.Report.Remaining,
			Passes:     result.Report.Passes,
			DurationMs: result.Report.Duration.Milliseconds(),
		}
		if result.Error != nil {
			gr.Error = result.Error.Error()
		} else {
			probes := g.WorldProbes()
			gr.Probes = make([][3]float64, len(probes))
			for i, p := range probes {
				gr.Probes[i] = triple(p)
			}
			response.TotalProbes += len(gr.Probes)
		}
		response.Groups = append(response.Groups, gr)
	}
	response.ElapsedMs = time.Since(startTime).Milliseconds()
	return response
}

func triple(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}
