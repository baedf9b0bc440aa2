package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/df07/go-probegrid/pkg/config"
	"github.com/df07/go-probegrid/pkg/group"
	"github.com/df07/go-probegrid/pkg/scene"
)

// Server handles web requests for the probe grid generator
type Server struct {
	port      int
	scenesDir string
	logger    *log.Logger
	upgrader  websocket.Upgrader
}

// NewServer creates a new web server. Scene files are discovered in scenesDir.
func NewServer(port int, scenesDir string) *Server {
	return &Server{
		port:      port,
		scenesDir: scenesDir,
		logger:    log.New(os.Stdout, "", log.LstdFlags),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the routes served by the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/scene-config", s.handleSceneConfig)
	mux.HandleFunc("/api/run", s.handleRun)
	mux.HandleFunc("/api/segments", s.handleSegments)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Printf("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists built-in scenes and the scene files in the scenes directory
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	response, err := scene.ListAllScenes(s.scenesDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, response)
}

// GroupConfig describes one probe volume of a scene
type GroupConfig struct {
	Name     string         `json:"name"`
	Position [3]float64     `json:"position"`
	Scale    [3]float64     `json:"scale"`
	Settings group.Settings `json:"settings"`
	Planned  int            `json:"planned"`
	Warning  string         `json:"warning,omitempty"`
}

// handleSceneConfig returns the probe volumes of a scene with their default settings
func (s *Server) handleSceneConfig(w http.ResponseWriter, r *http.Request) {
	sceneRef := r.URL.Query().Get("scene")
	if sceneRef == "" {
		sceneRef = config.Default().Scene
	}

	cfg, err := s.configFor(RunRequest{Scene: sceneRef})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sceneObj, err := cfg.ResolveScene()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	groups := make([]GroupConfig, 0, len(sceneObj.Groups))
	for _, spec := range sceneObj.Groups {
		planned := spec.Settings.Lattice.Clamped().Planned()
		gc := GroupConfig{
			Name:     spec.Name,
			Position: triple(spec.Transform.Position),
			Scale:    triple(spec.Transform.Scale),
			Settings: spec.Settings,
			Planned:  planned,
		}
		switch {
		case planned > group.DangerProbeCount:
			gc.Warning = "danger"
		case planned > group.WarnProbeCount:
			gc.Warning = "warning"
		}
		groups = append(groups, gc)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scene":  sceneObj.Name,
		"groups": groups,
		"limits": map[string]interface{}{
			"workers": map[string]int{"min": 0, "max": maxWorkers},
			"bakeModes": []config.BakeMode{
				config.BakeNone, config.BakeNormal, config.BakeSimple,
			},
		},
	})
}

// configFor builds a run configuration from a request. Scene files are only
// reachable through their discovery id so clients cannot name arbitrary paths.
func (s *Server) configFor(req RunRequest) (config.Config, error) {
	cfg := config.Default()
	if req.Scene != "" {
		cfg.Scene = req.Scene
	}

	if strings.HasPrefix(cfg.Scene, "file:") {
		path, err := s.sceneFilePath(cfg.Scene)
		if err != nil {
			return config.Config{}, err
		}
		cfg.Scene = path
	} else if config.IsSceneFile(cfg.Scene) {
		return config.Config{}, fmt.Errorf("unknown scene: %s", cfg.Scene)
	}

	if req.Bake != "" {
		switch mode := config.BakeMode(req.Bake); mode {
		case config.BakeNone, config.BakeNormal, config.BakeSimple:
			cfg.Bake.Mode = mode
		default:
			return config.Config{}, fmt.Errorf("unknown bake mode: %s", req.Bake)
		}
	}
	if req.Workers < 0 || req.Workers > maxWorkers {
		return config.Config{}, fmt.Errorf("workers must be between 0 and %d, got: %d", maxWorkers, req.Workers)
	}
	cfg.Workers = req.Workers
	cfg.Groups = req.Groups
	return cfg, nil
}

func (s *Server) sceneFilePath(id string) (string, error) {
	scenes, err := scene.ListFileScenes(s.scenesDir)
	if err != nil {
		return "", err
	}
	for _, info := range scenes {
		if info.ID == id {
			return info.FilePath, nil
		}
	}
	return "", fmt.Errorf("unknown scene: %s", id)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
