package detector

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// maxCheckBody caps the JSON API request body.
const maxCheckBody = 64 << 10

type CheckRequest struct {
	URL string `json:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type pageData struct {
	Error string
	Data  *Analysis
}

// Server exposes an Engine over HTTP.
type Server struct {
	engine *Engine
	log    logrus.FieldLogger
}

func NewServer(engine *Engine, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{engine: engine, log: log}
}

// Routes registers every endpoint on a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.IndexHandler)
	mux.HandleFunc("/result", s.ResultHandler)
	mux.HandleFunc("/api/check", s.CheckHandler)
	return mux
}

func (s *Server) IndexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.render(w, http.StatusOK, pageData{})
}

// ResultHandler serves the HTML form submission.
func (s *Server) ResultHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	url := strings.TrimSpace(r.FormValue("url"))
	if url == "" {
		s.render(w, http.StatusBadRequest, pageData{Error: "Please enter a URL"})
		return
	}

	analysis, err := s.engine.Classify(r.Context(), url)
	if err != nil {
		s.render(w, http.StatusUnprocessableEntity, pageData{Error: "Error analyzing URL: " + err.Error()})
		return
	}
	s.render(w, http.StatusOK, pageData{Data: analysis})
}

// CheckHandler is the JSON API.
func (s *Server) CheckHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "POST required"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCheckBody)
	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "url required"})
		return
	}

	analysis, err := s.engine.Classify(r.Context(), strings.TrimSpace(req.URL))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrInvalidURL) {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) render(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := indexTemplate.Execute(w, data); err != nil {
		s.log.Errorf("[HTTP] render template: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
