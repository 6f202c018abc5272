package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"study-ai/internal/models"
	"study-ai/internal/services"
)

const maxMultipartMemory = 32 << 20 // 32 MB

const (
	problemsURLPrefix  = "/data/problems/"
	summariesURLPrefix = "/data/summaries/"
)

const timeLayout = time.RFC3339

type Server struct {
	mux       *http.ServeMux
	studysets *services.StudySetService
	store     *services.ArtifactStore
	history   *services.HistoryService
	markdown  *services.MarkdownService
}

func NewServer(
	studysets *services.StudySetService,
	store *services.ArtifactStore,
	history *services.HistoryService,
	markdown *services.MarkdownService,
) *Server {
	s := &Server{
		mux:       http.NewServeMux(),
		studysets: studysets,
		store:     store,
		history:   history,
		markdown:  markdown,
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/process", s.handleProcess)
	s.mux.HandleFunc("/api/list/problems", s.handleListProblems)
	s.mux.HandleFunc("/api/list/summaries", s.handleListSummaries)
	s.mux.HandleFunc("/api/history", s.handleHistory)
	s.mux.HandleFunc(problemsURLPrefix, s.handleProblemFile)
	s.mux.HandleFunc(summariesURLPrefix, s.handleSummaryFile)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleProcess runs the whole pipeline inside the request cycle:
// extraction, the model round-trip, and artifact persistence. The response
// blocks until generation finishes or fails; there is no job queue.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "PDF 파일을 업로드하세요.")
		return
	}
	if form := r.MultipartForm; form != nil {
		defer form.RemoveAll()
	}

	file, header, err := r.FormFile("pdf")
	if err != nil {
		writeError(w, http.StatusBadRequest, "PDF 파일을 업로드하세요.")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		writeError(w, http.StatusBadRequest, "확장자가 .pdf 인 파일만 허용됩니다.")
		return
	}

	set, err := s.studysets.CreateFromPDF(r.Context(), file, header.Size, header.Filename)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	summaryHTML, err := s.markdown.Render(set.SummaryMarkdown)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":           true,
		"problems_url": problemsURLPrefix + set.ProblemsFile,
		"summary_url":  summariesURLPrefix + set.SummaryFile,
		"problems":     set.Problems,
		"summary_html": summaryHTML,
	})
}

func (s *Server) handleListProblems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	names, err := s.store.ListProblems()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, artifactList(names, problemsURLPrefix))
}

func (s *Server) handleListSummaries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	names, err := s.store.ListSummaries()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, artifactList(names, summariesURLPrefix))
}

func artifactList(names []string, urlPrefix string) []models.Artifact {
	out := make([]models.Artifact, 0, len(names))
	for _, name := range names {
		out = append(out, models.Artifact{Name: name, URL: urlPrefix + name})
	}
	return out
}

func (s *Server) handleProblemFile(w http.ResponseWriter, r *http.Request) {
	s.serveArtifact(w, r, problemsURLPrefix, s.store.ProblemPath)
}

func (s *Server) handleSummaryFile(w http.ResponseWriter, r *http.Request) {
	s.serveArtifact(w, r, summariesURLPrefix, s.store.SummaryPath)
}

// serveArtifact serves one stored file inline. Only bare filenames resolve;
// anything carrying a path separator is rejected before touching the
// filesystem.
func (s *Server) serveArtifact(w http.ResponseWriter, r *http.Request, prefix string, resolve func(string) (string, error)) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, http.MethodGet, http.MethodHead)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, prefix)
	path, err := resolve(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if l, err := strconv.Atoi(raw); err == nil && l > 0 {
			limit = l
		}
	}

	records, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		entry := map[string]any{
			"id":          rec.ID,
			"request_id":  rec.RequestID,
			"source":      rec.SourceName,
			"pages":       rec.PageCount,
			"chars":       rec.CharCount,
			"model":       rec.Model,
			"status":      rec.Status,
			"duration_ms": rec.DurationMS,
			"created_at":  rec.CreatedAt.Format(timeLayout),
		}
		if rec.Status == models.GenerationStatusOK {
			entry["basic"] = rec.BasicCount
			entry["advanced"] = rec.AdvancedCount
			entry["problems_url"] = problemsURLPrefix + rec.ProblemsFile
			entry["summary_url"] = summariesURLPrefix + rec.SummaryFile
		} else {
			entry["error"] = rec.Error
		}
		out = append(out, entry)
	}

	writeJSON(w, http.StatusOK, map[string]any{"generations": out})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": message})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
