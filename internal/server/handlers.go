package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/omrscore/internal/layout"
	"github.com/MeKo-Tech/omrscore/internal/loader"
)

const (
	formatText = "text"
	formatCSV  = "csv"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding health response: %v\n", err)
	}
}

// layoutsHandler returns the known phase codes and their subject lists.
func (s *Server) layoutsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	table := layout.Phases()
	codes := make([]string, 0, len(table))
	for code := range table {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	phases := make([]PhaseInfo, 0, len(codes))
	for _, code := range codes {
		phases = append(phases, PhaseInfo{Code: code, Subjects: table[code]})
	}

	response := PhasesResponse{
		Phases: phases,
		Count:  len(phases),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding layouts response: %v\n", err)
	}
}

// decodeHandler processes uploaded feedback sheets.
func (s *Server) decodeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Set content length limit
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB*1024*1024)

	// Parse multipart form
	err := r.ParseMultipartForm(s.maxUploadMB * 1024 * 1024)
	if err != nil {
		// Distinguish body-too-large from generic parse error
		if strings.Contains(strings.ToLower(err.Error()), "body too large") ||
			strings.Contains(strings.ToLower(err.Error()), "request body too large") {
			s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		} else {
			s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
		}
		return
	}

	// Get uploaded file
	file, header, err := r.FormFile("sheet")
	if err != nil {
		s.writeErrorResponse(w, "No sheet file provided", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	// Validate file size
	if header.Size > s.maxUploadMB*1024*1024 {
		s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		return
	}

	// Read file content
	data, err := io.ReadAll(file)
	if err != nil {
		s.writeErrorResponse(w, "Failed to read sheet data", http.StatusInternalServerError)
		return
	}
	uploadSizeBytes.Observe(float64(len(data)))

	// Extract per-request pipeline overrides
	reqConfig, err := s.extractRequestConfig(r)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	pl, err := s.getPipelineForRequest(reqConfig)
	if err != nil {
		var layoutErr *layout.LayoutError
		if errors.As(err, &layoutErr) {
			s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.writeErrorResponse(w, fmt.Sprintf("Failed to create pipeline: %v", err), http.StatusInternalServerError)
		return
	}

	start := time.Now()
	res, err := pl.ProcessBytes(data, loader.KindAuto)
	duration := time.Since(start)

	if err != nil {
		decodeRequestsTotal.WithLabelValues("http", "error").Inc()
		var loadErr *loader.LoadError
		if errors.As(err, &loadErr) {
			s.writeErrorResponse(w, fmt.Sprintf("Failed to load document: %v", err), http.StatusBadRequest)
			return
		}
		s.writeErrorResponse(w, fmt.Sprintf("Decoding failed: %v", err), http.StatusInternalServerError)
		return
	}

	decodeRequestsTotal.WithLabelValues("http", "success").Inc()
	decodeProcessingDuration.WithLabelValues("http").Observe(duration.Seconds())
	decodePagesProcessed.WithLabelValues("http").Observe(float64(res.Pages))

	// Determine output format: default json; allow 'format' in query or form
	format := r.FormValue("format")
	if format == "" {
		format = r.URL.Query().Get("format")
	}
	ratings := pl.Config().Layout.Ratings

	switch format {
	case formatCSV:
		w.Header().Set("Content-Type", "text/csv")
		if err := res.WriteCSV(w, ratings); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing csv response: %v\n", err)
		}
	case formatText:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := res.WriteText(w, ratings); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing text response: %v\n", err)
		}
	default:
		w.Header().Set("Content-Type", "application/json")
		response := DecodeResponse{Success: true, Result: res}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding decode response: %v\n", err)
		}
	}
}

// extractRequestConfig reads pipeline overrides from form values with query
// parameters as the fallback.
func (s *Server) extractRequestConfig(r *http.Request) (*RequestConfig, error) {
	rc := &RequestConfig{}

	param := func(name string) string {
		if v := r.FormValue(name); v != "" {
			return v
		}
		return r.URL.Query().Get(name)
	}

	if v := param("subjects"); v != "" {
		for _, sub := range strings.Split(v, ",") {
			if sub = strings.TrimSpace(sub); sub != "" {
				rc.Subjects = append(rc.Subjects, sub)
			}
		}
	}
	rc.Phase = param("phase")

	var err error
	if rc.ExpectedQuestions, err = intParam(param("expected_questions")); err != nil {
		return nil, fmt.Errorf("invalid expected_questions: %w", err)
	}
	if rc.Respondents, err = intParam(param("responses")); err != nil {
		return nil, fmt.Errorf("invalid responses: %w", err)
	}
	if rc.FormsPerPage, err = intParam(param("forms_per_page")); err != nil {
		return nil, fmt.Errorf("invalid forms_per_page: %w", err)
	}
	return rc, nil
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := DecodeResponse{
		Success: false,
		Error:   message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		// Log error, but can't send another response
		fmt.Fprintf(os.Stderr, "Error writing error response: %v\n", err)
	}
}
