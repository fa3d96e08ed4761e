package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/example/dts-backend/internal/job"
	"github.com/example/dts-backend/internal/model"
	"github.com/example/dts-backend/internal/notify"
	"github.com/example/dts-backend/internal/report"
)

type Server struct {
	Jobs     *job.Service
	Renderer *report.Renderer
	Hub      *notify.Hub
	Port     int // reported by /config
}

func (s Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(cors)

	r.Get("/health", s.handleHealth)
	r.Get("/config", s.handleConfig)
	r.Get("/ws", s.Hub.HandleWS)

	r.Post("/jobs", s.handleCreateJob)
	r.Get("/jobs", s.handleListJobs)
	r.Get("/jobs/{id}", s.handleGetJob)
	r.Put("/jobs/{id}", s.handleUpdateJob)

	r.Post("/pdf/preview/{id}", s.handlePreview)
	r.Post("/pdf/generate/{id}", s.handleGenerate)
	r.Get("/pdf/test", s.handlePDFTest)

	return r
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"port": s.Port,
		"ips":  hostIPv4s(),
	})
}

func (s Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var in model.Intake
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("decode intake: %w", err))
		return
	}
	id, err := s.Jobs.Create(r.Context(), in)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id})
}

func (s Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.Jobs.List(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, err := jobID(r)
	if err != nil {
		writeErr(w, http.StatusNotFound, model.ErrNotFound)
		return
	}
	j, err := s.Jobs.Get(r.Context(), id)
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (s Server) handleUpdateJob(w http.ResponseWriter, r *http.Request) {
	id, err := jobID(r)
	if err != nil {
		writeErr(w, http.StatusNotFound, model.ErrNotFound)
		return
	}
	var patch map[string]string
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("decode patch: %w", err))
		return
	}
	if err := s.Jobs.UpdateTechnicianFields(r.Context(), id, patch); err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	id, err := jobID(r)
	if err != nil {
		writeErr(w, http.StatusNotFound, model.ErrNotFound)
		return
	}
	var sec model.Sections
	if err := json.NewDecoder(r.Body).Decode(&sec); err != nil && !errors.Is(err, io.EOF) {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("decode sections: %w", err))
		return
	}
	j, err := s.Jobs.Get(r.Context(), id)
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	s.streamPDF(w, j, sec, fmt.Sprintf("inline; filename=Job_%s_PREVIEW.pdf", j.JobNo))
}

func (s Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	id, err := jobID(r)
	if err != nil {
		writeErr(w, http.StatusNotFound, model.ErrNotFound)
		return
	}
	var sec model.Sections
	if err := json.NewDecoder(r.Body).Decode(&sec); err != nil && !errors.Is(err, io.EOF) {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("decode sections: %w", err))
		return
	}
	j, err := s.Jobs.CompleteWithReport(r.Context(), id, sec)
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	s.streamPDF(w, j, sec, fmt.Sprintf("attachment; filename=Job_%s.pdf", j.JobNo))
}

func (s Server) handlePDFTest(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=test.pdf")
	if err := s.Renderer.TestDocument(w); err != nil {
		log.Printf("test pdf: %v", err)
	}
}

// streamPDF renders straight into the response body. A failure before
// the first byte becomes a JSON 500; after that the stream is already
// committed and can only be dropped.
func (s Server) streamPDF(w http.ResponseWriter, j model.Job, sec model.Sections, disposition string) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", disposition)

	cw := &countingWriter{w: w}
	if err := s.Renderer.Render(cw, j, sec); err != nil {
		if cw.n == 0 {
			w.Header().Del("Content-Disposition")
			writeErr(w, http.StatusInternalServerError, fmt.Errorf("pdf generation failed: %w", err))
			return
		}
		log.Printf("pdf stream aborted for job %s after %d bytes: %v", j.JobNo, cw.n, err)
	}
}

type countingWriter struct {
	w http.ResponseWriter
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func jobID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrNoFields), errors.Is(err, model.ErrInvalidStatus):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// hostIPv4s lists the non-loopback IPv4 addresses of the host, for
// clients on the LAN discovering the backend.
func hostIPv4s() []string {
	ips := []string{}
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ips
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if v4 := ipNet.IP.To4(); v4 != nil {
			ips = append(ips, v4.String())
		}
	}
	return ips
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]any{"error": err.Error()})
}
