// Package api exposes the content library over HTTP: crawl job submission
// with progress streaming, question answering, document management, and
// storage usage.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fwojciec/webrag"
	"github.com/fwojciec/webrag/crawl"
)

const maxRequestBodySize = 1 << 20 // 1MB

// CrawlRequest is the body of POST /crawl. MaxDepth and MaxPagesPerDomain
// override the server defaults when set.
type CrawlRequest struct {
	URLs              []string `json:"urls"`
	MaxDepth          *int     `json:"maxDepth"`
	MaxPagesPerDomain *int     `json:"maxPagesPerDomain"`
}

// CrawlFunc runs a crawl for the request's seeds, reporting progress through
// the callback. The server constructs a crawler per job so per-request depth
// and budget overrides apply.
type CrawlFunc func(ctx context.Context, req CrawlRequest, progress crawl.ProgressFunc) (*crawl.Result, error)

// AskRequest is the body of POST /ask.
type AskRequest struct {
	Query string `json:"query"`
}

// Deps holds the collaborators the HTTP handlers delegate to.
type Deps struct {
	Crawl     CrawlFunc
	Asker     webrag.Asker
	History   webrag.HistoryService
	Documents webrag.DocumentService
	Jobs      *JobManager

	// Token enables bearer auth when non-empty.
	Token string
}

// NewHandler builds the HTTP routing for the API.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	if deps.Token != "" {
		r.Use(BearerAuth(deps.Token))
	}

	r.Post("/crawl", handleCrawl(deps))
	r.Get("/jobs/{id}", handleGetJob(deps))
	r.Get("/jobs/{id}/events", handleJobEvents(deps))
	r.Post("/ask", handleAsk(deps))
	r.Get("/documents", handleListDocuments(deps))
	r.Delete("/documents/{id}", handleDeleteDocument(deps))
	r.Get("/usage", handleUsage(deps))

	return r
}

func handleCrawl(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req CrawlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, webrag.EINVALID, "invalid request body: %v", err)
			return
		}
		if len(req.URLs) == 0 {
			httpError(w, http.StatusBadRequest, webrag.EINVALID, "urls is required")
			return
		}

		job := deps.Jobs.Create(req.URLs)

		// The job outlives the request; it runs under its own context and
		// is observed through GET /jobs/{id} and the events stream.
		go func() {
			result, err := deps.Crawl(context.Background(), req, job.Publish)
			deps.Jobs.Finish(job, result, err)
		}()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"jobId": job.ID()})
	}
}

func handleGetJob(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := deps.Jobs.Find(chi.URLParam(r, "id"))
		if err != nil {
			errorResponse(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(job.Snapshot())
	}
}

func handleJobEvents(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := deps.Jobs.Find(chi.URLParam(r, "id"))
		if err != nil {
			errorResponse(w, err)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			httpError(w, http.StatusInternalServerError, webrag.EINTERNAL, "streaming unsupported")
			return
		}

		replay, events, cancel := job.Subscribe()
		defer cancel()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		for _, e := range replay {
			writeEvent(w, e)
		}
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case e, ok := <-events:
				if !ok {
					// Job finished; the finished event was the last one.
					return
				}
				writeEvent(w, e)
				flusher.Flush()
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, e JobEvent) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}

func handleAsk(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req AskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, webrag.EINVALID, "invalid request body: %v", err)
			return
		}
		if req.Query == "" {
			httpError(w, http.StatusBadRequest, webrag.EINVALID, "query is required")
			return
		}

		var history []*webrag.ChatTurn
		if deps.History != nil {
			// History is best-effort context; a read failure does not block
			// the question.
			history, _ = deps.History.RecentTurns(r.Context(), 0)
		}

		answer, err := deps.Asker.Ask(r.Context(), req.Query, history)
		if err != nil {
			errorResponse(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(answer)
	}
}

func handleListDocuments(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := webrag.DocumentFilter{
			Offset: parseIntParam(r, "offset", 0, 0),
			Limit:  parseIntParam(r, "limit", 20, 100),
		}
		if v := r.URL.Query().Get("domain"); v != "" {
			filter.Domain = &v
		}
		if v := r.URL.Query().Get("q"); v != "" {
			filter.Query = &v
		}
		if v := r.URL.Query().Get("status"); v != "" {
			status := webrag.DocumentStatus(v)
			if !status.Valid() {
				httpError(w, http.StatusBadRequest, webrag.EINVALID, "unknown status %q", v)
				return
			}
			filter.Status = &status
		}

		docs, total, err := deps.Documents.FindDocuments(r.Context(), filter)
		if err != nil {
			errorResponse(w, err)
			return
		}
		if docs == nil {
			docs = []*webrag.Document{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"documents": docs,
			"total":     total,
		})
	}
}

func handleDeleteDocument(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Documents.DeleteDocument(r.Context(), chi.URLParam(r, "id")); err != nil {
			errorResponse(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	}
}

func handleUsage(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		usage, err := deps.Documents.StorageUsage(r.Context())
		if err != nil {
			errorResponse(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(usage)
	}
}

// statusFromCode maps domain error codes to HTTP status codes. Unknown codes
// map to 500 so internal details never leak as client errors.
func statusFromCode(code string) int {
	switch code {
	case webrag.EINVALID:
		return http.StatusBadRequest
	case webrag.ENOTFOUND:
		return http.StatusNotFound
	case webrag.ECONFLICT, webrag.ERETRIEVAL:
		return http.StatusConflict
	case webrag.EFETCH, webrag.EEMBED, webrag.EANSWER:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorResponse translates a domain error into an HTTP error response.
func errorResponse(w http.ResponseWriter, err error) {
	code := webrag.ErrorCode(err)
	httpError(w, statusFromCode(code), code, "%s", webrag.ErrorMessage(err))
}

func httpError(w http.ResponseWriter, status int, code string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": fmt.Sprintf(format, args...),
		},
	})
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
