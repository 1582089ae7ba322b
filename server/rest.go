package server

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/shivaaang/chieac-cms/pkg/domain"
)

// statusHandler returns server status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":  "ok",
		"version": s.version,
		"time":    time.Now().UTC(),
	}

	if count, err := s.db.CountArticles(r.Context()); err == nil {
		status["articles"] = count
	}

	renderJSON(w, r, http.StatusOK, status)
}

// ingestHandler triggers a manual pipeline run, the backend of the admin UI
// "Fetch Now" button. The response is always a structured JSON body: 200 on
// success, 409 when another run holds the lock, 500 on pipeline failure.
func (s *Server) ingestHandler(w http.ResponseWriter, r *http.Request) {
	if key := s.config.GetAPIKey(); key != "" && r.Header.Get("X-Api-Key") != key {
		renderJSON(w, r, http.StatusForbidden, map[string]interface{}{
			"success": false,
			"error":   "forbidden: invalid API key",
		})
		return
	}

	log.Printf("[INFO] manual ingest triggered")

	result, err := s.ingester.Run(r.Context(), manualTask)
	if err != nil {
		log.Printf("[ERROR] manual ingest failed: %v", err)
		renderJSON(w, r, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	if result.Skipped {
		renderJSON(w, r, http.StatusConflict, map[string]interface{}{
			"success": false,
			"skipped": true,
			"reason":  result.Reason,
		})
		return
	}

	renderJSON(w, r, http.StatusOK, map[string]interface{}{
		"success": true,
		"skipped": false,
		"data":    result.Stats,
	})
}

// articleJSON is the wire shape of a stored article
type articleJSON struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	MediumLink  string   `json:"medium_link"`
	ImageLink   *string  `json:"image_link"`
	Tags        []string `json:"article_tags"`
	PublishedAt string   `json:"published_at"`
}

// articlesHandler lists stored articles, newest first
func (s *Server) articlesHandler(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 200 {
			renderJSON(w, r, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			renderJSON(w, r, http.StatusBadRequest, map[string]string{"error": "invalid offset"})
			return
		}
		offset = parsed
	}

	articles, err := s.db.ListArticles(r.Context(), limit, offset)
	if err != nil {
		log.Printf("[ERROR] failed to list articles: %v", err)
		renderJSON(w, r, http.StatusInternalServerError, map[string]string{"error": "failed to list articles"})
		return
	}

	out := make([]articleJSON, len(articles))
	for i, a := range articles {
		out[i] = toArticleJSON(a)
	}
	renderJSON(w, r, http.StatusOK, out)
}

func toArticleJSON(a domain.StoredArticle) articleJSON {
	j := articleJSON{
		ID:          a.ID,
		Title:       a.Title,
		MediumLink:  a.MediumLink,
		Tags:        a.Tags,
		PublishedAt: a.PublishedAt.UTC().Format(time.RFC3339),
	}
	if a.ImageLink != "" {
		img := a.ImageLink
		j.ImageLink = &img
	}
	if j.Tags == nil {
		j.Tags = []string{}
	}
	return j
}
