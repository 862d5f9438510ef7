package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/springjumps/springjumps/internal/hostview"
	"github.com/springjumps/springjumps/internal/prefs"
	"github.com/springjumps/springjumps/internal/shortcut"
	"github.com/springjumps/springjumps/internal/storage"
)

const maxBodySize = 64 << 10

type AppDeps struct {
	Prefs     *prefs.Store
	History   *storage.Store // optional; history routes return 404 when nil
	Persisted *hostview.View // optional; /preferences/persisted returns 404 when nil
	Token     string
}

// PreferencesResponse is the body of GET /preferences.
type PreferencesResponse struct {
	Record        map[string]any `json:"record"`
	Saved         map[string]any `json:"saved"`
	Modified      bool           `json:"modified"`
	NeedsRespring bool           `json:"needs_respring"`
	Changes       []prefs.Change `json:"changes"`
}

type shortcutJSON struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

type revisionJSON struct {
	ID            string         `json:"id"`
	CreatedAt     string         `json:"created_at"`
	NeedsRespring bool           `json:"needs_respring"`
	Record        map[string]any `json:"record,omitempty"`
}

func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Get("/preferences", handleGetPreferences(deps))
		r.Patch("/preferences", handlePatchPreferences(deps))
		r.Get("/preferences/persisted", handleGetPersisted(deps))
		r.Post("/preferences/save", handleSave(deps))
		r.Post("/preferences/reset", handleReset(deps))
		r.Get("/shortcuts/{index}", handleGetShortcut(deps))
		r.Post("/shortcuts", handleAddShortcut(deps))
		r.Patch("/shortcuts/{name}", handlePatchShortcut(deps))
		r.Delete("/shortcuts/{name}", handleDeleteShortcut(deps))
		r.Get("/history", handleListHistory(deps))
		r.Post("/history/{id}/restore", handleRestore(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

func preferencesResponse(s *prefs.Store) PreferencesResponse {
	changes := s.Changes()
	if changes == nil {
		changes = []prefs.Change{}
	}
	return PreferencesResponse{
		Record:        s.Record(),
		Saved:         s.Baseline().Record(),
		Modified:      len(changes) > 0,
		NeedsRespring: s.NeedsRespring(),
		Changes:       changes,
	}
}

func handleGetPreferences(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, preferencesResponse(deps.Prefs))
	}
}

// handlePatchPreferences sets toggles from a {"key": bool} object. The
// request is validated in full before anything is applied.
func handlePatchPreferences(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		defer r.Body.Close()

		var fields map[string]bool
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		valid := make(map[string]bool)
		for _, k := range prefs.ToggleKeys() {
			valid[k] = true
		}
		for k := range fields {
			if !valid[k] {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "unknown preference key %q", k)
				return
			}
		}
		for k, v := range fields {
			if err := deps.Prefs.SetToggle(k, v); err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
				return
			}
		}
		writeJSON(w, preferencesResponse(deps.Prefs))
	}
}

// handleGetPersisted returns what the host process currently reads from
// disk, which differs from GET /preferences until changes are saved.
func handleGetPersisted(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Persisted == nil {
			httpError(w, http.StatusNotFound, "not_found", "persisted view is disabled")
			return
		}
		snap, err := deps.Persisted.Get(r.Context())
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to read persisted preferences: %v", err)
			return
		}
		writeJSON(w, map[string]any{"record": snap.Record()})
	}
}

func handleSave(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respring := deps.Prefs.NeedsRespring()
		if err := deps.Prefs.Write(r.Context()); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save preferences: %v", err)
			return
		}
		if deps.Persisted != nil {
			deps.Persisted.Invalidate()
		}
		writeJSON(w, map[string]any{"status": "saved", "needs_respring": respring})
	}
}

func handleReset(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deps.Prefs.Reset()
		writeJSON(w, preferencesResponse(deps.Prefs))
	}
}

func handleGetShortcut(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		i, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid index: %v", err)
			return
		}
		e, err := deps.Prefs.Shortcut(i)
		if errors.Is(err, prefs.ErrIndexOutOfRange) {
			httpError(w, http.StatusNotFound, "not_found", "%v", err)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
			return
		}
		writeJSON(w, shortcutJSON{Name: e.Name, Enabled: e.Enabled})
	}
}

func shortcutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, prefs.ErrUnknownShortcut):
		httpError(w, http.StatusNotFound, "not_found", "%v", err)
	case errors.Is(err, prefs.ErrDuplicateName):
		httpError(w, http.StatusConflict, "conflict", "%v", err)
	case errors.Is(err, shortcut.ErrEmptyName):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
	default:
		httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
	}
}

func handleAddShortcut(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		defer r.Body.Close()

		var req struct {
			Name    string `json:"name"`
			Enabled *bool  `json:"enabled"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		e, err := deps.Prefs.AddShortcut(req.Name)
		if err != nil {
			shortcutError(w, err)
			return
		}
		if req.Enabled != nil && !*req.Enabled {
			if err := deps.Prefs.SetShortcutEnabled(e.Name, false); err != nil {
				shortcutError(w, err)
				return
			}
			e.Enabled = false
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(shortcutJSON{Name: e.Name, Enabled: e.Enabled})
	}
}

func handlePatchShortcut(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		defer r.Body.Close()

		name := chi.URLParam(r, "name")
		var req struct {
			Name    *string `json:"name"`
			Enabled *bool   `json:"enabled"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		// A rejected rename must leave the entry untouched, so it goes first.
		if req.Name != nil {
			if err := deps.Prefs.RenameShortcut(name, *req.Name); err != nil {
				shortcutError(w, err)
				return
			}
			name = *req.Name
		}
		if req.Enabled != nil {
			if err := deps.Prefs.SetShortcutEnabled(name, *req.Enabled); err != nil {
				shortcutError(w, err)
				return
			}
		}
		writeJSON(w, preferencesResponse(deps.Prefs))
	}
}

func handleDeleteShortcut(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Prefs.RemoveShortcut(chi.URLParam(r, "name")); err != nil {
			shortcutError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleListHistory(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.History == nil {
			httpError(w, http.StatusNotFound, "not_found", "history is disabled")
			return
		}
		limit := 20
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid limit %q", v)
				return
			}
			limit = n
		}
		revs, err := deps.History.ListRevisions(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list history: %v", err)
			return
		}
		out := make([]revisionJSON, 0, len(revs))
		for _, rev := range revs {
			out = append(out, revisionJSON{
				ID:            rev.ID,
				CreatedAt:     rev.CreatedAt.Format(time.RFC3339),
				NeedsRespring: rev.NeedsRespring,
			})
		}
		writeJSON(w, out)
	}
}

// handleRestore loads a revision into the store without saving it.
func handleRestore(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.History == nil {
			httpError(w, http.StatusNotFound, "not_found", "history is disabled")
			return
		}
		rev, err := deps.History.GetRevision(chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "revision not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get revision: %v", err)
			return
		}
		record, err := rev.DecodeRecord()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
			return
		}
		deps.Prefs.Apply(record)
		writeJSON(w, preferencesResponse(deps.Prefs))
	}
}
