// ABOUTME: HTTP handlers for boards, columns, labels, display settings and webhook registrations.
// ABOUTME: Webhook CRUD goes straight to the registry; everything else goes through the repository.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/2389-research/kanbanfs/board/core"
	"github.com/2389-research/kanbanfs/board/registry"
)

type boardRequest struct {
	ID string `json:"id"`
	core.BoardConfig
}

func (s *Server) handleBoardList(w http.ResponseWriter, r *http.Request) {
	var boards map[string]core.BoardConfig
	var err error
	s.locked(func() { boards, err = s.reg.Boards() })
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, boards)
}

func (s *Server) handleBoardCreate(w http.ResponseWriter, r *http.Request) {
	var req boardRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	var b core.BoardConfig
	var err error
	s.locked(func() { b, err = s.repo.CreateBoard(req.ID, req.BoardConfig) })
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleBoardGet(w http.ResponseWriter, r *http.Request) {
	var b core.BoardConfig
	var err error
	s.locked(func() { b, err = s.reg.Board(boardParam(r)) })
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleBoardUpdate(w http.ResponseWriter, r *http.Request) {
	var u registry.BoardUpdate
	if err := decodeBody(r, &u); err != nil {
		writeError(w, err)
		return
	}
	var b core.BoardConfig
	var err error
	s.locked(func() { b, err = s.repo.UpdateBoard(boardParam(r), u) })
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleBoardDelete(w http.ResponseWriter, r *http.Request) {
	var b core.BoardConfig
	var err error
	s.locked(func() { b, err = s.repo.DeleteBoard(boardParam(r)) })
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleColumnList(w http.ResponseWriter, r *http.Request) {
	var b core.BoardConfig
	var err error
	s.locked(func() { b, err = s.reg.Board(boardParam(r)) })
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b.Columns)
}

func (s *Server) handleColumnAdd(w http.ResponseWriter, r *http.Request) {
	var col core.Column
	if err := decodeBody(r, &col); err != nil {
		writeError(w, err)
		return
	}
	var b core.BoardConfig
	var err error
	s.locked(func() { b, err = s.repo.AddColumn(boardParam(r), col) })
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b.Columns)
}

func (s *Server) handleColumnUpdate(w http.ResponseWriter, r *http.Request) {
	var u registry.ColumnUpdate
	if err := decodeBody(r, &u); err != nil {
		writeError(w, err)
		return
	}
	var b core.BoardConfig
	var err error
	s.locked(func() { b, err = s.repo.UpdateColumn(boardParam(r), chi.URLParam(r, "columnID"), u) })
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b.Columns)
}

func (s *Server) handleColumnRemove(w http.ResponseWriter, r *http.Request) {
	var b core.BoardConfig
	var err error
	s.locked(func() { b, err = s.repo.RemoveColumn(boardParam(r), chi.URLParam(r, "columnID")) })
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b.Columns)
}

func (s *Server) handleColumnReorder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Columns []string `json:"columns"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	var b core.BoardConfig
	var err error
	s.locked(func() { b, err = s.repo.ReorderColumns(boardParam(r), req.Columns) })
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b.Columns)
}

func (s *Server) handleLabelList(w http.ResponseWriter, r *http.Request) {
	group := r.URL.Query().Get("group")
	var err error
	var out any
	s.locked(func() {
		if group != "" {
			out, err = s.reg.LabelsInGroup(group)
		} else {
			out, err = s.reg.Labels()
		}
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleLabelSet(w http.ResponseWriter, r *http.Request) {
	var def core.LabelDefinition
	if err := decodeBody(r, &def); err != nil {
		writeError(w, err)
		return
	}
	var err error
	s.locked(func() { err = s.repo.SetLabel(chi.URLParam(r, "name"), def) })
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func (s *Server) handleLabelDelete(w http.ResponseWriter, r *http.Request) {
	var err error
	s.locked(func() { err = s.repo.DeleteLabel(chi.URLParam(r, "name")) })
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLabelRename(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	var n int
	var err error
	s.locked(func() { n, err = s.repo.RenameLabel(chi.URLParam(r, "name"), req.Name) })
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": req.Name, "cardsUpdated": n})
}

func (s *Server) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	var ds core.DisplaySettings
	var err error
	s.locked(func() { ds, err = s.reg.Settings() })
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

func (s *Server) handleSettingsUpdate(w http.ResponseWriter, r *http.Request) {
	var ds core.DisplaySettings
	if err := decodeBody(r, &ds); err != nil {
		writeError(w, err)
		return
	}
	var err error
	s.locked(func() { err = s.repo.UpdateSettings(ds) })
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

type webhookRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Secret string   `json:"secret"`
}

// webhookView is a registration as the API returns it. The secret never
// leaves the server; hasSecret says whether deliveries are signed.
type webhookView struct {
	ID        string   `json:"id"`
	URL       string   `json:"url"`
	Events    []string `json:"events"`
	Active    bool     `json:"active"`
	HasSecret bool     `json:"hasSecret"`
}

func viewWebhook(h core.Webhook) webhookView {
	return webhookView{ID: h.ID, URL: h.URL, Events: h.Events, Active: h.Active, HasSecret: h.Secret != ""}
}

func (s *Server) handleWebhookList(w http.ResponseWriter, r *http.Request) {
	var hooks []core.Webhook
	var err error
	s.locked(func() { hooks, err = s.reg.Webhooks() })
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]webhookView, len(hooks))
	for i, h := range hooks {
		views[i] = viewWebhook(h)
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleWebhookCreate(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	var h core.Webhook
	var err error
	s.locked(func() { h, err = s.reg.CreateWebhook(req.URL, req.Events, req.Secret) })
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewWebhook(h))
}

func (s *Server) handleWebhookGet(w http.ResponseWriter, r *http.Request) {
	var h core.Webhook
	var err error
	s.locked(func() { h, err = s.reg.Webhook(chi.URLParam(r, "webhookID")) })
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewWebhook(h))
}

func (s *Server) handleWebhookUpdate(w http.ResponseWriter, r *http.Request) {
	var u registry.WebhookUpdate
	if err := decodeBody(r, &u); err != nil {
		writeError(w, err)
		return
	}
	var h core.Webhook
	var err error
	s.locked(func() { h, err = s.reg.UpdateWebhook(chi.URLParam(r, "webhookID"), u) })
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewWebhook(h))
}

func (s *Server) handleWebhookDelete(w http.ResponseWriter, r *http.Request) {
	var err error
	s.locked(func() { err = s.reg.DeleteWebhook(chi.URLParam(r, "webhookID")) })
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
