// ABOUTME: HTTP handlers for tasks, their comments and their attachments.
// ABOUTME: List filters come from the query string; metadata filters use meta.<dotted.path>=text.
package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/2389-research/kanbanfs/board/core"
	"github.com/2389-research/kanbanfs/board/store"
)

// maxUpload bounds attachment uploads.
const maxUpload = 32 << 20

func parseFilter(r *http.Request) store.Filter {
	q := r.URL.Query()
	var f store.Filter
	for _, v := range q["status"] {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				f.Statuses = append(f.Statuses, s)
			}
		}
	}
	f.Sort = store.SortOrder(q.Get("sort"))
	f.Descending = q.Get("desc") == "true"
	f.IncludeDeleted = q.Get("includeDeleted") == "true"
	for key, vals := range q {
		if path, ok := strings.CutPrefix(key, "meta."); ok && path != "" && len(vals) > 0 {
			if f.Metadata == nil {
				f.Metadata = map[string]string{}
			}
			f.Metadata[path] = vals[0]
		}
	}
	return f
}

func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request) {
	var cards []core.Card
	var err error
	s.locked(func() { cards, err = s.repo.ListCards(boardParam(r), parseFilter(r)) })
	if err != nil {
		writeError(w, err)
		return
	}
	if cards == nil {
		cards = []core.Card{}
	}
	writeJSON(w, http.StatusOK, cards)
}

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	var in store.CardInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, err)
		return
	}
	var card core.Card
	var err error
	s.locked(func() { card, err = s.repo.CreateCard(boardParam(r), in) })
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

func (s *Server) handleTaskGet(w http.ResponseWriter, r *http.Request) {
	var card core.Card
	var err error
	s.locked(func() { card, err = s.repo.GetCard(boardParam(r), chi.URLParam(r, "taskID")) })
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) handleTaskUpdate(w http.ResponseWriter, r *http.Request) {
	var u store.CardUpdate
	if err := decodeBody(r, &u); err != nil {
		writeError(w, err)
		return
	}
	var card core.Card
	var err error
	s.locked(func() { card, err = s.repo.UpdateCard(boardParam(r), chi.URLParam(r, "taskID"), u) })
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "taskID")
	permanent := r.URL.Query().Get("permanent") == "true"
	var card core.Card
	var err error
	s.locked(func() {
		if permanent {
			card, err = s.repo.PurgeCard(boardParam(r), id)
		} else {
			card, err = s.repo.DeleteCard(boardParam(r), id)
		}
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

type moveRequest struct {
	Status   string `json:"status"`
	Position *int   `json:"position"`
}

func (s *Server) handleTaskMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	pos := -1
	if req.Position != nil {
		pos = *req.Position
	}
	var card core.Card
	var err error
	s.locked(func() { card, err = s.repo.MoveCard(boardParam(r), chi.URLParam(r, "taskID"), req.Status, pos) })
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

type commentRequest struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

func (s *Server) handleCommentCreate(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	var c core.Comment
	var err error
	s.locked(func() {
		c, err = s.repo.AddComment(boardParam(r), chi.URLParam(r, "taskID"), req.Author, req.Content)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleCommentUpdate(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	var c core.Comment
	var err error
	s.locked(func() {
		c, err = s.repo.UpdateComment(boardParam(r), chi.URLParam(r, "taskID"), chi.URLParam(r, "commentID"), req.Content)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleCommentDelete(w http.ResponseWriter, r *http.Request) {
	var c core.Comment
	var err error
	s.locked(func() {
		c, err = s.repo.DeleteComment(boardParam(r), chi.URLParam(r, "taskID"), chi.URLParam(r, "commentID"))
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleAttachmentAdd accepts a multipart upload in the "file" field.
func (s *Server) handleAttachmentAdd(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, core.Invalid(core.ErrValidation, "missing file upload: %v", err))
		return
	}
	defer func() { _ = file.Close() }()

	tmpDir, err := os.MkdirTemp("", "kanbanfs-upload-*")
	if err != nil {
		writeError(w, fmt.Errorf("create upload dir: %w", err))
		return
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	name := filepath.Base(header.Filename)
	if name == "." || name == "/" || name == "" {
		name = "attachment"
	}
	tmpPath := filepath.Join(tmpDir, name)
	out, err := os.Create(tmpPath)
	if err != nil {
		writeError(w, fmt.Errorf("create upload file: %w", err))
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		_ = out.Close()
		writeError(w, fmt.Errorf("store upload: %w", err))
		return
	}
	_ = out.Close()

	var card core.Card
	var stored string
	s.locked(func() { card, stored, err = s.repo.AddAttachment(boardParam(r), chi.URLParam(r, "taskID"), tmpPath) })
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"attachment": stored, "task": card})
}

func (s *Server) handleAttachmentGet(w http.ResponseWriter, r *http.Request) {
	var path string
	var err error
	s.locked(func() {
		path, err = s.repo.AttachmentPath(boardParam(r), chi.URLParam(r, "taskID"), chi.URLParam(r, "name"))
	})
	if err != nil {
		writeError(w, err)
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) handleAttachmentRemove(w http.ResponseWriter, r *http.Request) {
	var card core.Card
	var err error
	s.locked(func() {
		card, err = s.repo.RemoveAttachment(boardParam(r), chi.URLParam(r, "taskID"), chi.URLParam(r, "name"))
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}
