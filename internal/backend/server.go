/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package backend serves share links over HTTP: a read-only or editable view
// of one script, resolved from a share token, plus exports as downloads.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"hobodraft/internal/autosave"
	"hobodraft/internal/domain"
	"hobodraft/internal/editor"
	"hobodraft/internal/export"
	"hobodraft/internal/grammar"
	applog "hobodraft/internal/log"
	"hobodraft/internal/share"
	"hobodraft/internal/storage"
	"hobodraft/internal/version"
)

const maxBody = 1 << 20

// Store is the part of the persistence adapter the server needs.
type Store interface {
	Load(ctx context.Context, id string) (storage.Loaded, error)
	SaveContent(ctx context.Context, id string, c domain.Content) (autosave.Derived, error)
	ResolveShare(ctx context.Context, token string) (string, share.Mode, error)
	Ping(ctx context.Context) error
}

// SharedComment is a comment as shown in a shared view.
type SharedComment struct {
	ID        string `json:"id"`
	ElementID string `json:"elementId"`
	Text      string `json:"text"`
	Color     string `json:"color"`
	Resolved  bool   `json:"resolved"`
	Excerpt   string `json:"excerpt"`
	Dangling  bool   `json:"dangling"`
}

// SharedView is the payload of GET /api/shared.
type SharedView struct {
	ScriptID  string           `json:"scriptId"`
	Title     string           `json:"title"`
	Kind      string           `json:"kind"`
	Genre     grammar.Genre    `json:"genre"`
	Mode      share.Mode       `json:"mode"`
	TitlePage domain.TitlePage `json:"titlePage"`
	Elements  []domain.Element `json:"elements"`
	Comments  []SharedComment  `json:"comments"`
}

// EditRequest is the body of PUT /api/shared/elements/{id}.
type EditRequest struct {
	Content string `json:"content"`
}

type grant struct {
	scriptID string
	mode     share.Mode
}

// Server is the share link HTTP server.
type Server struct {
	store Store
	log   *slog.Logger
}

func NewServer(st Store) *Server {
	return &Server{store: st, log: applog.WithComponent("backend")}
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	mux.HandleFunc("GET /version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(version.String()))
	})
	mux.HandleFunc("GET /api/shared", s.withShare(s.view))
	mux.HandleFunc("PUT /api/shared/elements/{id}", s.withShare(s.edit))
	mux.HandleFunc("GET /api/shared/export/{format}", s.withShare(s.download))
	return mux
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("share server listening", slog.String("addr", addr))
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// withShare resolves the share token from a bearer header or the token query parameter.
func (s *Server) withShare(next func(w http.ResponseWriter, r *http.Request, g grant)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		auth := r.Header.Get("Authorization")
		const prefix = "bearer "
		if strings.HasPrefix(strings.ToLower(auth), prefix) {
			token = strings.TrimSpace(auth[len(prefix):])
		}
		if token == "" {
			writeError(w, http.StatusUnauthorized, errors.New("missing share token"))
			return
		}
		id, mode, err := s.store.ResolveShare(r.Context(), token)
		if err != nil {
			s.fail(w, err)
			return
		}
		next(w, r, grant{scriptID: id, mode: mode})
	}
}

func (s *Server) open(ctx context.Context, g grant) (storage.Loaded, *domain.Document, error) {
	got, err := s.store.Load(ctx, g.scriptID)
	if err != nil {
		return storage.Loaded{}, nil, err
	}
	return got, domain.NewDocument(got.Script.Genre(), got.Content), nil
}

func (s *Server) view(w http.ResponseWriter, r *http.Request, g grant) {
	got, doc, err := s.open(r.Context(), g)
	if err != nil {
		s.fail(w, err)
		return
	}
	sh := editor.NewShared(doc, g.mode)
	v := SharedView{
		ScriptID:  got.Script.ID,
		Title:     got.Script.Title,
		Kind:      got.Script.Kind,
		Genre:     doc.Genre(),
		Mode:      sh.Mode(),
		TitlePage: sh.TitlePage(),
		Elements:  sh.Elements(),
		Comments:  []SharedComment{},
	}
	for _, cv := range domain.AnnotateComments(doc, got.Comments) {
		v.Comments = append(v.Comments, SharedComment{
			ID:        cv.Comment.ID,
			ElementID: cv.Comment.ElementID,
			Text:      cv.Comment.Text,
			Color:     cv.Comment.Color,
			Resolved:  cv.Comment.Resolved,
			Excerpt:   cv.Excerpt,
			Dangling:  cv.Dangling,
		})
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) edit(w http.ResponseWriter, r *http.Request, g grant) {
	var req EditRequest
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	_ = r.Body.Close()
	if err != nil || json.Unmarshal(b, &req) != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	_, doc, err := s.open(r.Context(), g)
	if err != nil {
		s.fail(w, err)
		return
	}
	id := r.PathValue("id")
	sh := editor.NewShared(doc, g.mode)
	if !sh.CanEdit() {
		s.fail(w, editor.ErrReadOnly)
		return
	}
	if doc.IndexOf(id) < 0 {
		writeError(w, http.StatusNotFound, fmt.Errorf("element %s not found", id))
		return
	}
	if err := sh.SetContent(id, req.Content); err != nil {
		s.fail(w, err)
		return
	}
	d, err := s.store.SaveContent(r.Context(), g.scriptID, sh.Snapshot())
	if err != nil {
		s.fail(w, err)
		return
	}
	s.log.Info("shared edit saved", slog.String("script", g.scriptID), slog.String("element", id))
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) download(w http.ResponseWriter, r *http.Request, g grant) {
	f, err := export.ParseFormat(r.PathValue("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	_, doc, err := s.open(r.Context(), g)
	if err != nil {
		s.fail(w, err)
		return
	}
	out, err := export.File(doc, f)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", out.MIMEType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": out.Filename}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Body)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, share.ErrInvalidToken), errors.Is(err, share.ErrTokenExpired), errors.Is(err, storage.ErrSharingDisabled):
		status = http.StatusUnauthorized
	case errors.Is(err, editor.ErrReadOnly):
		status = http.StatusForbidden
	case errors.Is(err, storage.ErrInvalidInput):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", slog.Any("err", err))
	}
	writeError(w, status, err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}
