/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"hobodraft/internal/domain"
	"hobodraft/internal/export"
	"hobodraft/internal/grammar"
	"hobodraft/internal/share"
	"hobodraft/internal/storage"
)

type fixture struct {
	st       *storage.Store
	srv      *httptest.Server
	scriptID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st, err := storage.Open(ctx, storage.Options{
		DSN:         filepath.Join(t.TempDir(), "share.sqlite"),
		ShareIssuer: share.NewIssuer([]byte("backend-test-secret-backend-test"), 0),
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	sc, err := st.CreateScript(ctx, "Night Shift", "screenplay")
	if err != nil {
		t.Fatalf("create script: %v", err)
	}
	_, err = st.SaveContent(ctx, sc.ID, domain.Content{
		TitlePage: domain.TitlePage{Title: "Night Shift"},
		Elements: []domain.Element{
			{ID: "s1", Type: grammar.SceneHeading, Content: "INT. DINER - NIGHT"},
			{ID: "c1", Type: grammar.Character, Content: "LOU"},
			{ID: "d1", Type: grammar.Dialogue, Content: "Coffee's cold."},
		},
	})
	if err != nil {
		t.Fatalf("save content: %v", err)
	}
	if _, err := st.CreateComment(ctx, sc.ID, "gone", "cut?", "pink"); err != nil {
		t.Fatalf("create comment: %v", err)
	}

	srv := httptest.NewServer(NewServer(st).Handler())
	t.Cleanup(srv.Close)
	return &fixture{st: st, srv: srv, scriptID: sc.ID}
}

func (f *fixture) client(t *testing.T, mode share.Mode) *Client {
	t.Helper()
	tok, err := f.st.EnableShare(context.Background(), f.scriptID, mode)
	if err != nil {
		t.Fatalf("enable share: %v", err)
	}
	return NewClient(f.srv.URL+"/", tok)
}

func status(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

func TestSharedViewReadOnly(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, share.ModeRead)
	ctx := context.Background()

	v, err := c.Shared(ctx)
	if err != nil {
		t.Fatalf("Shared: %v", err)
	}
	if v.ScriptID != f.scriptID || v.Mode != share.ModeRead || len(v.Elements) != 3 {
		t.Fatalf("unexpected view: %+v", v)
	}
	if len(v.Comments) != 1 || !v.Comments[0].Dangling || v.Comments[0].Excerpt != domain.DeletedElementPlaceholder {
		t.Fatalf("dangling comment not marked: %+v", v.Comments)
	}

	if _, err := c.SetContent(ctx, "d1", "Hot coffee."); status(err) != http.StatusForbidden {
		t.Fatalf("read-only edit: want 403, got %v", err)
	}
}

func TestSharedEditSavesAndRederives(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, share.ModeEdit)
	ctx := context.Background()

	d, err := c.SetContent(ctx, "c1", "marge")
	if err != nil {
		t.Fatalf("SetContent: %v", err)
	}
	if len(d.Characters) != 1 || d.Characters[0] != "MARGE" {
		t.Fatalf("derived characters = %v", d.Characters)
	}
	got, err := f.st.Load(ctx, f.scriptID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Content.Elements[1].Content != "marge" {
		t.Fatalf("edit not persisted: %+v", got.Content.Elements)
	}

	if _, err := c.SetContent(ctx, "nope", "x"); status(err) != http.StatusNotFound {
		t.Fatalf("unknown element: want 404, got %v", err)
	}
}

func TestRevokedTokenIsRejected(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, share.ModeRead)
	if err := f.st.DisableShare(context.Background(), f.scriptID); err != nil {
		t.Fatalf("DisableShare: %v", err)
	}
	if _, err := c.Shared(context.Background()); status(err) != http.StatusNotFound {
		t.Fatalf("revoked token: want 404, got %v", err)
	}

	bad := NewClient(f.srv.URL, "not-a-token")
	if _, err := bad.Shared(context.Background()); status(err) != http.StatusUnauthorized {
		t.Fatalf("garbage token: want 401, got %v", err)
	}
	anon := NewClient(f.srv.URL, "")
	if _, err := anon.Shared(context.Background()); status(err) != http.StatusUnauthorized {
		t.Fatalf("missing token: want 401, got %v", err)
	}
}

func TestSharedExportDownload(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, share.ModeRead)

	out, err := c.Export(context.Background(), export.Fountain)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if out.Filename != "Night Shift."+export.Fountain.Ext() {
		t.Fatalf("filename = %q", out.Filename)
	}
	if !strings.Contains(string(out.Body), "INT. DINER - NIGHT") {
		t.Fatalf("body missing scene heading:\n%s", out.Body)
	}

	if _, err := c.Export(context.Background(), export.Format("docx")); status(err) != http.StatusBadRequest {
		t.Fatalf("bad format: want 400, got %v", err)
	}
}

func TestHealthAndReady(t *testing.T) {
	f := newFixture(t)
	for _, p := range []string{"/healthz", "/readyz", "/version"} {
		resp, err := http.Get(f.srv.URL + p)
		if err != nil {
			t.Fatalf("GET %s: %v", p, err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s: %s", p, resp.Status)
		}
	}
}

func TestQueryTokenAccepted(t *testing.T) {
	f := newFixture(t)
	tok, err := f.st.EnableShare(context.Background(), f.scriptID, share.ModeRead)
	if err != nil {
		t.Fatalf("enable share: %v", err)
	}
	resp, err := http.Get(f.srv.URL + "/api/shared?token=" + tok)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %s", resp.Status)
	}
}
