/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"hobodraft/internal/analysis"
	"hobodraft/internal/backend"
	"hobodraft/internal/config"
	"hobodraft/internal/crash"
	"hobodraft/internal/domain"
	"hobodraft/internal/export"
	"hobodraft/internal/fountain"
	"hobodraft/internal/grammar"
	applog "hobodraft/internal/log"
	"hobodraft/internal/share"
	"hobodraft/internal/storage"
	"hobodraft/internal/version"
)

func usage() {
	fmt.Println("hobodraft: screenplay, poetry and fiction drafts")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  hobodraft version|-v|--version               Show version")
	fmt.Println("  hobodraft new <file> <title> [type]           Create a script file (screenplay|poetry|fiction)")
	fmt.Println("  hobodraft write <file>                        Edit a script line by line from stdin")
	fmt.Println("  hobodraft stats <file>                        Print word, page and genre statistics")
	fmt.Println("  hobodraft outline <file>                      Print the heading outline")
	fmt.Println("  hobodraft export <file> <format> [dir]        Export as fountain|markdown|text|pdf")
	fmt.Println("  hobodraft import <fountain-file> <file>       Convert a fountain screenplay to a script file")
	fmt.Println("  hobodraft push <file>                         Store a script file in the database, print its id")
	fmt.Println("  hobodraft pull <id> <file>                    Write a stored script to a file")
	fmt.Println("  hobodraft list                                List stored scripts")
	fmt.Println("  hobodraft share <id> <read|edit|off>          Enable or revoke a share token")
	fmt.Println("  hobodraft comment <id> <subcommand>           Manage comments: " + commentUsage)
	fmt.Println("  hobodraft versions <id>                       List versions of a stored script")
	fmt.Println("  hobodraft snapshot <id> <name>                Save a named version")
	fmt.Println("  hobodraft restore <id> <version-id>           Restore a version (current content is snapshotted first)")
	fmt.Println("  hobodraft serve [addr]                        Serve share links over HTTP")
	fmt.Println("  hobodraft shared <base-url> <token>           Print the script behind a share link")
}

// cli carries what every command needs.
type cli struct {
	ctx context.Context
	cfg config.AppConfig
	log *slog.Logger
	// file is the script currently open, for crash snapshots.
	file *storage.FileHandle
}

func main() {
	_ = godotenv.Load()
	cfg, cerr := config.Load()
	applog.Init(cfg.Logging.Options())
	l := applog.WithComponent("cli")
	if cerr != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", cerr))
	}

	c := &cli{ctx: context.Background(), cfg: cfg, log: l}
	defer crash.Recover(func() *storage.FileHandle { return c.file })

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return
	}
	cmd, rest := args[1], args[2:]
	need := func(n int, what string) {
		if len(rest) < n {
			fmt.Printf("%s requires %s\n", cmd, what)
			usage()
			os.Exit(2)
		}
	}

	var err error
	switch cmd {
	case "version", "--version", "-v":
		fmt.Println("hobodraft")
		fmt.Println(version.String())
	case "new":
		need(2, "<file> and <title>")
		kind := cfg.General.DefaultType
		if len(rest) > 2 {
			kind = rest[2]
		}
		err = c.newFile(rest[0], rest[1], kind)
	case "write":
		need(1, "<file>")
		err = c.write(rest[0])
	case "stats":
		need(1, "<file>")
		err = c.stats(rest[0])
	case "outline":
		need(1, "<file>")
		err = c.outline(rest[0])
	case "export":
		need(2, "<file> and <format>")
		dir := cfg.Export.OutDir
		if len(rest) > 2 {
			dir = rest[2]
		}
		err = c.export(rest[0], rest[1], dir)
	case "import":
		need(2, "<fountain-file> and <file>")
		err = c.importFountain(rest[0], rest[1])
	case "push":
		need(1, "<file>")
		err = c.push(rest[0])
	case "pull":
		need(2, "<id> and <file>")
		err = c.pull(rest[0], rest[1])
	case "list":
		err = c.list()
	case "share":
		need(2, "<id> and <read|edit|off>")
		err = c.share(rest[0], rest[1])
	case "comment":
		need(2, "<id> and a subcommand")
		err = c.comment(rest[0], rest[1:])
	case "versions":
		need(1, "<id>")
		err = c.versions(rest[0])
	case "snapshot":
		need(2, "<id> and <name>")
		err = c.snapshot(rest[0], strings.Join(rest[1:], " "))
	case "restore":
		need(2, "<id> and <version-id>")
		err = c.restore(rest[0], rest[1])
	case "serve":
		addr := cfg.Server.Addr
		if len(rest) > 0 {
			addr = rest[0]
		}
		err = c.serve(addr)
	case "shared":
		need(2, "<base-url> and <token>")
		err = c.shared(rest[0], rest[1])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		l.Error(cmd+" failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

func (c *cli) open(path string) (*storage.FileHandle, error) {
	abs, _ := filepath.Abs(path)
	h, err := storage.OpenFile(abs)
	if err != nil {
		return nil, err
	}
	if h.Recovered {
		fmt.Println("Warning: file was unreadable, loaded the latest backup instead")
	}
	c.file = h
	return h, nil
}

func (c *cli) newFile(path, title, kind string) error {
	abs, _ := filepath.Abs(path)
	h, err := storage.NewFile(abs, title, kind)
	if err != nil {
		return err
	}
	c.file = h
	c.log.Info("new script", slog.String("path", abs), slog.String("kind", h.Doc.Kind), slog.String("genre", string(h.Doc.Genre())))
	fmt.Printf("Created %s script at %s\n", h.Doc.Genre(), abs)
	return nil
}

func (c *cli) stats(path string) error {
	h, err := c.open(path)
	if err != nil {
		return err
	}
	r := analysis.Analyze(h.Document())
	fmt.Printf("Genre: %s\nElements: %d\nWords: %d\nCharacters: %d\nPages: %d\n", r.Genre, r.Elements, r.Words, r.Chars, r.Pages)
	switch {
	case r.Screenplay != nil:
		s := r.Screenplay
		fmt.Printf("Scenes: %d\nDialogue words: %d\nAction words: %d\n", s.SceneCount, s.DialogueWords, s.ActionWords)
		for _, cs := range s.Distribution {
			fmt.Printf("  %-20s %6d  %5.1f%%\n", cs.Name, cs.Words, cs.Percent)
		}
	case r.Poetry != nil:
		fmt.Printf("Rhyme scheme: %s\n", r.Poetry.Scheme)
		for _, pl := range r.Poetry.Lines {
			fmt.Printf("  %2d %-2s %s\n", pl.Syllables, pl.Letter, pl.Text)
		}
	case r.Fiction != nil:
		for _, ch := range r.Fiction.Chapters {
			fmt.Printf("  %-30s %6d\n", ch.Title, ch.Words)
		}
	}
	return nil
}

func (c *cli) outline(path string) error {
	h, err := c.open(path)
	if err != nil {
		return err
	}
	r := analysis.Analyze(h.Document())
	if len(r.Outline) == 0 {
		fmt.Println("No headings yet.")
	}
	for _, e := range r.Outline {
		fmt.Printf("%3d. %s\n", e.Number, e.Title)
	}
	return nil
}

func (c *cli) export(path, format, dir string) error {
	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}
	h, err := c.open(path)
	if err != nil {
		return err
	}
	dl := export.DirDownloader{Dir: dir}
	out, err := export.Deliver(dl, h.Document(), f)
	if err != nil {
		return err
	}
	fmt.Printf("Exported %s (%s, %d bytes)\n", dl.Path(out.Filename), out.MIMEType, len(out.Body))
	return nil
}

func (c *cli) importFountain(src, dst string) error {
	b, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read fountain file: %w", err)
	}
	content, problems := fountain.Parse(string(b))
	for _, p := range problems {
		fmt.Printf("Warning: %s: %s\n", src, p.Error())
	}
	abs, _ := filepath.Abs(dst)
	h, err := storage.NewFile(abs, content.TitlePage.Title, string(grammar.Screenplay))
	if err != nil {
		return err
	}
	c.file = h
	h.Doc.Content = domain.NewDocument(grammar.Screenplay, content).Content()
	if err := storage.SaveFile(h); err != nil {
		return err
	}
	fmt.Printf("Imported %d elements into %s\n", len(h.Doc.Elements), abs)
	return nil
}

func (c *cli) store() (*storage.Store, error) {
	var issuer *share.Issuer
	if secret, err := config.ShareSecret(); err != nil {
		c.log.Warn("share secret unavailable, sharing disabled", slog.Any("err", err))
	} else {
		issuer = share.NewIssuer(secret, c.cfg.Share.TokenTTL())
	}
	ctx, cancel := context.WithTimeout(c.ctx, 30*time.Second)
	defer cancel()
	return storage.Open(ctx, storage.Options{
		Driver:      c.cfg.Storage.SQLDriver(),
		DSN:         c.cfg.Storage.DSN,
		ShareIssuer: issuer,
	})
}

func (c *cli) push(path string) error {
	h, err := c.open(path)
	if err != nil {
		return err
	}
	st, err := c.store()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	sc, err := st.CreateScript(c.ctx, h.Doc.TitlePage.Title, h.Doc.Kind)
	if err != nil {
		return err
	}
	d, err := st.SaveContent(c.ctx, sc.ID, h.Doc.Content)
	if err != nil {
		return err
	}
	for _, cm := range h.Doc.Comments {
		if _, err := st.CreateComment(c.ctx, sc.ID, cm.ElementID, cm.Text, cm.Color); err != nil {
			c.log.Warn("comment skipped", slog.String("comment", cm.ID), slog.Any("err", err))
		}
	}
	fmt.Println(sc.ID)
	c.log.Info("script pushed", slog.String("script", sc.ID),
		slog.Int("characters", len(d.Characters)), slog.Int("locations", len(d.Locations)))
	return nil
}

func (c *cli) pull(id, path string) error {
	st, err := c.store()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	got, err := st.Load(c.ctx, id)
	if err != nil {
		return err
	}
	abs, _ := filepath.Abs(path)
	h := &storage.FileHandle{Path: abs, Doc: storage.FileDocument{Kind: got.Script.Kind, Content: got.Content, Comments: got.Comments}}
	c.file = h
	if err := storage.SaveFile(h); err != nil {
		return err
	}
	fmt.Printf("Wrote %q (%d words) to %s\n", got.Script.Title, got.Report.Words, abs)
	return nil
}

func (c *cli) list() error {
	st, err := c.store()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	scripts, err := st.ListScripts(c.ctx)
	if err != nil {
		return err
	}
	for _, sc := range scripts {
		shared := ""
		if sc.ShareMode != "" {
			shared = " [shared: " + string(sc.ShareMode) + "]"
		}
		fmt.Printf("%s  %-10s %s%s\n", sc.ID, sc.Kind, sc.Title, shared)
	}
	return nil
}

func (c *cli) share(id, arg string) error {
	st, err := c.store()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	if strings.EqualFold(arg, "off") {
		if err := st.DisableShare(c.ctx, id); err != nil {
			return err
		}
		fmt.Println("Sharing disabled.")
		return nil
	}
	mode, err := share.ParseMode(arg)
	if err != nil {
		return err
	}
	token, err := st.EnableShare(c.ctx, id, mode)
	if errors.Is(err, storage.ErrSharingDisabled) {
		return fmt.Errorf("%w: the OS keychain is not available", err)
	}
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func (c *cli) versions(id string) error {
	st, err := c.store()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	vs, err := st.ListVersions(c.ctx, id)
	if err != nil {
		return err
	}
	if len(vs) == 0 {
		fmt.Println("No versions yet.")
	}
	for _, v := range vs {
		fmt.Printf("%s  %s  %6d words  %s\n", v.ID, v.CreatedAt.Local().Format("2006-01-02 15:04"), v.WordCount, v.Name)
	}
	return nil
}

func (c *cli) snapshot(id, name string) error {
	st, err := c.store()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	v, err := st.CreateVersion(c.ctx, id, name)
	if err != nil {
		return err
	}
	fmt.Printf("Saved version %s (%d words)\n", v.ID, v.WordCount)
	return nil
}

func (c *cli) restore(id, versionID string) error {
	st, err := c.store()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	content, err := st.RestoreVersion(c.ctx, id, versionID)
	if err != nil {
		return err
	}
	fmt.Printf("Restored %d elements; the previous content was saved as %q\n", len(content.Elements), storage.AutoRestoreName)
	return nil
}

func (c *cli) serve(addr string) error {
	st, err := c.store()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	ctx, stop := signal.NotifyContext(c.ctx, os.Interrupt)
	defer stop()
	fmt.Println("Serving share links on", addr)
	return backend.NewServer(st).Serve(ctx, addr)
}

func (c *cli) shared(baseURL, token string) error {
	v, err := backend.NewClient(baseURL, token).Shared(c.ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s, %s access)\n\n", v.Title, v.Kind, v.Mode)
	for _, e := range v.Elements {
		fmt.Printf("%-16s %s\n", e.Type, e.Content)
	}
	for _, cm := range v.Comments {
		fmt.Printf("\n[%s] %s: %s\n", cm.Color, cm.Excerpt, cm.Text)
	}
	return nil
}
