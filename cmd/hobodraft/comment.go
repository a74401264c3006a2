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
	"fmt"
	"io"
	"os"
	"strings"

	"hobodraft/internal/domain"
)

const commentUsage = "list | add <element-id> <text> | edit <comment-id> <text> | color <comment-id> <color> | resolve <comment-id> | reopen <comment-id> | rm <comment-id>"

// commentStore is the part of the store the comment command needs.
type commentStore interface {
	CreateComment(ctx context.Context, scriptID, elementID, text, color string) (domain.Comment, error)
	UpdateComment(ctx context.Context, id string, patch domain.CommentPatch) (domain.Comment, error)
	DeleteComment(ctx context.Context, id string) error
	ListComments(ctx context.Context, scriptID string) ([]domain.Comment, error)
}

func (c *cli) comment(scriptID string, args []string) error {
	st, err := c.store()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	return runComment(c.ctx, os.Stdout, st, scriptID, args)
}

// runComment executes one comment subcommand against the comments of scriptID.
func runComment(ctx context.Context, out io.Writer, st commentStore, scriptID string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("comment needs a subcommand: %s", commentUsage)
	}
	sub, rest := args[0], args[1:]
	need := func(n int) error {
		if len(rest) < n {
			return fmt.Errorf("comment %s: missing arguments (%s)", sub, commentUsage)
		}
		return nil
	}
	text := func() string { return strings.Join(rest[1:], " ") }
	update := func(p domain.CommentPatch) error {
		cm, err := st.UpdateComment(ctx, rest[0], p)
		if err != nil {
			return err
		}
		printComment(out, cm)
		return nil
	}

	switch sub {
	case "list":
		cms, err := st.ListComments(ctx, scriptID)
		if err != nil {
			return err
		}
		if len(cms) == 0 {
			_, _ = fmt.Fprintln(out, "No comments.")
		}
		for _, cm := range cms {
			printComment(out, cm)
		}
		return nil
	case "add":
		if err := need(2); err != nil {
			return err
		}
		cm, err := st.CreateComment(ctx, scriptID, rest[0], text(), "")
		if err != nil {
			return err
		}
		printComment(out, cm)
		return nil
	case "edit":
		if err := need(2); err != nil {
			return err
		}
		s := text()
		return update(domain.CommentPatch{Text: &s})
	case "color":
		if err := need(2); err != nil {
			return err
		}
		s := rest[1]
		return update(domain.CommentPatch{Color: &s})
	case "resolve", "reopen":
		if err := need(1); err != nil {
			return err
		}
		v := sub == "resolve"
		return update(domain.CommentPatch{Resolved: &v})
	case "rm":
		if err := need(1); err != nil {
			return err
		}
		if err := st.DeleteComment(ctx, rest[0]); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "Deleted comment %s\n", rest[0])
		return nil
	default:
		return fmt.Errorf("unknown comment subcommand %q: %s", sub, commentUsage)
	}
}

func printComment(out io.Writer, cm domain.Comment) {
	state := "open"
	if cm.Resolved {
		state = "resolved"
	}
	_, _ = fmt.Fprintf(out, "%s  %-8s [%s] on %s: %s\n", cm.ID, state, cm.Color, cm.ElementID, cm.Text)
}
