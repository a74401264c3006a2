/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"hobodraft/internal/domain"
	"hobodraft/internal/grammar"
)

// PDFOptions controls PDF export behavior. Units are points.
// Layout follows the common screenplay page: US Letter, Courier 12pt,
// 1.5in left margin, 1in elsewhere.
type PDFOptions struct {
	// SkipTitlePage omits the cover page even when title page fields are set.
	SkipTitlePage bool
	// Author is written into the PDF metadata; defaults to the title page author.
	Author string
}

const (
	pdfFont     = "Courier"
	pdfSize     = 12.0
	pdfLine     = 12.0
	pageW       = 612.0 // 8.5in
	pageH       = 792.0 // 11in
	marginLeft  = 108.0
	marginRight = 72.0
	marginTop   = 72.0
	bodyWidth   = pageW - marginLeft - marginRight
)

// block describes where an element type sits on the page.
type block struct {
	indent float64 // from the left margin
	width  float64
	upper  bool
	style  string
	align  string
	before float64 // blank lines above
}

var pdfLayout = map[grammar.ElementType]block{
	grammar.SceneHeading:   {width: bodyWidth, upper: true, style: "B", align: "L", before: 1},
	grammar.Action:         {width: bodyWidth, align: "L", before: 1},
	grammar.Character:      {indent: 158, width: 216, upper: true, align: "L", before: 1},
	grammar.Parenthetical:  {indent: 115, width: 144, align: "L"},
	grammar.Dialogue:       {indent: 72, width: 252, align: "L"},
	grammar.Transition:     {width: bodyWidth, upper: true, align: "R", before: 1},
	grammar.Shot:           {width: bodyWidth, upper: true, align: "L", before: 1},
	grammar.PoemTitle:      {width: bodyWidth, upper: true, style: "B", align: "C", before: 2},
	grammar.Epigraph:       {indent: 72, width: 288, style: "I", align: "L", before: 1},
	grammar.Line:           {indent: 36, width: bodyWidth - 36, align: "L"},
	grammar.Couplet:        {indent: 36, width: bodyWidth - 36, align: "L", before: 1},
	grammar.Stanza:         {indent: 36, width: bodyWidth - 36, align: "L", before: 1},
	grammar.SectionBreak:   {width: bodyWidth, align: "C", before: 1},
	grammar.ChapterHeading: {width: bodyWidth, upper: true, style: "B", align: "C", before: 2},
	grammar.Paragraph:      {width: bodyWidth, align: "J", before: 1},
	grammar.SceneBreak:     {width: bodyWidth, align: "C", before: 1},
}

var fallbackBlock = block{width: bodyWidth, align: "L", before: 1}

// WritePDF lays out doc as a paginated PDF and writes it to w.
func WritePDF(w io.Writer, doc *domain.Document, opt PDFOptions) error {
	if doc == nil {
		return fmt.Errorf("document is nil")
	}
	tp := doc.TitlePage()
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: pageW, Ht: pageH},
	})
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(true, marginTop)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	title := tp.Title
	if title == "" {
		title = DefaultName
	}
	pdf.SetTitle(title, true)
	author := opt.Author
	if author == "" {
		author = tp.Author
	}
	if author != "" {
		pdf.SetAuthor(author, true)
	}
	pdf.SetCreator("hobodraft", false)

	cover := !opt.SkipTitlePage && !tp.Empty()
	// Body pages are numbered from the second one on, top right.
	pdf.SetHeaderFuncMode(func() {
		n := pdf.PageNo()
		if cover {
			n--
		}
		if n < 2 {
			return
		}
		pdf.SetFont(pdfFont, "", pdfSize)
		pdf.SetXY(pageW-marginRight-72, 36)
		pdf.CellFormat(72, pdfLine, fmt.Sprintf("%d.", n), "", 0, "R", false, 0, "")
		pdf.SetXY(marginLeft, marginTop)
	}, true)

	if cover {
		writeTitlePage(pdf, tp, tr)
	}
	pdf.AddPage()
	pdf.SetFont(pdfFont, "", pdfSize)
	first := true
	for _, el := range doc.Elements() {
		text := strings.TrimRight(el.Content, " \t\r\n")
		b, ok := pdfLayout[el.Type]
		if !ok {
			b = fallbackBlock
		}
		switch el.Type {
		case grammar.SectionBreak, grammar.SceneBreak:
			text = "* * *"
		case grammar.Parenthetical:
			text = parens(text)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		if b.upper {
			text = strings.ToUpper(text)
		}
		if !first && b.before > 0 {
			pdf.Ln(b.before * pdfLine)
		}
		first = false
		pdf.SetFont(pdfFont, b.style, pdfSize)
		pdf.SetX(marginLeft + b.indent)
		pdf.MultiCell(b.width, pdfLine, tr(text), "", b.align, false)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func writeTitlePage(pdf *gofpdf.Fpdf, tp domain.TitlePage, tr func(string) string) {
	pdf.AddPage()
	pdf.SetFont(pdfFont, "", pdfSize)
	pdf.SetY(pageH / 3)
	if tp.Title != "" {
		pdf.SetFont(pdfFont, "B", pdfSize)
		pdf.MultiCell(bodyWidth, pdfLine, tr(strings.ToUpper(tp.Title)), "", "C", false)
		pdf.SetFont(pdfFont, "", pdfSize)
	}
	if tp.Author != "" {
		pdf.Ln(2 * pdfLine)
		pdf.MultiCell(bodyWidth, pdfLine, "written by", "", "C", false)
		pdf.Ln(pdfLine)
		pdf.MultiCell(bodyWidth, pdfLine, tr(tp.Author), "", "C", false)
	}
	// Contact bottom left, draft and date bottom right.
	var left, right []string
	if tp.Contact != "" {
		left = append(left, tp.Contact)
	}
	for _, f := range tp.Fields() {
		switch f.Key {
		case "Title", "Author", "Contact":
		case "Draft", "Date":
			right = append(right, f.Value)
		default:
			left = append(left, f.Key+": "+f.Value)
		}
	}
	y := pageH - marginTop - 5*pdfLine
	pdf.SetXY(marginLeft, y)
	pdf.MultiCell(bodyWidth/2, pdfLine, tr(strings.Join(left, "\n")), "", "L", false)
	pdf.SetXY(marginLeft+bodyWidth/2, y)
	pdf.MultiCell(bodyWidth/2, pdfLine, tr(strings.Join(right, "\n")), "", "R", false)
}
