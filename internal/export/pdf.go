/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"goscreenwriter/internal/progress"
	"goscreenwriter/internal/screenplay"
)

// Courier-based screenplay layout on US Letter, in points. Indents follow
// the conventional screenplay measurements relative to the 1.5" left margin.
const (
	pageWidth  = 612.0
	pageHeight = 792.0
	marginLeft = 108.0
	marginTop  = 72.0
	bodyWidth  = pageWidth - marginLeft - 72.0

	indentDialogue      = 72.0
	indentParenthetical = 115.0
	indentCharacter     = 158.0

	widthDialogue      = 252.0
	widthParenthetical = 180.0

	fontSize   = 12.0
	lineHeight = 14.0
)

// elementStep is the cancellation polling granularity for PDF rendering.
const elementStep = 32

// WritePDF renders the canonical screenplay as a PDF at outPath. The partial
// file is removed on any error or cancellation.
func WritePDF(ps *screenplay.ParsedScreenplay, outPath string, op *progress.Operation) error {
	op.SetTotalUnits(int64(len(ps.Elements)), "exporting pdf")

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: pageWidth, Ht: pageHeight},
	})
	pdf.SetTitle(ps.TitleOrDefault(), false)
	pdf.SetMargins(marginLeft, marginTop, 72)
	pdf.SetAutoPageBreak(true, 72)
	pdf.SetFont("Courier", "", fontSize)

	writeTitlePage(pdf, ps)
	pdf.AddPage()

	for i, e := range ps.Elements {
		if i%elementStep == 0 && op.Cancelled() {
			return progress.ErrCancelled
		}
		op.Update(int64(i), "exporting pdf", false)
		writePDFElement(pdf, e)
	}
	if op.Cancelled() {
		return progress.ErrCancelled
	}

	if err := pdf.OutputFileAndClose(outPath); err != nil {
		_ = os.Remove(outPath)
		return fmt.Errorf("write pdf: %w", err)
	}
	op.Complete("pdf exported")
	return nil
}

func writeTitlePage(pdf *gofpdf.Fpdf, ps *screenplay.ParsedScreenplay) {
	if len(ps.TitlePage) == 0 {
		return
	}
	pdf.AddPage()
	pdf.SetY(pageHeight / 3)
	for _, entry := range ps.TitlePage {
		for _, line := range entry.Lines {
			pdf.SetX(marginLeft)
			pdf.CellFormat(bodyWidth, lineHeight, line, "", 1, "C", false, 0, "")
		}
		pdf.Ln(lineHeight)
	}
}

func writePDFElement(pdf *gofpdf.Fpdf, e screenplay.Element) {
	switch e.Type {
	case screenplay.SceneHeading:
		pdf.Ln(lineHeight)
		text := e.Text
		if e.SceneNumber != "" {
			text = e.SceneNumber + "  " + text
		}
		pdf.SetFont("Courier", "B", fontSize)
		pdf.MultiCell(bodyWidth, lineHeight, strings.ToUpper(text), "", "L", false)
		pdf.SetFont("Courier", "", fontSize)

	case screenplay.Character:
		pdf.Ln(lineHeight)
		pdf.SetX(marginLeft + indentCharacter)
		pdf.MultiCell(bodyWidth-indentCharacter, lineHeight, e.Text, "", "L", false)

	case screenplay.Dialogue, screenplay.Lyrics:
		pdf.SetX(marginLeft + indentDialogue)
		pdf.MultiCell(widthDialogue, lineHeight, e.Text, "", "L", false)

	case screenplay.Parenthetical:
		pdf.SetX(marginLeft + indentParenthetical)
		pdf.MultiCell(widthParenthetical, lineHeight, e.Text, "", "L", false)

	case screenplay.Transition:
		pdf.Ln(lineHeight)
		pdf.MultiCell(bodyWidth, lineHeight, e.Text, "", "R", false)

	case screenplay.SectionHeading, screenplay.Synopsis, screenplay.Comment, screenplay.Boneyard:
		// Outline and notes are not part of the printed screenplay.

	case screenplay.PageBreak:
		pdf.AddPage()

	default: // Action
		pdf.Ln(lineHeight)
		align := "L"
		if e.Centered {
			align = "C"
		}
		pdf.MultiCell(bodyWidth, lineHeight, e.Text, "", align, false)
	}
}
