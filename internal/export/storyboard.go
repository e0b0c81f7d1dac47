/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"promptforge/internal/domain"
)

// StoryboardPDF writes one block per segmented scene with the prompt the
// user selected (or the first one generated), the motion prompt and the
// sound effects. Scenes without history are rendered with a placeholder so
// the sheet keeps the scene numbering intact.
func StoryboardPDF(p *domain.Project, outPath string) error {
	if p == nil {
		return errors.New("project is required")
	}
	if strings.TrimSpace(outPath) == "" {
		return errors.New("output path is required")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("%s — Storyboard", p.ProjectName), true)
	pdf.SetAuthor("PromptForge", false)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 18)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 9, tr(p.ProjectName), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(110, 110, 110)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Storyboard — %d cenas", len(p.SegmentedScenes.PTBR))), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	for i, scene := range p.SegmentedScenes.PTBR {
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 7, tr(fmt.Sprintf("Cena %d", i+1)), "", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "I", 10)
		pdf.SetTextColor(80, 80, 80)
		pdf.MultiCell(0, 5, tr(scene), "", "L", false)
		pdf.Ln(1)

		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Helvetica", "", 10)
		if pr, ok := sheetPrompt(p.PromptHistory[scene]); ok {
			pdf.MultiCell(0, 5, tr(pr.Text), "", "L", false)
			if strings.TrimSpace(pr.MotionPrompt) != "" {
				pdf.Ln(1)
				pdf.SetFont("Helvetica", "B", 9)
				pdf.CellFormat(0, 5, "Motion", "", 1, "L", false, 0, "")
				pdf.SetFont("Helvetica", "", 9)
				pdf.MultiCell(0, 4.5, tr(pr.MotionPrompt), "", "L", false)
			}
			if len(pr.SoundEffects) > 0 {
				pdf.Ln(1)
				pdf.SetFont("Helvetica", "B", 9)
				pdf.CellFormat(0, 5, tr("Sons"), "", 1, "L", false, 0, "")
				pdf.SetFont("Helvetica", "", 9)
				pdf.MultiCell(0, 4.5, tr(strings.Join(pr.SoundEffects, ", ")), "", "L", false)
			}
		} else {
			pdf.SetTextColor(150, 150, 150)
			pdf.CellFormat(0, 5, tr("(sem prompt gerado)"), "", 1, "L", false, 0, "")
		}
		pdf.Ln(4)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// sheetPrompt picks the prompt to print for a scene: the selected one, or
// the first generated when nothing is selected.
func sheetPrompt(history []domain.Prompt) (domain.Prompt, bool) {
	if len(history) == 0 {
		return domain.Prompt{}, false
	}
	for _, pr := range history {
		if pr.IsSelected {
			return pr, true
		}
	}
	return history[0], true
}
