package app

import (
	"bufio"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// writeSimplePDF renders the grounding document to a minimal PDF. Headings
// get larger bold text, markdown links [text](url) become clickable links,
// and fenced extract blocks are set in monospace. This is intentionally not
// a full Markdown layout.
func writeSimplePDF(markdown string, outPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()

	linkRe := regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`) // [text](url)

	inFence := false
	scanner := bufio.NewScanner(strings.NewReader(markdown))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		s := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(s, "```") {
			inFence = !inFence
			if inFence {
				pdf.SetFont("Courier", "", 9)
			} else {
				pdf.SetFont("Helvetica", "", 11)
				pdf.Ln(3)
			}
			continue
		}
		if inFence {
			pdf.MultiCell(0, 4, s, "", "L", false)
			continue
		}
		if s == "" {
			pdf.Ln(5)
			continue
		}
		if strings.HasPrefix(s, "#") {
			i := 0
			for i < len(s) && s[i] == '#' {
				i++
			}
			text := strings.TrimSpace(s[i:])
			if text == "" {
				continue
			}
			size := 14.0
			if i >= 2 {
				size = 12.0
			}
			// Headings may carry links, e.g. the per-result title lines
			if m := linkRe.FindStringSubmatch(text); m != nil {
				text = linkRe.ReplaceAllString(text, "$1")
			}
			pdf.SetFont("Helvetica", "B", size)
			pdf.CellFormat(0, 8, text, "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 11)
			continue
		}
		parts := linkRe.FindAllStringSubmatchIndex(s, -1)
		if len(parts) == 0 {
			pdf.MultiCell(0, 5, s, "", "L", false)
			continue
		}
		pos := 0
		for _, m := range parts {
			// m: [fullStart, fullEnd, textStart, textEnd, urlStart, urlEnd]
			if m[0] > pos {
				pdf.Write(5, s[pos:m[0]])
			}
			text := s[m[2]:m[3]]
			url := s[m[4]:m[5]]
			if strings.HasPrefix(url, "#") {
				pdf.Write(5, text)
			} else {
				pdf.WriteLinkString(5, text, url)
			}
			pos = m[1]
		}
		if pos < len(s) {
			pdf.Write(5, s[pos:])
		}
		pdf.Ln(6)
	}

	return pdf.OutputFileAndClose(outPath)
}
