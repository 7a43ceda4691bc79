// Package extract pulls plain text out of uploaded documents. The format
// is chosen by file extension; pages are joined with a newline so page
// order survives into chunking.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	gmtext "github.com/yuin/goldmark/text"
)

// Text extracts the full text of the document at path.
func Text(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		return pdfText(path)
	case ".docx":
		return docxText(path)
	case ".xlsx":
		return xlsxText(path)
	case ".ods":
		return odsText(path)
	case ".md", ".markdown":
		return markdownText(path)
	case ".txt":
		return plainText(path)
	default:
		return "", fmt.Errorf("unsupported file format: %s", ext)
	}
}

func pdfText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return "", err
	}
	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return "", fmt.Errorf("reading pdf: %w", err)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extracting page %d: %w", i, err)
		}
		pages = append(pages, pageText)
	}
	return strings.Join(pages, "\n"), nil
}

func docxText(path string) (string, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", fmt.Errorf("reading docx: %w", err)
	}
	defer r.Close()

	content := r.Editable().GetContent()
	var paragraphs []string
	for _, p := range strings.Split(content, "</w:p>") {
		text := xmlTagText(p, "<w:t")
		if strings.TrimSpace(text) != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	return strings.Join(paragraphs, "\n"), nil
}

func xlsxText(path string) (string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("reading xlsx: %w", err)
	}

	var sheets []string
	for _, sheet := range f.Sheets {
		var b strings.Builder
		b.WriteString("Sheet: " + sheet.Name + "\n")
		for _, row := range sheet.Rows {
			cells := make([]string, 0, len(row.Cells))
			for _, cell := range row.Cells {
				cells = append(cells, cell.String())
			}
			b.WriteString(strings.Join(cells, "\t"))
			b.WriteString("\n")
		}
		sheets = append(sheets, b.String())
	}
	return strings.Join(sheets, "\n"), nil
}

func odsText(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("reading ods: %w", err)
	}
	defer f.Close()

	var sheets []string
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		var b strings.Builder
		b.WriteString("Sheet: " + name + "\n")
		for _, row := range rows {
			b.WriteString(strings.Join(row, "\t"))
			b.WriteString("\n")
		}
		sheets = append(sheets, b.String())
	}
	return strings.Join(sheets, "\n"), nil
}

func markdownText(path string) (string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(gmtext.NewReader(src))

	var b strings.Builder
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock {
				b.WriteString("\n")
			}
			return ast.WalkContinue, nil
		}
		if t, ok := n.(*ast.Text); ok {
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteString("\n")
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", fmt.Errorf("walking markdown: %w", err)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func plainText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// xmlTagText collects the character data inside every occurrence of the
// given opening tag (attributes allowed) in a raw XML fragment.
func xmlTagText(fragment, openTag string) string {
	var b strings.Builder
	parts := strings.Split(fragment, openTag)
	closeTag := "</" + strings.TrimPrefix(openTag, "<") + ">"
	for i, part := range parts {
		if i == 0 {
			continue
		}
		// Guard against longer tag names sharing the prefix (w:tbl etc).
		if !strings.HasPrefix(part, ">") && !strings.HasPrefix(part, " ") {
			continue
		}
		gt := strings.Index(part, ">")
		if gt < 0 {
			continue
		}
		rest := part[gt+1:]
		if end := strings.Index(rest, closeTag); end >= 0 {
			b.WriteString(rest[:end])
		} else {
			b.WriteString(rest)
		}
	}
	return b.String()
}
