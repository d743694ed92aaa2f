package tools

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

const (
	mimePDF  = "application/pdf"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

func ensureExt(filename, fallbackBase, ext string) string {
	if filename == "" {
		filename = fmt.Sprintf("%s-%d", fallbackBase, time.Now().Unix())
	}
	if !strings.HasSuffix(strings.ToLower(filename), ext) {
		filename += ext
	}
	return filename
}

// renderPDF lays out markdown-ish text (title, # and ## headings, body) on
// A4 pages. Core fonts are cp1252, so text goes through the unicode
// translator to keep the accents.
func renderPDF(title, content string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 9, tr(title), "", "L", false)
	pdf.Ln(6)

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			pdf.Ln(4)
		case strings.HasPrefix(line, "## "):
			pdf.SetFont("Helvetica", "B", 13)
			pdf.MultiCell(0, 7, tr(strings.TrimPrefix(line, "## ")), "", "L", false)
			pdf.Ln(1)
		case strings.HasPrefix(line, "# "):
			pdf.SetFont("Helvetica", "B", 15)
			pdf.MultiCell(0, 8, tr(strings.TrimPrefix(line, "# ")), "", "L", false)
			pdf.Ln(1)
		default:
			pdf.SetFont("Helvetica", "", 12)
			pdf.MultiCell(0, 6, tr(line), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Executor) generatePDF(ctx context.Context, args map[string]any) string {
	title := argString(args, "title")
	content := argString(args, "content")

	pdfBytes, err := renderPDF(title, content)
	if err != nil {
		return fmt.Sprintf("Erro ao gerar PDF: %v", err)
	}

	filename := ensureExt(argString(args, "filename"), "doc", ".pdf")
	url, err := e.uploader.Upload(ctx, filename, pdfBytes, mimePDF)
	if err != nil {
		return fmt.Sprintf("Erro ao enviar PDF para o storage: %v", err)
	}
	return fmt.Sprintf(
		"PDF gerado com sucesso. URL: %s\n\nINSTRUÇÃO OBRIGATÓRIA: Inclua exatamente este link na resposta final: [Baixar PDF](%s)",
		url, url,
	)
}

func (e *Executor) generateExcel(ctx context.Context, args map[string]any) string {
	title := argString(args, "title")
	if title == "" {
		title = "Planilha"
	}
	title = truncate(title, 31)

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	if err := f.SetSheetName(sheet, title); err == nil {
		sheet = title
	}

	headers := argList(args, "headers")
	headerRow := make([]any, len(headers))
	for i, h := range headers {
		headerRow[i] = toStr(h)
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Sprintf("Erro ao gerar planilha: %v", err)
	}

	for i, raw := range argList(args, "rows") {
		cells, _ := raw.([]any)
		row := make([]any, len(cells))
		for j, c := range cells {
			row[j] = toStr(c)
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Sprintf("Erro ao gerar planilha: %v", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Sprintf("Erro ao gerar planilha: %v", err)
	}

	filename := ensureExt(argString(args, "filename"), "planilha", ".xlsx")
	url, err := e.uploader.Upload(ctx, filename, buf.Bytes(), mimeXLSX)
	if err != nil {
		return fmt.Sprintf("Erro ao enviar planilha para o storage: %v", err)
	}
	return fmt.Sprintf(
		"Planilha Excel gerada. URL: %s\n\nINSTRUÇÃO OBRIGATÓRIA: Inclua exatamente este link na resposta final: [Baixar Planilha](%s)",
		url, url,
	)
}

func (e *Executor) generateDocx(ctx context.Context, args map[string]any) string {
	title := argString(args, "title")
	content := argString(args, "content")

	docxBytes, err := renderDocx(title, content)
	if err != nil {
		return fmt.Sprintf("Erro ao gerar documento Word: %v", err)
	}

	filename := ensureExt(argString(args, "filename"), "documento", ".docx")
	url, err := e.uploader.Upload(ctx, filename, docxBytes, mimeDOCX)
	if err != nil {
		return fmt.Sprintf("Erro ao enviar documento para o storage: %v", err)
	}
	return fmt.Sprintf(
		"Documento Word gerado com sucesso. URL: %s\n\nINSTRUÇÃO OBRIGATÓRIA: Inclua exatamente este link na resposta final: [Baixar Documento](%s)",
		url, url,
	)
}

func (e *Executor) generatePptx(ctx context.Context, args map[string]any) string {
	title := argString(args, "title")

	var slides []slideContent
	for _, raw := range argList(args, "slides") {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		slides = append(slides, slideContent{
			Title: argString(m, "title"),
			Body:  argString(m, "body"),
		})
	}
	if len(slides) == 0 {
		slides = []slideContent{{Title: title}}
	}

	pptxBytes, err := renderPptx(slides)
	if err != nil {
		return fmt.Sprintf("Erro ao gerar apresentação: %v", err)
	}

	filename := ensureExt(argString(args, "filename"), "apresentacao", ".pptx")
	url, err := e.uploader.Upload(ctx, filename, pptxBytes, mimePPTX)
	if err != nil {
		return fmt.Sprintf("Erro ao enviar apresentação para o storage: %v", err)
	}
	return fmt.Sprintf(
		"Apresentação gerada com sucesso. URL: %s\n\nINSTRUÇÃO OBRIGATÓRIA: Inclua exatamente este link na resposta final: [Baixar Apresentação](%s)",
		url, url,
	)
}
