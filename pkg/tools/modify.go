package tools

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/xuri/excelize/v2"
)

type textReplacement struct {
	Find    string
	Replace string
}

func parseReplacements(args map[string]any, key string) []textReplacement {
	var out []textReplacement
	for _, raw := range argList(args, key) {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, textReplacement{
			Find:    argString(m, "find"),
			Replace: argString(m, "replace"),
		})
	}
	return out
}

// download fetches a file with the executor's shared client, capped at 50MB.
func (e *Executor) download(ctx context.Context, fileURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := e.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 50_000_000))
	if err != nil {
		return nil, "", err
	}
	return data, strings.ToLower(resp.Header.Get("Content-Type")), nil
}

// fetchFileContent downloads a file and renders its structure as readable
// text, so the specialist can see what it is about to modify.
func (e *Executor) fetchFileContent(ctx context.Context, fileURL string) string {
	fileBytes, contentType, err := e.download(ctx, fileURL)
	if err != nil {
		return fmt.Sprintf("Erro ao baixar arquivo: %v", err)
	}

	urlPath := strings.ToLower(strings.SplitN(fileURL, "?", 2)[0])
	switch {
	case strings.Contains(contentType, "spreadsheet") || strings.HasSuffix(urlPath, ".xlsx"):
		return readExcelStructure(fileBytes)
	case strings.Contains(contentType, "presentation") || strings.HasSuffix(urlPath, ".pptx"):
		return readPptxStructure(fileBytes)
	case strings.Contains(contentType, "pdf") || strings.HasSuffix(urlPath, ".pdf"):
		return readPDFText(fileBytes)
	case strings.Contains(contentType, "wordprocessing") || strings.HasSuffix(urlPath, ".docx"):
		return readDocxText(fileBytes)
	}
	return fmt.Sprintf("Tipo de arquivo não identificado (content-type: %s). URL: %s", contentType, fileURL)
}

func readExcelStructure(fileBytes []byte) string {
	f, err := excelize.OpenReader(bytes.NewReader(fileBytes))
	if err != nil {
		return fmt.Sprintf("Erro ao ler arquivo: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	lines := []string{fmt.Sprintf("Planilha Excel — %d aba(s): %s", len(sheets), strings.Join(sheets, ", "))}
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			lines = append(lines, fmt.Sprintf("\nAba '%s': vazia", sheet))
			continue
		}
		cols := 0
		for _, row := range rows {
			if len(row) > cols {
				cols = len(row)
			}
		}
		lines = append(lines, fmt.Sprintf("\nAba '%s' — %d linha(s), %d coluna(s)", sheet, len(rows), cols))
		lines = append(lines, fmt.Sprintf("Cabeçalhos (linha 1): %v", rows[0]))
		for i := 1; i < len(rows) && i < 6; i++ {
			lines = append(lines, fmt.Sprintf("  Linha %d: %v", i+1, rows[i]))
		}
		if len(rows) > 6 {
			lines = append(lines, fmt.Sprintf("  ... (%d linha(s) restante(s) não exibidas)", len(rows)-6))
		}
	}
	return strings.Join(lines, "\n")
}

func readPptxStructure(fileBytes []byte) string {
	slides, err := pptxSlideTexts(fileBytes)
	if err != nil {
		return fmt.Sprintf("Erro ao ler arquivo: %v", err)
	}
	lines := []string{fmt.Sprintf("Apresentação PPTX — %d slide(s)", len(slides))}
	for i, texts := range slides {
		preview := "(sem texto)"
		if len(texts) > 0 {
			if len(texts) > 4 {
				texts = texts[:4]
			}
			preview = strings.Join(texts, " | ")
		}
		lines = append(lines, fmt.Sprintf("  Slide %d: %s", i+1, preview))
	}
	return strings.Join(lines, "\n")
}

func readPDFText(fileBytes []byte) string {
	reader, err := pdf.NewReader(bytes.NewReader(fileBytes), int64(len(fileBytes)))
	if err != nil {
		return fmt.Sprintf("Erro ao ler arquivo: %v", err)
	}

	lines := []string{fmt.Sprintf("PDF — %d página(s)", reader.NumPage())}
	totalChars := 0
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			text = ""
		}
		snippet := truncate(strings.TrimSpace(text), 800)
		lines = append(lines, fmt.Sprintf("\n--- Página %d ---\n%s", i, snippet))
		totalChars += len(text)
		if totalChars > 4000 {
			lines = append(lines, "... [restante truncado]")
			break
		}
	}
	return strings.Join(lines, "\n")
}

var wordTagRe = regexp.MustCompile(`(?s)<w:t[^>]*>(.*?)</w:t>`)

func readDocxText(fileBytes []byte) string {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(fileBytes), int64(len(fileBytes)))
	if err != nil {
		return fmt.Sprintf("Erro ao ler arquivo: %v", err)
	}
	defer r.Close()

	content := r.Editable().GetContent()
	var texts []string
	for _, m := range wordTagRe.FindAllStringSubmatch(content, -1) {
		if t := strings.TrimSpace(xmlUnescaper.Replace(m[1])); t != "" {
			texts = append(texts, t)
		}
	}
	text := strings.Join(texts, "\n")
	if len(text) > 4000 {
		text = truncate(text, 4000) + "\n... [restante truncado]"
	}
	return fmt.Sprintf("Documento Word:\n%s", text)
}

func (e *Executor) modifyExcel(ctx context.Context, args map[string]any) string {
	fileBytes, _, err := e.download(ctx, argString(args, "url"))
	if err != nil {
		return fmt.Sprintf("Erro ao baixar planilha: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(fileBytes))
	if err != nil {
		return fmt.Sprintf("Erro ao abrir planilha: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "Erro ao abrir planilha: arquivo sem abas"
	}
	pickSheet := func(m map[string]any) string {
		name := argString(m, "sheet")
		for _, s := range sheets {
			if s == name {
				return s
			}
		}
		return sheets[0]
	}

	for _, raw := range argList(args, "cell_updates") {
		update, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		cell := argString(update, "cell")
		if cell == "" {
			continue
		}
		if err := f.SetCellValue(pickSheet(update), cell, update["value"]); err != nil {
			return fmt.Sprintf("Erro ao atualizar célula %s: %v", cell, err)
		}
	}

	for _, raw := range argList(args, "append_rows") {
		rowDef, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		sheet := pickSheet(rowDef)
		existing, err := f.GetRows(sheet)
		if err != nil {
			return fmt.Sprintf("Erro ao adicionar linha: %v", err)
		}
		values := argList(rowDef, "values")
		row := make([]any, len(values))
		for i, v := range values {
			row[i] = toStr(v)
		}
		cell, _ := excelize.CoordinatesToCellName(1, len(existing)+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Sprintf("Erro ao adicionar linha: %v", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Sprintf("Erro ao salvar planilha: %v", err)
	}

	filename := ensureExt(argString(args, "output_filename"), "planilha-modificada", ".xlsx")
	uploadURL, err := e.uploader.Upload(ctx, filename, buf.Bytes(), mimeXLSX)
	if err != nil {
		return fmt.Sprintf("Erro ao enviar planilha para o storage: %v", err)
	}
	return fmt.Sprintf(
		"Planilha modificada com sucesso. URL: %s\n\nINSTRUÇÃO OBRIGATÓRIA: Inclua exatamente este link na resposta final: [Baixar Planilha Modificada](%s)",
		uploadURL, uploadURL,
	)
}

func (e *Executor) modifyPptx(ctx context.Context, args map[string]any) string {
	fileBytes, _, err := e.download(ctx, argString(args, "url"))
	if err != nil {
		return fmt.Sprintf("Erro ao baixar apresentação: %v", err)
	}

	modified, err := replacePptxText(fileBytes, parseReplacements(args, "text_replacements"))
	if err != nil {
		return fmt.Sprintf("Erro ao modificar apresentação: %v", err)
	}

	filename := ensureExt(argString(args, "output_filename"), "apresentacao-modificada", ".pptx")
	uploadURL, err := e.uploader.Upload(ctx, filename, modified, mimePPTX)
	if err != nil {
		return fmt.Sprintf("Erro ao enviar apresentação para o storage: %v", err)
	}
	return fmt.Sprintf(
		"Apresentação modificada com sucesso. URL: %s\n\nINSTRUÇÃO OBRIGATÓRIA: Inclua exatamente este link na resposta final: [Baixar Apresentação Modificada](%s)",
		uploadURL, uploadURL,
	)
}

// modifyPDF extracts the document text, applies the edits and regenerates
// the PDF. Original layout is not preserved.
func (e *Executor) modifyPDF(ctx context.Context, args map[string]any) string {
	fileBytes, _, err := e.download(ctx, argString(args, "url"))
	if err != nil {
		return fmt.Sprintf("Erro ao baixar PDF: %v", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(fileBytes), int64(len(fileBytes)))
	if err != nil {
		return fmt.Sprintf("Erro ao ler PDF: %v", err)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			text = ""
		}
		pages = append(pages, text)
	}
	fullText := strings.Join(pages, "\n\n")

	for _, rep := range parseReplacements(args, "text_replacements") {
		fullText = strings.ReplaceAll(fullText, rep.Find, rep.Replace)
	}
	if appendContent := argString(args, "append_content"); appendContent != "" {
		fullText += "\n\n" + appendContent
	}

	filename := ensureExt(argString(args, "output_filename"), "documento-modificado", ".pdf")
	title := strings.TrimSuffix(filename, ".pdf")
	modified, err := renderPDF(title, fullText)
	if err != nil {
		return fmt.Sprintf("Erro ao regenerar PDF: %v", err)
	}

	uploadURL, err := e.uploader.Upload(ctx, filename, modified, mimePDF)
	if err != nil {
		return fmt.Sprintf("Erro ao enviar PDF para o storage: %v", err)
	}
	return fmt.Sprintf(
		"PDF modificado com sucesso. URL: %s\n\nINSTRUÇÃO OBRIGATÓRIA: Inclua exatamente este link na resposta final: [Baixar PDF Modificado](%s)",
		uploadURL, uploadURL,
	)
}
