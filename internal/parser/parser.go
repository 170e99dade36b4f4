package parser

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"html"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// ErrMalformedDocument is returned when an upload cannot be parsed.
var ErrMalformedDocument = errors.New("malformed document")

const pageSeparator = "\n"

// LoadDocument extracts the plain text of an uploaded file. Files are
// dispatched by extension; anything that is not a known office or text
// format is read as a PDF.
func LoadDocument(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	log.Debug().Str("filename", filename).Int("bytes", len(data)).Msg("Loading document")

	switch ext {
	case ".docx":
		return parseDOCX(data)
	case ".pptx":
		return parsePPTX(data)
	case ".xlsx":
		return parseXLSX(data)
	case ".txt", ".md":
		return parseText(data)
	default:
		return parsePDF(data)
	}
}

func parsePDF(data []byte) (text string, err error) {
	// the pdf library panics on some corrupt object graphs
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: %v", ErrMalformedDocument, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		pages = append(pages, pageText(reader.Page(i), i))
	}
	log.Debug().Int("pages", numPages).Msg("Parsed PDF")
	return strings.Join(pages, pageSeparator), nil
}

// pageText never fails: a page without extractable text counts as empty.
func pageText(page pdf.Page, pageNum int) string {
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		log.Warn().Err(err).Int("page", pageNum).Msg("Could not extract page text, treating as empty")
		return ""
	}
	return strings.TrimSpace(text)
}

func parseDOCX(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	defer r.Close()

	return extractTextFromXML(r.Editable().GetContent(), "w"), nil
}

func parsePPTX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	type slide struct {
		num  int
		text string
	}
	var slides []slide
	for _, file := range zr.File {
		name := file.Name
		if !strings.HasPrefix(name, "ppt/slides/slide") || !strings.HasSuffix(name, ".xml") {
			continue
		}
		num, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "ppt/slides/slide"), ".xml"))
		if err != nil {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		var buf bytes.Buffer
		_, err = buf.ReadFrom(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		slides = append(slides, slide{num: num, text: extractTextFromXML(buf.String(), "a")})
	}
	if len(slides) == 0 {
		return "", fmt.Errorf("%w: no slides found", ErrMalformedDocument)
	}

	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })
	texts := make([]string, len(slides))
	for i, s := range slides {
		texts[i] = s.text
	}
	return strings.Join(texts, pageSeparator), nil
}

func parseXLSX(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	defer f.Close()

	var text strings.Builder
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			log.Warn().Err(err).Str("sheet", sheetName).Msg("Skipping unreadable sheet")
			continue
		}
		text.WriteString(fmt.Sprintf("## Sheet: %s\n", sheetName))
		for _, row := range rows {
			text.WriteString(strings.Join(row, "\t"))
			text.WriteString("\n")
		}
	}
	return strings.TrimSpace(text.String()), nil
}

func parseText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: text is not valid UTF-8", ErrMalformedDocument)
	}
	return string(data), nil
}

// extractTextFromXML pulls the text runs (<ns:t>) out of an OOXML part,
// starting a new line at every paragraph end (</ns:p>).
func extractTextFromXML(xmlContent, ns string) string {
	openTag, closeTag, paraEnd := "<"+ns+":t", "</"+ns+":t>", "</"+ns+":p>"

	var text strings.Builder
	for _, para := range strings.Split(xmlContent, paraEnd) {
		var line strings.Builder
		parts := strings.Split(para, openTag)
		for i, part := range parts {
			// i == 0 precedes the first run; <w:tbl>, <w:tab/> etc. share the prefix
			if i == 0 || part == "" || (part[0] != '>' && part[0] != ' ') {
				continue
			}
			// skip the remainder of the opening tag, e.g. ` xml:space="preserve">`
			start := strings.Index(part, ">")
			end := strings.Index(part, closeTag)
			if start < 0 || end < start {
				continue
			}
			line.WriteString(part[start+1 : end])
		}
		if line.Len() > 0 {
			if text.Len() > 0 {
				text.WriteString("\n")
			}
			text.WriteString(html.UnescapeString(line.String()))
		}
	}
	return text.String()
}
