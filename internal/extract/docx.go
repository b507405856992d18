package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxBodyPart = "word/document.xml"

func docxStrategies() []Strategy {
	return []Strategy{
		{Name: "docx-xml", Extract: extractDOCX},
	}
}

// extractDOCX returns body paragraphs first, then table rows with their
// cells separated by spaces.
func extractDOCX(_ context.Context, data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open zip: %w", err)
	}

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == docxBodyPart {
			part = f
			break
		}
	}
	if part == nil {
		return "", fmt.Errorf("%s not found in archive", docxBodyPart)
	}

	rc, err := part.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", docxBodyPart, err)
	}
	defer rc.Close()

	paragraphs, rows, err := parseDocumentXML(rc)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, p := range paragraphs {
		b.WriteString(p)
		b.WriteByte('\n')
	}
	for _, row := range rows {
		for _, cell := range row {
			b.WriteString(cell)
			b.WriteByte(' ')
		}
		b.WriteByte('\n')
	}

	return b.String(), nil
}

func parseDocumentXML(r io.Reader) ([]string, [][]string, error) {
	var (
		paragraphs []string
		rows       [][]string
		row        []string
		cell       []string
		para       strings.Builder
		tableDepth int
		inText     bool
	)

	decoder := xml.NewDecoder(r)
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("decode %s: %w", docxBodyPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth++
			case "tr":
				row = nil
			case "tc":
				cell = nil
			case "p":
				para.Reset()
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br", "cr":
				para.WriteByte('\n')
			}

		case xml.CharData:
			if inText {
				para.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if tableDepth > 0 {
					cell = append(cell, para.String())
				} else {
					paragraphs = append(paragraphs, para.String())
				}
			case "tc":
				row = append(row, strings.Join(cell, "\n"))
			case "tr":
				rows = append(rows, row)
			case "tbl":
				tableDepth--
			}
		}
	}

	return paragraphs, rows, nil
}
