package extract

import (
	"bytes"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

var (
	errImageOnlyPDF = errors.New("PDF contains images but no text layer")

	pdfStringRe = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)`)
	pdfStreamRe = regexp.MustCompile(`(?s)stream\r?\n(.*?)\r?\nendstream`)
)

func pdfStrategies() []Strategy {
	return []Strategy{
		{Name: "pdfcpu", Extract: extractPDFPages},
		{Name: "raw-streams", Extract: extractPDFRawStreams},
	}
}

// extractPDFPages reads the validated document page by page.
func extractPDFPages(ctx context.Context, data []byte) (string, error) {
	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return "", fmt.Errorf("read PDF: %w", err)
	}

	var b strings.Builder
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		if err = ctx.Err(); err != nil {
			return "", err
		}

		r, err := pdfcpu.ExtractPageContent(pdfCtx, pageNr)
		if err != nil || r == nil {
			continue
		}

		content, err := io.ReadAll(r)
		if err != nil {
			continue
		}

		if text := textFromContentStream(content); text != "" {
			b.WriteString(text)
			b.WriteByte('\n')
		}
	}

	if strings.TrimSpace(b.String()) == "" && hasImageStreams(pdfCtx) {
		return "", errImageOnlyPDF
	}

	return b.String(), nil
}

func hasImageStreams(pdfCtx *model.Context) bool {
	for _, entry := range pdfCtx.Table {
		if entry == nil || entry.Free || entry.Compressed {
			continue
		}

		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}

		if subtype, found := sd.Find("Subtype"); found {
			if name, isName := subtype.(types.Name); isName && name == "Image" {
				return true
			}
		}
	}

	return false
}

// extractPDFRawStreams scans the file for content streams without building
// the object graph, so damaged files still yield their text.
func extractPDFRawStreams(ctx context.Context, data []byte) (string, error) {
	if !bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("%PDF")) {
		return "", errors.New("missing PDF header")
	}

	var b strings.Builder
	for _, loc := range pdfStreamRe.FindAllSubmatchIndex(data, -1) {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		dict := data[:loc[0]]
		if i := bytes.LastIndex(dict, []byte("obj")); i >= 0 {
			dict = dict[i:]
		}
		stream := data[loc[2]:loc[3]]
		if bytes.Contains(dict, []byte("/Image")) {
			continue
		}

		if bytes.Contains(dict, []byte("/FlateDecode")) {
			inflated, err := inflate(stream)
			if err != nil {
				continue
			}
			stream = inflated
		}

		if text := textFromContentStream(stream); text != "" {
			b.WriteString(text)
			b.WriteByte('\n')
		}
	}

	return b.String(), nil
}

func inflate(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open flate stream: %w", err)
	}
	defer r.Close()

	return io.ReadAll(r)
}

// textFromContentStream collects the operands of text showing operators.
func textFromContentStream(content []byte) string {
	var b strings.Builder

	for line := range bytes.SplitSeq(content, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		switch {
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				b.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				b.WriteByte('\n')
				b.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
		case bytes.Equal(line, []byte("T*")), bytes.Equal(line, []byte("ET")):
			b.WriteByte('\n')
		}
	}

	return strings.TrimSpace(b.String())
}

func decodePDFString(raw []byte) string {
	var b strings.Builder

	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			b.WriteByte(raw[i])
			continue
		}

		i++
		switch c := raw[i]; c {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case '\\', '(', ')':
			b.WriteByte(c)
		default:
			if c < '0' || c > '7' {
				b.WriteByte(c)
				continue
			}

			val := int(c - '0')
			for j := 0; j < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; j++ {
				i++
				val = val*8 + int(raw[i]-'0')
			}
			b.WriteByte(byte(val))
		}
	}

	return b.String()
}
