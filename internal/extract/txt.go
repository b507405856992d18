package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func txtStrategies() []Strategy {
	return []Strategy{
		{Name: "utf-8", Extract: decodeUTF8},
		{Name: "utf-16", Extract: decodeUTF16},
		{Name: "latin-1", Extract: decodeLatin1},
		{Name: "cp1252", Extract: decodeWith(charmap.Windows1252)},
	}
}

func decodeUTF8(_ context.Context, data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return "", errors.New("invalid UTF-8 sequence")
	}

	return string(data), nil
}

// decodeUTF16 only accepts input that starts with a byte order mark.
func decodeUTF16(ctx context.Context, data []byte) (string, error) {
	if len(data) < 2 || len(data)%2 != 0 {
		return "", errors.New("odd length for UTF-16")
	}

	if !bytes.HasPrefix(data, []byte{0xFF, 0xFE}) && !bytes.HasPrefix(data, []byte{0xFE, 0xFF}) {
		return "", errors.New("missing UTF-16 byte order mark")
	}

	return decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM))(ctx, data)
}

// decodeLatin1 refuses C1 control bytes, which nearly always mean the file is
// Windows-1252.
func decodeLatin1(ctx context.Context, data []byte) (string, error) {
	for _, c := range data {
		if c >= 0x80 && c <= 0x9F {
			return "", fmt.Errorf("C1 control byte 0x%02X", c)
		}
	}

	return decodeWith(charmap.ISO8859_1)(ctx, data)
}

func decodeWith(enc encoding.Encoding) func(context.Context, []byte) (string, error) {
	return func(_ context.Context, data []byte) (string, error) {
		out, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			return "", fmt.Errorf("decode: %w", err)
		}

		return string(out), nil
	}
}
