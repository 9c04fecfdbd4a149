package normalize

import (
	"bytes"
	"io"

	"golang.org/x/net/html/charset"
)

// CharsetDecoder decodes HTML bytes to UTF-8 using golang.org/x/net/html/charset.
// The encoding comes from a byte order mark, the media type's charset
// parameter, or a <meta> declaration, in that order; UTF-8 is assumed when none
// is present.
type CharsetDecoder struct{}

// Decode implements TextDecoder.
func (CharsetDecoder) Decode(data []byte, mediaType string) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	r, err := charset.NewReader(bytes.NewReader(data), mediaType)
	if err != nil {
		return "", err
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
