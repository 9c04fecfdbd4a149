package normalize

import (
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackzampolin/quire/internal/types"
)

// Kind is the detected input format.
type Kind string

const (
	KindHTML Kind = "html"
	KindDOCX Kind = "docx"
	KindPDF  Kind = "pdf"
)

// Kinds lists every supported input kind.
var Kinds = []Kind{KindHTML, KindDOCX, KindPDF}

// DOCXMediaType is the registered media type of word-processing documents.
const DOCXMediaType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

var mediaTypes = map[string]Kind{
	"text/html":             KindHTML,
	"application/xhtml+xml": KindHTML,
	DOCXMediaType:           KindDOCX,
	"application/pdf":       KindPDF,
}

var extensions = map[string]Kind{
	".html":  KindHTML,
	".htm":   KindHTML,
	".xhtml": KindHTML,
	".docx":  KindDOCX,
	".pdf":   KindPDF,
}

// MediaTypes returns the media types accepted for kind.
func MediaTypes(kind Kind) []string {
	var out []string
	for mt, k := range mediaTypes {
		if k == kind {
			out = append(out, mt)
		}
	}
	sort.Strings(out)
	return out
}

// Extensions returns the file extensions accepted for kind.
func Extensions(kind Kind) []string {
	var out []string
	for ext, k := range extensions {
		if k == kind {
			out = append(out, ext)
		}
	}
	sort.Strings(out)
	return out
}

// Detect classifies an input by media type, falling back to the filename
// extension. Media type parameters such as charset are ignored.
func Detect(mediaType, filename string) (Kind, error) {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		mt = parsed
	}
	if kind, ok := mediaTypes[mt]; ok {
		return kind, nil
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if kind, ok := extensions[ext]; ok {
		return kind, nil
	}

	return "", fmt.Errorf("%w: media type %q, extension %q", types.ErrUnsupportedFormat, mediaType, ext)
}
