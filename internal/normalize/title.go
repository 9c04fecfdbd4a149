package normalize

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTitle is used when no other title source yields text.
const DefaultTitle = "Untitled"

var numericSuffix = regexp.MustCompile(`-\d+$`)

// TitleFromHTML returns the text of the document's <title>, if any.
func TitleFromHTML(src string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return ""
	}
	return collapseSpace(doc.Find("title").First().Text())
}

// TitleFromFilename derives a title from a file name: the base name without
// its extension or a trailing numeric part such as "-2".
func TitleFromFilename(name string) string {
	if name == "" {
		return ""
	}
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stem = numericSuffix.ReplaceAllString(stem, "")
	return strings.TrimSpace(stem)
}

// FirstTitle returns the first non-blank candidate, or DefaultTitle.
func FirstTitle(candidates ...string) string {
	for _, c := range candidates {
		if c = collapseSpace(c); c != "" {
			return c
		}
	}
	return DefaultTitle
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
