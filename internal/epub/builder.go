// Package epub packages a normalized HTML document as an EPUB 2 (OCF) container.
package epub

import (
	"archive/zip"
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/quire/internal/types"
)

// MediaType is the MIME type of a packaged EPUB.
const MediaType = "application/epub+zip"

// Paths of the entries written into every package, in archive order.
const (
	MimetypePath  = "mimetype"
	ContainerPath = "META-INF/container.xml"
	StylePath     = "OEBPS/style.css"
	ContentPath   = "OEBPS/content.xhtml"
	PackagePath   = "OEBPS/content.opf"
	NCXPath       = "OEBPS/toc.ncx"
)

// Entry is one file inside the archive.
type Entry struct {
	Path  string
	Data  []byte
	Store bool // write uncompressed
}

// Archiver turns an ordered list of entries into an archive byte stream.
type Archiver interface {
	Archive(entries []Entry) ([]byte, error)
}

// ZipArchiver builds archives with archive/zip, keeping entry order.
type ZipArchiver struct{}

// Archive implements Archiver.
func (ZipArchiver) Archive(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, e := range entries {
		method := zip.Deflate
		if e.Store {
			method = zip.Store
		}
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:   e.Path,
			Method: method,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", e.Path, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", e.Path, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

// Package is a finished EPUB.
type Package struct {
	Identifier string // urn:uuid form, shared by the OPF and NCX
	Data       []byte
}

// Builder creates EPUB packages.
type Builder struct {
	Archiver Archiver
	NewID    func() string
	Now      func() time.Time
}

// NewBuilder creates a builder that writes through archiver.
func NewBuilder(archiver Archiver) *Builder {
	return &Builder{
		Archiver: archiver,
		NewID:    generateUUID,
		Now:      time.Now,
	}
}

// Build packages body under title. Either a complete package is returned or
// an error wrapping types.ErrPackagingFailure.
func (b *Builder) Build(title, body string) (*Package, error) {
	if b == nil || b.Archiver == nil {
		return nil, types.ErrPackagingUnavailable
	}

	// The identifier is generated once so the OPF and NCX carry the same value.
	id := b.identifier()
	doc := document{
		Identifier: id,
		Title:      title,
		Body:       body,
		Modified:   b.now().UTC(),
	}

	entries := []Entry{
		{Path: MimetypePath, Data: []byte(MediaType), Store: true},
		{Path: ContainerPath, Data: []byte(containerXML)},
		{Path: StylePath, Data: []byte(defaultStylesheet)},
		{Path: ContentPath, Data: []byte(doc.generateXHTML())},
		{Path: PackagePath, Data: []byte(doc.generatePackage())},
		{Path: NCXPath, Data: []byte(doc.generateNCX())},
	}

	data, err := b.Archiver.Archive(entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrPackagingFailure, err)
	}

	return &Package{Identifier: id, Data: data}, nil
}

func (b *Builder) identifier() string {
	if b.NewID != nil {
		return b.NewID()
	}
	return generateUUID()
}

func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// generateUUID generates a unique identifier for the epub.
func generateUUID() string {
	return "urn:uuid:" + uuid.New().String()
}

// document carries the values shared by the generated files of one package.
type document struct {
	Identifier string
	Title      string
	Body       string
	Modified   time.Time
}

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>
`

const defaultStylesheet = `/* quire stylesheet */

body {
  font-family: Georgia, "Times New Roman", serif;
  font-size: 1em;
  line-height: 1.6;
  margin: 1em;
  text-align: justify;
}

h1, h2, h3, h4, h5, h6 {
  font-family: "Helvetica Neue", Helvetica, Arial, sans-serif;
  font-weight: bold;
  margin-top: 1.5em;
  margin-bottom: 0.5em;
  text-align: left;
}

h1 {
  font-size: 1.8em;
}

p {
  margin: 0.5em 0;
  text-indent: 1.5em;
}

h1 + p, h2 + p, h3 + p {
  text-indent: 0;
}

table {
  border-collapse: collapse;
}

td, th {
  border: 1px solid #ccc;
  padding: 0.2em 0.4em;
}

.page {
  margin-bottom: 1em;
}

hr.page-break {
  border: none;
  page-break-after: always;
}
`
