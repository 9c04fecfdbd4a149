package epub

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

// ManifestEntry describes one file of an archive.
type ManifestEntry struct {
	Name   string `json:"name" yaml:"name"`
	Stored bool   `json:"stored" yaml:"stored"`
	Size   uint64 `json:"size" yaml:"size"`
}

// Manifest is the read-back structure of an EPUB.
type Manifest struct {
	Entries    []ManifestEntry `json:"entries" yaml:"entries"`
	Identifier string          `json:"identifier" yaml:"identifier"`
	Title      string          `json:"title" yaml:"title"`
	Language   string          `json:"language" yaml:"language"`
	NCXUID     string          `json:"ncx_uid" yaml:"ncx_uid"`
	Spine      []string        `json:"spine" yaml:"spine"`
}

type opfPackage struct {
	Metadata struct {
		Identifier string `xml:"identifier"`
		Title      string `xml:"title"`
		Language   string `xml:"language"`
	} `xml:"metadata"`
	Spine struct {
		Items []struct {
			IDRef string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

type ncxDocument struct {
	Head struct {
		Meta []struct {
			Name    string `xml:"name,attr"`
			Content string `xml:"content,attr"`
		} `xml:"meta"`
	} `xml:"head"`
}

// Inspect reads an EPUB archive back into a Manifest.
func Inspect(data []byte) (*Manifest, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	m := &Manifest{}
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		m.Entries = append(m.Entries, ManifestEntry{
			Name:   f.Name,
			Stored: f.Method == zip.Store,
			Size:   f.UncompressedSize64,
		})
		files[f.Name] = f
	}

	if f, ok := files[PackagePath]; ok {
		var opf opfPackage
		if err := decodeXML(f, &opf); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", PackagePath, err)
		}
		m.Identifier = opf.Metadata.Identifier
		m.Title = opf.Metadata.Title
		m.Language = opf.Metadata.Language
		for _, item := range opf.Spine.Items {
			m.Spine = append(m.Spine, item.IDRef)
		}
	}

	if f, ok := files[NCXPath]; ok {
		var ncx ncxDocument
		if err := decodeXML(f, &ncx); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", NCXPath, err)
		}
		for _, meta := range ncx.Head.Meta {
			if meta.Name == "dtb:uid" {
				m.NCXUID = meta.Content
			}
		}
	}

	return m, nil
}

// ReadEntry returns the contents of the named archive entry.
func ReadEntry(data []byte, name string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("entry %s not found", name)
}

func decodeXML(f *zip.File, v any) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return xml.NewDecoder(rc).Decode(v)
}
