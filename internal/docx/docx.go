// Package docx converts Office Open XML word-processing documents to HTML.
//
// Only word/document.xml is read. Paragraph styles map to headings, run
// properties to <strong>/<em>, numbered paragraphs to list items and tables to
// <table>. Content that cannot be represented (images, embedded objects,
// footnotes) is dropped and reported as a warning message.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"strings"
)

// DocumentPath is the archive entry holding the main document part.
const DocumentPath = "word/document.xml"

// MessageWarning is the type of messages about content that was dropped.
const MessageWarning = "warning"

// Message is an advisory produced during conversion.
type Message struct {
	Type string `json:"type" yaml:"type"`
	Text string `json:"text" yaml:"text"`
}

// Result is the converted document.
type Result struct {
	HTML     string
	Title    string // text of the first heading, if any
	Messages []Message
}

// Converter turns DOCX bytes into HTML.
type Converter struct {
	Logger *slog.Logger
}

// New creates a converter logging to the default logger.
func New() *Converter {
	return &Converter{Logger: slog.Default()}
}

// Convert reads data as a DOCX archive and renders its body as HTML.
func (c *Converter) Convert(ctx context.Context, data []byte) (*Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == DocumentPath {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, fmt.Errorf("%s not found in archive", DocumentPath)
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	w := newWalker()
	if err := w.walk(ctx, xml.NewDecoder(rc)); err != nil {
		return nil, fmt.Errorf("parse document.xml: %w", err)
	}

	res := &Result{
		HTML:     w.out.String(),
		Title:    w.title,
		Messages: w.messages,
	}
	c.logger().Debug("docx converted", "bytes", len(res.HTML), "messages", len(res.Messages))
	return res, nil
}

func (c *Converter) logger() *slog.Logger {
	if c == nil || c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// walker is the state of one pass over document.xml.
type walker struct {
	out      strings.Builder
	title    string
	messages []Message

	// skip counts nested elements inside a dropped drawing or object.
	skip int

	inPara   bool
	style    string
	listItem bool
	para     strings.Builder
	plain    strings.Builder

	inRun  bool
	bold   bool
	italic bool
	inText bool
	run    strings.Builder

	listOpen bool
}

func newWalker() *walker {
	return &walker{}
}

func (w *walker) walk(ctx context.Context, dec *xml.Decoder) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			w.start(t)
		case xml.EndElement:
			w.end(t)
		case xml.CharData:
			if w.skip == 0 && w.inText {
				w.run.WriteString(html.EscapeString(string(t)))
				w.plain.Write(t)
			}
		}
	}
	w.closeList()
	return nil
}

func (w *walker) start(t xml.StartElement) {
	if w.skip > 0 {
		w.skip++
		return
	}

	switch t.Name.Local {
	case "drawing", "pict":
		w.warn("image omitted")
		w.skip = 1
	case "object":
		w.warn("embedded object omitted")
		w.skip = 1
	case "footnoteReference":
		w.warn("footnote reference omitted")
	case "endnoteReference":
		w.warn("endnote reference omitted")

	case "tbl":
		w.closeList()
		w.out.WriteString("<table>")
	case "tr":
		w.out.WriteString("<tr>")
	case "tc":
		w.out.WriteString("<td>")

	case "p":
		w.inPara = true
		w.style = ""
		w.listItem = false
		w.para.Reset()
		w.plain.Reset()
	case "pStyle":
		if w.inPara {
			w.style = attr(t, "val")
		}
	case "numPr":
		if w.inPara {
			w.listItem = true
		}

	case "r":
		w.inRun = true
		w.bold, w.italic = false, false
		w.run.Reset()
	case "b":
		if w.inRun {
			w.bold = toggleOn(t)
		}
	case "i":
		if w.inRun {
			w.italic = toggleOn(t)
		}
	case "t":
		w.inText = w.inRun
	case "tab":
		if w.inRun {
			w.run.WriteByte(' ')
			w.plain.WriteByte(' ')
		}
	case "br", "cr":
		if w.inRun {
			w.run.WriteString("<br/>")
		}
	}
}

func (w *walker) end(t xml.EndElement) {
	if w.skip > 0 {
		w.skip--
		return
	}

	switch t.Name.Local {
	case "t":
		w.inText = false
	case "r":
		w.flushRun()
		w.inRun = false
	case "p":
		if w.inPara {
			w.flushParagraph()
			w.inPara = false
		}
	case "tc":
		w.closeList()
		w.out.WriteString("</td>")
	case "tr":
		w.out.WriteString("</tr>")
	case "tbl":
		w.out.WriteString("</table>")
	}
}

func (w *walker) flushRun() {
	text := w.run.String()
	w.run.Reset()
	if text == "" {
		return
	}
	if w.italic {
		text = "<em>" + text + "</em>"
	}
	if w.bold {
		text = "<strong>" + text + "</strong>"
	}
	w.para.WriteString(text)
}

func (w *walker) flushParagraph() {
	body := strings.TrimSpace(w.para.String())
	plain := strings.TrimSpace(w.plain.String())
	if plain == "" && !strings.Contains(body, "<br/>") {
		return
	}

	if w.listItem {
		if !w.listOpen {
			w.out.WriteString("<ul>")
			w.listOpen = true
		}
		w.out.WriteString("<li>" + body + "</li>")
		return
	}
	w.closeList()

	if level := headingLevel(w.style); level > 0 {
		if w.title == "" {
			w.title = plain
		}
		fmt.Fprintf(&w.out, "<h%d>%s</h%d>", level, body, level)
		return
	}
	w.out.WriteString("<p>" + body + "</p>")
}

func (w *walker) closeList() {
	if w.listOpen {
		w.out.WriteString("</ul>")
		w.listOpen = false
	}
}

func (w *walker) warn(text string) {
	w.messages = append(w.messages, Message{Type: MessageWarning, Text: text})
}

func attr(t xml.StartElement, local string) string {
	for _, a := range t.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// toggleOn reports whether an on/off property such as <w:b/> is enabled.
// A missing val means on.
func toggleOn(t xml.StartElement) bool {
	switch strings.ToLower(attr(t, "val")) {
	case "0", "false", "off", "none":
		return false
	}
	return true
}

// headingLevel extracts the heading level from a paragraph style name.
// e.g. "Heading1" -> 1, "Title" -> 1, "Subtitle" -> 2.
func headingLevel(style string) int {
	lower := strings.ToLower(style)

	switch lower {
	case "title":
		return 1
	case "subtitle":
		return 2
	}

	for _, prefix := range []string{"heading", "titre", "überschrift"} {
		if strings.HasPrefix(lower, prefix) {
			rest := strings.TrimSpace(lower[len(prefix):])
			if len(rest) == 1 && rest[0] >= '1' && rest[0] <= '6' {
				return int(rest[0] - '0')
			}
		}
	}
	return 0
}
