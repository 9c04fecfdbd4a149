package epub

import (
	"fmt"
	"strings"
)

// generatePackage creates the content.opf package document.
func (d document) generatePackage() string {
	var sb strings.Builder

	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="BookId">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
`)

	sb.WriteString(fmt.Sprintf("    <dc:identifier id=\"BookId\" opf:scheme=\"UUID\">%s</dc:identifier>\n", d.Identifier))
	sb.WriteString(fmt.Sprintf("    <dc:title>%s</dc:title>\n", escapeXML(d.Title)))
	sb.WriteString("    <dc:language>en</dc:language>\n")
	sb.WriteString(fmt.Sprintf("    <dc:date>%s</dc:date>\n", d.Modified.Format("2006-01-02")))
	sb.WriteString("  </metadata>\n\n")

	sb.WriteString("  <manifest>\n")
	sb.WriteString("    <item id=\"style\" href=\"style.css\" media-type=\"text/css\"/>\n")
	sb.WriteString("    <item id=\"content\" href=\"content.xhtml\" media-type=\"application/xhtml+xml\"/>\n")
	sb.WriteString("    <item id=\"ncx\" href=\"toc.ncx\" media-type=\"application/x-dtbncx+xml\"/>\n")
	sb.WriteString("  </manifest>\n\n")

	sb.WriteString("  <spine toc=\"ncx\">\n")
	sb.WriteString("    <itemref idref=\"content\" linear=\"yes\"/>\n")
	sb.WriteString("  </spine>\n")

	sb.WriteString("</package>\n")

	return sb.String()
}

// escapeXML escapes special XML characters.
func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	return s
}
