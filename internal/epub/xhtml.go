package epub

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// generateXHTML wraps the document body under an <h1> carrying the title.
func (d document) generateXHTML() string {
	var sb strings.Builder

	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.1//EN" "http://www.w3.org/TR/xhtml11/DTD/xhtml11.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <title>`)
	sb.WriteString(escapeXML(d.Title))
	sb.WriteString(`</title>
  <link rel="stylesheet" type="text/css" href="style.css"/>
</head>
<body>
<h1>`)
	sb.WriteString(escapeXML(d.Title))
	sb.WriteString("</h1>\n")
	sb.WriteString(xhtmlBody(d.Body))
	sb.WriteString("\n</body>\n</html>\n")

	return sb.String()
}

// xhtmlBody re-serializes the body content of an HTML document or fragment
// as XML: void elements are self-closed, stray markup characters are
// escaped, comments are dropped and raw-text elements such as <script> keep
// their content inside CDATA sections. Head content of a full document is
// dropped. Input that cannot be parsed is returned unchanged.
func xhtmlBody(body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return body
	}
	bodyNode := findElement(doc, atom.Body)
	if bodyNode == nil {
		return body
	}

	toXML(bodyNode)

	var buf bytes.Buffer
	for c := bodyNode.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return body
		}
	}
	return buf.String()
}

// rawTextElements are rendered by html.Render without escaping their text.
var rawTextElements = map[atom.Atom]bool{
	atom.Iframe:   true,
	atom.Noembed:  true,
	atom.Noframes: true,
	atom.Noscript: true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Xmp:      true,
}

// toXML removes comments under n and wraps raw text in CDATA sections.
// <plaintext> has no end tag when rendered, so it becomes <pre>.
func toXML(n *html.Node) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Plaintext {
		n.Data, n.DataAtom = "pre", atom.Pre
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case c.Type == html.CommentNode:
			n.RemoveChild(c)
		case c.Type == html.TextNode && n.Type == html.ElementNode && n.Namespace == "" && rawTextElements[n.DataAtom]:
			if c.Data != "" {
				c.Data = cdata(c.Data)
			}
		default:
			toXML(c)
		}
		c = next
	}
}

// cdata wraps s in a CDATA section, splitting any "]]>" it contains.
func cdata(s string) string {
	return "<![CDATA[" + strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>") + "]]>"
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}
