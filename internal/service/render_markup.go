package service

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-rod/rod/lib/proto"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	classPageBreak  = "page-break"
	classNoBreak    = "no-break"
	classAllowBreak = "allow-break"
)

// pageStyles fixes the page size and margins and defines the break-control classes.
// The first page carries no top margin.
const pageStyles = `@page { size: A4; margin: 20mm 15mm 22mm 15mm; }
@page :first { margin-top: 0; }
html, body { margin: 0; padding: 0; -webkit-print-color-adjust: exact; print-color-adjust: exact; }
.page-break { break-after: page; page-break-after: always; }
.no-break { break-inside: avoid; page-break-inside: avoid; }
img { max-width: 100%; }`

// footerTemplate is printed on every page.
const footerTemplate = `<div style="width:100%;font-size:8px;color:#666;text-align:center;">` +
	`<span class="pageNumber"></span> / <span class="totalPages"></span></div>`

// allowedResourceTypes are the only sub-resources a render session may fetch.
var allowedResourceTypes = map[proto.NetworkResourceType]bool{
	proto.NetworkResourceTypeImage:      true,
	proto.NetworkResourceTypeStylesheet: true,
	proto.NetworkResourceTypeFont:       true,
}

// isResourceAllowed reports whether a request of the given type passes the gate.
// The document itself is set in place and never fetched.
func isResourceAllowed(t proto.NetworkResourceType) bool {
	return allowedResourceTypes[t]
}

// PrepareMarkup wraps content into a printable HTML document: pagination
// styles are injected into the head and every table or figure that does not
// opt out with allow-break is marked no-break.
func PrepareMarkup(content string) (string, error) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("parse markup: %w", err)
	}

	var head *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Head:
				if head == nil {
					head = n
				}
			case atom.Table, atom.Figure:
				markNoBreak(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	// html.Parse always synthesizes <head>.
	if head != nil {
		style := &html.Node{Type: html.ElementNode, Data: "style", DataAtom: atom.Style}
		style.AppendChild(&html.Node{Type: html.TextNode, Data: pageStyles})
		if head.FirstChild != nil {
			head.InsertBefore(style, head.FirstChild)
		} else {
			head.AppendChild(style)
		}
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", fmt.Errorf("render markup: %w", err)
	}
	return buf.String(), nil
}

func markNoBreak(n *html.Node) {
	for i, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		classes := strings.Fields(a.Val)
		for _, c := range classes {
			if c == classAllowBreak || c == classNoBreak {
				return
			}
		}
		n.Attr[i].Val = strings.TrimSpace(a.Val + " " + classNoBreak)
		return
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: classNoBreak})
}
