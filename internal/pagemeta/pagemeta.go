// Package pagemeta derives a summary from a DOM snapshot: the document title
// and counts of the interactive elements a link checker cares about.
package pagemeta

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Meta is the summary of one page snapshot.
type Meta struct {
	Title  string
	Links  int
	Images int
	Forms  int
	Inputs int
}

// Parse walks the HTML document and tallies element counts. It never fails on
// malformed markup; the tokenizer recovers the way browsers do.
func Parse(source string) (*Meta, error) {
	doc, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page source: %w", err)
	}

	m := &Meta{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a":
				m.Links++
			case "img":
				m.Images++
			case "form":
				m.Forms++
			case "input", "textarea", "select":
				m.Inputs++
			case "title":
				if m.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					m.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return m, nil
}
