// Package extract turns HTML documents into sentences worth sending to the parser.
package extract

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// skipped elements never contribute visible text
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Iframe:   true,
	atom.Template: true,
	atom.Svg:      true,
	atom.Head:     true,
}

// blocks end a line of text, so their contents never merge into one sentence
var blocks = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true, atom.Br: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Tr: true, atom.Td: true, atom.Th: true, atom.Section: true, atom.Article: true,
	atom.Blockquote: true, atom.Pre: true, atom.Title: true, atom.Dt: true, atom.Dd: true,
	atom.Nav: true, atom.Header: true, atom.Footer: true, atom.Main: true, atom.Aside: true,
	atom.Ul: true, atom.Ol: true, atom.Table: true, atom.Body: true,
}

// VisibleText returns the readable text of an HTML document, one block per
// line. When the page has a <main> or <article> element only that subtree is used.
func VisibleText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	root := findFirst(doc, atom.Main)
	if root == nil {
		root = findFirst(doc, atom.Article)
	}
	if root == nil {
		root = doc
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipped[n.DataAtom] {
			return
		}
		block := n.Type == html.ElementNode && blocks[n.DataAtom]
		if block {
			buf.WriteByte('\n')
		}
		if n.Type == html.TextNode {
			if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
				buf.WriteString(text)
				buf.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			buf.WriteByte('\n')
		}
	}
	walk(root)

	var lines []string
	for _, line := range strings.Split(buf.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

// abbreviations whose trailing period does not end a sentence
var abbreviations = map[string]bool{
	"mr.": true, "mrs.": true, "ms.": true, "dr.": true, "st.": true, "jr.": true,
	"e.g.": true, "i.e.": true, "etc.": true, "vs.": true, "approx.": true,
	"jan.": true, "feb.": true, "mar.": true, "apr.": true, "jun.": true, "jul.": true,
	"aug.": true, "sep.": true, "sept.": true, "oct.": true, "nov.": true, "dec.": true,
	"a.m.": true, "p.m.": true, "no.": true,
}

// maxSentence bounds what is sent in one request; longer runs are cut at a word
const maxSentence = 1000

// Sentences splits text on line breaks and on . ! ? followed by whitespace,
// keeping common abbreviations intact. Duplicates are dropped.
func Sentences(text string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		s = strings.TrimSpace(s)
		for len(s) > maxSentence {
			cut := strings.LastIndexFunc(s[:maxSentence], unicode.IsSpace)
			if cut <= 0 {
				cut = maxSentence
			}
			add1(&out, seen, s[:cut])
			s = strings.TrimSpace(s[cut:])
		}
		add1(&out, seen, s)
	}

	for _, line := range strings.Split(text, "\n") {
		words := strings.Fields(line)
		start := 0
		for i, w := range words {
			if endsSentence(w) && !abbreviations[strings.ToLower(w)] {
				add(strings.Join(words[start:i+1], " "))
				start = i + 1
			}
		}
		if start < len(words) {
			add(strings.Join(words[start:], " "))
		}
	}
	return out
}

func add1(out *[]string, seen map[string]bool, s string) {
	if s == "" || seen[s] {
		return
	}
	seen[s] = true
	*out = append(*out, s)
}

func endsSentence(word string) bool {
	word = strings.TrimRight(word, `"')]»”’`)
	if word == "" {
		return false
	}
	switch word[len(word)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}
