package htmlutil

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	// script and style contents are never visible text
	if node.Type == html.ElementNode && (node.Data == "script" || node.Data == "style") {
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsSpace(c) {
			newStr.WriteRune(' ')
			continue
		}
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

var percentEscape = regexp.MustCompile(`%[0-9A-Fa-f]{2}`)

// CleanText collapses whitespace (including &nbsp;), drops non-printable
// characters and decodes percent-encoded text some pages render into cells.
func CleanText(s string) string {
	if percentEscape.MatchString(s) {
		decoded, err := url.PathUnescape(s)
		if err == nil {
			s = decoded
		}
	}
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = removeNonPrintable(s)
	s = innerWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NodeText is the cleaned visible text of the node.
func NodeText(node *html.Node) string {
	return CleanText(GetText(node))
}

// SelectionText is the cleaned visible text of every node in the selection.
func SelectionText(sel *goquery.Selection) string {
	var buffer bytes.Buffer
	for _, n := range sel.Nodes {
		getTextRecursive(n, &buffer)
		buffer.WriteByte(' ')
	}
	return CleanText(buffer.String())
}

// ParseDocument never fails on malformed markup, x/net/html recovers from
// anything that is not an I/O error.
func ParseDocument(markup []byte) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(markup))
}

// MarkupText is the cleaned visible text of a whole document.
func MarkupText(markup []byte) string {
	doc, err := ParseDocument(markup)
	if err != nil {
		return CleanText(string(markup))
	}
	return SelectionText(doc.Selection)
}
