// cmd/facttrace/extract.go
package main

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ToPlainText drops script and style contents, strips every tag and collapses whitespace.
// It works token by token, so unbalanced or invalid markup is fine.
func ToPlainText(rawHTML string) string {
	if rawHTML == "" {
		return ""
	}

	z := html.NewTokenizer(strings.NewReader(rawHTML))
	var b strings.Builder
	skipDepth := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or a tokenizer error; either way we keep what we have
			text := strings.ReplaceAll(b.String(), "&nbsp;", " ")
			return collapseWhitespace(text)

		case html.StartTagToken:
			name, _ := z.TagName()
			if isHiddenElement(name) {
				skipDepth++
			}
			b.WriteByte(' ')

		case html.EndTagToken:
			name, _ := z.TagName()
			if isHiddenElement(name) && skipDepth > 0 {
				skipDepth--
			}
			b.WriteByte(' ')

		case html.SelfClosingTagToken:
			// <script/> still puts the tokenizer in raw text mode until </script>
			name, _ := z.TagName()
			if isHiddenElement(name) {
				skipDepth++
			}
			b.WriteByte(' ')

		case html.TextToken:
			if skipDepth == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isHiddenElement(name []byte) bool {
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}

// ExtractTitle returns the whitespace-normalized text of the first <title> element,
// or "" when the document has none.
func ExtractTitle(rawHTML string) string {
	if rawHTML == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	return collapseWhitespace(doc.Find("title").First().Text())
}
