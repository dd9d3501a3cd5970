// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package feed

import (
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html/charset"
)

// Item is one headline read from a source. Items are ephemeral: the
// pipeline hands them to the classifier and drops them.
type Item struct {
	Title       string
	Description string
	Source      string
}

// Text is the string the classifier sees.
func (it Item) Text() string {
	if it.Description == "" {
		return it.Title
	}
	return it.Title + " " + it.Description
}

// document covers RSS 2.0 (<rss><channel><item>), RSS 1.0 (<rdf:RDF><item>)
// and Atom (<feed><entry>). The root element name is not checked.
type document struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
	Items   []rssItem   `xml:"item"`
	Entries []atomEntry `xml:"entry"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Description string `xml:"description"`
}

type atomEntry struct {
	Title   string `xml:"title"`
	Summary string `xml:"summary"`
	Content string `xml:"content"`
}

// Parse reads up to max items with a non-empty title from an RSS or Atom
// document. HTML markup and entities are stripped from titles and
// descriptions. A max of zero or less means no cap.
func Parse(r io.Reader, label string, max int) ([]Item, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = decodeCharset

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	var items []Item
	add := func(title, desc string) bool {
		title = CleanText(title)
		if title == "" {
			return true
		}
		items = append(items, Item{Title: title, Description: CleanText(desc), Source: label})
		return max <= 0 || len(items) < max
	}

	for _, it := range append(doc.Channel.Items, doc.Items...) {
		if !add(it.Title, it.Description) {
			return items, nil
		}
	}
	for _, e := range doc.Entries {
		desc := e.Summary
		if desc == "" {
			desc = e.Content
		}
		if !add(e.Title, desc) {
			return items, nil
		}
	}
	return items, nil
}

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	cdataPattern = regexp.MustCompile(`<!\[CDATA\[|\]\]>`)
)

// CleanText removes CDATA markers, HTML tags and entities, and collapses
// whitespace.
func CleanText(s string) string {
	s = cdataPattern.ReplaceAllString(s, "")
	s = tagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

var knownHosts = []struct {
	fragment string
	label    string
}{
	{"bbc", "BBC"},
	{"nytimes", "NYT"},
	{"guardian", "Guardian"},
	{"aljazeera", "Al Jazeera"},
	{"cnbc", "CNBC"},
	{"npr", "NPR"},
}

// LabelFor derives a source label from a feed URL's host, returning
// "Other" for hosts it does not recognise.
func LabelFor(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "Other"
	}
	host := strings.ToLower(u.Hostname())
	for _, k := range knownHosts {
		if strings.Contains(host, k.fragment) {
			return k.label
		}
	}
	return "Other"
}

// decodeCharset converts a declared non-UTF-8 encoding to UTF-8. Unknown
// labels pass the bytes through unchanged.
func decodeCharset(label string, input io.Reader) (io.Reader, error) {
	r, err := charset.NewReaderLabel(label, input)
	if err != nil {
		return input, nil
	}
	return r, nil
}
