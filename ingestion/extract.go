// Copyright 2025 Atomforge Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingestion

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document is the extraction stage output: the cleaned body text plus
// whatever title the markup carried.
type Document struct {
	Title string
	Text  string
}

// noiseSelector matches elements that never carry document content.
const noiseSelector = "nav, footer, header, script, style, noscript, iframe, form, .ad, .advertisement, .ads, .sidebar, .cookie-banner, .popup"

// contentSelectors are tried in order; the first match wins. Body is the
// fallback when none match.
var contentSelectors = []string{
	"main",
	"article",
	".content",
	"#content",
	".main-content",
	"#main-content",
}

// Extract turns raw acquired content into a Document. HTML is parsed and
// stripped of boilerplate; anything else passes through as plain text.
func Extract(raw string) (Document, error) {
	if !looksLikeHTML(raw) {
		text := cleanWhitespace(raw)
		if text == "" {
			return Document{}, ErrEmptyDocument
		}
		return Document{Text: text}, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return Document{}, fmt.Errorf("parse html: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find(noiseSelector).Remove()

	var main *goquery.Selection
	for _, selector := range contentSelectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			main = sel.First()
			break
		}
	}
	if main == nil {
		main = doc.Find("body")
	}

	text := cleanWhitespace(main.Text())
	if text == "" {
		return Document{}, ErrEmptyDocument
	}
	return Document{Title: title, Text: text}, nil
}

// looksLikeHTML checks the leading bytes for markup markers. Raw text and
// gap-derived topic prompts fall through to the plain path.
func looksLikeHTML(raw string) bool {
	sample := raw
	if len(sample) > 1024 {
		sample = sample[:1024]
	}
	sample = strings.ToLower(sample)
	return strings.Contains(sample, "<!doctype html") ||
		strings.Contains(sample, "<html") ||
		strings.Contains(sample, "<body")
}

// cleanWhitespace trims each line and collapses the blank runs left behind
// by removed markup, keeping single blank lines as paragraph breaks.
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	blank := true
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank {
				cleaned = append(cleaned, "")
			}
			blank = true
			continue
		}
		cleaned = append(cleaned, line)
		blank = false
	}
	for len(cleaned) > 0 && cleaned[len(cleaned)-1] == "" {
		cleaned = cleaned[:len(cleaned)-1]
	}
	return strings.Join(cleaned, "\n")
}
