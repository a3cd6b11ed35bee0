// Package detector decides when a relayed fetch should be promoted to
// the headless browser.
package detector

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/evergreenlabs/leadscope/internal/game"
)

// Heuristic promotes pages whose server-rendered markup is too thin to
// extract from. Mobile store pages in particular ship an app shell and
// render price and genre client-side.
type Heuristic struct {
	BodyLengthThreshold int
}

// NewHeuristic creates a detector. A zero threshold selects the default.
func NewHeuristic(threshold int) *Heuristic {
	if threshold == 0 {
		threshold = 2048
	}
	return &Heuristic{BodyLengthThreshold: threshold}
}

var spaMarkers = [][]byte{
	[]byte("__next"),
	[]byte(`id="root"`),
	[]byte(`id="app"`),
	[]byte("data-reactroot"),
}

// ShouldPromote reports whether a headless re-fetch is warranted.
func (h *Heuristic) ShouldPromote(page game.Page) bool {
	if page.StatusCode != http.StatusOK {
		return false
	}
	body := page.Body
	if len(body) == 0 {
		return true
	}
	if len(body) < h.BodyLengthThreshold && scriptHeavy(body) {
		return true
	}
	for _, marker := range spaMarkers {
		if bytes.Contains(body, marker) {
			return true
		}
	}
	return false
}

// scriptHeavy reports whether script tags dominate the document.
func scriptHeavy(body []byte) bool {
	lower := strings.ToLower(string(body))
	total := len(lower)
	if total == 0 {
		return false
	}

	const (
		openTag  = "<script"
		closeTag = "</script>"
	)
	coverage := 0
	pos := 0
	for {
		start := strings.Index(lower[pos:], openTag)
		if start == -1 {
			break
		}
		start += pos

		end := strings.Index(lower[start:], closeTag)
		if end == -1 {
			coverage += total - start
			break
		}
		coverage += end + len(closeTag)
		pos = start + end + len(closeTag)
	}

	return coverage*2 > total
}
