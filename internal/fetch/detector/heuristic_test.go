package detector

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/evergreenlabs/leadscope/internal/game"
)

func page(status int, body string) game.Page {
	return game.Page{StatusCode: status, Body: []byte(body)}
}

func TestShouldPromote(t *testing.T) {
	t.Parallel()

	h := NewHeuristic(0)

	fullPage := "<html><body>" + strings.Repeat("<p>rendered content</p>", 300) + "</body></html>"
	require.False(t, h.ShouldPromote(page(http.StatusOK, fullPage)), "rich server-rendered page stays on the relay path")

	require.True(t, h.ShouldPromote(page(http.StatusOK, "")), "empty body always promotes")

	shell := `<html><body><div id="root"></div><script src="/app.js"></script></body></html>`
	require.True(t, h.ShouldPromote(page(http.StatusOK, shell)), "SPA shell promotes")

	scripty := `<html><body><script>` + strings.Repeat("var x=1;", 100) + `</script><p>hi</p></body></html>`
	require.True(t, h.ShouldPromote(page(http.StatusOK, scripty)), "thin script-heavy body promotes")

	require.False(t, h.ShouldPromote(page(http.StatusNotFound, "")), "non-200 never promotes")
}
