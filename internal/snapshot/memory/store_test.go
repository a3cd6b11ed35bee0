package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutReturnsURI(t *testing.T) {
	t.Parallel()

	s := New()
	uri, err := s.Put(context.Background(), "snap/1.html", "text/html", []byte("<html/>"))
	require.NoError(t, err)
	assert.Equal(t, "memory://snap/1.html", uri)

	data, ok := s.Bytes("snap/1.html")
	require.True(t, ok)
	assert.Equal(t, "<html/>", string(data))
}
