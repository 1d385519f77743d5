package templates

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorAlertEscapes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ErrorAlert(`bad <file> "x"`, "Try again.", "FILE002").Render(context.Background(), &buf))

	out := buf.String()
	assert.Contains(t, out, "bad &lt;file&gt; &#34;x&#34;")
	assert.Contains(t, out, `<p class="alert-action">Try again.</p>`)
	assert.Contains(t, out, `<span class="alert-code">FILE002</span>`)
}

func TestErrorAlertOmitsEmptyParts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ErrorAlert("oops", "", "").Render(context.Background(), &buf))

	assert.NotContains(t, buf.String(), "alert-action")
	assert.NotContains(t, buf.String(), "alert-code")
}

func TestUploadSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, UploadSummary("DKSalaries.csv", 42, 3).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "DKSalaries.csv: 42 players merged, 3 rows skipped")
}
