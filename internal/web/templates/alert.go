// Package templates renders the HTML fragments returned to HTMX callers.
package templates

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

// ErrorAlert renders a dismissible error banner. Action and code are
// optional.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<div class="alert alert-error" role="alert"><p class="alert-message">`+templ.EscapeString(message)+`</p>`); err != nil {
			return err
		}
		if action != "" {
			if _, err := io.WriteString(w, `<p class="alert-action">`+templ.EscapeString(action)+`</p>`); err != nil {
				return err
			}
		}
		if code != "" {
			if _, err := io.WriteString(w, `<span class="alert-code">`+templ.EscapeString(code)+`</span>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

// UploadSummary renders the result line shown after an upload completes.
func UploadSummary(filename string, merged int64, dropped int) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<div class="alert alert-success" role="status">`+
			templ.EscapeString(filename)+`: `+
			strconv.FormatInt(merged, 10)+` players merged, `+
			strconv.Itoa(dropped)+` rows skipped</div>`)
		return err
	})
}
