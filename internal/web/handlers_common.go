package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/slate/internal/core"
)

const (
	defaultPlayerLimit = 1000
	maxPlayerLimit     = 10000
	maxJSONBody        = 1 << 20
	multipartMemory    = 32 << 20
)

var (
	errNoFile         = errors.New("no file provided")
	errMultipleFiles  = errors.New("multiple files in one upload")
	errBadRequestBody = errors.New("invalid request body")
	errBadQuery       = errors.New("invalid request parameter")
)

// parseIntParam parses a positive integer query parameter, falling back
// to defaultVal when absent or invalid.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// parseListParam collects a repeated or comma-separated query parameter.
func parseListParam(r *http.Request, name string) []string {
	var out []string
	for _, v := range r.URL.Query()[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// parsePlayerFilter reads sport, status and limit from the query string.
func parsePlayerFilter(r *http.Request) (core.PlayerFilter, error) {
	f := core.PlayerFilter{
		Sport: strings.ToLower(strings.TrimSpace(r.URL.Query().Get("sport"))),
		Limit: min(parseIntParam(r, "limit", defaultPlayerLimit), maxPlayerLimit),
	}
	for _, raw := range parseListParam(r, "status") {
		st := core.PlayerStatus(strings.ToLower(raw))
		if !st.Valid() {
			return f, fmt.Errorf("%w: unknown status %q", errBadQuery, raw)
		}
		f.Status = append(f.Status, st)
	}
	return f, nil
}

// decodeJSON reads a bounded JSON body into v and rejects unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequestBody, err)
	}
	return nil
}

// clientIP is RemoteAddr without the port. TrustedRealIP has already
// replaced it when the request came through a trusted proxy.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
