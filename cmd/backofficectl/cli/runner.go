// Package cli implements the backofficectl commands on top of the typed API client.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/odyssey-erp/lending-backoffice/internal/client"
)

// Runner executes commands against one API client.
type Runner struct {
	Client *client.Client
	Stdout io.Writer
	Stderr io.Writer
}

func (r *Runner) stdout() io.Writer {
	if r.Stdout == nil {
		return os.Stdout
	}
	return r.Stdout
}

func (r *Runner) stderr() io.Writer {
	if r.Stderr == nil {
		return os.Stderr
	}
	return r.Stderr
}

// fail prints err for cmd and returns the exit code for it.
func (r *Runner) fail(cmd string, err error) int {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		_, _ = fmt.Fprintf(r.stderr(), "%s: %s\n", cmd, apiErr.Message)
		keys := make([]string, 0, len(apiErr.Fields))
		for k := range apiErr.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			_, _ = fmt.Fprintf(r.stderr(), "  %s: %s\n", k, apiErr.Fields[k])
		}
		if client.IsConflict(err) {
			return 3
		}
		if client.IsUnauthorized(err) {
			_, _ = fmt.Fprintln(r.stderr(), "session expired, run `backofficectl login` again")
		}
		return 1
	}
	_, _ = fmt.Fprintf(r.stderr(), "%s: %v\n", cmd, err)
	return 1
}

func (r *Runner) usage(cmd, msg string) int {
	_, _ = fmt.Fprintf(r.stderr(), "%s: %s\n", cmd, msg)
	return 2
}

func (r *Runner) writeJSON(cmd string, v any) int {
	enc := json.NewEncoder(r.stdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		_, _ = fmt.Fprintf(r.stderr(), "%s: encode json: %v\n", cmd, err)
		return 1
	}
	return 0
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
