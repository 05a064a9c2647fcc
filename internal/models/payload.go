// internal/models/payload.go
package models

import (
	"fmt"
	"strconv"
	"strings"
)

// SubmissionPayload is the decoded JSON body of a form submission.
// Values are strings, booleans, numbers or arrays as sent by the browser.
type SubmissionPayload map[string]interface{}

// String returns the value under key rendered as text. Missing and null
// values yield "".
func (p SubmissionPayload) String(key string) string {
	switch v := p[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []interface{}:
		return strings.Join(p.Strings(key), ", ")
	default:
		return fmt.Sprint(v)
	}
}

// Strings returns a multi-valued field. A lone string becomes a single
// element; empty entries are dropped.
func (p SubmissionPayload) Strings(key string) []string {
	switch v := p[key].(type) {
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			s := fmt.Sprint(item)
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}

// Bool reports whether key holds true or the string "true".
func (p SubmissionPayload) Bool(key string) bool {
	switch v := p[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}
