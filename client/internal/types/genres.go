package types

import (
	"strings"

	json "github.com/goccy/go-json"
)

// Genres accepts both a JSON list and the comma separated string some
// endpoints emit.
type Genres []string

func (g *Genres) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*g = nil
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*g = list
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*g = out
	return nil
}
