package postings

import (
	"fmt"
	"strings"

	"github.com/eia/publicaciones/pkg/domain"
)

// Describe renders p as one line of plain text: owner, positions, zone and
// description.
func Describe(p domain.Posting) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s · %d puestos · %s", p.Owner.DisplayName(), p.TotalPositions, p.Zone)
	if p.Description != "" {
		b.WriteString(" · ")
		b.WriteString(p.Description)
	}
	return b.String()
}

// Lines is the plain text projection of the list, one line per posting, or
// the empty-list message.
func Lines(s State) []string {
	if len(s.Postings) == 0 {
		return []string{MsgEmptyList}
	}
	out := make([]string, len(s.Postings))
	for i, p := range s.Postings {
		out[i] = Describe(p)
	}
	return out
}
