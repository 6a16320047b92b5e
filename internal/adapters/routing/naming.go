package routing

import (
	"fmt"
	"strings"
)

// normalize ensures consistent cache keys and query strings by collapsing whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Route ids are positional within one provider response.
func routeID(i int) string {
	return fmt.Sprintf("route-%d", i+1)
}

func routeLabel(i int, summary string) string {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return fmt.Sprintf("Route %d", i+1)
	}
	return "via " + summary
}
