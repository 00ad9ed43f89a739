package approval

import (
	"regexp"
	"strconv"
	"strings"
)

var counterSuffix = regexp.MustCompile(`^(.*\S)\s*\((\d+)\)$`)

// BumpTitle appends " (1)" to a title or increments an existing trailing counter.
func BumpTitle(title string) string {
	title = strings.TrimSpace(title)
	if m := counterSuffix.FindStringSubmatch(title); m != nil {
		n, err := strconv.Atoi(m[2])
		if err == nil {
			return m[1] + " (" + strconv.Itoa(n+1) + ")"
		}
	}
	return title + " (1)"
}
