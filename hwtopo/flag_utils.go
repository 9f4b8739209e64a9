// Utils for flag package

package hwtopo

import (
	"regexp"
	"strings"
)

var (
	flagUsageIndentRe = regexp.MustCompile(`\n\s+`)
	flagUsageSpacesRe = regexp.MustCompile(`[\t ]{2,}`)
)

// Format multiline usage for help message:
func FormatFlagUsage(usage string) string {
	usage = strings.TrimSpace(usage)
	usage = flagUsageIndentRe.ReplaceAllString(usage, "\n")
	usage = flagUsageSpacesRe.ReplaceAllString(usage, " ")
	return usage
}
