package report

import "strings"

var filenameReplacer = strings.NewReplacer(
	".", "_",
	":", "_",
	"/", "_",
	"\\", "_",
	" ", "_",
	"*", "_",
	"?", "_",
	"\"", "",
	"<", "",
	">", "",
	"|", "_",
)

// sanitizeFilename turns a PRTG group name into something usable in a path
func sanitizeFilename(s string) string {
	return filenameReplacer.Replace(strings.TrimSpace(s))
}
