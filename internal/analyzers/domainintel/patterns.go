// internal/analyzers/domainintel/patterns.go
package domainintel

import "regexp"

var (
	titleRe     = regexp.MustCompile(`(?is)<title>(.*?)</title>`)
	pageEmailRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	pagePhoneRe = regexp.MustCompile(`\+?\d{1,3}[-.\s]?\d{1,4}[-.\s]?\d{3,4}[-.\s]?\d{3,4}`)
)
