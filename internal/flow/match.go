package flow

import (
	"regexp"
	"strings"
)

func wordMatcher(terms ...string) func(string) bool {
	quoted := make([]string, len(terms))
	for i, term := range terms {
		quoted[i] = regexp.QuoteMeta(term)
	}
	return regexp.MustCompile(`(^| )(` + strings.Join(quoted, "|") + `)( |$)`).MatchString
}
