package config

import (
	"os"
	"strings"

	"github.com/ksco/rvld/pkg/utils"
)

// ExpandResponseFiles replaces every `@path` argument with the
// whitespace/quote-tokenized contents of path, recursively (a response
// file may itself `@`-include another). Anything not starting with `@`
// passes through unchanged.
func ExpandResponseFiles(argv []string) []string {
	out := make([]string, 0, len(argv))
	for _, a := range argv {
		path, ok := utils.RemovePrefix(a, "@")
		if !ok {
			out = append(out, a)
			continue
		}

		contents, err := os.ReadFile(path)
		utils.MustNo(err)
		out = append(out, ExpandResponseFiles(tokenize(string(contents)))...)
	}
	return out
}

// tokenize splits a response file's contents on whitespace, honoring
// single and double quoted spans as one token each (spec §6's response
// file grammar).
func tokenize(s string) []string {
	var tokens []string
	var cur strings.Builder
	var quote byte
	has := false

	flush := func() {
		if has {
			tokens = append(tokens, cur.String())
			cur.Reset()
			has = false
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				cur.WriteByte(c)
				has = true
			}
		case c == '\'' || c == '"':
			quote = c
			has = true
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			flush()
		default:
			cur.WriteByte(c)
			has = true
		}
	}
	flush()
	return tokens
}
