// cmd/facttrace/claim.go
package main

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	urlPattern = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+`)

	claimLeadIns = []string{
		"is it true that",
		"is it correct that",
		"is it a fact that",
		"fact check:",
		"fact-check:",
		"fact check",
		"did you know that",
		"true or false:",
		"true or false",
		"claim:",
	}

	determiners = map[string]bool{
		"the": true, "a": true, "an": true, "this": true, "that": true,
		"these": true, "those": true, "my": true, "our": true, "their": true,
		"his": true, "her": true, "its": true, "your": true,
	}
)

// containsURL reports whether s holds something that looks like a link
func containsURL(s string) bool {
	return urlPattern.MatchString(s)
}

// NormalizeClaim turns a user query into a declarative sentence for the model.
// It strips lead-ins like "is it true that" and rewrites simple yes/no questions:
// "Is the sky green?" becomes "The sky is green."
func NormalizeClaim(query string) string {
	claim := collapseWhitespace(query)
	if claim == "" {
		return ""
	}

	for _, lead := range claimLeadIns {
		if len(claim) >= len(lead) && strings.EqualFold(claim[:len(lead)], lead) {
			claim = strings.TrimSpace(claim[len(lead):])
			claim = strings.TrimLeft(claim, ":,- ")
			break
		}
	}

	question := strings.HasSuffix(claim, "?")
	claim = strings.TrimRight(claim, "?!. ")
	if claim == "" {
		return ""
	}

	if question {
		claim = rewriteQuestion(claim)
	}

	return capitalize(claim) + "."
}

// rewriteQuestion moves a leading be-verb after its subject and drops do-support
func rewriteQuestion(q string) string {
	words := strings.Fields(q)
	if len(words) < 2 {
		return q
	}

	verb := strings.ToLower(words[0])
	switch verb {
	case "is", "are", "was", "were":
		subjectLen := 1
		if determiners[strings.ToLower(words[1])] && len(words) > 3 {
			subjectLen = 2
		}
		if 1+subjectLen >= len(words) {
			return q
		}
		out := make([]string, 0, len(words))
		out = append(out, words[1:1+subjectLen]...)
		out = append(out, verb)
		out = append(out, words[1+subjectLen:]...)
		return strings.Join(out, " ")
	case "do", "does", "did":
		return strings.Join(words[1:], " ")
	}
	return q
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
