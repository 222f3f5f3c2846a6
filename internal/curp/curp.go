// Package curp validates Clave Única de Registro de Población codes, derives
// birth date and sex from them, and finds them inside noisy OCR text.
package curp

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Length is the number of characters in a CURP.
const Length = 18

// The consonant block is relaxed to any letter because OCR substitutions are
// common there.
var pattern = regexp.MustCompile(`^[A-Z][AEIOUX][A-Z]{2}` + // name initials
	`\d{2}(0[1-9]|1[0-2])(0[1-9]|[12]\d|3[01])` + // YYMMDD
	`[HM]` + // sex
	`[A-Z]{2}` + // state
	`[A-Z]{3}` + // internal consonants
	`[A-Z0-9]{2}$`) // homoclave + check digit

var (
	tokenSplit = regexp.MustCompile(`[\s,;:]+`)
	nonAlnum   = regexp.MustCompile(`[^A-Z0-9]`)
	run18      = regexp.MustCompile(`[A-Z0-9]{18}`)
)

// IsValid reports whether s, trimmed and uppercased, has the CURP format.
func IsValid(s string) bool {
	return pattern.MatchString(strings.ToUpper(strings.TrimSpace(s)))
}

// BirthDate returns the birth date encoded at positions 4-9 as YYYY-MM-DD.
// Years 00-30 map to the 2000s, 31-99 to the 1900s. It returns "" when the
// string is too short or the date does not exist.
func BirthDate(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 10 {
		return ""
	}
	yy, err1 := strconv.Atoi(s[4:6])
	mm, err2 := strconv.Atoi(s[6:8])
	dd, err3 := strconv.Atoi(s[8:10])
	if err1 != nil || err2 != nil || err3 != nil || yy < 0 || mm < 1 || dd < 1 {
		return ""
	}

	year := 1900 + yy
	if yy <= 30 {
		year = 2000 + yy
	}

	d := time.Date(year, time.Month(mm), dd, 0, 0, 0, 0, time.UTC)
	// time.Date normalises overflow, so 31 February comes back as March.
	if d.Year() != year || int(d.Month()) != mm || d.Day() != dd {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, mm, dd)
}

// Sex returns "M" for a CURP with H (hombre) at position 10, "F" for M
// (mujer), and "" otherwise.
func Sex(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 11 {
		return ""
	}
	switch s[10] {
	case 'H':
		return "M"
	case 'M':
		return "F"
	default:
		return ""
	}
}

// Strategy is one way of locating a CURP in text that has already been
// uppercased and trimmed.
type Strategy struct {
	Name string
	Find func(text string) (string, bool)
}

// Strategies are tried in order by Find.
var Strategies = []Strategy{
	{Name: "token", Find: findToken},
	{Name: "run", Find: findRun},
	{Name: "window", Find: findWindow},
}

// Find returns the first valid CURP located in text, or "" if none.
func Find(text string) string {
	found, _ := FindWith(Strategies, text)
	return found
}

// FindWith runs the given strategies in order and also reports which one
// matched.
func FindWith(strategies []Strategy, text string) (value, strategy string) {
	text = strings.ToUpper(strings.TrimSpace(text))
	for _, s := range strategies {
		if v, ok := s.Find(text); ok {
			return v, s.Name
		}
	}
	return "", ""
}

// findToken checks whitespace and punctuation separated words.
func findToken(text string) (string, bool) {
	for _, word := range tokenSplit.Split(text, -1) {
		clean := nonAlnum.ReplaceAllString(word, "")
		if len(clean) == Length && IsValid(clean) {
			return clean, true
		}
	}
	return "", false
}

// findRun checks every 18 character alphanumeric run.
func findRun(text string) (string, bool) {
	for _, tok := range run18.FindAllString(text, -1) {
		if IsValid(tok) {
			return tok, true
		}
	}
	return "", false
}

// findWindow slides over the text with separators removed, which recovers a
// CURP that OCR split with spaces.
func findWindow(text string) (string, bool) {
	merged := nonAlnum.ReplaceAllString(text, "")
	for i := 0; i+Length <= len(merged); i++ {
		if c := merged[i : i+Length]; IsValid(c) {
			return c, true
		}
	}
	return "", false
}
