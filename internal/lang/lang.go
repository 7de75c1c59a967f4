// Package lang normalises user and federation supplied language codes.
package lang

import (
	"strings"

	"golang.org/x/text/language"
)

// Normalize returns the short (ISO 639-1 where one exists) base language
// for the BCP 47 tag code, eg. "en-GB" becomes "en" and "deu" becomes "de".
// The second return value is false if code is empty or not a valid tag.
func Normalize(code string) (string, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", false
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", false
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return "", false
	}
	return base.String(), true
}

// OrDefault normalises code, returning def if code is not a valid language.
func OrDefault(code, def string) string {
	if l, ok := Normalize(code); ok {
		return l
	}
	return def
}
