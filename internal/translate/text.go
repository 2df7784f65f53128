package translate

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxChunkLength bounds the characters sent in one provider call.
const MaxChunkLength = 450

// Chunks packs whole lines of text into chunks of at most max characters.
// A line longer than max is split between words.
func Chunks(text string, max int) []string {
	if max <= 0 {
		max = MaxChunkLength
	}
	var chunks []string
	current := ""
	flush := func() {
		if current != "" {
			chunks = append(chunks, current)
			current = ""
		}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) > max {
			flush()
			chunks = append(chunks, splitWords(line, max)...)
			continue
		}
		if current == "" {
			current = line
			continue
		}
		if utf8.RuneCountInString(current)+1+utf8.RuneCountInString(line) <= max {
			current += "\n" + line
		} else {
			flush()
			current = line
		}
	}
	flush()
	return chunks
}

func splitWords(line string, max int) []string {
	var chunks []string
	current := ""
	for _, word := range strings.Fields(line) {
		if current == "" {
			current = word
			continue
		}
		if utf8.RuneCountInString(current)+1+utf8.RuneCountInString(word) <= max {
			current += " " + word
		} else {
			chunks = append(chunks, current)
			current = word
		}
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// LooksRussian reports whether at least 20% of the Latin and Cyrillic letters are Cyrillic.
func LooksRussian(text string) bool {
	var letters, cyrillic int
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Cyrillic, r):
			letters++
			cyrillic++
		case unicode.Is(unicode.Latin, r) && unicode.IsLetter(r):
			letters++
		}
	}
	if letters == 0 {
		return false
	}
	return float64(cyrillic)/float64(letters) >= 0.2
}

// InTargetLanguage reports whether text needs no translation into target.
// Only Russian can be detected; other targets always translate.
func InTargetLanguage(text, target string) bool {
	if target == "ru" {
		return LooksRussian(text)
	}
	return false
}

// GuessSourceLanguage returns a source language code from the script of text.
func GuessSourceLanguage(text string) string {
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Hebrew, r):
			return "he"
		case unicode.Is(unicode.Arabic, r):
			return "ar"
		}
	}
	for _, r := range text {
		if unicode.Is(unicode.Cyrillic, r) {
			return "ru"
		}
	}
	return "en"
}

// LanguageName returns the English name of a language code for prompts.
func LanguageName(code string) string {
	switch code {
	case "ru":
		return "Russian"
	case "en":
		return "English"
	case "he":
		return "Hebrew"
	case "de":
		return "German"
	case "uk":
		return "Ukrainian"
	default:
		return code
	}
}
