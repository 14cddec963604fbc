package lsp

import (
	"os"
	"unicode"
	"unicode/utf8"
)

func applyChanges(text string, changes []textDocumentContentChangeEvent) string {
	for _, change := range changes {
		if change.Range == nil {
			text = change.Text
			continue
		}
		start := offsetForPosition(text, change.Range.Start)
		end := max(offsetForPosition(text, change.Range.End), start)
		text = text[:start] + change.Text + text[end:]
	}
	return text
}

// offsetForPosition converts an LSP position (UTF-16 columns) to a byte offset in text,
// clamped to the line and to the text.
func offsetForPosition(text string, pos position) int {
	if pos.Line < 0 || pos.Character < 0 {
		return 0
	}
	line := 0
	i := 0
	for i < len(text) && line < pos.Line {
		if text[i] == '\n' {
			line++
		}
		i++
	}
	if line < pos.Line {
		return len(text)
	}
	units := 0
	for i < len(text) && text[i] != '\n' && units < pos.Character {
		r, size := utf8.DecodeRuneInString(text[i:])
		need := 1
		if r > 0xFFFF {
			need = 2
		}
		if units+need > pos.Character {
			break
		}
		units += need
		i += size
	}
	return i
}

// positionForOffset is the inverse of offsetForPosition.
func positionForOffset(text string, offset int) position {
	offset = min(max(offset, 0), len(text))
	pos := position{}
	for _, r := range text[:offset] {
		if r == '\n' {
			pos.Line++
			pos.Character = 0
			continue
		}
		if r > 0xFFFF {
			pos.Character += 2
		} else {
			pos.Character++
		}
	}
	return pos
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

// wordAt returns the identifier touching pos and its range. The cursor may sit
// just after the last rune of the word.
func wordAt(text string, pos position) (string, lspRange, bool) {
	offset := offsetForPosition(text, pos)
	start := offset
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:start])
		if !isWordRune(r) {
			break
		}
		start -= size
	}
	end := offset
	for end < len(text) {
		r, size := utf8.DecodeRuneInString(text[end:])
		if !isWordRune(r) {
			break
		}
		end += size
	}
	if start == end {
		return "", lspRange{}, false
	}
	return text[start:end], lspRange{Start: positionForOffset(text, start), End: positionForOffset(text, end)}, true
}

func readFileText(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(data), true
}
