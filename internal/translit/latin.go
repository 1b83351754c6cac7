package translit

import (
	"strings"
	"unicode"
)

// cyrillicToLatin maps each Cyrillic letter to its Latin spelling in title
// case; fully upper-case spellings are derived from context.
var cyrillicToLatin = map[rune]string{
	'А': "A", 'а': "a", 'Б': "B", 'б': "b", 'В': "V", 'в': "v",
	'Г': "G", 'г': "g", 'Д': "D", 'д': "d", 'Ё': "Yo", 'ё': "yo",
	'Ж': "J", 'ж': "j", 'З': "Z", 'з': "z", 'И': "I", 'и': "i",
	'Й': "Y", 'й': "y", 'К': "K", 'к': "k", 'Л': "L", 'л': "l",
	'М': "M", 'м': "m", 'Н': "N", 'н': "n", 'О': "O", 'о': "o",
	'П': "P", 'п': "p", 'Р': "R", 'р': "r", 'С': "S", 'с': "s",
	'Т': "T", 'т': "t", 'У': "U", 'у': "u", 'Ф': "F", 'ф': "f",
	'Х': "X", 'х': "x", 'Ц': "Ts", 'ц': "ts", 'Ч': "Ch", 'ч': "ch",
	'Ш': "Sh", 'ш': "sh", 'Э': "E", 'э': "e", 'Ю': "Yu", 'ю': "yu",
	'Я': "Ya", 'я': "ya", 'Ў': "O'", 'ў': "o'", 'Қ': "Q", 'қ': "q",
	'Ғ': "G'", 'ғ': "g'", 'Ҳ': "H", 'ҳ': "h", 'ъ': "'", 'Ъ': "'",
}

// ToLatin converts Cyrillic-script text to Latin.
//
// A word-initial Е becomes Ye; any other Е becomes E. Multi-letter spellings
// of an upper-case letter are fully upper-cased when the surrounding word is
// upper case (ШАҲАР becomes SHAHAR, Шаҳар becomes Shahar).
func ToLatin(text string) string {
	if text == "" {
		return ""
	}
	src := normalize(text, mapsCyrillic)
	var b strings.Builder
	b.Grow(len(text))
	for i, c := range src {
		var out string
		switch c {
		case 'Е':
			out = "E"
			if wordStart(src, i) {
				out = "Ye"
			}
		case 'е':
			out = "e"
			if wordStart(src, i) {
				out = "ye"
			}
		default:
			s, ok := cyrillicToLatin[c]
			if !ok {
				b.WriteRune(c)
				continue
			}
			out = s
		}
		if len(out) > 1 && unicode.IsUpper(c) && upperContext(src, i) {
			out = strings.ToUpper(out)
		}
		b.WriteString(out)
	}
	return b.String()
}

func mapsCyrillic(c rune) bool {
	if c == 'Е' || c == 'е' {
		return true
	}
	_, ok := cyrillicToLatin[c]
	return ok
}

// upperContext reports whether the letter at src[i] sits in an upper-case
// word: the next letter is upper case, or there is no next letter and the
// previous one is upper case.
func upperContext(src []rune, i int) bool {
	if i+1 < len(src) && unicode.IsLetter(src[i+1]) {
		return unicode.IsUpper(src[i+1])
	}
	return i > 0 && unicode.IsUpper(src[i-1])
}
