package translit

import "strings"

// apostrophes are the marks accepted after o and g, and as the tutuq belgisi.
var apostrophes = []string{"'", "ʻ", "ʼ", "‘", "’", "`"}

var latinToCyrillic = newTable(latinMulti(), map[rune]string{
	'A': "А", 'a': "а", 'B': "Б", 'b': "б", 'D': "Д", 'd': "д",
	'F': "Ф", 'f': "ф", 'G': "Г", 'g': "г", 'H': "Ҳ", 'h': "ҳ",
	'I': "И", 'i': "и", 'J': "Ж", 'j': "ж", 'K': "К", 'k': "к",
	'L': "Л", 'l': "л", 'M': "М", 'm': "м", 'N': "Н", 'n': "н",
	'O': "О", 'o': "о", 'P': "П", 'p': "п", 'Q': "Қ", 'q': "қ",
	'R': "Р", 'r': "р", 'S': "С", 's': "с", 'T': "Т", 't': "т",
	'U': "У", 'u': "у", 'V': "В", 'v': "в", 'X': "Х", 'x': "х",
	'Y': "Й", 'y': "й", 'Z': "З", 'z': "з",
	'\'': "ъ", 'ʼ': "ъ",
})

func latinMulti() map[string]string {
	m := map[string]string{
		"Sh": "Ш", "sh": "ш", "SH": "Ш",
		"Ch": "Ч", "ch": "ч", "CH": "Ч",
		"Ng": "Нг", "ng": "нг", "NG": "НГ",
		"Ya": "Я", "ya": "я", "YA": "Я",
		"Yo": "Ё", "yo": "ё", "YO": "Ё",
		"Yu": "Ю", "yu": "ю", "YU": "Ю",
		"Ye": "Е", "ye": "е", "YE": "Е",
	}
	for _, a := range apostrophes {
		m["O"+a] = "Ў"
		m["o"+a] = "ў"
		m["G"+a] = "Ғ"
		m["g"+a] = "ғ"
		m["Yo"+a] = "Йў"
		m["yo"+a] = "йў"
		m["YO"+a] = "ЙЎ"
		// n followed by g' is not the ng digraph
		m["ng"+a] = "нғ"
		m["NG"+a] = "НҒ"
		// s'h separates s from h
		m["s"+a+"h"] = "сҳ"
		m["S"+a+"h"] = "Сҳ"
		m["S"+a+"H"] = "СҲ"
	}
	return m
}

// ToCyrillic converts Latin-script text to Cyrillic.
//
// A word-initial e becomes э; any other e becomes е. This is a simplified
// heuristic and does not cover every orthographic rule.
func ToCyrillic(text string) string {
	if text == "" {
		return ""
	}
	src := normalize(text, latinToCyrillic.maps)
	var b strings.Builder
	b.Grow(len(text) * 2)
	for i := 0; i < len(src); {
		if r, ok := latinToCyrillic.match(src, i); ok {
			b.WriteString(r.to)
			i += len(r.from)
			continue
		}
		c := src[i]
		switch c {
		case 'E':
			if wordStart(src, i) {
				b.WriteString("Э")
			} else {
				b.WriteString("Е")
			}
		case 'e':
			if wordStart(src, i) {
				b.WriteString("э")
			} else {
				b.WriteString("е")
			}
		default:
			if s, ok := latinToCyrillic.single[c]; ok {
				b.WriteString(s)
			} else {
				b.WriteRune(c)
			}
		}
		i++
	}
	return b.String()
}
