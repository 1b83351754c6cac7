package translit

import (
	"strings"
	"testing"
)

func TestToCyrillic(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Sh", "Ш"},
		{"kishlik", "кишлик"},
		{"Ekran", "Экран"},
		{"mening", "менинг"},
		{"Salom dunyo.", "Салом дунё."},
		{"O'zbekiston", "Ўзбекистон"},
		{"oʻzbek", "ўзбек"},
		{"g'alaba", "ғалаба"},
		{"G’ani", "Ғани"},
		{"Yo'l", "Йўл"},
		{"yo'q", "йўқ"},
		{"choy", "чой"},
		{"SHAHAR", "ШАҲАР"},
		{"yer", "ер"},
		{"Yangi yil", "Янги йил"},
		{"ma'no", "маъно"},
		{"Is'hoq", "Исҳоқ"},
		{"tong", "тонг"},
		{"eng yaxshi", "энг яхши"},
		{"123 !?", "123 !?"},
		{"w@c.", "w@c."},
		{"(ekran)", "(экран)"},
	}
	for _, tt := range tests {
		if got := ToCyrillic(tt.in); got != tt.want {
			t.Errorf("ToCyrillic(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToCyrillicConsumesDigraphs(t *testing.T) {
	got := ToCyrillic("kishlik")
	if strings.Contains(got, "сҳ") || strings.Contains(got, "ҳ") {
		t.Errorf("sh should not split into s+h: %q", got)
	}
	if !strings.Contains(got, "ш") {
		t.Errorf("expected ш in %q", got)
	}
}

func TestToLatin(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Ш", "Sh"},
		{"Шаҳар", "Shahar"},
		{"ШАҲАР", "SHAHAR"},
		{"Тошкент", "Toshkent"},
		{"Экран", "Ekran"},
		{"ер", "yer"},
		{"Ер", "Yer"},
		{"менинг", "mening"},
		{"Ўзбекистон", "O'zbekiston"},
		{"ЎЗБЕК", "O'ZBEK"},
		{"ғалаба", "g'alaba"},
		{"Йўл", "Yo'l"},
		{"маъно", "ma'no"},
		{"Салом, дунё!", "Salom, dunyo!"},
		{"цирк", "tsirk"},
		{"2024 йил", "2024 yil"},
	}
	for _, tt := range tests {
		if got := ToLatin(tt.in); got != tt.want {
			t.Errorf("ToLatin(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIdempotentInTargetScript(t *testing.T) {
	latin := []string{"Salom dunyo", "O'zbekiston", "Toshkent shahri", "mening ekranim"}
	for _, s := range latin {
		if got := ToScript(s, Latin); got != s {
			t.Errorf("ToScript(%q, Latin) = %q, want unchanged", s, got)
		}
	}
	cyrillic := []string{"Салом дунё", "Ўзбекистон", "Тошкент шаҳри"}
	for _, s := range cyrillic {
		if got := ToScript(s, Cyrillic); got != s {
			t.Errorf("ToScript(%q, Cyrillic) = %q, want unchanged", s, got)
		}
	}

	// unmapped characters, including ones NFC would rewrite, pass through
	unmapped := []string{"\u212b", "\u2126", "\u00e9", "123 !?"}
	for _, s := range unmapped {
		for _, target := range []Script{Latin, Cyrillic} {
			if got := ToScript(s, target); got != s {
				t.Errorf("ToScript(%+q, %v) = %+q, want unchanged", s, target, got)
			}
		}
	}
}

func TestCombiningMarkOnMappedLetterIsKept(t *testing.T) {
	// e + combining acute has no mapped composition: e converts, the mark stays
	if got := ToCyrillic("e\u0301"); got != "\u044d\u0301" {
		t.Errorf("ToCyrillic(e + acute) = %+q", got)
	}
	if got := ToCyrillic("de\u0301"); got != "\u0434\u0435\u0301" {
		t.Errorf("ToCyrillic(de + acute) = %+q", got)
	}
	// у + combining breve composes to ў
	if got := ToLatin("\u0443\u0306"); got != "o'" {
		t.Errorf("ToLatin(у + breve) = %q, want o'", got)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, s := range []string{"Toshkent", "Ekran", "mening", "yer", "O'zbekiston", "Yo'l", "choy", "g'alaba", "Salom dunyo."} {
		if got := ToLatin(ToCyrillic(s)); got != s {
			t.Errorf("round trip %q -> %q -> %q", s, ToCyrillic(s), got)
		}
	}
}

func TestDecomposedInputIsNormalized(t *testing.T) {
	// и + combining breve
	decomposed := "\u0438\u0306\u0438\u043b"
	if got := ToLatin(decomposed); got != "yil" {
		t.Errorf("ToLatin(decomposed) = %q, want %q", got, "yil")
	}
}

func TestProject(t *testing.T) {
	tests := []struct {
		committed, partial string
		script             Script
		want               string
	}{
		{"", "", Latin, ""},
		{"Salom.", "", Latin, "Salom."},
		{"", "dunyo", Latin, "dunyo"},
		{"Salom.", "dunyo", Latin, "Salom. dunyo"},
		{"Salom.", "dunyo", Cyrillic, "Салом. дунё"},
	}
	for _, tt := range tests {
		if got := Project(tt.committed, tt.partial, tt.script); got != tt.want {
			t.Errorf("Project(%q, %q, %v) = %q, want %q", tt.committed, tt.partial, tt.script, got, tt.want)
		}
	}
}

func TestParseScript(t *testing.T) {
	tests := []struct {
		in      string
		want    Script
		wantErr bool
	}{
		{"lat", Latin, false},
		{"", Latin, false},
		{"CYR", Cyrillic, false},
		{"cyrillic", Cyrillic, false},
		{"greek", Latin, true},
	}
	for _, tt := range tests {
		got, err := ParseScript(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseScript(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseScript(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if Latin.Toggle() != Cyrillic || Cyrillic.Toggle() != Latin {
		t.Error("Toggle should switch scripts")
	}
}
