package preprocessing

import "strings"

// DetectLanguage performs the lightweight script/lexical-marker detection
// spec §4.7 calls for: count characters by script and fall back to simple
// lexical markers for the Latin-script languages. It returns "" when the
// signal is too weak to decide.
func DetectLanguage(text string) string {
	var cyrillic, cjk, arabic, latin, total int
	for _, r := range text {
		switch {
		case r >= 0x0400 && r <= 0x04FF:
			cyrillic++
		case r >= 0x4E00 && r <= 0x9FFF:
			cjk++
		case r >= 0x0600 && r <= 0x06FF:
			arabic++
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			latin++
		default:
			continue
		}
		total++
	}
	if total == 0 {
		return ""
	}

	switch {
	case float64(cyrillic)/float64(total) > 0.3:
		return "ru"
	case float64(cjk)/float64(total) > 0.3:
		return "zh"
	case float64(arabic)/float64(total) > 0.3:
		return "ar"
	case latin > 0:
		return detectLatinVariant(text)
	}
	return ""
}

var germanMarkers = []string{" der ", " die ", " das ", " und ", " ist ", " nicht ", "ß", "ä", "ö", "ü"}

// detectLatinVariant distinguishes "de" from the "en" default using a small
// set of high-frequency German function words and umlauts, since both
// languages share the Latin script.
func detectLatinVariant(text string) string {
	lower := " " + strings.ToLower(text) + " "
	for _, marker := range germanMarkers {
		if strings.Contains(lower, marker) {
			return "de"
		}
	}
	return "en"
}
