package zipbackend

import "unicode/utf8"

// EncodingDetector guesses a text encoding from a sample of raw filename
// bytes. It returns "" to signal detection failure. Mount rejects the
// archive when no encoding can be determined.
type EncodingDetector func(sample []byte) string

// Recoder converts raw bytes in the given encoding to UTF-8. It must be
// pure and reports ok=false when the conversion cannot be performed, which
// causes Mount to reject the archive rather than guess.
type Recoder func(raw []byte, encoding string) (utf8Text string, ok bool)

// DetectEncoding is the default EncodingDetector. Real text-encoding
// sniffing is treated as a pluggable external concern; this default
// recognizes valid UTF-8 outright and otherwise assumes the ZIP format's
// traditional fallback of IBM code page 437, which is what the vast
// majority of non-UTF-8 archives in the wild use.
func DetectEncoding(sample []byte) string {
	if len(sample) == 0 {
		return ""
	}

	if utf8.Valid(sample) {
		return "utf-8"
	}

	return "cp437"
}

// Recode is the default Recoder, supporting "utf-8" (validated passthrough)
// and "cp437" (via cp437ToUTF8). Any other encoding name fails.
func Recode(raw []byte, encoding string) (string, bool) {
	switch encoding {
	case "utf-8":
		if !utf8.ValidString(string(raw)) {
			return "", false
		}

		return string(raw), true
	case "cp437":
		return cp437ToUTF8(raw), true
	default:
		return "", false
	}
}

// cp437Table maps bytes 0x80-0xFF of IBM code page 437 to their Unicode
// code points; bytes 0x00-0x7F of CP437 are ASCII and pass through as-is.
var cp437Table = [128]rune{
	'Ç', 'ü', 'é', 'â', 'ä', 'à', 'å', 'ç', 'ê', 'ë', 'è', 'ï', 'î', 'ì', 'Ä', 'Å',
	'É', 'æ', 'Æ', 'ô', 'ö', 'ò', 'û', 'ù', 'ÿ', 'Ö', 'Ü', '¢', '£', '¥', '₧', 'ƒ',
	'á', 'í', 'ó', 'ú', 'ñ', 'Ñ', 'ª', 'º', '¿', '⌐', '¬', '½', '¼', '¡', '«', '»',
	'░', '▒', '▓', '│', '┤', '╡', '╢', '╖', '╕', '╣', '║', '╗', '╝', '╜', '╛', '┐',
	'└', '┴', '┬', '├', '─', '┼', '╞', '╟', '╚', '╔', '╩', '╦', '╠', '═', '╬', '╧',
	'╨', '╤', '╥', '╙', '╘', '╒', '╓', '╫', '╪', '┘', '┌', '█', '▄', '▌', '▐', '▀',
	'α', 'ß', 'Γ', 'π', 'Σ', 'σ', 'µ', 'τ', 'Φ', 'Θ', 'Ω', 'δ', '∞', 'φ', 'ε', '∩',
	'≡', '±', '≥', '≤', '⌠', '⌡', '÷', '≈', '°', '∙', '·', '√', 'ⁿ', '²', '■', ' ',
}

func cp437ToUTF8(raw []byte) string {
	out := make([]rune, len(raw))
	for i, b := range raw {
		if b < 0x80 {
			out[i] = rune(b)
		} else {
			out[i] = cp437Table[b-0x80]
		}
	}

	return string(out)
}
