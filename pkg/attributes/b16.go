package attributes

// B16Decode decodes the base16 armor which the monitoring core's configuration uses for
// names and values of tags, labels and label sources, e.g. "48656C6C6F" => "Hello".
// Custom variable names are upper-cased, split at spaces and cut at semicolons by the core,
// so arbitrary strings can't be stored verbatim.
//
// A trailing unpaired character is dropped. Malformed pairs don't fail the whole string:
// each pair is parsed like C's strtol with base 16 and truncated to a byte.
// Leading whitespace and a sign are accepted and parsing stops at the first non-hex character,
// e.g. " 4" => 0x04, "4G" => 0x04, "-1" => 0xFF and "G4" => 0x00.
func B16Decode(hex string) string {
	n := len(hex) &^ 1
	decoded := make([]byte, 0, n/2)

	for i := 0; i < n; i += 2 {
		decoded = append(decoded, decodePair(hex[i], hex[i+1]))
	}

	return string(decoded)
}

func decodePair(hi, lo byte) byte {
	pair := [2]byte{hi, lo}
	i := 0

	if isSpace(pair[i]) {
		i++
		if isSpace(pair[i]) {
			return 0
		}
	}

	negative := false
	if pair[i] == '+' || pair[i] == '-' {
		negative = pair[i] == '-'
		i++
	}

	var v byte
	for ; i < len(pair); i++ {
		d, ok := fromHexChar(pair[i])
		if !ok {
			break
		}

		v = v<<4 | d
	}

	if negative {
		return -v
	}

	return v
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}

	return false
}

func fromHexChar(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}

	return 0, false
}
