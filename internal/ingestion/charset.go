package ingestion

import (
	"strings"
	"unicode/utf8"

	"github.com/gogs/chardet"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

// minCharsetConfidence is the chardet confidence below which detection is ignored.
const minCharsetConfidence = 30

// EnsureUTF8 returns data as valid UTF-8. Non-UTF-8 input is transcoded
// using the detected charset, then Windows-1252, then replacement characters.
func EnsureUTF8(data []byte) string {
	data = trimBOM(data)
	if utf8.Valid(data) {
		return string(data)
	}

	if res, err := chardet.NewTextDetector().DetectBest(data); err == nil && res.Confidence >= minCharsetConfidence {
		if enc, err := htmlindex.Get(res.Charset); err == nil {
			if out, err := enc.NewDecoder().Bytes(data); err == nil && utf8.Valid(out) {
				return string(out)
			}
		}
	}

	if out, err := charmap.Windows1252.NewDecoder().Bytes(data); err == nil && utf8.Valid(out) {
		return string(out)
	}
	return strings.ToValidUTF8(string(data), "\uFFFD")
}

func trimBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}
