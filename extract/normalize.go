package extract

import "strings"

// Scraped fragments frequently arrive with UTF-8 bytes mis-decoded as
// Windows-1252: the three-byte euro sign becomes "â‚¬", the
// pound sign picks up a stray "Â", and curly quotes and dashes turn
// into "â€"-prefixed sequences. Longer sequences are listed first
// so they win at the same position.
var mojibakeReplacer = strings.NewReplacer(
	"â‚¬", "€", // euro
	"â€™", "'", // right single quote
	"â€˜", "'", // left single quote
	"â€œ", "\"", // left double quote
	"â€", "\"", // right double quote
	"â€“", "-", // en dash
	"â€”", "-", // em dash
	"â¬", "€", // truncated euro some pages emit
	"Â£", "£", // pound
	"Â ", " ", // mis-decoded NBSP
	" ", " ", // plain NBSP
)

// NormalizeText repairs mis-decoded currency and punctuation artifacts and
// flattens non-breaking spaces. It is a pure string mapping applied once
// before any pattern matching runs; no stage downstream sees raw text.
func NormalizeText(s string) string {
	return mojibakeReplacer.Replace(s)
}
