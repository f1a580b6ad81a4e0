package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"bestdeal/server/internal/models"
)

var (
	// thousandsRegexp matches US/UK style prices: 24,999 or 1,234.56
	thousandsRegexp = regexp.MustCompile(`[0-9]{1,3}(?:,[0-9]{3})+(?:\.[0-9]+)?`)
	// europeanRegexp matches European style prices: 1.234,56 or 1.234
	europeanRegexp = regexp.MustCompile(`[0-9]{1,3}(?:\.[0-9]{3})+(?:,[0-9]+)?`)
	// decimalCommaRegexp matches a bare comma decimal: 24,99
	decimalCommaRegexp = regexp.MustCompile(`[0-9]+,[0-9]{1,2}\b`)
	// plainRegexp matches plain decimals: 24500 or 249.99
	plainRegexp = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?`)

	// unitRegexp matches quantity tokens (capacities, volumes) that look like
	// model numbers but identify a variant, not a SKU: 128gb, 500ml, 5000mah.
	unitRegexp = regexp.MustCompile(`^[0-9]+(?:gb|tb|mb|ml|l|g|kg|mm|cm|w|v|hz|mah|mp|inch|in)$`)
)

// arabicDigits maps Arabic-Indic digits to their ASCII equivalents.
// Egyptian store pages mix both scripts freely.
var arabicDigits = strings.NewReplacer(
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
)

// diacritics folds the accented latin characters that show up in product
// titles to their plain forms.
var diacritics = strings.NewReplacer(
	"á", "a", "à", "a", "ä", "a", "â", "a", "ã", "a",
	"é", "e", "è", "e", "ë", "e", "ê", "e",
	"í", "i", "ì", "i", "ï", "i", "î", "i",
	"ó", "o", "ò", "o", "ö", "o", "ô", "o", "õ", "o",
	"ú", "u", "ù", "u", "ü", "u", "û", "u",
	"ç", "c", "ñ", "n",
)

// Tokens canonicalizes a title or query into a comparable token set.
// Text is lowercased, currency symbols, punctuation and diacritics are
// stripped, whitespace is collapsed and duplicate tokens are dropped while
// preserving first-seen order. The first token that reads like a model
// number (at least one letter and one digit, and not a bare quantity such
// as "128gb") is tagged as the model hint and kept in the token set.
func Tokens(text string) models.TokenSet {
	text = strings.ToLower(text)
	text = arabicDigits.Replace(text)
	text = diacritics.Replace(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	set := models.TokenSet{}
	seen := make(map[string]struct{})
	for _, tok := range strings.Fields(b.String()) {
		tok = strings.Trim(tok, "-")
		if tok == "" {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		set.Tokens = append(set.Tokens, tok)
		if set.Model == "" && isModelToken(tok) {
			set.Model = tok
		}
	}
	return set
}

// isModelToken reports whether tok looks like a manufacturer model/SKU code.
func isModelToken(tok string) bool {
	if unitRegexp.MatchString(tok) {
		return false
	}
	hasLetter, hasDigit := false, false
	for _, r := range tok {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

// Price extracts a numeric price from raw page text. It strips currency
// labels and thousand separators, converts Arabic-Indic digits, and handles
// both 24,999.00 and 1.234,56 style formats. It returns nil when the text
// contains no numeric substring; callers must treat nil as "unusable
// listing", never as zero.
func Price(text string) *float64 {
	text = arabicDigits.Replace(strings.TrimSpace(text))

	// Ordered by specificity so the separator style is decided by the most
	// constrained pattern that matches.
	candidates := []struct {
		re    *regexp.Regexp
		clean func(string) string
	}{
		{thousandsRegexp, func(s string) string {
			return strings.ReplaceAll(s, ",", "")
		}},
		{europeanRegexp, func(s string) string {
			s = strings.ReplaceAll(s, ".", "")
			return strings.ReplaceAll(s, ",", ".")
		}},
		{decimalCommaRegexp, func(s string) string {
			return strings.ReplaceAll(s, ",", ".")
		}},
		{plainRegexp, func(s string) string { return s }},
	}

	for _, c := range candidates {
		match := c.re.FindString(text)
		if match == "" {
			continue
		}
		value, err := strconv.ParseFloat(c.clean(match), 64)
		if err != nil {
			continue
		}
		return &value
	}
	return nil
}

// Display trims and collapses whitespace while keeping the original casing,
// for titles shown to users and stored as product names.
func Display(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Listing converts a raw scraped listing into its normalized form.
func Listing(raw models.RawListing) models.NormalizedListing {
	return models.NormalizedListing{
		Site:   raw.Site,
		Title:  Display(raw.Title),
		Tokens: Tokens(raw.Title),
		Price:  Price(raw.PriceText),
		URL:    strings.TrimSpace(raw.URL),
	}
}
