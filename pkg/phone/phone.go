// Package phone normalizes WhatsApp phone numbers to the digit-only storage
// format and generates lookup variants for inbound sender matching. Stored
// numbers and the gateway's wire format may disagree on the country code and
// on the extra mobile prefix digit, so lead lookups try every variant.
package phone

import (
	"regexp"
	"strings"
)

var nonDigits = regexp.MustCompile(`\D`)

// Normalizer holds the numbering convention. Defaults target Brazil (country
// code 55, mobile numbers carry a 9 after the two-digit area code), but both
// knobs are configurable.
type Normalizer struct {
	CountryCode  string
	MobilePrefix string
}

func NewNormalizer(countryCode, mobilePrefix string) *Normalizer {
	if countryCode == "" {
		countryCode = "55"
	}
	if mobilePrefix == "" {
		mobilePrefix = "9"
	}
	return &Normalizer{CountryCode: countryCode, MobilePrefix: mobilePrefix}
}

// Normalize strips every non-digit and prefixes the country code when the
// number looks like a bare national number.
func (n *Normalizer) Normalize(raw string) string {
	digits := nonDigits.ReplaceAllString(raw, "")
	if digits == "" {
		return ""
	}
	if strings.HasPrefix(digits, n.CountryCode) && len(digits) >= len(n.CountryCode)+10 {
		return digits
	}
	if len(digits) == 10 || len(digits) == 11 {
		return n.CountryCode + digits
	}
	return digits
}

// FromJID extracts the digits of a WhatsApp remote identifier such as
// "5541998712446@s.whatsapp.net" and normalizes them.
func (n *Normalizer) FromJID(jid string) string {
	at := strings.IndexByte(jid, '@')
	if at >= 0 {
		jid = jid[:at]
	}
	return n.Normalize(jid)
}

// Variants returns the candidate storage representations of a normalized
// number, most likely first: as-is, without the country code, with the mobile
// prefix digit inserted after the area code, and with it removed. Duplicates
// are dropped; matching is inherently heuristic.
func (n *Normalizer) Variants(normalized string) []string {
	if normalized == "" {
		return nil
	}

	candidates := []string{normalized}

	if strings.HasPrefix(normalized, n.CountryCode) {
		candidates = append(candidates, strings.TrimPrefix(normalized, n.CountryCode))
	}

	national := strings.TrimPrefix(normalized, n.CountryCode)
	// Area code is assumed to be two digits; the mobile prefix sits right
	// after it on 9-digit mobile numbers.
	if len(national) == 10 {
		withPrefix := n.CountryCode + national[:2] + n.MobilePrefix + national[2:]
		candidates = append(candidates, withPrefix)
	}
	if len(national) == 11 && strings.HasPrefix(national[2:], n.MobilePrefix) {
		withoutPrefix := n.CountryCode + national[:2] + national[2+len(n.MobilePrefix):]
		candidates = append(candidates, withoutPrefix)
	}

	seen := make(map[string]struct{}, len(candidates))
	variants := candidates[:0]
	for _, c := range candidates {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		variants = append(variants, c)
	}

	return variants
}
