// Package phone canonicalizes WhatsApp identifiers and produces the ordered
// format variants the dispatcher walks when a send is rejected.
//
// Numbers follow Brazilian conventions: country code 55, two-digit area code,
// and a mobile ninth digit that older registrations may or may not carry.
package phone

import "strings"

const (
	countryCode     = "55"
	transportSuffix = "@s.whatsapp.net"
	groupSuffix     = "@g.us"
)

// IsGroup reports whether the raw identifier addresses a group chat.
func IsGroup(raw string) bool {
	return strings.HasSuffix(raw, groupSuffix)
}

// Canonical strips the transport suffix and device part, keeps digits only
// and prefixes the country code when the number looks locally formatted.
// Best effort: malformed input still yields a digit string, possibly empty.
func Canonical(raw string) string {
	digits := digitsOf(raw)

	// 10 = DDD + 8-digit landline/legacy mobile, 11 = DDD + 9-digit mobile
	if len(digits) == 10 || len(digits) == 11 {
		return countryCode + digits
	}
	return digits
}

// Variants returns the ordered, deduplicated list of formats to attempt on
// send. The canonical form always comes first and is always present.
func Variants(raw string) []string {
	canonical := Canonical(raw)

	candidates := []string{
		canonical,
		canonical + transportSuffix,
	}

	if strings.HasPrefix(canonical, countryCode) && len(canonical) > len(countryCode) {
		candidates = append(candidates, canonical[len(countryCode):])
	}

	if toggled := toggleNinthDigit(canonical); toggled != "" {
		candidates = append(candidates, toggled)
	}

	seen := make(map[string]bool, len(candidates))
	variants := make([]string, 0, len(candidates))
	for _, v := range candidates {
		if seen[v] {
			continue
		}
		seen[v] = true
		variants = append(variants, v)
	}
	return variants
}

// toggleNinthDigit inserts the mobile ninth digit into a 12-digit canonical
// number or removes it from a 13-digit one. Returns "" when the number is not
// a Brazilian canonical form.
func toggleNinthDigit(canonical string) string {
	if !strings.HasPrefix(canonical, countryCode) {
		return ""
	}
	switch len(canonical) {
	case 12: // 55 + DDD + 8 digits: insert the 9
		return canonical[:4] + "9" + canonical[4:]
	case 13: // 55 + DDD + 9 digits: drop the leading 9 of the subscriber part
		if canonical[4] == '9' {
			return canonical[:4] + canonical[5:]
		}
	}
	return ""
}

func digitsOf(raw string) string {
	if at := strings.Index(raw, "@"); at >= 0 {
		raw = raw[:at]
	}
	// JIDs may carry a device part: 5511999999999:22@s.whatsapp.net
	if colon := strings.Index(raw, ":"); colon >= 0 {
		raw = raw[:colon]
	}

	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
