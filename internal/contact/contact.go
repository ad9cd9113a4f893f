package contact

import (
	"regexp"
	"strings"

	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/model"
)

const (
	CountryPrefix = "506"
	LocalLength   = 8
	TotalLength   = len(CountryPrefix) + LocalLength

	UserDomain      = "@s.whatsapp.net"
	GroupDomain     = "@g.us"
	BroadcastDomain = "@broadcast"
)

var nonDigits = regexp.MustCompile(`\D`)

// Normalize turns a raw phone or channel address into the canonical contact
// key. It never fails: unexpected input degrades to its digits.
func Normalize(raw string) string {
	digits := nonDigits.ReplaceAllString(userPart(raw), "")

	switch {
	case len(digits) == LocalLength:
		return CountryPrefix + digits
	case len(digits) == TotalLength && strings.HasPrefix(digits, CountryPrefix):
		return digits
	default:
		return digits
	}
}

// Address returns the channel address used by the messaging gateway.
func Address(raw string) string {
	return Normalize(raw) + UserDomain
}

// Display formats a number as "+506 8888-7777" when it is a full local
// number, otherwise it returns the input unchanged.
func Display(raw string) string {
	key := Normalize(raw)
	if len(key) != TotalLength || !strings.HasPrefix(key, CountryPrefix) {
		return raw
	}
	local := key[len(CountryPrefix):]
	return "+" + CountryPrefix + " " + local[:4] + "-" + local[4:]
}

func Parse(raw string) model.Contact {
	return model.Contact{
		Key:     Normalize(raw),
		Address: Address(raw),
		Display: Display(raw),
	}
}

// IsGroup reports addresses that belong to groups, broadcast lists or status
// updates. Those never get automatic replies.
func IsGroup(raw string) bool {
	lower := strings.ToLower(strings.TrimSpace(raw))
	return strings.HasSuffix(lower, GroupDomain) ||
		strings.HasSuffix(lower, BroadcastDomain) ||
		strings.HasPrefix(lower, "status@")
}

// userPart drops the domain and the device suffix of a channel address
// ("50688887777:12@s.whatsapp.net" -> "50688887777").
func userPart(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.IndexByte(s, '@'); i >= 0 {
		s = s[:i]
		if j := strings.IndexByte(s, ':'); j >= 0 {
			s = s[:j]
		}
	}
	return s
}
