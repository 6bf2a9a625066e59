// Package identity canonicalizes the identifiers carried by external
// appointment records: patient cellphone numbers (MSISDNs) and clinic file
// numbers.
package identity

import (
	"regexp"
	"strings"
)

const countryPrefix = "27"

var (
	localPhoneRe = regexp.MustCompile(`^[0-9]{9}$`)
	intlPhoneRe  = regexp.MustCompile(`^27[0-9]{9}$`)
	fileNumberRe = regexp.MustCompile(`^[A-Za-z0-9]+$`)
)

// NormalizePhone canonicalizes a raw phone number into the stored MSISDN
// format: country code followed by nine digits, no separators.
//
// A nine-digit local number is prefixed with the country code. An eleven-digit
// number already carrying the country code is returned as-is. Anything else
// fails normalization and the raw input is returned unchanged with ok=false;
// callers must not persist a value that failed.
func NormalizePhone(raw string) (string, bool) {
	msisdn := strings.TrimSpace(raw)
	msisdn = strings.TrimLeft(msisdn, "+")
	msisdn = strings.TrimLeft(msisdn, "0")

	switch len(msisdn) {
	case 9:
		if !localPhoneRe.MatchString(msisdn) {
			return raw, false
		}
		return countryPrefix + msisdn, true
	case 11:
		if !intlPhoneRe.MatchString(msisdn) {
			return raw, false
		}
		return msisdn, true
	default:
		return raw, false
	}
}

// NormalizeFileNumber validates an external file/record number. Only plain
// alphanumeric strings are accepted; separators and punctuation fail.
func NormalizeFileNumber(raw string) (string, bool) {
	fileNo := strings.TrimSpace(raw)
	if !fileNumberRe.MatchString(fileNo) {
		return raw, false
	}
	return fileNo, true
}

// SplitPhones splits a `/`-delimited list of raw phone numbers. Empty
// segments are dropped; each returned value still needs NormalizePhone.
func SplitPhones(raw string) []string {
	parts := strings.Split(raw, "/")
	phones := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			phones = append(phones, p)
		}
	}
	return phones
}
