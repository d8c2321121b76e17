// Package anonymize reduces raw client attributes before they are
// persisted. Every function is pure; the reduction policy is fixed and
// not configurable.
package anonymize

import (
	"strings"
	"unicode/utf8"

	"github.com/makkenzo/pixel-service-api/internal/domain/pixel"
)

const (
	MaxUserAgentLen = 256
	MaxRefererLen   = 256
	MaxLanguageLen  = 32
)

const truncationMarker = "…"

// IP coarsens a client address: IPv4 keeps the first three octets and
// zeroes the last ("203.0.113.0"), IPv6 zeroes the last four groups.
// Anything that is not recognizably one of those two shapes, including an
// empty address, maps to nil and the event simply carries no address.
func IP(raw string) *string {
	if raw == "" {
		return nil
	}
	if strings.Contains(raw, ":") {
		groups := strings.Split(raw, ":")
		start := len(groups) - 4
		if start < 0 {
			start = 0
		}
		for i := start; i < len(groups); i++ {
			groups[i] = "0"
		}
		anonymized := strings.Join(groups, ":")
		return &anonymized
	}
	parts := strings.Split(raw, ".")
	if len(parts) != 4 {
		return nil
	}
	anonymized := strings.Join(parts[:3], ".") + ".0"
	return &anonymized
}

// Truncate caps a free-form header value at max characters. Values within
// the limit pass through unchanged; longer ones are cut to max-1 runes
// with a truncation marker appended so the total stays within max. Empty
// input stays absent.
func Truncate(raw string, max int) *string {
	if raw == "" {
		return nil
	}
	if utf8.RuneCountInString(raw) <= max {
		return &raw
	}
	runes := []rune(raw)
	truncated := string(runes[:max-1]) + truncationMarker
	return &truncated
}

// SanitizeGeo keeps only the country/region/city fields of the supplied
// location hints. Without hints, or with all three fields empty, the event
// carries no geo snapshot at all.
func SanitizeGeo(geo *pixel.Geo) *pixel.Geo {
	if geo == nil {
		return nil
	}
	if geo.Country == "" && geo.Region == "" && geo.City == "" {
		return nil
	}
	return &pixel.Geo{Country: geo.Country, Region: geo.Region, City: geo.City}
}
