package resolver

import (
	"regexp"
	"strings"
	"time"
)

// Field patterns covering ARIN block style (Capitalized keys) and
// RIPE/APNIC/AFRINIC attribute style (lowercase keys).
var fieldPatterns = map[string][]*regexp.Regexp{
	"organization": {
		regexp.MustCompile(`(?i)^(?:Organization|Org(?:anization)? ?Name):\s*(.+)$`),
		regexp.MustCompile(`(?i)^(?:descr|owner):\s*(.+)$`),
	},
	"country": {
		regexp.MustCompile(`(?i)^(?:Country|Country Code):\s*(.+)$`),
	},
	"city": {
		regexp.MustCompile(`(?i)^City:\s*(.+)$`),
	},
	"asn": {
		regexp.MustCompile(`(?i)^(?:OriginAS|Origin AS|ASNumber|ASN|aut-num):\s*(.+)$`),
		regexp.MustCompile(`(?i)^origin:\s*(AS\d+)$`),
	},
	"network": {
		regexp.MustCompile(`(?i)^(?:CIDR|NetRange|Network):\s*(.+)$`),
		regexp.MustCompile(`(?i)^(?:inetnum|inet6num):\s*(.+)$`),
	},
	"registered": {
		regexp.MustCompile(`(?i)^(?:RegDate|Created|Registration Date):\s*(.+)$`),
		regexp.MustCompile(`(?i)^created:\s*(.+)$`),
	},
}

type fieldMatch struct {
	value string
	prio  int
}

// parseWhoisText extracts registry fields from free-form WHOIS output.
// Within one field, a higher-priority pattern beats a lower-priority one
// regardless of line order; among equal-priority matches the first wins,
// so the most specific object (listed first by every RIR) takes
// precedence over parent allocations.
func parseWhoisText(ip, body string) Result {
	matches := make(map[string]fieldMatch)

	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "%") || strings.HasPrefix(line, "#") {
			continue
		}

		for field, patterns := range fieldPatterns {
			for prio, pattern := range patterns {
				m := pattern.FindStringSubmatch(line)
				if m == nil {
					continue
				}
				value := strings.TrimSpace(m[1])
				if value == "" {
					break
				}
				if existing, ok := matches[field]; !ok || prio < existing.prio {
					matches[field] = fieldMatch{value: value, prio: prio}
				}
				break
			}
		}
	}

	result := Result{IP: ip}
	if m, ok := matches["organization"]; ok {
		result.Organization = m.value
	}
	if m, ok := matches["country"]; ok {
		result.Country = strings.ToUpper(m.value)
	}
	if m, ok := matches["city"]; ok {
		result.City = m.value
	}
	if m, ok := matches["asn"]; ok {
		result.ASN = normalizeASN(m.value)
	}
	if m, ok := matches["network"]; ok {
		result.Network = m.value
	}
	if m, ok := matches["registered"]; ok {
		result.Registered = normalizeDate(m.value)
	}
	return result
}

var (
	asnPattern   = regexp.MustCompile(`AS(\d+)`)
	digitPattern = regexp.MustCompile(`(\d+)`)
)

// normalizeASN reduces an ASN field to its bare number. Registries emit
// "AS15169", "15169" and multi-origin lists like "AS15169 AS36040".
func normalizeASN(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if m := asnPattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	if m := digitPattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

const registeredLayout = "2006-01-02 15:04:05"

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-Jan-2006",
	"2006.01.02",
	"02/01/2006",
	"20060102",
}

// normalizeDate reformats registry dates to a single layout. Unparseable
// values are returned as-is rather than dropped.
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(registeredLayout)
		}
	}
	return s
}
