package resolver

import (
	"context"
	"fmt"
	"net/netip"
	"strings"
)

// originInfo is the payload of a Team Cymru origin TXT record:
// "15169 | 8.8.8.0/24 | US | arin | 1992-12-01".
type originInfo struct {
	ASN        string
	Prefix     string
	Country    string
	Registry   string
	Registered string
}

// lookupOrigin queries the Team Cymru IP-to-ASN mapping over DNS.
func lookupOrigin(ctx context.Context, client *dnsClient, addr netip.Addr) (originInfo, error) {
	query, ok := cymruQuery(addr)
	if !ok {
		return originInfo{}, fmt.Errorf("no origin zone for %s", addr)
	}

	txts, err := client.lookupTXT(ctx, query)
	if err != nil {
		return originInfo{}, err
	}

	info, ok := parseOriginTXT(txts)
	if !ok {
		return originInfo{}, fmt.Errorf("unparseable origin record for %s", addr)
	}
	return info, nil
}

func cymruQuery(addr netip.Addr) (string, bool) {
	if addr.Is4() {
		ip := addr.As4()
		return fmt.Sprintf("%d.%d.%d.%d.origin.asn.cymru.com", ip[3], ip[2], ip[1], ip[0]), true
	}
	if addr.Is6() {
		return reverseNibbles(addr) + ".origin6.asn.cymru.com", true
	}
	return "", false
}

func reverseNibbles(addr netip.Addr) string {
	ip := addr.As16()
	var b strings.Builder
	b.Grow(len(ip) * 4)
	for i := len(ip) - 1; i >= 0; i-- {
		lo := ip[i] & 0x0f
		hi := ip[i] >> 4
		b.WriteString(fmt.Sprintf("%x.%x.", lo, hi))
	}
	return strings.TrimSuffix(b.String(), ".")
}

func parseOriginTXT(txts []string) (originInfo, bool) {
	for _, txt := range txts {
		parts := strings.Split(txt, "|")
		if len(parts) < 3 {
			continue
		}
		info := originInfo{
			ASN:     normalizeASN(parts[0]),
			Prefix:  strings.TrimSpace(parts[1]),
			Country: strings.ToUpper(strings.TrimSpace(parts[2])),
		}
		if len(parts) > 3 {
			info.Registry = strings.TrimSpace(parts[3])
		}
		if len(parts) > 4 {
			info.Registered = normalizeDate(strings.TrimSpace(parts[4]))
		}
		if info.ASN == "" && info.Country == "" {
			continue
		}
		return info, true
	}
	return originInfo{}, false
}
