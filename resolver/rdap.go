package resolver

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/openrdap/rdap"
	log "github.com/sirupsen/logrus"
)

// rdapResolver queries the registries' RDAP services via bootstrap and
// backfills the origin ASN from Team Cymru, since RDAP IP objects do not
// carry one.
type rdapResolver struct {
	client *rdap.Client
	dns    *dnsClient
}

func newRDAPResolver(opts Options) *rdapResolver {
	return &rdapResolver{
		client: &rdap.Client{
			HTTP: &http.Client{Timeout: opts.Timeout},
		},
		dns: newDNSClient(opts.Nameserver, opts.Timeout),
	}
}

func (r *rdapResolver) Name() string { return "rdap" }

func (r *rdapResolver) Lookup(ctx context.Context, ip string) (Result, error) {
	addr, err := parseAddr(ip)
	if err != nil {
		return Result{}, err
	}

	req := rdap.NewRequest(rdap.IPRequest, ip).WithContext(ctx)
	resp, err := r.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("rdap query: %w", err)
	}
	ipNet, ok := resp.Object.(*rdap.IPNetwork)
	if !ok || ipNet == nil {
		return Result{}, fmt.Errorf("rdap query for %s returned no IP network object", ip)
	}

	result := Result{
		IP:      ip,
		Country: strings.ToUpper(ipNet.Country),
		Network: networkFromRDAP(ipNet),
	}

	for _, event := range ipNet.Events {
		if event.Action == "registration" {
			result.Registered = normalizeDate(event.Date)
			break
		}
	}

	if org, city, country := entityDetails(ipNet.Entities); org != "" || city != "" {
		result.Organization = org
		result.City = city
		if result.Country == "" {
			result.Country = strings.ToUpper(country)
		}
	}
	if result.Organization == "" {
		result.Organization = ipNet.Name
	}

	// Cymru is best effort; the RDAP object alone is a valid result.
	if origin, err := lookupOrigin(ctx, r.dns, addr); err == nil {
		result.ASN = origin.ASN
		if result.Country == "" {
			result.Country = origin.Country
		}
		if result.Network == "" {
			result.Network = origin.Prefix
		}
		if result.Registered == "" {
			result.Registered = origin.Registered
		}
	} else {
		log.Debugf("origin lookup for %s: %v", ip, err)
	}

	return result, nil
}

func networkFromRDAP(ipNet *rdap.IPNetwork) string {
	start := strings.TrimSpace(ipNet.StartAddress)
	end := strings.TrimSpace(ipNet.EndAddress)
	switch {
	case start != "" && end != "":
		return start + "-" + end
	case ipNet.Handle != "":
		return ipNet.Handle
	}
	return ""
}

// entityDetails walks the entity tree for the best organization contact,
// preferring registrants over administrative contacts.
func entityDetails(entities []rdap.Entity) (org, city, country string) {
	var fallback *rdap.VCard

	var walk func(entities []rdap.Entity)
	walk = func(entities []rdap.Entity) {
		for i := range entities {
			e := &entities[i]
			if e.VCard == nil {
				walk(e.Entities)
				continue
			}
			if hasRole(e.Roles, "registrant") && org == "" {
				org = e.VCard.Name()
				city = e.VCard.Locality()
				country = e.VCard.Country()
			}
			if fallback == nil && (hasRole(e.Roles, "administrative") || hasRole(e.Roles, "registrar")) {
				fallback = e.VCard
			}
			walk(e.Entities)
		}
	}
	walk(entities)

	if org == "" && fallback != nil {
		org = fallback.Name()
		city = fallback.Locality()
		country = fallback.Country()
	}
	return org, city, country
}

func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}
