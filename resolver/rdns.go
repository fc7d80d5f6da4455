package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
	log "github.com/sirupsen/logrus"
)

// rdnsResolver maps the IP to a host name via PTR, then looks up the
// registrable domain's WHOIS record. It only yields ownership data when
// the operator runs reverse DNS on their own domain, which makes it a
// late fallback.
type rdnsResolver struct {
	dns    *dnsClient
	client *whois.Client
}

func newRDNSResolver(opts Options) *rdnsResolver {
	client := whois.NewClient()
	client.SetTimeout(opts.Timeout)
	return &rdnsResolver{
		dns:    newDNSClient(opts.Nameserver, opts.Timeout),
		client: client,
	}
}

func (r *rdnsResolver) Name() string { return "rdns" }

func (r *rdnsResolver) Lookup(ctx context.Context, ip string) (Result, error) {
	if _, err := parseAddr(ip); err != nil {
		return Result{}, err
	}

	host, err := r.dns.lookupPTR(ctx, ip)
	if err != nil {
		return Result{}, fmt.Errorf("reverse lookup: %w", err)
	}

	domain := registrableDomain(host)
	if domain == "" {
		return Result{}, fmt.Errorf("no registrable domain in PTR name %q", host)
	}
	log.Debugf("resolved %s to %s, querying whois for %s", ip, host, domain)

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	body, err := r.client.Whois(domain)
	if err != nil {
		return Result{}, fmt.Errorf("whois query for %s: %w", domain, err)
	}

	info, err := whoisparser.Parse(body)
	if err != nil {
		return Result{}, fmt.Errorf("parse whois for %s: %w", domain, err)
	}

	result := Result{IP: ip}
	if info.Registrant != nil {
		result.Organization = firstNonEmpty(info.Registrant.Organization, info.Registrant.Name)
		result.Country = strings.ToUpper(info.Registrant.Country)
		result.City = info.Registrant.City
	}
	if result.Organization == "" && info.Registrar != nil {
		result.Organization = info.Registrar.Name
	}
	if info.Domain != nil {
		result.Registered = normalizeDate(info.Domain.CreatedDate)
	}

	if result.Organization == "" {
		return Result{}, fmt.Errorf("no ownership data in whois record for %s", domain)
	}
	return result, nil
}

// registrableDomain trims a host name down to its last two labels.
// Second-level registries like co.uk fall through to the whois server's
// referral handling.
func registrableDomain(host string) string {
	host = strings.Trim(strings.ToLower(host), ".")
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return ""
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
