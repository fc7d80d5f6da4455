package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/likexian/whois"
)

// whoisResolver asks the registries directly over port 43. The client
// starts at IANA and follows referrals down to the owning RIR.
type whoisResolver struct {
	client *whois.Client
}

func newWhoisResolver(opts Options) *whoisResolver {
	client := whois.NewClient()
	client.SetTimeout(opts.Timeout)
	return &whoisResolver{client: client}
}

func (r *whoisResolver) Name() string { return "whois" }

func (r *whoisResolver) Lookup(ctx context.Context, ip string) (Result, error) {
	if _, err := parseAddr(ip); err != nil {
		return Result{}, err
	}

	// The whois client has no context support; its own dial/read timeout
	// bounds the call instead.
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	body, err := r.client.Whois(ip)
	if err != nil {
		return Result{}, fmt.Errorf("whois query: %w", err)
	}
	if strings.TrimSpace(body) == "" {
		return Result{}, fmt.Errorf("empty whois response for %s", ip)
	}

	result := parseWhoisText(ip, body)
	if result.Organization == "" && result.Network == "" && result.ASN == "" {
		return Result{}, fmt.Errorf("no registry data in whois response for %s", ip)
	}
	return result, nil
}
