package resolver

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/miekg/dns"
)

const fallbackNameserver = "8.8.8.8:53"

// dnsClient wraps a miekg/dns client with a fixed nameserver.
type dnsClient struct {
	client *dns.Client
	server string
}

func newDNSClient(nameserver string, timeout time.Duration) *dnsClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &dnsClient{
		client: &dns.Client{Timeout: timeout},
		server: resolveNameserver(nameserver),
	}
}

// resolveNameserver picks the query target: the configured server, the
// first entry of resolv.conf, or a public resolver as last resort.
func resolveNameserver(nameserver string) string {
	if nameserver != "" {
		if !strings.Contains(nameserver, ":") {
			nameserver += ":53"
		}
		return nameserver
	}
	if conf, err := dns.ClientConfigFromFile("/etc/resolv.conf"); err == nil && len(conf.Servers) > 0 {
		return net.JoinHostPort(conf.Servers[0], conf.Port)
	}
	return fallbackNameserver
}

func (c *dnsClient) query(ctx context.Context, name string, qtype uint16) (*dns.Msg, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), qtype)
	m.RecursionDesired = true

	in, _, err := c.client.ExchangeContext(ctx, m, c.server)
	if err != nil {
		return nil, fmt.Errorf("dns query %s: %w", name, err)
	}
	if in.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("dns query %s: %s", name, dns.RcodeToString[in.Rcode])
	}
	return in, nil
}

// lookupPTR returns the first PTR name for an address, without the
// trailing dot.
func (c *dnsClient) lookupPTR(ctx context.Context, ip string) (string, error) {
	arpa, err := dns.ReverseAddr(ip)
	if err != nil {
		return "", fmt.Errorf("reverse address for %s: %w", ip, err)
	}

	in, err := c.query(ctx, arpa, dns.TypePTR)
	if err != nil {
		return "", err
	}
	for _, rr := range in.Answer {
		if ptr, ok := rr.(*dns.PTR); ok {
			return strings.TrimSuffix(ptr.Ptr, "."), nil
		}
	}
	return "", fmt.Errorf("no PTR record for %s", ip)
}

// lookupTXT returns all TXT strings for a name, one per record.
func (c *dnsClient) lookupTXT(ctx context.Context, name string) ([]string, error) {
	in, err := c.query(ctx, name, dns.TypeTXT)
	if err != nil {
		return nil, err
	}
	var txts []string
	for _, rr := range in.Answer {
		if txt, ok := rr.(*dns.TXT); ok {
			txts = append(txts, strings.Join(txt.Txt, ""))
		}
	}
	if len(txts) == 0 {
		return nil, fmt.Errorf("no TXT records for %s", name)
	}
	return txts, nil
}

// parseAddr is a small shim so callers deal in netip.Addr.
func parseAddr(ip string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("invalid IP address: %s", ip)
	}
	return addr, nil
}
