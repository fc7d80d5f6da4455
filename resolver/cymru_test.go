package resolver

import (
	"net/netip"
	"testing"
)

func TestCymruQueryV4(t *testing.T) {
	addr := netip.MustParseAddr("8.8.8.8")
	query, ok := cymruQuery(addr)
	if !ok {
		t.Fatal("expected a query for an IPv4 address")
	}
	if expected := "8.8.8.8.origin.asn.cymru.com"; query != expected {
		t.Errorf("expected %q, got %q", expected, query)
	}

	addr = netip.MustParseAddr("192.0.2.1")
	query, _ = cymruQuery(addr)
	if expected := "1.2.0.192.origin.asn.cymru.com"; query != expected {
		t.Errorf("expected %q, got %q", expected, query)
	}
}

func TestCymruQueryV6(t *testing.T) {
	addr := netip.MustParseAddr("2001:db8::1")
	query, ok := cymruQuery(addr)
	if !ok {
		t.Fatal("expected a query for an IPv6 address")
	}
	expected := "1.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.8.b.d.0.1.0.0.2.origin6.asn.cymru.com"
	if query != expected {
		t.Errorf("expected %q, got %q", expected, query)
	}
}

func TestParseOriginTXT(t *testing.T) {
	txts := []string{"15169 | 8.8.8.0/24 | US | arin | 1992-12-01"}
	info, ok := parseOriginTXT(txts)
	if !ok {
		t.Fatal("expected a parseable record")
	}
	if info.ASN != "15169" {
		t.Errorf("expected ASN 15169, got %q", info.ASN)
	}
	if info.Prefix != "8.8.8.0/24" {
		t.Errorf("expected prefix 8.8.8.0/24, got %q", info.Prefix)
	}
	if info.Country != "US" {
		t.Errorf("expected country US, got %q", info.Country)
	}
	if info.Registry != "arin" {
		t.Errorf("expected registry arin, got %q", info.Registry)
	}
	if expected := "1992-12-01 00:00:00"; info.Registered != expected {
		t.Errorf("expected registration date %q, got %q", expected, info.Registered)
	}
}

func TestParseOriginTXTMultiOrigin(t *testing.T) {
	txts := []string{"15169 36040 | 8.8.8.0/24 | US | arin | 1992-12-01"}
	info, ok := parseOriginTXT(txts)
	if !ok {
		t.Fatal("expected a parseable record")
	}
	if info.ASN != "15169" {
		t.Errorf("expected first ASN 15169, got %q", info.ASN)
	}
}

func TestParseOriginTXTGarbage(t *testing.T) {
	if _, ok := parseOriginTXT([]string{"not a cymru record"}); ok {
		t.Error("expected garbage to be rejected")
	}
	if _, ok := parseOriginTXT(nil); ok {
		t.Error("expected empty input to be rejected")
	}
}
