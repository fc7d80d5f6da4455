package resolver

import "testing"

const arinSample = `
#
# ARIN WHOIS data and services are subject to the Terms of Use
#

NetRange:       8.8.8.0 - 8.8.8.255
CIDR:           8.8.8.0/24
NetName:        GOGL
Organization:   Google LLC (GOGL)
RegDate:        2023-12-28
Country:        US
City:           Mountain View
OriginAS:       AS15169
`

const ripeSample = `
% This is the RIPE Database query service.

inetnum:        193.0.0.0 - 193.0.7.255
netname:        RIPE-NCC
descr:          RIPE Network Coordination Centre
country:        NL
created:        2003-03-17T12:15:57Z
origin:         AS3333
`

func TestParseWhoisTextARIN(t *testing.T) {
	result := parseWhoisText("8.8.8.8", arinSample)

	if result.IP != "8.8.8.8" {
		t.Errorf("expected IP 8.8.8.8, got %q", result.IP)
	}
	if expected := "Google LLC (GOGL)"; result.Organization != expected {
		t.Errorf("expected organization %q, got %q", expected, result.Organization)
	}
	if result.Country != "US" {
		t.Errorf("expected country US, got %q", result.Country)
	}
	if result.City != "Mountain View" {
		t.Errorf("expected city Mountain View, got %q", result.City)
	}
	if result.ASN != "15169" {
		t.Errorf("expected ASN 15169, got %q", result.ASN)
	}
	if expected := "8.8.8.0 - 8.8.8.255"; result.Network != expected {
		t.Errorf("expected network %q, got %q", expected, result.Network)
	}
	if expected := "2023-12-28 00:00:00"; result.Registered != expected {
		t.Errorf("expected registration date %q, got %q", expected, result.Registered)
	}
}

func TestParseWhoisTextRIPE(t *testing.T) {
	result := parseWhoisText("193.0.0.1", ripeSample)

	if expected := "RIPE Network Coordination Centre"; result.Organization != expected {
		t.Errorf("expected organization %q, got %q", expected, result.Organization)
	}
	if result.Country != "NL" {
		t.Errorf("expected country NL, got %q", result.Country)
	}
	if result.ASN != "3333" {
		t.Errorf("expected ASN 3333, got %q", result.ASN)
	}
	if expected := "193.0.0.0 - 193.0.7.255"; result.Network != expected {
		t.Errorf("expected network %q, got %q", expected, result.Network)
	}
	if expected := "2003-03-17 12:15:57"; result.Registered != expected {
		t.Errorf("expected registration date %q, got %q", expected, result.Registered)
	}
}

func TestParseWhoisTextFirstMatchWins(t *testing.T) {
	body := "descr: Specific Allocation\ndescr: Parent Block\n"
	result := parseWhoisText("192.0.2.1", body)
	if expected := "Specific Allocation"; result.Organization != expected {
		t.Errorf("expected %q, got %q", expected, result.Organization)
	}
}

func TestNormalizeASN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"AS15169", "15169"},
		{"15169", "15169"},
		{"AS15169 AS36040", "15169"},
		{"as3333", "3333"},
		{"", ""},
		{"none", ""},
	}
	for _, tt := range tests {
		if got := normalizeASN(tt.in); got != tt.want {
			t.Errorf("normalizeASN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2023-12-28", "2023-12-28 00:00:00"},
		{"2003-03-17T12:15:57Z", "2003-03-17 12:15:57"},
		{"28-Jan-2006", "2006-01-28 00:00:00"},
		{"1992.11.01", "1992-11-01 00:00:00"},
		{"20060102", "2006-01-02 00:00:00"},
		{"sometime in 1994", "sometime in 1994"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizeDate(tt.in); got != tt.want {
			t.Errorf("normalizeDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
