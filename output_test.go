package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/SamPlaysKeys/ip-whois-tool/resolver"
)

func sampleResults() []resolver.Result {
	return []resolver.Result{
		{
			IP:           "8.8.8.8",
			Organization: "Google LLC",
			Country:      "US",
			City:         "Mountain View",
			ASN:          "15169",
			Network:      "8.8.8.0/24",
			Registered:   "2023-12-28 00:00:00",
			Source:       "rdap",
			OK:           true,
		},
		{
			IP:  "192.0.2.1",
			Err: "rdap: not found; whois: empty whois response for 192.0.2.1",
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := writeCSV(&buf, sampleResults()); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("re-read failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if !reflect.DeepEqual(rows[0], csvColumns) {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != "8.8.8.8" || rows[1][1] != "Google LLC" || rows[1][4] != "15169" {
		t.Errorf("unexpected first row: %v", rows[1])
	}
	if rows[2][0] != "192.0.2.1" || rows[2][1] != "" {
		t.Errorf("expected failure row with empty fields, got %v", rows[2])
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	want := sampleResults()

	var buf bytes.Buffer
	if err := writeJSON(&buf, want); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	var got []resolver.Result
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip changed results:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := writeText(&buf, sampleResults()); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Result 1:",
		"IP Address:        8.8.8.8",
		"Organization:      Google LLC",
		"City:              Mountain View",
		"Registration Date: 2023-12-28 00:00:00",
		"Result 2:",
		"Organization:      Unknown",
		"Error:             rdap: not found",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q:\n%s", want, out)
		}
	}
}

func TestRenderConsole(t *testing.T) {
	var buf bytes.Buffer
	renderConsole(&buf, sampleResults(), false)

	out := buf.String()
	if !strings.Contains(out, "Mountain View, US") {
		t.Errorf("expected combined location, got:\n%s", out)
	}
	if strings.Contains(out, "NETWORK") {
		t.Error("expected no verbose columns in default mode")
	}

	buf.Reset()
	renderConsole(&buf, sampleResults(), true)
	out = buf.String()
	if !strings.Contains(out, "NETWORK") || !strings.Contains(out, "8.8.8.0/24") {
		t.Errorf("expected verbose columns, got:\n%s", out)
	}
}

func TestWriteOutputUnsupportedFormat(t *testing.T) {
	path := t.TempDir() + "/out.xml"
	if err := writeOutput(sampleResults(), path, "xml"); err == nil {
		t.Error("expected unsupported format to fail")
	}
}

func TestWriteOutputCreatesDirectories(t *testing.T) {
	path := t.TempDir() + "/nested/dir/out.json"
	if err := writeOutput(sampleResults(), path, "json"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}
