package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	jsoniter "github.com/json-iterator/go"

	"github.com/SamPlaysKeys/ip-whois-tool/resolver"
)

var csvColumns = []string{"ip", "organization", "country", "city", "asn", "network", "registered", "source"}

// writeOutput renders results to a file in the requested format, creating
// parent directories as needed.
func writeOutput(results []resolver.Result, path, format string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create output file: %w", err)
	}
	defer f.Close()

	switch format {
	case "csv":
		return writeCSV(f, results)
	case "json":
		return writeJSON(f, results)
	case "text":
		return writeText(f, results)
	}
	return fmt.Errorf("unsupported output format: %s", format)
}

func writeCSV(w io.Writer, results []resolver.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvColumns); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{r.IP, r.Organization, r.Country, r.City, r.ASN, r.Network, r.Registered, r.Source}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, results []resolver.Result) error {
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func writeText(w io.Writer, results []resolver.Result) error {
	var b strings.Builder
	b.WriteString("IP WHOIS Lookup Results\n")
	b.WriteString("=======================\n\n")

	for i, r := range results {
		fmt.Fprintf(&b, "Result %d:\n", i+1)
		fmt.Fprintf(&b, "  IP Address:        %s\n", orUnknown(r.IP))
		fmt.Fprintf(&b, "  Organization:      %s\n", orUnknown(r.Organization))
		fmt.Fprintf(&b, "  Country:           %s\n", orUnknown(r.Country))
		if r.City != "" {
			fmt.Fprintf(&b, "  City:              %s\n", r.City)
		}
		fmt.Fprintf(&b, "  ASN:               %s\n", orUnknown(r.ASN))
		fmt.Fprintf(&b, "  Network:           %s\n", orUnknown(r.Network))
		if r.Registered != "" {
			fmt.Fprintf(&b, "  Registration Date: %s\n", r.Registered)
		}
		fmt.Fprintf(&b, "  Source:            %s\n", orUnknown(r.Source))
		if r.Err != "" {
			fmt.Fprintf(&b, "  Error:             %s\n", r.Err)
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// renderConsole prints an aligned result table; verbose mode adds network,
// registration date and source columns.
func renderConsole(w io.Writer, results []resolver.Result, verbose bool) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)

	if verbose {
		fmt.Fprintln(tw, "IP\tORGANIZATION\tLOCATION\tASN\tNETWORK\tREGISTERED\tSOURCE")
	} else {
		fmt.Fprintln(tw, "IP\tORGANIZATION\tLOCATION\tASN")
	}

	for _, r := range results {
		if r.IP == "" {
			continue
		}
		location := "Unknown"
		if parts := joinNonEmpty(r.City, r.Country); parts != "" {
			location = parts
		}
		if verbose {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				r.IP, orUnknown(r.Organization), location, orUnknown(r.ASN),
				orUnknown(r.Network), orUnknown(r.Registered), orUnknown(r.Source))
		} else {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
				r.IP, orUnknown(r.Organization), location, orUnknown(r.ASN))
		}
	}
	tw.Flush()
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}
