package resolver

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"
)

// systemResolver shells out to whois(1). Last in the auto chain: slowest
// and least structured, but present on nearly every host.
type systemResolver struct {
	path string
}

func newSystemResolver(opts Options) *systemResolver {
	path := opts.WhoisPath
	if path == "" {
		path = "whois"
	}
	return &systemResolver{path: path}
}

func (r *systemResolver) Name() string { return "system" }

func (r *systemResolver) Lookup(ctx context.Context, ip string) (Result, error) {
	if _, err := parseAddr(ip); err != nil {
		return Result{}, err
	}

	cmd := exec.CommandContext(ctx, r.path, ip)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	output := stdout.String()
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, fmt.Errorf("whois command timed out for %s", ip)
		}
		// whois exits non-zero on referral hiccups while still printing
		// the registry data it did collect.
		if strings.TrimSpace(output) == "" {
			return Result{}, fmt.Errorf("whois command failed: %w (%s)", err, strings.TrimSpace(stderr.String()))
		}
		log.Debugf("whois command for %s exited with %v, parsing partial output", ip, err)
	}

	if strings.TrimSpace(output) == "" {
		return Result{}, fmt.Errorf("no output from whois command for %s", ip)
	}

	result := parseWhoisText(ip, output)
	if result.Organization == "" && result.Network == "" && result.ASN == "" {
		return Result{}, fmt.Errorf("no registry data in whois output for %s", ip)
	}
	return result, nil
}
