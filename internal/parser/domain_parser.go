package parser

import (
	"fmt"
	"regexp"
	"strings"
)

var domainNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ParseDomainPath splits and normalizes a "domain" or "domain/subdomain"
// path. Names are lowercased and may contain letters, digits, - and _.
func ParseDomainPath(path string) (domain, subDomain string, err error) {
	path = strings.ToLower(strings.Trim(strings.TrimSpace(path), "/"))
	if path == "" {
		return "", "", fmt.Errorf("empty domain")
	}

	parts := strings.Split(path, "/")
	if len(parts) > 2 {
		return "", "", fmt.Errorf("domain %q has more than two levels. Use: domain or domain/subdomain", path)
	}
	for _, p := range parts {
		if !domainNameRegex.MatchString(p) {
			return "", "", fmt.Errorf("invalid domain name %q", p)
		}
	}

	if len(parts) == 2 {
		return parts[0], parts[1], nil
	}
	return parts[0], "", nil
}

// IsValidDomainPath checks if a string is an acceptable domain path
func IsValidDomainPath(path string) bool {
	_, _, err := ParseDomainPath(path)
	return err == nil
}
