package records

import (
	"strings"

	"github.com/miekg/dns"
)

// NameProblem reports why a DNS server would refuse to serve name, or ""
// when the name is usable. Names are published as extracted from router
// rules, so a bad one only shows up here.
func NameProblem(name string) string {
	if name == "" {
		return "empty name"
	}
	if strings.Contains(name, ",") {
		return "comma separated host list"
	}
	if _, ok := dns.IsDomainName(name); !ok {
		return "not a valid domain name"
	}
	return ""
}

// InvalidNames returns the records whose name NameProblem rejects, in order.
func InvalidNames(recs []DNSRecord) []DNSRecord {
	var out []DNSRecord
	for _, rec := range recs {
		if NameProblem(rec.Name) != "" {
			out = append(out, rec)
		}
	}
	return out
}
