package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestExtractDomains(t *testing.T) {
	tests := []struct {
		name string
		rule string
		want []string
	}{
		{"single host", "Host(`app.example.com`)", []string{"app.example.com"}},
		{"multiple hosts", "Host(`a.example.com`) || Host(`b.example.com`)", []string{"a.example.com", "b.example.com"}},
		{"combined with path", "Host(`app.example.com`) && PathPrefix(`/api`)", []string{"app.example.com"}},
		{"comma list kept verbatim", "Host(`a.example.com,b.example.com`)", []string{"a.example.com,b.example.com"}},
		{"no host matcher", "PathPrefix(`/`)", []string{}},
		{"empty rule", "", []string{}},
		{"host regexp ignored", "HostRegexp(`{sub:[a-z]+}.example.com`)", []string{}},
		{"host sni ignored", "HostSNI(`db.example.com`)", []string{}},
		{"uppercase rejected", "Host(`App.example.com`)", []string{}},
		{"hyphen rejected", "Host(`my-app.example.com`)", []string{}},
		{"double quotes rejected", `Host("app.example.com")`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractDomains(tt.rule)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractDomainsProperties(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		domains := rapid.SliceOfN(rapid.StringMatching(`[a-z0-9]{1,8}\.[a-z]{2,5}`), 0, 5).Draw(r, "domains")

		rule := ""
		for i, d := range domains {
			if i > 0 {
				rule += " || "
			}
			rule += "Host(`" + d + "`)"
		}

		got := ExtractDomains(rule)
		if len(got) != len(domains) {
			r.Fatalf("expected %d domains, got %d (%q)", len(domains), len(got), rule)
		}
		for i := range domains {
			if got[i] != domains[i] {
				r.Fatalf("domain %d: expected %q, got %q", i, domains[i], got[i])
			}
		}
	})
}
