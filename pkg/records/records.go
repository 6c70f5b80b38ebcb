// Package records defines the DNS records meshdns produces and the sink
// that writes them in the format Headscale's extra_records_path expects.
package records

import "strings"

// RecordType is the DNS record type of an extra record. Headscale accepts
// A and AAAA; meshdns never produces anything else.
type RecordType string

// Supported record types, spelled as in zone files.
const (
	TypeA    RecordType = "A"
	TypeAAAA RecordType = "AAAA"
)

// TypeFor infers the record type from an address: anything containing a
// colon is IPv6.
func TypeFor(address string) RecordType {
	if strings.Contains(address, ":") {
		return TypeAAAA
	}
	return TypeA
}

// DNSRecord is one extra record entry.
type DNSRecord struct {
	Name  string     `json:"name" yaml:"name"`
	Type  RecordType `json:"type" yaml:"type"`
	Value string     `json:"value" yaml:"value"`
}

// New builds a record for name pointing at address, inferring the type.
func New(name, address string) DNSRecord {
	return DNSRecord{Name: name, Type: TypeFor(address), Value: address}
}

// Key identifies a record for deduplication. The value is not part of the
// identity: the first address seen for a name and type wins.
type Key struct {
	Name string
	Type RecordType
}

// KeyOf returns the deduplication key of a record.
func KeyOf(r DNSRecord) Key {
	return Key{Name: r.Name, Type: r.Type}
}

// Set is an insertion-ordered set of records keyed by Key.
type Set struct {
	records []DNSRecord
	index   map[Key]struct{}
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{records: []DNSRecord{}, index: make(map[Key]struct{})}
}

// Contains reports whether a record with the same key is already present.
func (s *Set) Contains(r DNSRecord) bool {
	_, ok := s.index[KeyOf(r)]
	return ok
}

// Add appends r unless a record with the same key exists. It reports
// whether r was added.
func (s *Set) Add(r DNSRecord) bool {
	if s.Contains(r) {
		return false
	}
	s.index[KeyOf(r)] = struct{}{}
	s.records = append(s.records, r)
	return true
}

// Len returns the number of records in the set.
func (s *Set) Len() int {
	return len(s.records)
}

// Records returns a copy of the records in insertion order.
func (s *Set) Records() []DNSRecord {
	out := make([]DNSRecord, len(s.records))
	copy(out, s.records)
	return out
}
