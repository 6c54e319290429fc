package model

import "sort"

// DomainSet is an unordered set of domain names
type DomainSet map[string]struct{}

// NewDomainSet creates a set holding the given domains
func NewDomainSet(domains ...string) DomainSet {
	set := make(DomainSet, len(domains))
	for _, domain := range domains {
		set.Add(domain)
	}
	return set
}

func (s DomainSet) Add(domain string) {
	s[domain] = struct{}{}
}

func (s DomainSet) Has(domain string) bool {
	_, ok := s[domain]
	return ok
}

func (s DomainSet) Len() int {
	return len(s)
}

// Sorted returns the members in ascending order
func (s DomainSet) Sorted() []string {
	domains := make([]string, 0, len(s))
	for domain := range s {
		domains = append(domains, domain)
	}
	sort.Strings(domains)
	return domains
}
