// Package reconcile computes and records the difference between the domains a search
// API currently reports and the domains the event log considers active.
package reconcile

import (
	"sort"

	"github.com/JacobBogossian/DomainTracker/internal/model"
)

// KeyFunc maps a domain to the key used for comparison. A nil KeyFunc compares domains exactly.
type KeyFunc func(domain string) string

// Plan is the set of events one run needs to write
type Plan struct {
	Additions []string
	Removals  []string
}

// IsEmpty reports whether the run has nothing to write
func (p Plan) IsEmpty() bool {
	return len(p.Additions) == 0 && len(p.Removals) == 0
}

// ComputeAdditions returns every domain in snapshot that is not in active, sorted
func ComputeAdditions(snapshot, active model.DomainSet) []string {
	return Diff(snapshot, active, nil).Additions
}

// ComputeRemovals returns every domain in active that is not in snapshot, sorted
func ComputeRemovals(snapshot, active model.DomainSet) []string {
	return Diff(snapshot, active, nil).Removals
}

// Diff compares snapshot and active under key.
// Additions carry the snapshot's spelling of a domain and removals carry the active
// set's, so a removal always names the exact domain that was stored.
func Diff(snapshot, active model.DomainSet, key KeyFunc) Plan {
	if key == nil {
		key = identity
	}

	snapshotKeys := keySet(snapshot, key)
	activeKeys := keySet(active, key)

	plan := Plan{
		Additions: []string{},
		Removals:  []string{},
	}

	for domain := range snapshot {
		if !activeKeys.Has(key(domain)) {
			plan.Additions = append(plan.Additions, domain)
		}
	}
	for domain := range active {
		if !snapshotKeys.Has(key(domain)) {
			plan.Removals = append(plan.Removals, domain)
		}
	}

	sort.Strings(plan.Additions)
	sort.Strings(plan.Removals)
	plan.Additions = dedupeByKey(plan.Additions, key)

	return plan
}

// dedupeByKey keeps the first domain of each key so two snapshot spellings that
// normalize together produce one addition.
func dedupeByKey(domains []string, key KeyFunc) []string {
	seen := model.NewDomainSet()
	out := domains[:0]
	for _, domain := range domains {
		k := key(domain)
		if seen.Has(k) {
			continue
		}
		seen.Add(k)
		out = append(out, domain)
	}
	return out
}

func keySet(domains model.DomainSet, key KeyFunc) model.DomainSet {
	keys := make(model.DomainSet, len(domains))
	for domain := range domains {
		keys.Add(key(domain))
	}
	return keys
}

func identity(domain string) string {
	return domain
}
