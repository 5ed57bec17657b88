package models

// ReconcileDuplicates splits customers, already sorted newest first, into the
// ones to keep and the ones to remove: the first customer seen for a phone is
// kept and later ones with the same phone are removed. Customers without a
// phone have no key to group on and are always kept.
func ReconcileDuplicates(customers []Customer) (keep, remove []Customer) {
	seen := make(map[string]struct{}, len(customers))
	for _, c := range customers {
		if c.Phone == "" {
			keep = append(keep, c)
			continue
		}
		if _, dup := seen[c.Phone]; dup {
			remove = append(remove, c)
			continue
		}
		seen[c.Phone] = struct{}{}
		keep = append(keep, c)
	}
	return keep, remove
}
