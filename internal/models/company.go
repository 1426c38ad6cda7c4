package models

import "slices"

// CompanyRecord is one deduplicated legal entity. Name keeps the first-seen
// variant; Aliases accumulates every distinct variant ever observed and is
// append-only.
type CompanyRecord struct {
	Name    string   `json:"name"`
	TaxID   string   `json:"tax-id"`
	Aliases []string `json:"aliases"`
}

// AddAlias records a name variant. Membership is exact-string and
// case-sensitive on purpose: the sources never evidenced an intent to merge
// case or whitespace variants. Returns true when the alias was new.
func (c *CompanyRecord) AddAlias(name string) bool {
	if slices.Contains(c.Aliases, name) {
		return false
	}

	c.Aliases = append(c.Aliases, name)

	return true
}
