// Package loader resolves identities and writes canonical records into the
// document store idempotently.
package loader

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
)

// docID derives a deterministic document id from natural-key fields. Fields
// are hashed in sorted key order with separators, so the id depends only on
// the key/value set, never on call order or process state.
func docID(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	h := sha1.New()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0x00})
		h.Write([]byte(fields[k]))
		h.Write([]byte{0x1e})
	}

	return hex.EncodeToString(h.Sum(nil))
}

// CompanyID is the stable identity of a company, derived from its normalized
// tax id alone.
func CompanyID(taxID string) string {
	return docID(map[string]string{"tax-id": taxID})
}

// ContractID is the stable identity of a contract. The reference is reused
// across amendments, so it is combined with the file number.
func ContractID(reference, fileNumber string) string {
	return docID(map[string]string{"reference": reference, "file-number": fileNumber})
}
