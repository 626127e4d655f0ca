/*
identity.go - What "the same part" means

Purchases and sales are typed in by hand, so the number/name pair of one
part is not always consistent across rows. Two lookup policies exist:

  FindStrict: number AND name must belong to the same stock entry. Used to
              gate sales, so a sale cannot land on a part that exists only
              by number or only by name.
  FindLoose:  number match first, name match as fallback. The number wins
              because it is the more specific identifier.

Names compare case-insensitively, numbers compare exactly.
*/
package inventory

import "strings"

// UnassignedKey is the identity key of a record with neither number nor name.
const UnassignedKey = "PN-UNASSIGNED"

// IdentityKey groups transactions for reconciliation: the part number when
// present, else the part name, else UnassignedKey.
func IdentityKey(partNumber, partName string) string {
	if n := strings.TrimSpace(partNumber); n != "" {
		return n
	}
	if n := strings.TrimSpace(partName); n != "" {
		return n
	}
	return UnassignedKey
}

// FindStrict returns the index of the stock entry matching both partNumber
// and partName, or -1. Both inputs are required.
func FindStrict(stock []StockRecord, partNumber, partName string) int {
	if partNumber == "" || partName == "" {
		return -1
	}
	for i, s := range stock {
		if s.PartNumber == partNumber && strings.EqualFold(s.PartName, partName) {
			return i
		}
	}
	return -1
}

// FindLoose returns the first entry matching partNumber, falling back to the
// first entry matching partName, or -1.
func FindLoose(stock []StockRecord, partNumber, partName string) int {
	if partNumber != "" {
		for i, s := range stock {
			if s.PartNumber == partNumber {
				return i
			}
		}
	}
	if partName != "" {
		for i, s := range stock {
			if strings.EqualFold(s.PartName, partName) {
				return i
			}
		}
	}
	return -1
}

// sameIdentity reports whether a record matches an old identity on either
// field. Empty old values never match.
func sameIdentity(partNumber, partName, oldNumber, oldName string) bool {
	if oldNumber != "" && partNumber == oldNumber {
		return true
	}
	return oldName != "" && strings.EqualFold(partName, oldName)
}
