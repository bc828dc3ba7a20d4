package integration

import (
	"fmt"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// UUID Conversion
// ---------------------------------------------------------------------------

// The catalog issues random (version 4) UUIDs while the POS only accepts
// time-based (version 1) UUIDs. ConvertUUIDToV1 rewrites the version nibble,
// which is injective over identifiers that share a version, i.e. everything
// the catalog issues.

const (
	versionV1      = 0x10
	localIDVersion = uuid.Version(4)
)

// ConvertUUIDToV1 converts a local identifier into the identifier used by the POS.
// The conversion is pure and stable across sync runs.
func ConvertUUIDToV1(id uuid.UUID) uuid.UUID {
	out := id
	out[6] = (out[6] & 0x0f) | versionV1
	return out
}

// IncrementUUID derives a second identifier from id. It is used to synthesize
// the variant identifier of a standalone product, because the POS models every
// product with at least one variant.
//
// The 48-bit node field (bytes 10..15) is incremented modulo 2^48. Version and
// variant bits are left untouched, so the result is never equal to id and two
// distinct inputs never share an output.
func IncrementUUID(id uuid.UUID) uuid.UUID {
	out := id
	for i := 15; i >= 10; i-- {
		out[i]++
		if out[i] != 0 {
			break
		}
	}
	return out
}

// ParseIdentifier parses a local identifier in either the 32 character hex
// form or the canonical hyphenated form. Only version 4 identifiers are
// accepted, the domain on which ConvertUUIDToV1 is injective.
func ParseIdentifier(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q: %v", ErrInvalidIdentifier, s, err)
	}
	if id.Version() != localIDVersion {
		return uuid.Nil, fmt.Errorf("%w: %q: version %d, want %d", ErrInvalidIdentifier, s, id.Version(), localIDVersion)
	}
	return id, nil
}

// ConvertIdentifier parses s and converts it for the POS in one step.
func ConvertIdentifier(s string) (string, error) {
	id, err := ParseIdentifier(s)
	if err != nil {
		return "", err
	}
	return ConvertUUIDToV1(id).String(), nil
}
