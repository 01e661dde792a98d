package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// EntityType identifies the kind of audited entity. It is persisted as a
// small integer code.
type EntityType int16

const (
	EntityTypeGeneric EntityType = 0
)

var entityTypeNames = map[EntityType]string{
	EntityTypeGeneric: "Generic",
}

func (e EntityType) String() string {
	if name, ok := entityTypeNames[e]; ok {
		return name
	}
	return strconv.Itoa(int(e))
}

func (e EntityType) IsValid() bool {
	_, ok := entityTypeNames[e]
	return ok
}

// ParseEntityType accepts either the numeric code ("0") or the
// case-insensitive name ("Generic").
func ParseEntityType(s string) (EntityType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, NewValidationError("entity_type", "required")
	}

	if code, err := strconv.ParseInt(s, 10, 16); err == nil {
		et := EntityType(code)
		if !et.IsValid() {
			return 0, NewValidationError("entity_type", fmt.Sprintf("unknown code %d", code))
		}
		return et, nil
	}

	for et, name := range entityTypeNames {
		if strings.EqualFold(name, s) {
			return et, nil
		}
	}
	return 0, NewValidationError("entity_type", fmt.Sprintf("unknown entity type %q", s))
}

// OrderPolicy decides what Submit does with a write whose transaction time
// is earlier than the partition head.
type OrderPolicy string

const (
	// OrderPolicyReject refuses the write with ErrOutOfOrder.
	OrderPolicyReject OrderPolicy = "reject"
	// OrderPolicyLatest diffs against the latest state and chains the write
	// to the head regardless of its transaction time.
	OrderPolicyLatest OrderPolicy = "latest"
)

func (p OrderPolicy) String() string { return string(p) }

func (p OrderPolicy) IsValid() bool {
	switch p {
	case OrderPolicyReject, OrderPolicyLatest:
		return true
	}
	return false
}
