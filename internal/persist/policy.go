package persist

import (
	"fmt"
	"strings"
)

type Strategy string

const (
	Debounced Strategy = "debounced"
	Immediate Strategy = "immediate"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case Debounced:
		return Debounced, nil
	case Immediate:
		return Immediate, nil
	}
	return "", fmt.Errorf("unknown save strategy %q", s)
}

type Mutation string

const (
	Create Mutation = "create"
	Update Mutation = "update"
	Delete Mutation = "delete"
)

// Policy names the save strategy for each kind of mutation. Creates and
// deletes save immediately because losing them is visible data loss; updates
// ride the debounced bulk save.
type Policy map[Mutation]Strategy

func DefaultPolicy() Policy {
	return Policy{
		Create: Immediate,
		Update: Debounced,
		Delete: Immediate,
	}
}

// For returns the strategy for m, falling back to the default table.
func (p Policy) For(m Mutation) Strategy {
	if s, ok := p[m]; ok {
		return s
	}
	return DefaultPolicy()[m]
}
