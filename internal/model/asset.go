package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidSpec marks malformed or semantically invalid run input. It is
// fatal and must be surfaced before any remote query is issued.
var ErrInvalidSpec = errors.New("invalid spec")

// AssetSpec is one seed-filter criterion: accounts qualify for Symbol when
// their net accumulation over the seed window is at least MinUnits.
type AssetSpec struct {
	Symbol   string
	MinUnits decimal.Decimal
}

// Validate checks for a non-empty symbol and a positive threshold.
func (s AssetSpec) Validate() error {
	if strings.TrimSpace(s.Symbol) == "" {
		return fmt.Errorf("%w: empty symbol", ErrInvalidSpec)
	}
	if s.MinUnits.Sign() <= 0 {
		return fmt.Errorf("%w: threshold for %s must be positive, got %s", ErrInvalidSpec, s.Symbol, s.MinUnits)
	}
	return nil
}

// CombineMode selects the set logic for multi-spec seed resolution.
type CombineMode string

const (
	CombineAny CombineMode = "any" // union: qualify on at least one spec
	CombineAll CombineMode = "all" // intersection: qualify on every spec
)

// ParseCombineMode parses a combine mode string, defaulting empty to any.
func ParseCombineMode(s string) (CombineMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return CombineAny, nil
	case "all":
		return CombineAll, nil
	default:
		return "", fmt.Errorf("%w: unknown combine mode %q", ErrInvalidSpec, s)
	}
}

// ParseTokenList decodes a JSON array of [symbol, minUnits] pairs into
// validated AssetSpecs, e.g. `[["AAVE",100],["SNX",200],["REN",10000]]`.
// Thresholds may be JSON numbers or numeric strings; anything else is
// rejected at the boundary rather than propagated into the engine.
func ParseTokenList(raw string) ([]AssetSpec, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var entries [][]any
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: token list is not a JSON array of pairs: %v", ErrInvalidSpec, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: empty token list", ErrInvalidSpec)
	}

	specs := make([]AssetSpec, 0, len(entries))
	for i, entry := range entries {
		if len(entry) != 2 {
			return nil, fmt.Errorf("%w: entry %d has %d elements, want [symbol, minUnits]", ErrInvalidSpec, i, len(entry))
		}
		symbol, ok := entry[0].(string)
		if !ok {
			return nil, fmt.Errorf("%w: entry %d symbol is not a string", ErrInvalidSpec, i)
		}
		units, err := toDecimal(entry[1])
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d (%s): %v", ErrInvalidSpec, i, symbol, err)
		}
		spec := AssetSpec{Symbol: symbol, MinUnits: units}
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case json.Number:
		return decimal.NewFromString(n.String())
	case string:
		return decimal.NewFromString(n)
	default:
		return decimal.Zero, fmt.Errorf("threshold %v is not numeric", v)
	}
}
