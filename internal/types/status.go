package types

// Status is the open-ended character state mapping: hit points,
// money sub-mapping, experience, conditions, proficiencies and so on.
// Values are restricted to what JSON can carry (numbers, strings,
// booleans, nested mappings, lists).
type Status map[string]any

// Well-known status keys the engine reads or writes.
const (
	StatusHPCurrent = "hp_current"
	StatusHPMax     = "hp_max"
	StatusMoney     = "money"
	StatusXP        = "xp"
)

// CurrencyCodes are the coin denominations tracked under the money
// sub-mapping, in descending value order.
var CurrencyCodes = []string{"pp", "gp", "ep", "sp", "cp"}

// Merge applies update onto current with shallow top-level replace
// semantics: a key present in update overwrites the stored key in
// full, keys absent from update are preserved untouched. There is no
// recursive merge into nested mappings; replacing only named keys is
// what keeps an hp-only update from wiping inventory or money.
// Neither input is mutated.
func Merge(current, update Status) Status {
	merged := make(Status, len(current)+len(update))
	for k, v := range current {
		merged[k] = v
	}
	for k, v := range update {
		merged[k] = v
	}
	return merged
}

// IntValue reads a numeric status entry, tolerating the float64 values
// produced by JSON decoding.
func (s Status) IntValue(key string) (int, bool) {
	switch v := s[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
