// Package dice parses dice notation and resolves rolls with a
// cryptographically secure random source.
package dice

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

const (
	// MaxDice caps the number of dice in one expression so a single
	// roll cannot produce an unbounded result payload.
	MaxDice = 100
	// MinSides and MaxSides bound the die type.
	MinSides = 2
	MaxSides = 1000
)

// ErrInvalidExpression indicates the notation did not match `NdS[+/-M]`.
var ErrInvalidExpression = errors.New("invalid dice expression")

// ErrTooManyDice indicates the dice count exceeds MaxDice.
var ErrTooManyDice = errors.New("too many dice")

// ErrInvalidSides indicates the die type is outside [MinSides, MaxSides].
var ErrInvalidSides = errors.New("invalid number of sides")

var notation = regexp.MustCompile(`^(\d+)d(\d+)([+-]\d+)?$`)

// Result is the outcome of one resolved expression. It is ephemeral:
// the engine never persists it.
type Result struct {
	Expression string `json:"expression"`
	Rolls      []int  `json:"rolls"`
	Modifier   int    `json:"modifier"`
	Total      int    `json:"total"`
	Natural20  bool   `json:"natural_20"`
	Natural1   bool   `json:"natural_1"`
}

// Roll parses an expression of the form `<count>d<sides>[+|-<modifier>]`
// (case and whitespace insensitive) and rolls it. Each outcome is drawn
// uniformly from [1, sides] using crypto/rand; results can be
// narratively consequential, so a predictable source is not acceptable.
// The natural 20/1 flags are only meaningful for d20 rolls and stay
// false for every other die type.
func Roll(expression string) (Result, error) {
	expr := strings.ToLower(strings.ReplaceAll(expression, " ", ""))

	m := notation.FindStringSubmatch(expr)
	if m == nil {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidExpression, expression)
	}

	count, err := strconv.Atoi(m[1])
	if err != nil || count < 1 {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidExpression, expression)
	}
	sides, err := strconv.Atoi(m[2])
	if err != nil {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidExpression, expression)
	}
	modifier := 0
	if m[3] != "" {
		if modifier, err = strconv.Atoi(m[3]); err != nil {
			return Result{}, fmt.Errorf("%w: %q", ErrInvalidExpression, expression)
		}
	}

	if count > MaxDice {
		return Result{}, fmt.Errorf("%w: max %d", ErrTooManyDice, MaxDice)
	}
	if sides < MinSides || sides > MaxSides {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidSides, sides)
	}

	result := Result{
		Expression: expr,
		Rolls:      make([]int, 0, count),
		Modifier:   modifier,
	}
	for i := 0; i < count; i++ {
		outcome, err := secureIntn(sides)
		if err != nil {
			return Result{}, fmt.Errorf("failed to draw random outcome: %w", err)
		}
		result.Rolls = append(result.Rolls, outcome)
		result.Total += outcome
		if sides == 20 {
			switch outcome {
			case 20:
				result.Natural20 = true
			case 1:
				result.Natural1 = true
			}
		}
	}
	result.Total += modifier

	return result, nil
}

// secureIntn returns a uniform integer in [1, n].
func secureIntn(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()) + 1, nil
}
