package bignum

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// ErrSyntax is returned by Parse for malformed input.
var ErrSyntax = errors.New("bignum: invalid syntax")

// humanizeLimit is the magnitude below which String uses grouped digits
// instead of scientific notation.
const humanizeLimit = 6

// Parse reads decimal or scientific notation. The exponent part may exceed
// the float64 range ("1.5e400"). Underscores and commas are ignored.
func Parse(s string) (Number, error) {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("_", "", ",", "").Replace(s)
	if s == "" {
		return Zero, fmt.Errorf("%w: empty string", ErrSyntax)
	}

	mant, exp, scientific := s, "", false
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		mant, exp, scientific = s[:i], s[i+1:], true
	}

	m, err := strconv.ParseFloat(mant, 64)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrSyntax, s)
	}
	e := 0
	if scientific {
		e, err = strconv.Atoi(exp)
		if err != nil {
			return Zero, fmt.Errorf("%w: exponent in %q", ErrSyntax, s)
		}
	}
	return New(m, e), nil
}

// MustParse is Parse for literals known to be valid. It panics on error.
func MustParse(s string) Number {
	n, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return n
}

// String renders small magnitudes with digit grouping ("12,345.6") and the
// rest in scientific notation ("1.235e45").
func (n Number) String() string {
	if n.IsZero() {
		return "0"
	}
	if n.e < humanizeLimit && n.e >= -2 {
		return humanize.CommafWithDigits(n.Float(), 2)
	}
	return fmt.Sprintf("%.3fe%d", n.m, n.e)
}

// Text is a lossless rendering accepted by Parse.
func (n Number) Text() string {
	if n.IsZero() {
		return "0"
	}
	return strconv.FormatFloat(n.m, 'g', -1, 64) + "e" + strconv.Itoa(n.e)
}

type pair struct {
	M float64 `json:"m" yaml:"m"`
	E int     `json:"e" yaml:"e"`
}

// MarshalJSON encodes n as {"m": mantissa, "e": exponent}.
func (n Number) MarshalJSON() ([]byte, error) {
	return json.Marshal(pair{M: n.m, E: n.e})
}

// UnmarshalJSON accepts the pair object, a JSON number, or a string for Parse.
// Pairs are re-normalized.
func (n *Number) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*n = Zero
		return nil
	case strings.HasPrefix(trimmed, "{"):
		var p pair
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*n = New(p.M, p.E)
		return nil
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := Parse(s)
		if err != nil {
			return err
		}
		*n = v
		return nil
	}
	v, err := Parse(trimmed)
	if err != nil {
		return err
	}
	*n = v
	return nil
}

// UnmarshalYAML accepts scalars ("10", "1.5e400") and {m, e} mappings.
func (n *Number) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		v, err := Parse(value.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", value.Line, err)
		}
		*n = v
		return nil
	case yaml.MappingNode:
		var p pair
		if err := value.Decode(&p); err != nil {
			return err
		}
		*n = New(p.M, p.E)
		return nil
	}
	return fmt.Errorf("line %d: %w: expected scalar or mapping", value.Line, ErrSyntax)
}

// MarshalYAML writes the lossless Text form.
func (n Number) MarshalYAML() (any, error) {
	return n.Text(), nil
}
