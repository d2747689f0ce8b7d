package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Cents is a price in integer hundredths of a dollar.
//
// Catalogs carry prices as JSON numbers (49.99); Cents rounds them to the
// nearest cent on decode and renders them back as two-decimal numbers, so
// sums are exact and summaries never drift.
type Cents int64

// MaxCents bounds a decoded price: the largest cent count a float64 holds
// exactly. Carts of up to 1024 such prices still sum without overflow.
const MaxCents Cents = 1 << 53

// CentsFromFloat rounds a dollar amount to the nearest cent.
func CentsFromFloat(dollars float64) Cents {
	return Cents(math.Round(dollars * 100))
}

// String formats c as "123.45" (no currency symbol).
func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON renders c as a decimal JSON number.
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalJSON accepts a JSON number, a numeric string, or null (zero).
func (c *Cents) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid price %q: %w", data, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("invalid price %q", data)
	}
	if math.Abs(math.Round(f*100)) > float64(MaxCents) {
		return fmt.Errorf("price %q out of range", data)
	}
	*c = CentsFromFloat(f)
	return nil
}
