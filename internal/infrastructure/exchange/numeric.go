package exchange

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// number decodes either a JSON number or a string-encoded numeric.
// A missing or null field leaves it unset.
type number struct {
	value float64
	set   bool
}

func (n *number) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid numeric %q: %w", raw, err)
	}
	n.value, n.set = v, true
	return nil
}

// fields extracts required numerics, remembering the first failure.
type fields struct {
	err error
}

func (f *fields) get(name string, n number) float64 {
	if f.err != nil {
		return 0
	}
	if !n.set {
		f.err = fmt.Errorf("missing field %q", name)
		return 0
	}
	if math.IsNaN(n.value) || math.IsInf(n.value, 0) {
		f.err = fmt.Errorf("non-finite field %q", name)
		return 0
	}
	return n.value
}

func (f *fields) at(name string, arr []number, i int) float64 {
	if f.err != nil {
		return 0
	}
	if i >= len(arr) {
		f.err = fmt.Errorf("field %q has %d elements, need index %d", name, len(arr), i)
		return 0
	}
	return f.get(fmt.Sprintf("%s[%d]", name, i), arr[i])
}
