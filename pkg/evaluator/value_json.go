package evaluator

import (
	"math"

	"github.com/thomasrohde/sack/pkg/formatter"
)

// valueToRaw converts v for trace event data. Integral numbers become int64
// so they encode without a decimal point; infinities and NaN, which JSON
// cannot represent, become their printed text.
func valueToRaw(v Value) any {
	switch val := v.(type) {
	case NumberVal:
		if math.IsInf(val.Value, 0) || math.IsNaN(val.Value) {
			return formatter.FormatNumber(val.Value)
		}
		if val.Value == math.Trunc(val.Value) && val.Value >= math.MinInt64 && val.Value < math.MaxInt64 {
			return int64(val.Value)
		}
		return val.Value
	case TextVal:
		return val.Value
	case BoolVal:
		return val.Value
	case BreakVal:
		return "break"
	}
	return nil
}
