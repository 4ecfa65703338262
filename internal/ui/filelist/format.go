package filelist

import (
	"fmt"
	"math"
	"strconv"
)

var byteUnits = []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB", "EiB", "ZiB", "YiB"}

// FormatBytes renders a size change with a binary unit and one decimal,
// e.g. "+1.5 KiB" or "-64 B". Zero is "+/-0 B".
func FormatBytes(bytes int64) string {
	if bytes == 0 {
		return "+/-0 B"
	}
	abs := math.Abs(float64(bytes))
	exponent := 0
	for abs >= 1024 && exponent < len(byteUnits)-1 {
		abs /= 1024
		exponent++
	}
	value := math.Round(float64(bytes)/math.Pow(1024, float64(exponent))*10) / 10
	prefix := ""
	if bytes > 0 {
		prefix = "+"
	}
	return prefix + strconv.FormatFloat(value, 'f', -1, 64) + " " + byteUnits[exponent]
}

// FormatPercentage renders delta relative to the size before the change,
// e.g. "(+10%)". It is empty when there was nothing before.
func FormatPercentage(size, delta int64) string {
	old := size - delta
	if old == 0 {
		return ""
	}
	percentage := math.Round(math.Abs(float64(delta) * 100 / float64(old)))
	sign := "-"
	if delta > 0 {
		sign = "+"
	}
	return fmt.Sprintf("(%s%d%%)", sign, int64(percentage))
}
