package domain

// stableDigit folds the UTF-16 code units of s into a 31-bit style string hash
// (hash = code + (hash << 5) - hash, shift in signed 32-bit) and reduces its
// absolute value to a digit in [0, 9]. The result is stable across processes.
func stableDigit(s string) int64 {
	var hash int64
	for _, code := range utf16Units(s) {
		shifted := int64(int32(uint32(hash)) << 5)
		hash = int64(code) + (shifted - hash)
	}
	if hash < 0 {
		hash = -hash
	}
	return hash % 10
}

func utf16Units(s string) []uint16 {
	units := make([]uint16, 0, len(s))
	for _, r := range s {
		if r >= 0x10000 {
			r -= 0x10000
			units = append(units, uint16(0xD800+(r>>10)), uint16(0xDC00+(r&0x3FF)))
			continue
		}
		units = append(units, uint16(r))
	}
	return units
}

// EstimateLevel returns a deterministic stand-in level for a device whose
// reading is zero or unparsable, so aggregate displays are not dragged toward
// zero by broken sensors. RED maps to 90-99, YELLOW to 75-84 and anything
// else to 10-64 in steps of 6. The value is never written back into state.
func EstimateLevel(deviceID string, status Status) float64 {
	d := stableDigit(deviceID)
	switch status {
	case StatusRed:
		return float64(90 + d)
	case StatusYellow:
		return float64(75 + d)
	default:
		return float64(10 + d*6)
	}
}

// EffectiveLevel is the device level as shown in aggregates: the reading
// itself, or EstimateLevel when the reading is zero or unparsable.
func EffectiveLevel(d DeviceState) float64 {
	if d.Level.IsZeroOrMissing() {
		return EstimateLevel(d.ID, d.Status)
	}
	return d.Level.Value
}
