// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package units

import "strconv"

// Denominations of value
// LUX uses 6 decimals, so every amount handled by the chain is a uint64 count of MicroLux.
const (
	MicroLux uint64 = 1               // Base unit - 0.000001 LUX
	MilliLux uint64 = 1000 * MicroLux // 0.001 LUX
	Lux      uint64 = 1000 * MilliLux // 1 LUX = 10^6 microLUX
	KiloLux  uint64 = 1000 * Lux      // 1,000 LUX
)

// Format renders a MicroLux amount as a decimal LUX string, e.g. "1.5".
func Format(amount uint64) string {
	whole := strconv.FormatUint(amount/Lux, 10)
	frac := amount % Lux
	if frac == 0 {
		return whole
	}
	digits := strconv.FormatUint(frac+Lux, 10)[1:] // left-pad to 6 digits
	for digits[len(digits)-1] == '0' {
		digits = digits[:len(digits)-1]
	}
	return whole + "." + digits
}
