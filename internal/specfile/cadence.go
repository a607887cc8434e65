package specfile

import (
	"regexp"
	"strconv"

	"github.com/emergent-company/ecsgen/internal/model"
)

// cadenceRegex matches the fixed-cadence grammar from spec §6:
// "<number> Hz" / "<number>Hz" / "<number> s" / "<number>s".
var cadenceRegex = regexp.MustCompile(`^([0-9]+(?:\.[0-9]+)?)\s*(Hz|s)$`)

// ParseFixedCadence parses a phase's `fixed` string into a period expressed
// in seconds, per the grammar in spec §6. Fails with
// *model.InvalidFixedCadence if value does not match the grammar or yields a
// non-positive period (invariant 8).
func ParseFixedCadence(value string) (model.FixedCadence, error) {
	m := cadenceRegex.FindStringSubmatch(value)
	if m == nil {
		return model.FixedCadence{}, &model.InvalidFixedCadence{Value: value}
	}

	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil || n <= 0 {
		return model.FixedCadence{}, &model.InvalidFixedCadence{Value: value}
	}

	var period float64
	switch m[2] {
	case "Hz":
		period = 1 / n
	case "s":
		period = n
	}

	if period <= 0 {
		return model.FixedCadence{}, &model.InvalidFixedCadence{Value: value}
	}

	return model.FixedCadence{PeriodSeconds: period}, nil
}
