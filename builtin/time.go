package builtin

import (
	"time"

	"github.com/wippyai/policyvm/errs"
	"github.com/wippyai/policyvm/value"
)

func init() {
	register0("time.now_ns", builtinTimeNowNS)
	register1("time.clock", builtinTimeClock)
	register1("time.date", builtinTimeDate)
	register1("time.weekday", builtinTimeWeekday)
	register1("time.parse_rfc3339_ns", builtinTimeParseRFC3339NS)
}

func builtinTimeNowNS() (value.Value, error) {
	return value.Int(time.Now().UnixNano()), nil
}

func builtinTimeParseRFC3339NS(a value.Value) (value.Value, error) {
	s, ok := a.(value.String)
	if !ok {
		return nil, errs.InvalidType("string", a.Kind().String())
	}
	t, err := time.Parse(time.RFC3339, string(s))
	if err != nil {
		return nil, errs.ParseDatetime(err)
	}
	return value.Int(t.UnixNano()), nil
}

// timeAndZone unpacks the i64|[i64,tz] argument shape shared by
// time.clock/date/weekday and resolves the named zone.
func timeAndZone(a value.Value) (time.Time, error) {
	var ns int64
	var tz string

	switch tv := a.(type) {
	case value.Number:
		i, err := tv.Int64()
		if err != nil {
			return time.Time{}, err
		}
		ns = i
	case value.Array:
		if len(tv) != 2 {
			return time.Time{}, errs.New(errs.PhaseDispatch, errs.KindInvalidSeqLen).
				Detail("time argument array must have 2 elements, got %d", len(tv)).Build()
		}
		n, ok := tv[0].(value.Number)
		if !ok {
			return time.Time{}, errs.InvalidType("number", tv[0].Kind().String())
		}
		i, err := n.Int64()
		if err != nil {
			return time.Time{}, err
		}
		ns = i
		s, ok := tv[1].(value.String)
		if !ok {
			return time.Time{}, errs.InvalidType("string", tv[1].Kind().String())
		}
		tz = string(s)
	default:
		return time.Time{}, errs.InvalidType("number or [number, string]", a.Kind().String())
	}

	loc, err := resolveLocation(tz)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, ns).In(loc), nil
}

// resolveLocation maps ""/"UTC" to UTC, "Local" to the system zone, and
// anything else to an IANA zone name, with unknown names failing as
// UnknownTimezone.
func resolveLocation(tz string) (*time.Location, error) {
	switch tz {
	case "", "UTC":
		return time.UTC, nil
	case "Local":
		return time.Local, nil
	default:
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, errs.UnknownTimezone(tz)
		}
		return loc, nil
	}
}

func builtinTimeClock(a value.Value) (value.Value, error) {
	t, err := timeAndZone(a)
	if err != nil {
		return nil, err
	}
	h, m, s := t.Clock()
	return value.Array{value.Int(int64(h)), value.Int(int64(m)), value.Int(int64(s))}, nil
}

func builtinTimeDate(a value.Value) (value.Value, error) {
	t, err := timeAndZone(a)
	if err != nil {
		return nil, err
	}
	y, mo, d := t.Date()
	return value.Array{value.Int(int64(y)), value.Int(int64(mo)), value.Int(int64(d))}, nil
}

func builtinTimeWeekday(a value.Value) (value.Value, error) {
	t, err := timeAndZone(a)
	if err != nil {
		return nil, err
	}
	return value.String(t.Weekday().String()), nil
}
