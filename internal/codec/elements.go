package codec

import (
	"math"
	"strconv"
	"strings"
	"time"

	"AsteroSync/internal/utils"
)

// tpTimestampLayout is the microsecond-precision layout the orbit table uses
// for the time of perihelion.
const tpTimestampLayout = "2006-01-02 15:04:05.000000"

// maxOffsetDays bounds the fast perihelion path. Offsets up to this many days
// fit a time.Duration in nanoseconds; larger ones go through Julian-day float
// arithmetic instead.
const maxOffsetDays = 106000

// DerivedElements carries the values computed from the primary orbital
// elements, already formatted for the output tables.
type DerivedElements struct {
	Q   string // perihelion distance, AU
	Ad  string // aphelion distance, AU
	Per string // orbital period, days
	Tp  string // time of perihelion passage, timestamp or empty
}

// parseElement reads a numeric element field, defaulting to zero when the
// field is empty or malformed.
func parseElement(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

// ComputeDerived calculates perihelion and aphelion distances, the orbital
// period and the time of perihelion from eccentricity e, semi-major axis a,
// mean motion n and mean anomaly ma, with the epoch as an ISO date string.
func ComputeDerived(e, a, n, ma, epochISO string) DerivedElements {
	eF := parseElement(e)
	aF := parseElement(a)
	nF := parseElement(n)
	maF := parseElement(ma)

	var d DerivedElements
	d.Q = utils.FormatFloat(aF*(1.0-eF), 10)
	d.Ad = utils.FormatFloat(aF*(1.0+eF), 10)
	if nF != 0 {
		d.Per = utils.FormatFloat(360.0/nF, 5)
	} else {
		d.Per = "0"
	}
	d.Tp = timeOfPerihelion(epochISO, maF, nF)
	return d
}

// timeOfPerihelion subtracts ma/n days from the epoch. Offsets inside the
// duration-safe bound use time arithmetic directly; anything larger falls back
// to Julian-day float arithmetic, and returns empty when even that leaves the
// representable calendar.
func timeOfPerihelion(epochISO string, ma, n float64) string {
	if epochISO == "" || n == 0 {
		return ""
	}
	offsetDays := ma / n
	if math.IsNaN(offsetDays) || math.IsInf(offsetDays, 0) {
		return ""
	}

	epoch, err := time.Parse("2006-01-02", epochISO)
	if err != nil {
		return ""
	}

	if math.Abs(offsetDays) <= maxOffsetDays {
		offset := time.Duration(offsetDays * 24 * float64(time.Hour))
		return epoch.Add(-offset).UTC().Format(tpTimestampLayout)
	}

	jd := julianDay(epoch.Year(), int(epoch.Month()), epoch.Day()) - offsetDays
	tp, ok := fromJulianDay(jd)
	if !ok {
		return ""
	}
	return tp.Format(tpTimestampLayout)
}

// julianDay returns the Julian day number at 00:00 UT of a Gregorian date.
func julianDay(year, month, day int) float64 {
	a := (14 - month) / 12
	y := year + 4800 - a
	m := month + 12*a - 3
	jdn := day + (153*m+2)/5 + 365*y + y/4 - y/100 + y/400 - 32045
	return float64(jdn) - 0.5
}

// fromJulianDay converts a (possibly fractional) Julian day back to a UTC
// timestamp. Dates outside years 1..9999 are rejected.
func fromJulianDay(jd float64) (time.Time, bool) {
	if math.IsNaN(jd) || jd < 0 || jd > 5373484.5 {
		return time.Time{}, false
	}

	z := math.Floor(jd + 0.5)
	f := jd + 0.5 - z

	a := int64(z)
	if a >= 2299161 {
		alpha := int64((float64(a) - 1867216.25) / 36524.25)
		a = a + 1 + alpha - alpha/4
	}
	b := a + 1524
	c := int64((float64(b) - 122.1) / 365.25)
	d := int64(365.25 * float64(c))
	e := int64(float64(b-d) / 30.6001)

	day := b - d - int64(30.6001*float64(e))
	month := e - 1
	if e >= 14 {
		month = e - 13
	}
	year := c - 4716
	if month <= 2 {
		year = c - 4715
	}

	if year < 1 || year > 9999 {
		return time.Time{}, false
	}

	dayFraction := time.Duration(f * 24 * float64(time.Hour))
	t := time.Date(int(year), time.Month(month), int(day), 0, 0, 0, 0, time.UTC)
	return t.Add(dayFraction), true
}
