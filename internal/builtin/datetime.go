package builtin

import "time"

// strftimeTable maps the common AWK/Rust strftime directives this engine's
// original_source exposes onto Go's reference-time layout.
var strftimeTable = map[byte]string{
	'Y': "2006", 'm': "01", 'd': "02", 'H': "15", 'M': "04", 'S': "05",
	'y': "06", 'b': "Jan", 'B': "January", 'a': "Mon", 'A': "Monday",
	'z': "-0700", 'Z': "MST", 'p': "PM",
}

// Strftime formats a unix timestamp using a subset of strftime directives,
// grounded on original_source's strftime (src/runtime/date_time.rs):
// standard library time formatting, since no third-party date/time library
// appears anywhere in the retrieval pack's manifests.
func Strftime(format string, unixSeconds int64) string {
	t := time.Unix(unixSeconds, 0).UTC()
	out := make([]byte, 0, len(format)*2)
	for i := 0; i < len(format); i++ {
		if format[i] == '%' && i+1 < len(format) {
			if layout, ok := strftimeTable[format[i+1]]; ok {
				out = append(out, t.Format(layout)...)
				i++
				continue
			}
		}
		out = append(out, format[i])
	}
	return string(out)
}

// Mktime parses a "YYYY MM DD HH MM SS" field list into a unix timestamp,
// matching frawk's mktime contract.
func Mktime(fields []int) int64 {
	for len(fields) < 6 {
		fields = append(fields, 0)
	}
	t := time.Date(fields[0], time.Month(fields[1]), fields[2], fields[3], fields[4], fields[5], 0, time.UTC)
	return t.Unix()
}

// Duration parses a Go-style duration string ("1h30m") into seconds.
func Duration(s string) (int64, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	return int64(d.Seconds()), nil
}

func Systime() int64 { return time.Now().Unix() }

// DateTime renders a unix timestamp as RFC3339, the canonical structured
// form original_source's date_time.rs exposes alongside strftime.
func DateTime(unixSeconds int64) string {
	return time.Unix(unixSeconds, 0).UTC().Format(time.RFC3339)
}
