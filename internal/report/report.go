// Package report parses the plain-text telemetry report produced by the
// SHT moisture sensor unit. The wire format is a headerless stream of
// comma-separated fields, one record per physical line:
//
//	SHT,1,Basement,Detected,20.1,20.0,19.9,45%,46%,45%
//
// The device has no quoting or escaping, and partial or garbled records
// do appear in practice, so this is a tolerant token-cursor scan rather
// than a CSV grammar: the scanner hunts for the "SHT" marker and
// resynchronizes on it after any malformed record.
// This package has NO I/O and no state.
package report

import (
	"math"
	"strconv"
	"strings"
)

// deviceMarker is the literal device-type field that begins every record.
const deviceMarker = "SHT"

// StatusDetected is the status field value for a healthy channel. Any
// other status means the channel's numeric fields are not trustworthy.
const StatusDetected = "Detected"

// SampleCount is the number of temperature and humidity samples the
// device reports per record, most recent first.
const SampleCount = 3

// Record is one parsed sensor record.
type Record struct {
	// Index is the channel index, 1 or 2.
	Index int
	// Location is the free-text label the device was configured with.
	// Informational only; the engine uses its own configured labels.
	Location string
	// Status is the raw status field.
	Status string
	// Detected is true when Status is exactly "Detected".
	Detected bool
	// Temperatures holds the 3 temperature samples in °C, most recent
	// first. Only meaningful when Detected. A sample that failed numeric
	// coercion is NaN.
	Temperatures [SampleCount]float64
	// Humidities holds the 3 relative-humidity samples in percent (the
	// trailing '%' already stripped), most recent first. Only meaningful
	// when Detected. A sample that failed numeric coercion is NaN.
	Humidities [SampleCount]float64
}

// Parse scans a raw telemetry payload and returns the records found, in
// payload order. Malformed records are skipped, never fatal: a bad record
// costs at most itself, and a well-formed record later in the payload is
// still returned. Multiple records for the same channel index may appear;
// callers apply them in order (last one wins).
func Parse(payload string) []Record {
	tokens := tokenize(payload)

	var records []Record
	for i := 0; i < len(tokens); i++ {
		if tokens[i] != deviceMarker {
			continue
		}
		rec, ok := scanRecord(tokens, i)
		if !ok {
			// Bad index or truncated record. Resume the marker hunt at
			// the next token rather than aborting the payload.
			continue
		}
		records = append(records, rec)
	}
	return records
}

// tokenize flattens the payload into one delimited token stream. Line
// breaks are treated as field delimiters, mirroring the device's own
// layout, so the scanner never has to reconstruct line boundaries.
func tokenize(payload string) []string {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil
	}

	flat := strings.NewReplacer("\r\n", ",", "\n", ",", "\r", ",").Replace(payload)

	raw := strings.Split(flat, ",")
	tokens := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}

// scanRecord reads one record starting at the marker position. It returns
// ok=false if the channel index is not "1" or "2" or the record is
// truncated before the status field; the caller then resynchronizes on
// the next marker.
func scanRecord(tokens []string, marker int) (Record, bool) {
	// marker, index, location, status
	if marker+3 >= len(tokens) {
		return Record{}, false
	}

	var rec Record
	switch tokens[marker+1] {
	case "1":
		rec.Index = 1
	case "2":
		rec.Index = 2
	default:
		return Record{}, false
	}

	rec.Location = tokens[marker+2]
	rec.Status = tokens[marker+3]
	rec.Detected = rec.Status == StatusDetected

	if !rec.Detected {
		// Numeric fields are ignored for a non-Detected record. The
		// token shape is usually still present on the wire but nothing
		// is required of it; the next marker hunt resynchronizes.
		return rec, true
	}

	cursor := marker + 4
	for s := 0; s < SampleCount; s++ {
		rec.Temperatures[s] = numericField(tokens, cursor+s)
	}
	cursor += SampleCount
	for s := 0; s < SampleCount; s++ {
		rec.Humidities[s] = percentField(tokens, cursor+s)
	}
	return rec, true
}

// numericField coerces the token at pos to a float64. Missing or
// non-numeric tokens become NaN, which the aggregation layer treats as a
// channel fault — a garbled sample must never kill the scan.
func numericField(tokens []string, pos int) float64 {
	if pos >= len(tokens) {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(tokens[pos], 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// percentField is numericField with the device's trailing '%' stripped.
func percentField(tokens []string, pos int) float64 {
	if pos >= len(tokens) {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(tokens[pos], "%"), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
