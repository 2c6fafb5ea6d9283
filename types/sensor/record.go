package sensor

import (
	"encoding/json"
	"fmt"
	"github.com/tidwall/gjson"
	"time"
)

type RecordType string

const (
	RecordTypeAccel RecordType = "accel"
	RecordTypeFix   RecordType = "fix"
)

// Record is one NDJSON line from a sensor source.
// Exactly one of Accel or Fix is set on a successfully decoded record.
//
//	{"type":"accel","time":1712345678.5,"x":0.12,"y":-0.4,"z":9.71}
//	{"type":"fix","time":1712345678.9,"lat":47.17,"lon":-113.47,"fix_time":1712345678.0}
type Record struct {
	Type  RecordType
	Time  time.Time
	Accel *AccelSample
	Fix   *GeoFix
}

type rawAccel struct {
	Time *float64 `json:"time"`
	X    *float64 `json:"x"`
	Y    *float64 `json:"y"`
	Z    *float64 `json:"z"`
}

type rawFix struct {
	Time    *float64 `json:"time"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
	FixTime *float64 `json:"fix_time"`
}

// DecodeRecord decodes a single NDJSON line.
// Records without a time are stamped with now.
// Accel records with undefined axes return the record alongside ErrMissingSample;
// fix records with absent or out-of-range coordinates return ErrInvalidFix.
func DecodeRecord(data []byte, now time.Time) (*Record, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid json: %q", truncate(data, 64))
	}
	typ := RecordType(gjson.GetBytes(data, "type").String())
	switch typ {
	case RecordTypeAccel:
		raw := rawAccel{}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		rec := &Record{Type: typ, Time: stamp(raw.Time, now)}
		sample, err := NewAccelSample(raw.X, raw.Y, raw.Z)
		if err != nil {
			return rec, err
		}
		rec.Accel = sample
		return rec, nil
	case RecordTypeFix:
		raw := rawFix{}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		rec := &Record{Type: typ, Time: stamp(raw.Time, now)}
		if raw.Lat == nil || raw.Lon == nil {
			return rec, fmt.Errorf("%w: missing coordinate", ErrInvalidFix)
		}
		fix, err := NewGeoFix(*raw.Lat, *raw.Lon, rec.Time)
		if err != nil {
			return rec, err
		}
		if raw.FixTime != nil {
			fix.ReportedTime = UnixFloat(*raw.FixTime)
		}
		rec.Fix = fix
		return rec, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownRecord, typ)
}

// EncodeRecord is the inverse of DecodeRecord, used to write recordings.
func EncodeRecord(rec *Record) ([]byte, error) {
	m := map[string]any{
		"type": rec.Type,
		"time": ToUnixFloat(rec.Time),
	}
	switch {
	case rec.Accel != nil:
		m["x"], m["y"], m["z"] = rec.Accel.X, rec.Accel.Y, rec.Accel.Z
	case rec.Fix != nil:
		m["lat"], m["lon"] = rec.Fix.Lat, rec.Fix.Lon
		if !rec.Fix.ReportedTime.IsZero() {
			m["fix_time"] = ToUnixFloat(rec.Fix.ReportedTime)
		}
	}
	return json.Marshal(m)
}

func stamp(t *float64, now time.Time) time.Time {
	if t == nil {
		return now
	}
	return UnixFloat(*t)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
