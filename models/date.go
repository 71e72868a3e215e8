package models

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"time"
)

var dateLayouts = []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04", "2006-01-02 15:04:05"}

var timeType = reflect.TypeOf(time.Time{})

// ParseDate accepts RFC3339 or one of the plain date layouts.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("invalid date format, use RFC3339 or YYYY-MM-DD")
}

// Date is a request date that accepts the layouts of ParseDate. A bad value
// fails as a *json.UnmarshalTypeError so the decoder names the field.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return &json.UnmarshalTypeError{Value: string(b), Type: timeType}
	}
	if strings.TrimSpace(raw) == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := ParseDate(raw)
	if err != nil {
		return &json.UnmarshalTypeError{Value: "string " + raw, Type: timeType}
	}
	d.Time = t
	return nil
}

// Ptr returns nil for an absent or empty date.
func (d *Date) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}
