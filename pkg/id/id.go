// Package id issues the identifiers that tag render passes and dashboard
// sessions in logs.
package id

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// New returns a ULID string. IDs issued by one process sort by issue time,
// including IDs issued within the same millisecond.
func New() string {
	return ulid.Make().String()
}

// Time returns the issue time encoded in an ID from New.
func Time(s string) (time.Time, error) {
	u, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()).UTC(), nil
}
