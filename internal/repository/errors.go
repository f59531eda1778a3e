package repository

import "errors"

var ErrNotFound = errors.New("not found")

type scanner interface {
	Scan(dest ...interface{}) error
}

func nullableString(v *string) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
