package tables

import "errors"

var ErrNotFound = errors.New("table not found")
