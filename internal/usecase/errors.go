package usecase

import "errors"

var errEmptyRecord = errors.New("source returned no record")
