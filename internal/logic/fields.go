package logic

import (
	"strconv"
	"strings"

	"github.com/antonio-alexander/go-employee-crud/internal/data"
	"github.com/antonio-alexander/go-employee-crud/internal/sql"

	"github.com/pkg/errors"
)

// fieldSetter maps a caller supplied field name onto a trusted column
// and the parser for its value; only columns found here ever reach the
// text of an update statement
type fieldSetter struct {
	column string
	parse  func(value string) (any, error)
}

var fieldSetters = map[string]fieldSetter{
	"firstname":  {column: sql.ColumnFirstName, parse: parseText},
	"first_name": {column: sql.ColumnFirstName, parse: parseText},
	"lastname":   {column: sql.ColumnLastName, parse: parseText},
	"last_name":  {column: sql.ColumnLastName, parse: parseText},
	"age":        {column: sql.ColumnAge, parse: parseAge},
	"position":   {column: sql.ColumnPosition, parse: parseText},
}

func lookupField(fieldName string) (fieldSetter, error) {
	setter, ok := fieldSetters[strings.ToLower(strings.TrimSpace(fieldName))]
	if !ok {
		return fieldSetter{}, errors.Wrapf(data.ErrInvalidArgument,
			"unknown field: %q", fieldName)
	}
	return setter, nil
}

func parseText(value string) (any, error) {
	return value, nil
}

func parseAge(value string) (any, error) {
	age, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return nil, errors.Wrapf(data.ErrInvalidArgument,
			"invalid age value: %s", value)
	}
	return int(age), nil
}
