package sqlgate

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx/reflectx"
)

// Field describes one column of a result set.
type Field struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Table string `json:"table,omitempty"`
}

// QueryResult is one complete result set as returned by the gateway.
// Rows may be absent while RowsAffected is present (DDL and DML carry no
// result set). Results are immutable values owned by the caller.
type QueryResult struct {
	RowsAffected string  `json:"rowsAffected,omitempty"`
	InsertID     string  `json:"insertId,omitempty"`
	Fields       []Field `json:"fields,omitempty"`
	Rows         []Row   `json:"rows,omitempty"`
}

// Records decodes every row into a field-name keyed map of typed values.
// Columns are matched to fields positionally. A result without rows decodes
// to an empty slice; rows without fields decode to empty maps.
func (qr *QueryResult) Records() ([]map[string]any, error) {
	records := make([]map[string]any, 0, len(qr.Rows))
	for _, row := range qr.Rows {
		if len(qr.Fields) == 0 {
			records = append(records, map[string]any{})
			continue
		}
		raw, err := decodeRow(row, len(qr.Fields))
		if err != nil {
			return nil, err
		}
		record := make(map[string]any, len(qr.Fields))
		for i, field := range qr.Fields {
			value, err := castValue(raw[i], field.Type)
			if err != nil {
				return nil, err
			}
			record[field.Name] = value
		}
		records = append(records, record)
	}
	return records, nil
}

// Values decodes every row into a positional slice of typed values, in
// column order. Used by the database/sql driver, where column order matters
// and names are reported separately.
func (qr *QueryResult) Values() ([][]any, error) {
	rows := make([][]any, 0, len(qr.Rows))
	for _, row := range qr.Rows {
		raw, err := decodeRow(row, len(qr.Fields))
		if err != nil {
			return nil, err
		}
		values := make([]any, len(qr.Fields))
		for i, field := range qr.Fields {
			values[i], err = castValue(raw[i], field.Type)
			if err != nil {
				return nil, err
			}
		}
		rows = append(rows, values)
	}
	return rows, nil
}

// fieldMapper resolves result columns to struct fields the same way sqlx
// does: a `db` tag wins, otherwise the lowercased field name.
var fieldMapper = reflectx.NewMapperFunc("db", strings.ToLower)

// DecodeRows decodes every row of a result directly into values of the
// struct type T, using the result's field names as the schema. Every column
// must map to a struct field; an unmapped column or an unassignable value is
// a decode error, never a silent truncation.
func DecodeRows[T any](qr *QueryResult) ([]T, error) {
	out := make([]T, 0, len(qr.Rows))
	if len(qr.Rows) == 0 {
		return out, nil
	}

	structType := reflect.TypeOf(out).Elem()
	if structType.Kind() != reflect.Struct {
		return nil, NewDecodeError(fmt.Sprintf(
			"decode target %s is not a struct type", structType))
	}

	names := make([]string, len(qr.Fields))
	for i, field := range qr.Fields {
		names[i] = field.Name
	}
	traversals := fieldMapper.TraversalsByName(structType, names)
	for i, traversal := range traversals {
		if len(traversal) == 0 {
			return nil, NewDecodeError(fmt.Sprintf(
				"%s has no field for column %q", structType, names[i]))
		}
	}

	for _, row := range qr.Rows {
		raw, err := decodeRow(row, len(qr.Fields))
		if err != nil {
			return nil, err
		}
		element := reflect.New(structType).Elem()
		for i, field := range qr.Fields {
			value, err := castValue(raw[i], field.Type)
			if err != nil {
				return nil, err
			}
			target := reflectx.FieldByIndexes(element, traversals[i])
			if err := assignValue(target, value, field.Name); err != nil {
				return nil, err
			}
		}
		out = append(out, element.Interface().(T))
	}
	return out, nil
}

// assignValue stores a decoded column value into a struct field, converting
// between the codec's native types (nil, int64, float64, string) and the
// field's type. String values parse into numeric and bool fields on demand,
// which keeps 64-bit integer columns usable without forcing precision loss
// on callers who want the raw text.
func assignValue(dst reflect.Value, value any, column string) error {
	if value == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	if dst.Kind() == reflect.Pointer {
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return assignValue(dst.Elem(), value, column)
	}

	mismatch := func() error {
		return NewDecodeError(fmt.Sprintf(
			"cannot assign %T value to %s field for column %q",
			value, dst.Type(), column))
	}

	switch v := value.(type) {
	case int64:
		switch dst.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if dst.OverflowInt(v) {
				return mismatch()
			}
			dst.SetInt(v)
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if v < 0 || dst.OverflowUint(uint64(v)) {
				return mismatch()
			}
			dst.SetUint(uint64(v))
		case reflect.Float32, reflect.Float64:
			dst.SetFloat(float64(v))
		case reflect.String:
			dst.SetString(strconv.FormatInt(v, 10))
		default:
			return mismatch()
		}
	case float64:
		switch dst.Kind() {
		case reflect.Float32, reflect.Float64:
			dst.SetFloat(v)
		case reflect.String:
			dst.SetString(strconv.FormatFloat(v, 'g', -1, 64))
		default:
			return mismatch()
		}
	case string:
		switch dst.Kind() {
		case reflect.String:
			dst.SetString(v)
		case reflect.Slice:
			if dst.Type().Elem().Kind() != reflect.Uint8 {
				return mismatch()
			}
			dst.SetBytes([]byte(v))
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || dst.OverflowInt(n) {
				return mismatch()
			}
			dst.SetInt(n)
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil || dst.OverflowUint(n) {
				return mismatch()
			}
			dst.SetUint(n)
		case reflect.Float32, reflect.Float64:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return mismatch()
			}
			dst.SetFloat(f)
		case reflect.Bool:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return mismatch()
			}
			dst.SetBool(b)
		default:
			return mismatch()
		}
	default:
		return mismatch()
	}
	return nil
}
