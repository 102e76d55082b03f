package sqlgate

import (
	"encoding/base64"
	"fmt"
	"strconv"
)

// Row is the wire encoding of one result row: per-column byte lengths as
// decimal strings (a negative length marks SQL NULL) and a single
// base64-encoded blob holding every non-null value back to back.
type Row struct {
	Lengths []string `json:"lengths"`
	Values  string   `json:"values,omitempty"`
}

// decodeRow unpacks a row into one optional raw string per column. A nil
// entry is a SQL NULL. The lengths list must match numFields and the
// non-negative lengths must walk the decoded blob exactly; anything else is
// a malformed server response.
func decodeRow(row Row, numFields int) ([]*string, error) {
	if len(row.Lengths) != numFields {
		return nil, NewDecodeError(fmt.Sprintf(
			"row has %d lengths for %d fields", len(row.Lengths), numFields))
	}

	buf, err := base64.StdEncoding.DecodeString(row.Values)
	if err != nil {
		return nil, NewDecodeErrorWithCause("row values are not valid base64", err)
	}

	values := make([]*string, 0, numFields)
	offset := 0
	for i, l := range row.Lengths {
		length, err := strconv.Atoi(l)
		if err != nil {
			return nil, NewDecodeErrorWithCause(
				fmt.Sprintf("column %d has malformed length %q", i, l), err)
		}
		if length < 0 {
			values = append(values, nil)
			continue
		}
		if offset+length > len(buf) {
			return nil, NewDecodeError(fmt.Sprintf(
				"column %d length %d overruns row buffer (%d of %d bytes consumed)",
				i, length, offset, len(buf)))
		}
		v := string(buf[offset : offset+length])
		values = append(values, &v)
		offset += length
	}
	return values, nil
}

// castValue converts a decoded raw string into the native value its column
// type tag calls for. NULL stays nil regardless of type. Narrow integer tags
// parse to int64 and floating tags to float64; a parse failure there means
// the server sent a malformed literal and is reported, not coerced. 64-bit
// integer tags deliberately stay strings, since a float64 cannot represent
// every 64-bit value losslessly. Unrecognized tags pass through unmodified.
func castValue(raw *string, typeTag string) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch typeTag {
	case "INT8", "UINT8", "INT16", "UINT16", "INT24", "UINT24", "INT32", "UINT32", "YEAR":
		n, err := strconv.ParseInt(*raw, 10, 64)
		if err != nil {
			return nil, NewDecodeErrorWithCause(
				fmt.Sprintf("malformed %s literal %q", typeTag, *raw), err)
		}
		return n, nil
	case "DECIMAL", "FLOAT32", "FLOAT64":
		f, err := strconv.ParseFloat(*raw, 64)
		if err != nil {
			return nil, NewDecodeErrorWithCause(
				fmt.Sprintf("malformed %s literal %q", typeTag, *raw), err)
		}
		return f, nil
	default:
		// INT64/UINT64, temporal, binary, JSON and anything the client does
		// not recognize stay as the exact string the server sent.
		return *raw, nil
	}
}
