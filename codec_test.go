package sqlgate

import (
	"encoding/base64"
	"strconv"
	"strings"
	"testing"
)

// encodeTestRow builds the wire encoding for a row, nil marking SQL NULL.
func encodeTestRow(values []*string) Row {
	row := Row{Lengths: make([]string, len(values))}
	var blob strings.Builder
	for i, value := range values {
		if value == nil {
			row.Lengths[i] = "-1"
			continue
		}
		row.Lengths[i] = strconv.Itoa(len(*value))
		blob.WriteString(*value)
	}
	if blob.Len() > 0 {
		row.Values = base64.StdEncoding.EncodeToString([]byte(blob.String()))
	}
	return row
}

func strptr(s string) *string {
	return &s
}

func TestDecodeRowRoundTrip(t *testing.T) {
	inputs := []*string{strptr("alpha"), strptr(""), strptr("42"), strptr("こんにちは"), strptr("tail")}
	row := encodeTestRow(inputs)

	decoded, err := decodeRow(row, len(inputs))
	if err != nil {
		t.Fatalf("decodeRow returned error: %v", err)
	}
	if len(decoded) != len(inputs) {
		t.Fatalf("expected %d values, got %d", len(inputs), len(decoded))
	}
	for i, want := range inputs {
		if decoded[i] == nil {
			t.Fatalf("value %d decoded to nil", i)
		}
		if *decoded[i] != *want {
			t.Errorf("value %d: expected %q, got %q", i, *want, *decoded[i])
		}
	}
}

func TestDecodeRowNullDoesNotShiftOffsets(t *testing.T) {
	inputs := []*string{strptr("before"), nil, strptr("after")}
	row := encodeTestRow(inputs)

	decoded, err := decodeRow(row, 3)
	if err != nil {
		t.Fatalf("decodeRow returned error: %v", err)
	}
	if decoded[0] == nil || *decoded[0] != "before" {
		t.Errorf("value 0: expected %q, got %v", "before", decoded[0])
	}
	if decoded[1] != nil {
		t.Errorf("value 1: expected nil, got %q", *decoded[1])
	}
	if decoded[2] == nil || *decoded[2] != "after" {
		t.Errorf("value 2: expected %q, got %v", "after", decoded[2])
	}
}

func TestDecodeRowEmptyBlob(t *testing.T) {
	row := Row{Lengths: []string{"-1", "0"}}
	decoded, err := decodeRow(row, 2)
	if err != nil {
		t.Fatalf("decodeRow returned error: %v", err)
	}
	if decoded[0] != nil {
		t.Errorf("expected nil for negative length, got %q", *decoded[0])
	}
	if decoded[1] == nil || *decoded[1] != "" {
		t.Errorf("expected empty string for zero length, got %v", decoded[1])
	}
}

func TestDecodeRowOverrunIsDecodeError(t *testing.T) {
	row := Row{
		Lengths: []string{"10"},
		Values:  base64.StdEncoding.EncodeToString([]byte("short")),
	}
	_, err := decodeRow(row, 1)
	if !IsDecodeError(err) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestDecodeRowLengthCountMismatch(t *testing.T) {
	row := encodeTestRow([]*string{strptr("a"), strptr("b")})
	_, err := decodeRow(row, 3)
	if !IsDecodeError(err) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestDecodeRowMalformedLength(t *testing.T) {
	row := Row{Lengths: []string{"banana"}}
	_, err := decodeRow(row, 1)
	if !IsDecodeError(err) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestDecodeRowBadBase64(t *testing.T) {
	row := Row{Lengths: []string{"1"}, Values: "!!!not base64!!!"}
	_, err := decodeRow(row, 1)
	if !IsDecodeError(err) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestCastValue(t *testing.T) {
	tests := []struct {
		name    string
		raw     *string
		typeTag string
		want    any
	}{
		{"int32", strptr("42"), "INT32", int64(42)},
		{"negative int16", strptr("-7"), "INT16", int64(-7)},
		{"year", strptr("1999"), "YEAR", int64(1999)},
		{"float64", strptr("3.14"), "FLOAT64", 3.14},
		{"decimal", strptr("10.50"), "DECIMAL", 10.5},
		{"int64 stays string", strptr("9223372036854775807"), "INT64", "9223372036854775807"},
		{"uint64 stays string", strptr("18446744073709551615"), "UINT64", "18446744073709551615"},
		{"datetime passthrough", strptr("2024-01-01 00:00:00"), "DATETIME", "2024-01-01 00:00:00"},
		{"varbinary passthrough", strptr("\x00\x01"), "VARBINARY", "\x00\x01"},
		{"json passthrough", strptr(`{"a":1}`), "JSON", `{"a":1}`},
		{"unknown tag passthrough", strptr("whatever"), "SOMETHING_NEW", "whatever"},
		{"null int", nil, "INT32", nil},
		{"null varchar", nil, "VARCHAR", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := castValue(tt.raw, tt.typeTag)
			if err != nil {
				t.Fatalf("castValue returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %#v, got %#v", tt.want, got)
			}
		})
	}
}

func TestCastValueMalformedNumbers(t *testing.T) {
	if _, err := castValue(strptr("not-a-number"), "INT32"); !IsDecodeError(err) {
		t.Errorf("expected decode error for malformed INT32, got %v", err)
	}
	if _, err := castValue(strptr("still-not"), "FLOAT64"); !IsDecodeError(err) {
		t.Errorf("expected decode error for malformed FLOAT64, got %v", err)
	}
}
