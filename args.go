package gentrun

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// DecodeArgs converts raw tool-call arguments into a typed input value.
//
// Arguments arrive as JSON intermediary types. Before decoding, values destined for fields the
// json package cannot fill from those types are converted:
//   - string -> time.Time: RFC3339, RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05",
//     "2006-01-02" and minute-precision variants
//   - string -> time.Duration: time.ParseDuration syntax, e.g. "1h30m" or "500ms"
//
// Nested structs and slices are converted recursively. Decode failures are returned as
// [ToolErrValidation] errors.
func DecodeArgs[I any](args map[string]any) (I, error) {
	var input I
	if len(args) == 0 {
		return input, nil
	}

	target := reflect.TypeOf(&input).Elem()
	if target.Kind() == reflect.Ptr {
		target = target.Elem()
	}

	data, err := json.Marshal(convertArgsForType(args, target))
	if err != nil {
		return input, NewToolError(ToolErrValidation, "encode arguments: %v", err)
	}
	if err := json.Unmarshal(data, &input); err != nil {
		return input, NewToolError(ToolErrValidation, "decode arguments: %v", err)
	}
	return input, nil
}

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
)

func convertArgsForType(args map[string]any, structType reflect.Type) map[string]any {
	if args == nil || structType.Kind() != reflect.Struct {
		return args
	}

	result := make(map[string]any, len(args))
	for key, value := range args {
		if field, ok := findField(structType, key); ok {
			result[key] = convertValue(value, field.Type)
		} else {
			result[key] = value
		}
	}
	return result
}

// findField finds a struct field by json tag, falling back to a case-insensitive name match
// like encoding/json does.
func findField(structType reflect.Type, name string) (reflect.StructField, bool) {
	for i := range structType.NumField() {
		field := structType.Field(i)
		tag, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if tag == name {
			return field, true
		}
		if tag == "" && strings.EqualFold(field.Name, name) {
			return field, true
		}
	}
	return reflect.StructField{}, false
}

func convertValue(value any, target reflect.Type) any {
	if value == nil {
		return nil
	}
	if target.Kind() == reflect.Ptr {
		target = target.Elem()
	}

	switch {
	case target == timeType:
		if s, ok := value.(string); ok {
			if t, err := parseTime(s); err == nil {
				return t.Format(time.RFC3339Nano)
			}
		}
		return value

	case target == durationType:
		if s, ok := value.(string); ok {
			if d, err := time.ParseDuration(s); err == nil {
				return d.Nanoseconds()
			}
		}
		return value

	case target.Kind() == reflect.Struct:
		if m, ok := value.(map[string]any); ok {
			return convertArgsForType(m, target)
		}

	case target.Kind() == reflect.Slice:
		if arr, ok := value.([]any); ok {
			out := make([]any, len(arr))
			for i, item := range arr {
				out[i] = convertValue(item, target.Elem())
			}
			return out
		}
	}
	return value
}

var timeFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

func parseTime(s string) (time.Time, error) {
	for _, format := range timeFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse time: %s", s)
}
