package inference

import (
	"fmt"
	"reflect"
	"strings"
)

// unknownFields reports object keys in v that do not exactly match a JSON
// field name of t. encoding/json folds case when decoding, so a key like
// "Name" would otherwise bind to a field tagged "name".
func unknownFields(v any, t reflect.Type, path string) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch val := v.(type) {
	case map[string]any:
		if t.Kind() != reflect.Struct {
			return nil
		}
		fields := jsonFields(t)
		var issues []string
		for key, child := range val {
			ft, ok := fields[key]
			if !ok {
				issues = append(issues, fmt.Sprintf("%s: unknown field %q", fieldPath(path), key))
				continue
			}
			issues = append(issues, unknownFields(child, ft, joinPath(path, key))...)
		}
		return issues
	case []any:
		if t.Kind() != reflect.Slice && t.Kind() != reflect.Array {
			return nil
		}
		var issues []string
		for i, child := range val {
			issues = append(issues, unknownFields(child, t.Elem(), fmt.Sprintf("%s[%d]", path, i))...)
		}
		return issues
	}
	return nil
}

// jsonFields maps the exact JSON names of t's exported fields to their types,
// flattening embedded structs the way encoding/json does.
func jsonFields(t reflect.Type) map[string]reflect.Type {
	fields := make(map[string]reflect.Type, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")

		if f.Anonymous && name == "" {
			et := f.Type
			if et.Kind() == reflect.Pointer {
				et = et.Elem()
			}
			if et.Kind() == reflect.Struct {
				for k, v := range jsonFields(et) {
					if _, ok := fields[k]; !ok {
						fields[k] = v
					}
				}
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		fields[name] = f.Type
	}
	return fields
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func fieldPath(path string) string {
	if path == "" {
		return "$"
	}
	return path
}
