package model

import (
	"encoding/json"
	"reflect"
	"strings"
)

// jsonKeys returns the set of JSON object keys produced by the exported,
// tagged fields of struct type t.
func jsonKeys(t reflect.Type) map[string]struct{} {
	keys := make(map[string]struct{}, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			continue
		case "":
			name = f.Name
		}
		keys[name] = struct{}{}
	}
	return keys
}

// splitExtra decodes an object and returns the members whose keys are not in known.
func splitExtra(data []byte, known map[string]struct{}) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	var extra map[string]json.RawMessage
	for k, v := range all {
		if _, ok := known[k]; ok {
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[k] = v
	}
	return extra, nil
}

// mergeExtra adds to the object base the extra members whose keys are
// neither known fields nor already present.
func mergeExtra(base []byte, extra map[string]json.RawMessage, known map[string]struct{}) ([]byte, error) {
	if len(extra) == 0 {
		return base, nil
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(base, &all); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := known[k]; ok {
			continue
		}
		if _, taken := all[k]; taken {
			continue
		}
		all[k] = v
	}
	return json.Marshal(all)
}
