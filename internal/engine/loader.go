// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package engine

import (
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/spf13/afero"
)

// loadValue reads a YAML document and converts it to a value tree. Mappings
// become structs with fields in document order, sequences become lists.
func loadValue(fs afero.Fs, path string) (Value, error) {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}

	var doc any
	if err := yaml.UnmarshalWithOptions(raw, &doc, yaml.UseOrderedMap()); err != nil {
		return nil, err
	}

	return fromYAML(doc)
}

func fromYAML(doc any) (Value, error) {
	switch doc := doc.(type) {
	case nil:
		return String(""), nil
	case string:
		return String(doc), nil
	case bool:
		return Bool(doc), nil
	case int:
		return Int(doc), nil
	case int64:
		return Int(doc), nil
	case uint64:
		return Int(doc), nil
	case float64:
		if doc == float64(int64(doc)) {
			return Int(doc), nil
		}

		return nil, fmt.Errorf("non-integer number %v", doc)
	case []any:
		elems := make([]Value, 0, len(doc))

		for _, e := range doc {
			v, err := fromYAML(e)
			if err != nil {
				return nil, err
			}

			elems = append(elems, v)
		}

		return &List{Elems: elems}, nil
	case yaml.MapSlice:
		fields := make([]Field, 0, len(doc))

		for _, item := range doc {
			v, err := fromYAML(item.Value)
			if err != nil {
				return nil, err
			}

			fields = append(fields, Field{Name: fmt.Sprint(item.Key), Value: v})
		}

		return &Struct{Fields: fields}, nil
	default:
		return nil, fmt.Errorf("unsupported node type %T", doc)
	}
}
