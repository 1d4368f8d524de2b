package loader

import (
	"errors"
	"fmt"
	"io"

	"github.com/dgallion1/autopages/internal/record"
	"github.com/tidwall/gjson"
)

// JSONLoader handles .json files: an array of objects, or a single object.
// Object key order is preserved.
type JSONLoader struct{}

func (l *JSONLoader) Load(r io.Reader, filename string) ([]*record.Fields, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, errors.New("parse json: invalid syntax")
	}

	root := gjson.ParseBytes(data)
	switch {
	case root.IsArray():
		var rows []*record.Fields
		var rowErr error
		root.ForEach(func(_, v gjson.Result) bool {
			if !v.IsObject() {
				rowErr = fmt.Errorf("parse json: element %d is not an object", len(rows))
				return false
			}
			rows = append(rows, jsonFields(v))
			return true
		})
		if rowErr != nil {
			return nil, rowErr
		}
		return rows, nil
	case root.IsObject():
		return []*record.Fields{jsonFields(root)}, nil
	default:
		return nil, errors.New("parse json: top level must be an array or an object")
	}
}

func jsonFields(obj gjson.Result) *record.Fields {
	f := record.NewFields()
	obj.ForEach(func(k, v gjson.Result) bool {
		f.Set(k.String(), jsonValue(v))
		return true
	})
	return f
}

func jsonValue(v gjson.Result) any {
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.String:
		return v.Str
	case gjson.Number, gjson.True, gjson.False:
		return v.Raw
	}
	if v.IsObject() {
		return jsonFields(v)
	}
	var list []any
	v.ForEach(func(_, e gjson.Result) bool {
		list = append(list, jsonValue(e))
		return true
	})
	if list == nil {
		list = []any{}
	}
	return list
}
