package logic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Decode reads a rule's Logic field. A JSON object or array is CertLogic; a
// JSON string is the infix text syntax understood by Parse.
func Decode(raw json.RawMessage) (Expr, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, fmt.Errorf("logic: empty expression")
	}
	if raw[0] == '"' {
		var src string
		if err := json.Unmarshal(raw, &src); err != nil {
			return nil, fmt.Errorf("logic: %w", err)
		}
		return Parse(src)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("logic: %w", err)
	}
	return FromValue(v)
}

// FromValue converts decoded CertLogic JSON into an expression tree.
func FromValue(v any) (Expr, error) {
	switch t := v.(type) {
	case nil, bool, float64, string:
		return Literal{Value: t}, nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("logic: bad number %q", t)
		}
		return Literal{Value: f}, nil
	case []any:
		items := make([]Expr, len(t))
		for i, it := range t {
			e, err := FromValue(it)
			if err != nil {
				return nil, err
			}
			items[i] = e
		}
		return Array{Items: items}, nil
	case map[string]any:
		return fromOperation(t)
	}
	return nil, fmt.Errorf("logic: unsupported value %T", v)
}

func fromOperation(m map[string]any) (Expr, error) {
	if len(m) != 1 {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("logic: operation must have exactly one key, got %v", keys)
	}
	var key string
	var operand any
	for k, v := range m {
		key, operand = k, v
	}
	if key == "var" {
		return fromVar(operand)
	}
	list, ok := operand.([]any)
	if !ok {
		list = []any{operand}
	}
	args := make([]Expr, len(list))
	for i, a := range list {
		e, err := FromValue(a)
		if err != nil {
			return nil, err
		}
		args[i] = e
	}
	return Call{Op: Op(key), Args: args}, nil
}

func fromVar(operand any) (Expr, error) {
	if list, ok := operand.([]any); ok {
		if len(list) == 0 {
			return Var{}, nil
		}
		operand = list[0]
	}
	switch p := operand.(type) {
	case string:
		return Var{Path: p}, nil
	case float64:
		return Var{Path: strconv.Itoa(int(p))}, nil
	case nil:
		return Var{}, nil
	}
	return nil, fmt.Errorf("logic: var path must be a string, got %T", operand)
}
