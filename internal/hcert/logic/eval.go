package logic

import (
	"strconv"
	"strings"
	"time"
)

// Eval evaluates e against data. It never mutates data.
func Eval(e Expr, data any) (any, error) {
	switch n := e.(type) {
	case Literal:
		return n.Value, nil
	case Var:
		return lookup(data, n.Path), nil
	case Array:
		out := make([]any, len(n.Items))
		for i, it := range n.Items {
			v, err := Eval(it, data)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case Call:
		return evalCall(n, data)
	case Invalid:
		return nil, &EvalError{Msg: "invalid expression: " + n.Err.Error()}
	case nil:
		return nil, &EvalError{Msg: "empty expression"}
	}
	return nil, &EvalError{Msg: "unknown expression node"}
}

func lookup(data any, path string) any {
	if path == "" {
		return data
	}
	cur := data
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil
			}
			cur = node[i]
		default:
			return nil
		}
	}
	return cur
}

func evalCall(c Call, data any) (any, error) {
	switch c.Op {
	case OpIf:
		return evalIf(c, data)
	case OpAnd, OpOr:
		return evalJunction(c, data)
	case OpReduce:
		return evalReduce(c, data)
	}

	args, err := evalArgs(c.Args, data)
	if err != nil {
		return nil, err
	}

	switch c.Op {
	case OpNot:
		if len(args) != 1 {
			return nil, fault(c.Op, "expects 1 operand, got %d", len(args))
		}
		return !Truthy(args[0]), nil
	case OpTruthy:
		if len(args) != 1 {
			return nil, fault(c.Op, "expects 1 operand, got %d", len(args))
		}
		return Truthy(args[0]), nil
	case OpStrictEq, OpStrictNe:
		if len(args) != 2 {
			return nil, fault(c.Op, "expects 2 operands, got %d", len(args))
		}
		eq := strictEqual(args[0], args[1])
		if c.Op == OpStrictNe {
			return !eq, nil
		}
		return eq, nil
	case OpLess, OpGreater, OpLessEq, OpGreaterEq:
		return compareNumbers(c.Op, args)
	case OpBefore, OpAfter, OpNotBefore, OpNotAfter:
		return compareTimes(c.Op, args)
	case OpIn:
		return evalIn(args)
	case OpPlus:
		return evalPlus(args)
	case OpPlusTime:
		return evalPlusTime(args)
	case OpExtractFromUVCI:
		return evalExtractFromUVCI(args)
	case OpDccDateOfBirth:
		return evalDccDateOfBirth(args)
	}
	return nil, fault(c.Op, "unsupported operation")
}

func evalArgs(exprs []Expr, data any) ([]any, error) {
	out := make([]any, len(exprs))
	for i, e := range exprs {
		v, err := Eval(e, data)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func evalIf(c Call, data any) (any, error) {
	if len(c.Args) != 3 {
		return nil, fault(c.Op, "expects 3 operands, got %d", len(c.Args))
	}
	guard, err := Eval(c.Args[0], data)
	if err != nil {
		return nil, err
	}
	if Truthy(guard) {
		return Eval(c.Args[1], data)
	}
	return Eval(c.Args[2], data)
}

// evalJunction returns the first operand that decides the result (falsy for
// "and", truthy for "or"), otherwise the last one.
func evalJunction(c Call, data any) (any, error) {
	if len(c.Args) == 0 {
		return nil, fault(c.Op, "expects at least 1 operand")
	}
	var last any
	for _, a := range c.Args {
		v, err := Eval(a, data)
		if err != nil {
			return nil, err
		}
		if Truthy(v) == (c.Op == OpOr) {
			return v, nil
		}
		last = v
	}
	return last, nil
}

func evalReduce(c Call, data any) (any, error) {
	if len(c.Args) != 3 {
		return nil, fault(c.Op, "expects 3 operands, got %d", len(c.Args))
	}
	operand, err := Eval(c.Args[0], data)
	if err != nil {
		return nil, err
	}
	acc, err := Eval(c.Args[2], data)
	if err != nil {
		return nil, err
	}
	if operand == nil {
		return acc, nil
	}
	items, ok := operand.([]any)
	if !ok {
		return nil, fault(c.Op, "operand is not an array: %T", operand)
	}
	for _, item := range items {
		acc, err = Eval(c.Args[1], map[string]any{"current": item, "accumulator": acc, "data": data})
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func compareNumbers(op Op, args []any) (any, error) {
	if len(args) != 2 && len(args) != 3 {
		return nil, fault(op, "expects 2 or 3 operands, got %d", len(args))
	}
	nums := make([]float64, len(args))
	for i, a := range args {
		n, ok := toNumber(a)
		if !ok {
			return nil, fault(op, "operand is not a number: %v", a)
		}
		nums[i] = n
	}
	for i := 0; i+1 < len(nums); i++ {
		a, b := nums[i], nums[i+1]
		var ok bool
		switch op {
		case OpLess:
			ok = a < b
		case OpGreater:
			ok = a > b
		case OpLessEq:
			ok = a <= b
		case OpGreaterEq:
			ok = a >= b
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func compareTimes(op Op, args []any) (any, error) {
	if len(args) != 2 && len(args) != 3 {
		return nil, fault(op, "expects 2 or 3 operands, got %d", len(args))
	}
	ts := make([]time.Time, len(args))
	for i, a := range args {
		t, err := toTime(op, a)
		if err != nil {
			return nil, err
		}
		ts[i] = t
	}
	for i := 0; i+1 < len(ts); i++ {
		a, b := ts[i], ts[i+1]
		var ok bool
		switch op {
		case OpBefore:
			ok = a.Before(b)
		case OpAfter:
			ok = a.After(b)
		case OpNotBefore:
			ok = !a.Before(b)
		case OpNotAfter:
			ok = !a.After(b)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func evalIn(args []any) (any, error) {
	if len(args) != 2 {
		return nil, fault(OpIn, "expects 2 operands, got %d", len(args))
	}
	list, ok := args[1].([]any)
	if !ok {
		return nil, fault(OpIn, "right operand is not an array: %v", args[1])
	}
	for _, item := range list {
		if strictEqual(args[0], item) {
			return true, nil
		}
	}
	return false, nil
}

func evalPlus(args []any) (any, error) {
	if len(args) == 0 {
		return nil, fault(OpPlus, "expects at least 1 operand")
	}
	var sum float64
	for _, a := range args {
		n, ok := toNumber(a)
		if !ok {
			return nil, fault(OpPlus, "operand is not a number: %v", a)
		}
		sum += n
	}
	return sum, nil
}

func evalPlusTime(args []any) (any, error) {
	if len(args) != 3 {
		return nil, fault(OpPlusTime, "expects 3 operands, got %d", len(args))
	}
	t, err := toTime(OpPlusTime, args[0])
	if err != nil {
		return nil, err
	}
	amount, err := toInt(OpPlusTime, args[1])
	if err != nil {
		return nil, err
	}
	unit, _ := args[2].(string)
	switch unit {
	case "year":
		return t.AddDate(amount, 0, 0), nil
	case "month":
		return t.AddDate(0, amount, 0), nil
	case "day":
		return t.AddDate(0, 0, amount), nil
	case "hour":
		return t.Add(time.Duration(amount) * time.Hour), nil
	}
	return nil, fault(OpPlusTime, "unknown time unit: %v", args[2])
}

func evalExtractFromUVCI(args []any) (any, error) {
	if len(args) != 2 {
		return nil, fault(OpExtractFromUVCI, "expects 2 operands, got %d", len(args))
	}
	index, err := toInt(OpExtractFromUVCI, args[1])
	if err != nil {
		return nil, err
	}
	if args[0] == nil {
		return nil, nil
	}
	uvci, ok := args[0].(string)
	if !ok {
		return nil, fault(OpExtractFromUVCI, "operand is not a string: %v", args[0])
	}
	uvci = strings.TrimPrefix(uvci, "URN:UVCI:")
	fragments := strings.FieldsFunc(uvci, func(r rune) bool {
		return r == '/' || r == '#' || r == ':'
	})
	if index < 0 || index >= len(fragments) {
		return nil, nil
	}
	return fragments[index], nil
}

// evalDccDateOfBirth resolves a possibly partial birth date to the latest day
// it can denote: "1990" is 1990-12-31, "1990-02" is 1990-02-28.
func evalDccDateOfBirth(args []any) (any, error) {
	if len(args) != 1 {
		return nil, fault(OpDccDateOfBirth, "expects 1 operand, got %d", len(args))
	}
	s, ok := args[0].(string)
	if !ok {
		return nil, fault(OpDccDateOfBirth, "operand is not a string: %v", args[0])
	}
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		s = s[:i]
	}
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) == 0 || len(parts) > 3 {
		return nil, fault(OpDccDateOfBirth, "malformed date of birth: %q", s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) != 4 {
		return nil, fault(OpDccDateOfBirth, "malformed date of birth: %q", s)
	}
	month := 12
	if len(parts) > 1 && parts[1] != "XX" {
		if month, err = strconv.Atoi(parts[1]); err != nil || month < 1 || month > 12 {
			return nil, fault(OpDccDateOfBirth, "malformed date of birth: %q", s)
		}
	}
	last := daysIn(year, time.Month(month))
	day := last
	if len(parts) > 2 && parts[2] != "XX" && parts[1] != "XX" {
		if day, err = strconv.Atoi(parts[2]); err != nil || day < 1 || day > last {
			return nil, fault(OpDccDateOfBirth, "malformed date of birth: %q", s)
		}
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}
