package runtime

import (
	"sort"
	"strconv"
	"strings"
)

// Type identifies the representation a Value carries.
type Type int

const (
	TypeNil Type = iota
	TypeNumber
	TypeString
	TypeBoolean
	TypeArray
	TypeHash
)

var typeNames = map[Type]string{
	TypeNil:     "nil",
	TypeNumber:  "number",
	TypeString:  "string",
	TypeBoolean: "boolean",
	TypeArray:   "array",
	TypeHash:    "hash",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

// Value is a tagged runtime value. Values are created through the
// constructors below, which register them with their owning Collector.
type Value struct {
	typ       Type
	num       float64
	str       string
	boolean   bool
	arr       []*Value
	hash      map[string]*Value
	collector *Collector
}

// NewNil creates a nil value.
func NewNil(c *Collector) *Value {
	v := &Value{typ: TypeNil, collector: c}
	c.Register(v)
	return v
}

// NewNumber creates a number value.
func NewNumber(c *Collector, n float64) *Value {
	v := &Value{typ: TypeNumber, num: n, collector: c}
	c.Register(v)
	return v
}

// NewString creates a string value.
func NewString(c *Collector, s string) *Value {
	v := &Value{typ: TypeString, str: s, collector: c}
	c.Register(v)
	return v
}

// NewBoolean creates a boolean value.
func NewBoolean(c *Collector, b bool) *Value {
	v := &Value{typ: TypeBoolean, boolean: b, collector: c}
	c.Register(v)
	return v
}

// NewArray creates an empty array value.
func NewArray(c *Collector) *Value {
	v := &Value{typ: TypeArray, collector: c}
	c.Register(v)
	return v
}

// NewHash creates an empty hash value.
func NewHash(c *Collector) *Value {
	v := &Value{typ: TypeHash, hash: make(map[string]*Value), collector: c}
	c.Register(v)
	return v
}

// Type returns the value's representation tag.
func (v *Value) Type() Type {
	return v.typ
}

// Number coerces the value to a number: strings parse with fallback 0,
// booleans map to 1/0, nil to 0, containers to their element count.
func (v *Value) Number() float64 {
	switch v.typ {
	case TypeNumber:
		return v.num
	case TypeString:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0
		}
		return n
	case TypeBoolean:
		if v.boolean {
			return 1
		}
		return 0
	case TypeArray:
		return float64(len(v.arr))
	case TypeHash:
		return float64(len(v.hash))
	}
	return 0
}

// Text renders the value as display text. Numbers print without trailing
// zeros.
func (v *Value) Text() string {
	switch v.typ {
	case TypeNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case TypeString:
		return v.str
	case TypeBoolean:
		if v.boolean {
			return "true"
		}
		return "false"
	case TypeArray:
		parts := make([]string, len(v.arr))
		for i, elem := range v.arr {
			parts[i] = elem.Text()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case TypeHash:
		keys := make([]string, 0, len(v.hash))
		for k := range v.hash {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + v.hash[k].Text()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return "nil"
}

// Truthy reports the value's truth: zero, empty text, empty containers and
// nil are false.
func (v *Value) Truthy() bool {
	switch v.typ {
	case TypeNumber:
		return v.num != 0
	case TypeString:
		return v.str != ""
	case TypeBoolean:
		return v.boolean
	case TypeArray:
		return len(v.arr) > 0
	case TypeHash:
		return len(v.hash) > 0
	}
	return false
}

// Boolean returns the boolean payload, or a TypeError for other types.
func (v *Value) Boolean() (bool, error) {
	if v.typ != TypeBoolean {
		return false, &TypeError{Want: TypeBoolean, Got: v.typ}
	}
	return v.boolean, nil
}

// Array returns the array payload, or a TypeError for other types.
func (v *Value) Array() ([]*Value, error) {
	if v.typ != TypeArray {
		return nil, &TypeError{Want: TypeArray, Got: v.typ}
	}
	return v.arr, nil
}

// Hash returns the hash payload, or a TypeError for other types.
func (v *Value) Hash() (map[string]*Value, error) {
	if v.typ != TypeHash {
		return nil, &TypeError{Want: TypeHash, Got: v.typ}
	}
	return v.hash, nil
}

// Append adds an element to an array value and records the reference.
func (v *Value) Append(elem *Value) error {
	if v.typ != TypeArray {
		return &TypeError{Want: TypeArray, Got: v.typ}
	}
	v.arr = append(v.arr, elem)
	v.collector.AddReference(v, elem)
	return nil
}

// Set stores an element under a key in a hash value and records the
// reference.
func (v *Value) Set(key string, elem *Value) error {
	if v.typ != TypeHash {
		return &TypeError{Want: TypeHash, Got: v.typ}
	}
	if old, ok := v.hash[key]; ok {
		v.collector.RemoveReference(v, old)
	}
	v.hash[key] = elem
	v.collector.AddReference(v, elem)
	return nil
}

// contained returns the values this value directly holds.
func (v *Value) contained() []*Value {
	switch v.typ {
	case TypeArray:
		return v.arr
	case TypeHash:
		elems := make([]*Value, 0, len(v.hash))
		for _, elem := range v.hash {
			elems = append(elems, elem)
		}
		return elems
	}
	return nil
}

// textual reports whether the value renders as text for concatenation.
func (v *Value) textual() bool {
	return v.typ == TypeString
}

// Add adds or concatenates. If either side is a string the result is the
// concatenation of both sides' text.
func (v *Value) Add(other *Value) (*Value, error) {
	if v.textual() || other.textual() {
		return NewString(v.collector, v.Text()+other.Text()), nil
	}
	return NewNumber(v.collector, v.Number()+other.Number()), nil
}

// Sub subtracts numerically.
func (v *Value) Sub(other *Value) (*Value, error) {
	return NewNumber(v.collector, v.Number()-other.Number()), nil
}

// Mul multiplies numerically.
func (v *Value) Mul(other *Value) (*Value, error) {
	return NewNumber(v.collector, v.Number()*other.Number()), nil
}

// Div divides numerically. Division by zero is an ArithmeticError.
func (v *Value) Div(other *Value) (*Value, error) {
	d := other.Number()
	if d == 0 {
		return nil, &ArithmeticError{Op: "/", Msg: "division by zero"}
	}
	return NewNumber(v.collector, v.Number()/d), nil
}

// Mod takes the numeric remainder. Modulo by zero is an ArithmeticError.
func (v *Value) Mod(other *Value) (*Value, error) {
	d := other.Number()
	if d == 0 {
		return nil, &ArithmeticError{Op: "%", Msg: "modulo by zero"}
	}
	return NewNumber(v.collector, float64(int64(v.Number())%int64(d))), nil
}

// Equal compares two values. Strings compare as text, everything else
// numerically.
func (v *Value) Equal(other *Value) bool {
	if v.typ == TypeString && other.typ == TypeString {
		return v.str == other.str
	}
	if v.typ == TypeNil || other.typ == TypeNil {
		return v.typ == other.typ
	}
	return v.Number() == other.Number()
}

// Less orders two values. String pairs compare lexically, everything else
// numerically.
func (v *Value) Less(other *Value) bool {
	if v.typ == TypeString && other.typ == TypeString {
		return v.str < other.str
	}
	return v.Number() < other.Number()
}
