package storage

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
)

// ValueType represents the type of a property value
type ValueType uint8

const (
	// TypeNull is the zero ValueType; a missing property reads as null.
	TypeNull ValueType = iota
	TypeString
	TypeInt
	TypeFloat
	TypeBool
)

func (t ValueType) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Value represents a typed property value
type Value struct {
	Type ValueType
	Data []byte
}

// Null is the absent value
var Null = Value{}

func StringValue(s string) Value {
	return Value{Type: TypeString, Data: []byte(s)}
}

func IntValue(i int64) Value {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, uint64(i))
	return Value{Type: TypeInt, Data: data}
}

func FloatValue(f float64) Value {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, math.Float64bits(f))
	return Value{Type: TypeFloat, Data: data}
}

func BoolValue(b bool) Value {
	data := []byte{0}
	if b {
		data[0] = 1
	}
	return Value{Type: TypeBool, Data: data}
}

// ValueFromNative converts a Go value into a Value. nil maps to Null.
func ValueFromNative(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null, nil
	case Value:
		return x, nil
	case string:
		return StringValue(x), nil
	case int:
		return IntValue(int64(x)), nil
	case int32:
		return IntValue(int64(x)), nil
	case int64:
		return IntValue(x), nil
	case uint32:
		return IntValue(int64(x)), nil
	case float32:
		return FloatValue(float64(x)), nil
	case float64:
		return FloatValue(x), nil
	case bool:
		return BoolValue(x), nil
	default:
		return Null, fmt.Errorf("unsupported property type %T", v)
	}
}

func (v Value) IsNull() bool {
	return v.Type == TypeNull
}

func (v Value) AsString() (string, error) {
	if v.Type != TypeString {
		return "", fmt.Errorf("value is not a string")
	}
	return string(v.Data), nil
}

func (v Value) AsInt() (int64, error) {
	if v.Type != TypeInt {
		return 0, fmt.Errorf("value is not an int")
	}
	return int64(binary.LittleEndian.Uint64(v.Data)), nil
}

func (v Value) AsFloat() (float64, error) {
	if v.Type != TypeFloat {
		return 0, fmt.Errorf("value is not a float")
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(v.Data)), nil
}

func (v Value) AsBool() (bool, error) {
	if v.Type != TypeBool {
		return false, fmt.Errorf("value is not a bool")
	}
	return v.Data[0] == 1, nil
}

// Native returns the Go representation: nil, string, int64, float64 or bool.
func (v Value) Native() any {
	switch v.Type {
	case TypeString:
		return string(v.Data)
	case TypeInt:
		return int64(binary.LittleEndian.Uint64(v.Data))
	case TypeFloat:
		return math.Float64frombits(binary.LittleEndian.Uint64(v.Data))
	case TypeBool:
		return v.Data[0] == 1
	default:
		return nil
	}
}

// String renders the value the way it is written in a query.
func (v Value) String() string {
	switch v.Type {
	case TypeString:
		return strconv.Quote(string(v.Data))
	case TypeInt:
		return strconv.FormatInt(v.Native().(int64), 10)
	case TypeFloat:
		return strconv.FormatFloat(v.Native().(float64), 'g', -1, 64)
	case TypeBool:
		return strconv.FormatBool(v.Native().(bool))
	default:
		return "null"
	}
}

// Node represents a vertex in the graph. Committed nodes are never mutated;
// updates install a new *Node in the next graph version.
type Node struct {
	ID         uint64
	Labels     []string
	Properties map[string]Value
}

// HasLabel reports whether the node carries label.
func (n *Node) HasLabel(label string) bool {
	for _, l := range n.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Property returns the named property, or Null when absent.
func (n *Node) Property(name string) Value {
	if v, ok := n.Properties[name]; ok {
		return v
	}
	return Null
}

func (n *Node) clone() *Node {
	c := &Node{
		ID:         n.ID,
		Labels:     append([]string(nil), n.Labels...),
		Properties: make(map[string]Value, len(n.Properties)),
	}
	for k, v := range n.Properties {
		c.Properties[k] = v
	}
	return c
}
