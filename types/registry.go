package types

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
)

// Arg is one argument of a type declaration: either a nested type or a literal.
type Arg struct {
	Type    Type
	Literal string
}

// Int parses a literal argument as a non-negative integer.
func (a Arg) Int() (int, error) {
	if a.Type != nil {
		return 0, fmt.Errorf("%w: expected a number, got type %s", ErrInvalidArgument, a.Type.Name())
	}
	n, err := strconv.Atoi(a.Literal)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: expected a number, got %q", ErrInvalidArgument, a.Literal)
	}
	return n, nil
}

func (a Arg) String() string {
	if a.Type != nil {
		return a.Type.Name()
	}
	return a.Literal
}

// Factory builds a type of one family from its arguments.
type Factory func(args []Arg) (Type, error)

var registry = struct {
	sync.RWMutex
	families map[string]Factory
}{families: make(map[string]Factory)}

// Register makes a type family available to Parse. It panics if name is
// already registered or f is nil.
func Register(name string, f Factory) {
	registry.Lock()
	defer registry.Unlock()
	if f == nil {
		panic("types: Register factory is nil")
	}
	if _, dup := registry.families[name]; dup {
		panic("types: Register called twice for " + name)
	}
	registry.families[name] = f
}

// Families returns the registered family names in sorted order.
func Families() []string {
	registry.RLock()
	defer registry.RUnlock()
	names := make([]string, 0, len(registry.families))
	for name := range registry.families {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookup(name string) (Factory, bool) {
	registry.RLock()
	defer registry.RUnlock()
	f, ok := registry.families[name]
	return f, ok
}

// Simple adapts a constructor without arguments into a Factory.
func Simple(name string, t func() Type) Factory {
	return func(args []Arg) (Type, error) {
		if len(args) != 0 {
			return nil, &ArgumentCountError{Family: name, Want: 0, Got: len(args)}
		}
		return t(), nil
	}
}

// Unary adapts a single-type-argument constructor into a Factory.
func Unary(name string, t func(Type) (Type, error)) Factory {
	return func(args []Arg) (Type, error) {
		if len(args) != 1 {
			return nil, &ArgumentCountError{Family: name, Want: 1, Got: len(args)}
		}
		if args[0].Type == nil {
			return nil, fmt.Errorf("%w: %s expects a type, got %q", ErrInvalidArgument, name, args[0].Literal)
		}
		return t(args[0].Type)
	}
}

func init() {
	for name, t := range map[string]func() Type{
		"UInt8":    func() Type { return UInt8() },
		"UInt16":   func() Type { return UInt16() },
		"UInt32":   func() Type { return UInt32() },
		"UInt64":   func() Type { return UInt64() },
		"Int8":     func() Type { return Int8() },
		"Int16":    func() Type { return Int16() },
		"Int32":    func() Type { return Int32() },
		"Int64":    func() Type { return Int64() },
		"Float32":  func() Type { return Float32() },
		"Float64":  func() Type { return Float64() },
		"String":   func() Type { return String() },
		"Date":     func() Type { return Date() },
		"DateTime": func() Type { return DateTime() },
		"UUID":     func() Type { return UUID() },
	} {
		Register(name, Simple(name, t))
	}

	Register("FixedString", func(args []Arg) (Type, error) {
		if len(args) != 1 {
			return nil, &ArgumentCountError{Family: "FixedString", Want: 1, Got: len(args)}
		}
		n, err := args[0].Int()
		if err != nil {
			return nil, err
		}
		t, err := FixedString(n)
		if err != nil {
			return nil, err
		}
		return t, nil
	})

	Register("Nullable", Unary("Nullable", func(nested Type) (Type, error) {
		t, err := NewNullable(nested)
		if err != nil {
			return nil, err
		}
		return t, nil
	}))
}
