package logging

import (
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Uint64(key string, value uint64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

func Component(name string) Field {
	return String("component", name)
}

func NodeID(id uint64) Field {
	return Uint64("node_id", id)
}

func Operation(op string) Field {
	return String("operation", op)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Count(n int) Field {
	return Int("count", n)
}

func Path(p string) Field {
	return String("path", p)
}

// QueryID tags log lines belonging to one query execution.
func QueryID(id string) Field {
	return String("query_id", id)
}

func AccessPath(name string) Field {
	return String("access_path", name)
}

func Label(name string) Field {
	return String("label", name)
}

func Property(name string) Field {
	return String("property", name)
}

// Version is the committed graph version a snapshot or commit refers to.
func Version(v uint64) Field {
	return Uint64("version", v)
}
