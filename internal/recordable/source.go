package recordable

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// FileRecordable captures the verbatim content of a file.
type FileRecordable struct {
	Meta
	path string
}

// File creates a recordable that reads path.
func File(name, path string, opts ...Option) *FileRecordable {
	return &FileRecordable{Meta: newMeta(name, KindText, opts), path: path}
}

// Path returns the file that is read.
func (f *FileRecordable) Path() string { return f.path }

// Acquire reads the file. Missing or unreadable files are unavailable sources.
func (f *FileRecordable) Acquire(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, Classify(f.Name(), err)
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, Classify(f.Name(), err)
	}
	return data, nil
}

// EnvRecordable captures the value of a single environment variable.
type EnvRecordable struct {
	Meta
	key string
}

// Env creates a recordable for the environment variable key.
func Env(name, key string, opts ...Option) *EnvRecordable {
	return &EnvRecordable{Meta: newMeta(name, KindText, opts), key: key}
}

// Key returns the environment variable name.
func (e *EnvRecordable) Key() string { return e.key }

// Acquire returns the variable's value. An unset variable is unavailable;
// a variable set to the empty string is captured as empty content.
func (e *EnvRecordable) Acquire(_ context.Context) ([]byte, error) {
	v, ok := os.LookupEnv(e.key)
	if !ok {
		return nil, Unavailable(e.Name(), fmt.Errorf("environment variable %s is not set", e.key))
	}
	return []byte(v), nil
}

// FuncRecordable captures the bytes returned by a library call.
type FuncRecordable struct {
	Meta
	fn func(ctx context.Context) ([]byte, error)
}

// Func creates a recordable backed by fn. The default kind is text.
func Func(name string, fn func(ctx context.Context) ([]byte, error), opts ...Option) *FuncRecordable {
	return &FuncRecordable{Meta: newMeta(name, KindText, opts), fn: fn}
}

// Acquire invokes the library call.
func (f *FuncRecordable) Acquire(ctx context.Context) ([]byte, error) {
	data, err := f.fn(ctx)
	if err != nil {
		return nil, Classify(f.Name(), err)
	}
	return data, nil
}

// JSON creates a structured recordable whose value is marshalled to indented JSON.
func JSON[T any](name string, fn func(ctx context.Context) (T, error), opts ...Option) *FuncRecordable {
	wrapped := func(ctx context.Context) ([]byte, error) {
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling %s: %w", name, err)
		}
		return append(data, '\n'), nil
	}
	return &FuncRecordable{Meta: newMeta(name, KindStructured, opts), fn: wrapped}
}
