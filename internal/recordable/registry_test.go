package recordable

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func staticFunc(name, content string) Recordable {
	return Func(name, func(context.Context) ([]byte, error) { return []byte(content), nil })
}

func TestRegistry_Order(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	r.MustRegister(staticFunc("c", ""), staticFunc("a", ""), staticFunc("b", ""))

	assert.Equal(t, []string{"c", "a", "b"}, r.Names())
	assert.Equal(t, 3, r.Len())

	recs := r.Recordables()
	recs[0] = nil
	assert.NotNil(t, r.Recordables()[0], "Recordables must return a copy")
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(staticFunc("proc/sys", "")))

	err := r.Register(staticFunc("proc/sys", ""))
	assert.ErrorIs(t, err, ErrDuplicate)

	// Different names that sanitize to the same file name would race on disk.
	err = r.Register(staticFunc("proc_sys", ""))
	assert.ErrorIs(t, err, ErrDuplicate)

	assert.Equal(t, 1, r.Len())
}

func TestRegistry_RejectsInvalid(t *testing.T) {
	r := NewRegistry(nil)
	assert.Error(t, r.Register(staticFunc("", "")))
	assert.Error(t, r.Register(staticFunc(ManifestFilename, "")))
	assert.Panics(t, func() { r.MustRegister(staticFunc("", "")) })
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry(nil)
	r.MustRegister(staticFunc("hostname", "node01"))

	rec, ok := r.Lookup("hostname")
	require.True(t, ok)
	assert.Equal(t, "hostname", rec.Name())

	_, ok = r.Lookup("nproc")
	assert.False(t, ok)
}

func TestRegistry_Without(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	r.MustRegister(staticFunc("a", ""), staticFunc("b", ""), staticFunc("c", ""))

	filtered := r.Without("b", "unknown")
	assert.Equal(t, []string{"a", "c"}, filtered.Names())
	assert.Equal(t, []string{"a", "b", "c"}, r.Names(), "source registry is unchanged")

	// The filtered registry keeps enforcing uniqueness.
	assert.ErrorIs(t, filtered.Register(staticFunc("a", "")), ErrDuplicate)
}

func TestRegistry_Only(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	r.MustRegister(staticFunc("a", ""), staticFunc("b", ""), staticFunc("c", ""))

	assert.Equal(t, []string{"a", "c"}, r.Only("c", "a", "unknown").Names(), "registry order is kept")
	assert.Zero(t, r.Only().Len())
}

func TestSpec_Build(t *testing.T) {
	tests := []struct {
		name     string
		spec     Spec
		wantErr  bool
		wantType interface{}
	}{
		{"command", Spec{Name: "nproc", Type: TypeCommand, Command: "nproc"}, false, &CommandRecordable{}},
		{"file", Spec{Name: "meminfo", Type: TypeFile, Path: "/proc/meminfo"}, false, &FileRecordable{}},
		{"env", Spec{Name: "slurm-job-id", Type: TypeEnv, Key: "SLURM_JOB_ID"}, false, &EnvRecordable{}},
		{"missing name", Spec{Type: TypeCommand, Command: "nproc"}, true, nil},
		{"missing command", Spec{Name: "x", Type: TypeCommand}, true, nil},
		{"missing path", Spec{Name: "x", Type: TypeFile}, true, nil},
		{"missing key", Spec{Name: "x", Type: TypeEnv}, true, nil},
		{"unknown type", Spec{Name: "x", Type: "socket"}, true, nil},
		{"bad kind", Spec{Name: "x", Type: TypeEnv, Key: "X", Kind: "xml"}, true, nil},
		{"negative timeout", Spec{Name: "x", Type: TypeEnv, Key: "X", Timeout: -time.Second}, true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := tt.spec.Build()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, rec)
			assert.Equal(t, tt.spec.Name, rec.Name())
		})
	}
}

func TestSpec_BuildOptions(t *testing.T) {
	rec, err := Spec{
		Name:     "lshw",
		Type:     TypeCommand,
		Command:  "lshw -json -quiet",
		Kind:     "structured",
		Filename: "lshw.json",
		Timeout:  30 * time.Second,
	}.Build()
	require.NoError(t, err)

	assert.Equal(t, KindStructured, rec.Kind())
	assert.Equal(t, "lshw.json", rec.Filename())
	assert.Equal(t, 30*time.Second, rec.Timeout())
}

func TestRegistry_RegisterSpecs(t *testing.T) {
	r := NewRegistry(nil)
	err := r.RegisterSpecs([]Spec{
		{Name: "date", Type: TypeCommand, Command: "date --iso=seconds"},
		{Name: "cpuinfo", Type: TypeFile, Path: "/proc/cpuinfo"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "cpuinfo"}, r.Names())

	err = r.RegisterSpecs([]Spec{{Name: "date", Type: TypeCommand, Command: "date"}})
	assert.ErrorIs(t, err, ErrDuplicate)
}
