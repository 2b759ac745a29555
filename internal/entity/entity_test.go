package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoal/internal/types"
)

func TestToSnakeCase(t *testing.T) {
	cases := map[string]string{
		"testId":     "test_id",
		"HTTPHeader": "_h_t_t_p_header",
		"Name":       "_name",
		"id":         "id",
	}
	for in, want := range cases {
		assert.Equal(t, want, ToSnakeCase(in), "input %q", in)
	}
}

type test0 struct {
	TestId types.Nullable[int64]  `db:"pk,auto"`
	Test   types.Nullable[string] `db:"name=string,len=10"`
}

func (test0) TableName() string { return "test" }

func TestReflectNameResolutionAndAutoIncrement(t *testing.T) {
	spec, err := Reflect(&test0{})
	require.NoError(t, err)
	require.Len(t, spec.Fields, 2)

	idField, ok := spec.Field("test_id")
	require.True(t, ok)
	assert.True(t, idField.AutoIncrement)
	assert.False(t, idField.Nullable, "AutoIncrement must force nullable=false regardless of wrapper")
	assert.Equal(t, []string{"test_id"}, spec.PrimaryKeys)

	strField, ok := spec.Field("string")
	require.True(t, ok)
	assert.Equal(t, uint(10), strField.Length)
	assert.True(t, strField.Nullable)
}

type duplicateNames struct {
	A string `db:"name=col"`
	B string `db:"name=col"`
}

func (duplicateNames) TableName() string { return "dup" }

func TestReflectDuplicateColumnNameIsInvalid(t *testing.T) {
	_, err := Reflect(&duplicateNames{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both resolve to column")
}

type notNullRaw struct {
	A string `db:"notnull"`
}

func (notNullRaw) TableName() string { return "t" }

func TestReflectNotNullForcesNonNullable(t *testing.T) {
	spec, err := Reflect(&notNullRaw{})
	require.NoError(t, err)
	f, ok := spec.Field("a")
	require.True(t, ok)
	assert.False(t, f.Nullable)
}

type temporalFields struct {
	Stamp time.Time `db:"name=stamp"`
	Day   time.Time `db:"date,name=day"`
	Clock time.Time `db:"time,name=clock"`
}

func (temporalFields) TableName() string { return "temporal" }

// TestReflectDateAndTimeDirectivesAreReachable guards against Date/Time
// being undeclarable from entity reflection (two of the 15 logical types
// in the closed set, §8 S5's o/q columns).
func TestReflectDateAndTimeDirectivesAreReachable(t *testing.T) {
	spec, err := Reflect(&temporalFields{})
	require.NoError(t, err)

	stamp, ok := spec.Field("stamp")
	require.True(t, ok)
	assert.Equal(t, types.DateTime, stamp.Type)

	day, ok := spec.Field("day")
	require.True(t, ok)
	assert.Equal(t, types.Date, day.Type)

	clock, ok := spec.Field("clock")
	require.True(t, ok)
	assert.Equal(t, types.Time, clock.Type)
}
