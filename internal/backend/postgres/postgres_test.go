package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"shoal/internal/entity"
	"shoal/internal/types"
)

func TestEscapeStringDoublesQuotes(t *testing.T) {
	var b Backend
	assert.Equal(t, "'it''s fine'", b.EscapeString("it's fine"))
	assert.Equal(t, "'ab''cd'", b.EscapeString("ab'cd"))
	assert.Equal(t, "''", b.EscapeString(""))
}

func TestEscapeBinaryHexLiteral(t *testing.T) {
	var b Backend
	assert.Equal(t, "'\\xDEAD'", b.EscapeBinary([]byte{0xde, 0xad}))
}

func TestGenerateFieldAutoIncrementIdentity(t *testing.T) {
	var b Backend
	f := entity.FieldSpec{Name: "id", Type: types.Long, AutoIncrement: true, Nullable: false}
	def := b.GenerateField(f)
	assert.Contains(t, def, "generated always as identity")
	assert.Contains(t, def, "not null")
}

func TestGenerateFieldVarcharWithLength(t *testing.T) {
	var b Backend
	f := entity.FieldSpec{Name: "name", Type: types.String, Length: 32, Nullable: true}
	assert.Equal(t, "name character varying(32)", b.GenerateField(f))
}

func TestFlagForPGTypeKnownAndUnknown(t *testing.T) {
	assert.Equal(t, types.Bool, flagForPGType("boolean"))
	assert.Equal(t, types.DateTime, flagForPGType("timestamp without time zone"))
	assert.Equal(t, types.String, flagForPGType("some_future_type"))
}

func TestCellFromTextDecodesKnownOIDs(t *testing.T) {
	assert.Equal(t, true, cellFromText(oidBool, "t").Bool)
	assert.Equal(t, int64(42), cellFromText(oidInt4, "42").Int)
	assert.InDelta(t, 3.5, cellFromText(oidFloat8, "3.5").Float, 0.0001)
}
