package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoal/internal/entity"
	"shoal/internal/schema"
	"shoal/internal/types"
)

type fakeBackend struct {
	inserted []string
	selected []string
}

func (b *fakeBackend) GetTableInfo(ctx context.Context, table string) (map[string]schema.TableInfo, error) {
	return nil, nil
}
func (b *fakeBackend) GenerateField(f entity.FieldSpec) string { return f.Name }
func (b *fakeBackend) CreateTable(ctx context.Context, table string, definitions []string) error {
	return nil
}
func (b *fakeBackend) AlterTableColumn(ctx context.Context, table string, f entity.FieldSpec, typeChanged, nullableChanged bool) error {
	return nil
}
func (b *fakeBackend) AlterTableAddColumn(ctx context.Context, table string, f entity.FieldSpec) error {
	return nil
}
func (b *fakeBackend) AlterTableDropColumn(ctx context.Context, table, column string) error {
	return nil
}
func (b *fakeBackend) DropTable(ctx context.Context, table string, ifExists bool) error { return nil }
func (b *fakeBackend) InsertInto(ctx context.Context, table string, names, values []string, primaryKeys []string) (*schema.Result, error) {
	b.inserted = append(b.inserted, table)
	if len(primaryKeys) == 0 {
		return nil, nil
	}
	return &schema.Result{
		Columns: map[string]int{primaryKeys[0]: 0},
		Rows:    [][]schema.Cell{{{Int: 99}}},
	}, nil
}
func (b *fakeBackend) Query(ctx context.Context, sql string) error { return nil }
func (b *fakeBackend) QuerySelect(ctx context.Context, sql string) (*schema.Result, error) {
	b.selected = append(b.selected, sql)
	return &schema.Result{
		Columns: map[string]int{"id": 0, "name": 1},
		Rows:    [][]schema.Cell{{{Int: 99}, {String: "widget"}}},
	}, nil
}
func (b *fakeBackend) RandomFunction() string       { return "random()" }
func (b *fakeBackend) EscapeString(s string) string { return "'" + s + "'" }
func (b *fakeBackend) EscapeBinary(v []byte) string { return "x" }

type thing struct {
	Id   types.Nullable[int64] `db:"pk,auto"`
	Name string
}

func (thing) TableName() string { return "thing" }

func newTestDatabase(backend schema.Backend) *Database {
	return &Database{
		translator: schema.New(backend),
		closer:     nopCloser{},
		specs:      make(map[string]*entity.TableSpec),
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func TestInsertWritesBackGeneratedID(t *testing.T) {
	backend := &fakeBackend{}
	database := newTestDatabase(backend)

	th := &thing{Name: "gear"}
	require.NoError(t, database.Insert(context.Background(), th))

	v, ok := th.Id.Value()
	assert.True(t, ok)
	assert.Equal(t, int64(99), v)
}

func TestSelectBindsRows(t *testing.T) {
	backend := &fakeBackend{}
	database := newTestDatabase(backend)

	rows, err := database.Select(context.Background(), &thing{}, schema.Select{})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	th := rows[0].(*thing)
	assert.Equal(t, "widget", th.Name)
}

func TestSpecForCachesByTableName(t *testing.T) {
	backend := &fakeBackend{}
	database := newTestDatabase(backend)

	s1, err := database.specFor(&thing{})
	require.NoError(t, err)
	s2, err := database.specFor(&thing{})
	require.NoError(t, err)
	assert.Same(t, s1, s2)
}
