package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"shoal/internal/clause"
	"shoal/internal/entity"
	"shoal/internal/schema"
	"shoal/internal/types"
)

// These scenarios implement spec.md §8 S1-S7 end to end, against real
// PostgreSQL and MySQL servers started with testcontainers-go. They are
// skipped under go test -short.

func startPostgres(t *testing.T) Options {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("shoal"),
		tcpostgres.WithUsername("shoal"),
		tcpostgres.WithPassword("shoal"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	return Options{
		Driver:   Postgres,
		Host:     host,
		Port:     port.Int(),
		User:     "shoal",
		Password: "shoal",
		Database: "shoal",
	}
}

func startMySQL(t *testing.T) Options {
	t.Helper()
	ctx := context.Background()

	container, err := tcmysql.Run(ctx, "mysql:8.0",
		tcmysql.WithDatabase("shoal"),
		tcmysql.WithUsername("shoal"),
		tcmysql.WithPassword("shoal"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "3306/tcp")
	require.NoError(t, err)

	return Options{
		Driver:   MySQL,
		Host:     host,
		Port:     port.Int(),
		User:     "shoal",
		Password: "shoal",
		Database: "shoal",
	}
}

func connectWithRetry(t *testing.T, opts Options) *Database {
	t.Helper()
	ctx := context.Background()

	var database *Database
	var err error
	for i := 0; i < 20; i++ {
		database, err = Connect(ctx, opts)
		if err == nil {
			return database
		}
		time.Sleep(500 * time.Millisecond)
	}
	require.NoError(t, err)
	return nil
}

// Test0 is S1's initial declaration.
type test0 struct {
	TestId types.Nullable[int64] `db:"pk,auto"`
	Test   string                `db:"len=10"`
}

func (test0) TableName() string { return "test" }

// Test1 is S1's redefinition, adding two columns.
type test1 struct {
	TestId types.Nullable[int64] `db:"pk,auto"`
	Test   string                `db:"len=10"`
	A      types.Nullable[int32] `db:"notnull"`
	B      types.Nullable[int16] `db:"unique"`
}

func (test1) TableName() string { return "test" }

func TestScenarioS1CreateAndAlter(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	for _, driverName := range []string{"postgres", "mysql"} {
		t.Run(driverName, func(t *testing.T) {
			var opts Options
			if driverName == "postgres" {
				opts = startPostgres(t)
			} else {
				opts = startMySQL(t)
			}
			database := connectWithRetry(t, opts)
			defer database.Close()
			ctx := context.Background()

			require.NoError(t, database.Drop(ctx, &test0{}, true))
			require.NoError(t, database.Init(ctx, &test0{}))
			require.NoError(t, database.Init(ctx, &test1{}))

			rows, err := database.Select(ctx, &test1{}, schema.Select{})
			require.NoError(t, err)
			assert.Empty(t, rows)
		})
	}
}

func TestScenarioS2InsertUniquenessNotNull(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	for _, driverName := range []string{"postgres", "mysql"} {
		t.Run(driverName, func(t *testing.T) {
			var opts Options
			if driverName == "postgres" {
				opts = startPostgres(t)
			} else {
				opts = startMySQL(t)
			}
			database := connectWithRetry(t, opts)
			defer database.Close()
			ctx := context.Background()

			require.NoError(t, database.Drop(ctx, &test0{}, true))
			require.NoError(t, database.Init(ctx, &test1{}))

			row := &test1{Test: "test"}
			row.A.Set(55)
			row.B.Set(-1)
			require.NoError(t, database.Insert(ctx, row))
			id, ok := row.TestId.Value()
			require.True(t, ok)
			assert.Equal(t, int64(1), id)

			dup := &test1{Test: "test2"}
			dup.A.Set(77)
			dup.B.Set(-1) // same unique value as row
			err := database.Insert(ctx, dup)
			assert.Error(t, err)

			bad := &test1{Test: "test3"}
			bad.B.Set(9)
			// A left null -> violates NOT NULL
			err = database.Insert(ctx, bad)
			assert.Error(t, err)

			third := &test1{Test: "test4"}
			third.A.Set(44)
			third.B.Set(1)
			require.NoError(t, database.Insert(ctx, third))

			fourth := &test1{Test: "test5"}
			fourth.A.Set(33)
			fourth.B.Set(6)
			require.NoError(t, database.Insert(ctx, fourth))

			rows, err := database.Select(ctx, &test1{}, schema.Select{})
			require.NoError(t, err)
			assert.Len(t, rows, 3)
		})
	}
}

func TestScenarioS3SelectOneByEquality(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	opts := startPostgres(t)
	database := connectWithRetry(t, opts)
	defer database.Close()
	ctx := context.Background()

	require.NoError(t, database.Drop(ctx, &test0{}, true))
	require.NoError(t, database.Init(ctx, &test1{}))

	seed := &test1{Test: "test"}
	seed.A.Set(55)
	seed.B.Set(-1)
	require.NoError(t, database.Insert(ctx, seed))

	found, err := database.SelectOne(ctx, &test1{}, schema.Select{
		Where: clause.Var("test").Equals("test"),
	})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "test", found.(*test1).Test)
}

func TestScenarioS4OrderingAndCompositeWhere(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	opts := startPostgres(t)
	database := connectWithRetry(t, opts)
	defer database.Close()
	ctx := context.Background()

	require.NoError(t, database.Drop(ctx, &test0{}, true))
	require.NoError(t, database.Init(ctx, &test1{}))

	seedRow := func(name string, a int32, b int16) {
		row := &test1{Test: name}
		row.A.Set(a)
		row.B.Set(b)
		require.NoError(t, database.Insert(ctx, row))
	}
	seedRow("test", 55, -1)
	seedRow("test4", 44, 1)
	seedRow("test5", 33, 6)

	ordered, err := database.Select(ctx, &test1{}, schema.Select{Order: clause.By("a")})
	require.NoError(t, err)
	require.Len(t, ordered, 3)
	assert.EqualValues(t, 33, mustA(ordered[0]))
	assert.EqualValues(t, 44, mustA(ordered[1]))
	assert.EqualValues(t, 55, mustA(ordered[2]))

	filtered, err := database.Select(ctx, &test1{}, schema.Select{
		Where: clause.Var("a").LessThan(40).And(clause.Var("b").NotEquals(0)),
	})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.EqualValues(t, 33, mustA(filtered[0]))
}

func mustA(e entity.Entity) int32 {
	v, _ := e.(*test1).A.Value()
	return v
}

// test2 exercises every logical type (S5) in a single round trip.
type test2 struct {
	Id types.Nullable[int64] `db:"pk,auto"`
	A  bool
	C  int16
	D  int32
	E  types.Nullable[int64]
	F  float32
	G  float64
	H  string                `db:"len=1"`
	I  string                `db:"len=10"`
	L  []byte
	M  string    `db:"len=19"`
	N  []byte
	O  time.Time `db:"date"`
	P  time.Time
	Q  time.Time `db:"time"`
}

func (test2) TableName() string { return "test2" }

func TestScenarioS5AllTypesRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	opts := startPostgres(t)
	database := connectWithRetry(t, opts)
	defer database.Close()
	ctx := context.Background()

	require.NoError(t, database.Drop(ctx, &test2{}, true))
	require.NoError(t, database.Init(ctx, &test2{}))

	row := &test2{
		A: true,
		C: 13,
		D: -14,
		F: 0.55,
		G: 7.34823e+10,
		H: ";",
		I: "test",
		L: []byte{0, 1, 2, 55},
		M: "___________________",
		N: []byte{0, 0, 0, 0, 0, 0, 0},
		O: time.Date(2018, 12, 31, 0, 0, 0, 0, time.UTC),
		P: time.Date(2019, 1, 1, 0, 27, 43, 0, time.UTC),
		Q: time.Date(1, 1, 1, 0, 36, 12, 0, time.UTC),
	}
	require.NoError(t, database.Insert(ctx, row))

	got, err := database.SelectID(ctx, row)
	require.NoError(t, err)
	require.NotNil(t, got)
	result := got.(*test2)

	assert.Equal(t, row.A, result.A)
	assert.Equal(t, row.C, result.C)
	assert.Equal(t, row.D, result.D)
	assert.True(t, result.E.IsNull())
	assert.InDelta(t, row.F, result.F, 0.001)
	assert.InDelta(t, row.G, result.G, 1)
	assert.Equal(t, row.H, result.H)
	assert.Equal(t, row.I, result.I)
	assert.Equal(t, row.L, result.L)
	assert.Equal(t, row.M, result.M)
	assert.Equal(t, row.N, result.N)
	assert.True(t, row.O.Equal(result.O))
	assert.True(t, row.P.Equal(result.P))
	assert.Equal(t, row.Q.Hour(), result.Q.Hour())
	assert.Equal(t, row.Q.Minute(), result.Q.Minute())
	assert.Equal(t, row.Q.Second(), result.Q.Second())
}

// test3 has a composite primary key (S6).
type test3 struct {
	Id1   int32 `db:"pk"`
	Id2   string `db:"pk,len=10"`
	Value int64
}

func (test3) TableName() string { return "test3" }

func TestScenarioS6CompositeKeyUpdateDeleteSelectID(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	opts := startPostgres(t)
	database := connectWithRetry(t, opts)
	defer database.Close()
	ctx := context.Background()

	require.NoError(t, database.Drop(ctx, &test3{}, true))
	require.NoError(t, database.Init(ctx, &test3{}))

	row := &test3{Id1: 1, Id2: "test", Value: 2147483647}
	require.NoError(t, database.Insert(ctx, row))

	row.Value = 12
	require.NoError(t, database.Update(ctx, row, []string{"value"}, nil))

	found, err := database.SelectID(ctx, &test3{Id1: 1, Id2: "test"})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.EqualValues(t, 12, found.(*test3).Value)

	require.NoError(t, database.DeleteID(ctx, &test3{Id1: 1, Id2: "test"}))

	rows, err := database.Select(ctx, &test3{}, schema.Select{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

// test4 is a single-string table used to exercise escaping (S7).
type test4 struct {
	Id  types.Nullable[int64] `db:"pk,auto"`
	Str string                `db:"len=64"`
}

func (test4) TableName() string { return "test4" }

func TestScenarioS7Escaping(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	opts := startPostgres(t)
	database := connectWithRetry(t, opts)
	defer database.Close()
	ctx := context.Background()

	require.NoError(t, database.Drop(ctx, &test4{}, true))
	require.NoError(t, database.Init(ctx, &test4{}))

	require.NoError(t, database.Insert(ctx, &test4{Str: "'"}))
	require.NoError(t, database.Insert(ctx, &test4{Str: "');drop table test;--"}))

	rows, err := database.Select(ctx, &test4{}, schema.Select{})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	values := []string{rows[0].(*test4).Str, rows[1].(*test4).Str}
	assert.Contains(t, values, "'")
	assert.Contains(t, values, "');drop table test;--")
}

