// Package db is the public-facing façade (§6): one Database per connected
// backend, exposing connect/close and the generic init/select/insert/
// update/delete operations over any registered entity.Entity type.
package db

import (
	"context"
	"fmt"

	"shoal/internal/backend/mysql"
	"shoal/internal/backend/postgres"
	"shoal/internal/clause"
	"shoal/internal/bind"
	"shoal/internal/entity"
	"shoal/internal/schema"
	"shoal/internal/types"
)

// Driver names the wire backend a Database talks to.
type Driver string

const (
	Postgres Driver = "postgresql"
	MySQL    Driver = "mysql"
)

// Options configures Connect.
type Options struct {
	Driver   Driver
	Host     string
	Port     int
	User     string
	Password string
	Database string

	Logger schema.Logger
}

// Database is a live connection plus the abstract translator driving it.
// Every operation is generic over the caller's concrete entity.Entity
// type, resolved once via entity.Reflect and cached per TableName.
type Database struct {
	driver     Driver
	translator *schema.Translator
	closer     interface{ Close() error }
	specs      map[string]*entity.TableSpec
}

// Connect dials and authenticates against the backend named by opts.Driver.
func Connect(ctx context.Context, opts Options) (*Database, error) {
	logger := opts.Logger
	if logger == nil {
		logger = schema.Discard
	}

	var backend schema.Backend
	var closer interface{ Close() error }

	switch opts.Driver {
	case Postgres:
		b, err := postgres.Connect(ctx, postgres.Config{
			Host: opts.Host, Port: opts.Port, User: opts.User,
			Password: opts.Password, Database: opts.Database,
		}, pgLoggerAdapter{logger})
		if err != nil {
			return nil, err
		}
		backend, closer = b, b
	case MySQL:
		b, err := mysql.Connect(ctx, mysql.Config{
			Host: opts.Host, Port: opts.Port, User: opts.User,
			Password: opts.Password, Database: opts.Database,
		}, mysqlLoggerAdapter{logger})
		if err != nil {
			return nil, err
		}
		backend, closer = b, b
	default:
		return nil, fmt.Errorf("db: unknown driver %q", opts.Driver)
	}

	tr := schema.New(backend)
	tr.Logger = logger

	return &Database{
		driver:     opts.Driver,
		translator: tr,
		closer:     closer,
		specs:      make(map[string]*entity.TableSpec),
	}, nil
}

// Close releases the underlying connection.
func (d *Database) Close() error {
	return d.closer.Close()
}

func (d *Database) specFor(e entity.Entity) (*entity.TableSpec, error) {
	name := e.TableName()
	if spec, ok := d.specs[name]; ok {
		return spec, nil
	}
	spec, err := entity.Reflect(e)
	if err != nil {
		return nil, err
	}
	d.specs[name] = spec
	return spec, nil
}

// Init creates or reconciles the table backing prototype's concrete type.
func (d *Database) Init(ctx context.Context, prototype entity.Entity) error {
	spec, err := d.specFor(prototype)
	if err != nil {
		return err
	}
	return d.translator.Init(ctx, spec)
}

// Select runs sel against prototype's table and binds every row onto a
// fresh instance of prototype's concrete type.
func (d *Database) Select(ctx context.Context, prototype entity.Entity, sel schema.Select) ([]entity.Entity, error) {
	spec, err := d.specFor(prototype)
	if err != nil {
		return nil, err
	}
	result, err := d.translator.Select(ctx, spec, sel)
	if err != nil {
		return nil, err
	}
	return bind.Rows(result, spec, prototype)
}

// SelectOne is Select with the result limited to (at most) one row.
func (d *Database) SelectOne(ctx context.Context, prototype entity.Entity, sel schema.Select) (entity.Entity, error) {
	spec, err := d.specFor(prototype)
	if err != nil {
		return nil, err
	}
	result, err := d.translator.SelectOne(ctx, spec, sel)
	if err != nil {
		return nil, err
	}
	rows, err := bind.Rows(result, spec, prototype)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// SelectID looks up the row matching e's primary key and binds it onto a
// fresh instance of e's concrete type.
func (d *Database) SelectID(ctx context.Context, e entity.Entity) (entity.Entity, error) {
	spec, err := d.specFor(e)
	if err != nil {
		return nil, err
	}
	result, err := d.translator.SelectID(ctx, spec, e)
	if err != nil {
		return nil, err
	}
	rows, err := bind.Rows(result, spec, e)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Insert inserts e, writing any backend-generated primary key values back
// onto e.
func (d *Database) Insert(ctx context.Context, e entity.Entity) error {
	spec, err := d.specFor(e)
	if err != nil {
		return err
	}
	result, err := d.translator.Insert(ctx, spec, e, len(spec.PrimaryKeys) > 0)
	if err != nil {
		return err
	}
	if result == nil || len(result.Rows) == 0 {
		return nil
	}
	row := result.Rows[0]
	for _, pk := range spec.PrimaryKeys {
		idx, ok := result.Columns[pk]
		if !ok {
			continue
		}
		f, ok := spec.Field(pk)
		if !ok {
			continue
		}
		cell := row[idx]
		if cell.Null {
			continue
		}
		var value any = cell.Int
		switch {
		case f.Type&(types.Char|types.String|types.Clob) != 0:
			value = cell.String
		case f.Type&(types.Binary|types.Blob) != 0:
			value = cell.Binary
		case f.Type&(types.Float|types.Double) != 0:
			value = cell.Float
		}
		if err := entity.SetValue(e, f, value); err != nil {
			return err
		}
	}
	return nil
}

// Update writes fields (named by resolved column name) from e's current
// values, filtered by where (or e's primary key when where is nil).
func (d *Database) Update(ctx context.Context, e entity.Entity, fields []string, where *clause.Where) error {
	spec, err := d.specFor(e)
	if err != nil {
		return err
	}
	return d.translator.Update(ctx, spec, e, fields, where)
}

// Delete removes every row matching where from prototype's table.
func (d *Database) Delete(ctx context.Context, prototype entity.Entity, where *clause.Where) error {
	spec, err := d.specFor(prototype)
	if err != nil {
		return err
	}
	return d.translator.Delete(ctx, spec.TableName, where)
}

// DeleteID removes the row matching e's primary key.
func (d *Database) DeleteID(ctx context.Context, e entity.Entity) error {
	spec, err := d.specFor(e)
	if err != nil {
		return err
	}
	return d.translator.DeleteID(ctx, spec, e)
}

// Drop drops the table backing prototype's concrete type.
func (d *Database) Drop(ctx context.Context, prototype entity.Entity, ifExists bool) error {
	spec, err := d.specFor(prototype)
	if err != nil {
		return err
	}
	return d.translator.Drop(ctx, spec.TableName, ifExists)
}

type pgLoggerAdapter struct{ l schema.Logger }

func (a pgLoggerAdapter) Warnf(format string, args ...any)  { a.l.Warnf(format, args...) }
func (a pgLoggerAdapter) Debugf(format string, args ...any) { a.l.Debugf(format, args...) }

type mysqlLoggerAdapter struct{ l schema.Logger }

func (a mysqlLoggerAdapter) Warnf(format string, args ...any)  { a.l.Warnf(format, args...) }
func (a mysqlLoggerAdapter) Debugf(format string, args ...any) { a.l.Debugf(format, args...) }
