// Package postgres implements the C6 backend: a hand-rolled client for the
// PostgreSQL v3 frontend/backend wire protocol, satisfying schema.Backend.
// It never reaches for database/sql or a driver library — generating and
// speaking the protocol directly is the component's entire purpose.
package postgres

import (
	"context"
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"shoal/internal/dberrors"
	"shoal/internal/entity"
	"shoal/internal/schema"
	"shoal/internal/types"
	"shoal/internal/wire"
)

// Config describes how to reach and authenticate against one PostgreSQL
// server.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string

	DialTimeout time.Duration
}

// Logger is the minimal logging contract notices and drained packets are
// reported through (§7).
type Logger interface {
	Warnf(format string, args ...any)
	Debugf(format string, args ...any)
}

type discardLogger struct{}

func (discardLogger) Warnf(string, ...any)  {}
func (discardLogger) Debugf(string, ...any) {}

// Backend is a live connection to one PostgreSQL server.
type Backend struct {
	cfg    Config
	conn   net.Conn
	stream *wire.Stream
	logger Logger
}

// Connect dials cfg.Host:cfg.Port, performs the startup/auth handshake, and
// returns a ready Backend.
func Connect(ctx context.Context, cfg Config, logger Logger) (*Backend, error) {
	if logger == nil {
		logger = discardLogger{}
	}
	dialer := net.Dialer{Timeout: cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)))
	if err != nil {
		return nil, &dberrors.ConnectionError{Op: "dial", Err: err}
	}

	b := &Backend{
		cfg:    cfg,
		conn:   conn,
		stream: wire.NewStream(conn, wire.Postgres),
		logger: logger,
	}
	if err := b.handshake(); err != nil {
		conn.Close()
		return nil, err
	}
	return b, nil
}

// Close closes the underlying socket.
func (b *Backend) Close() error {
	return b.conn.Close()
}

func (b *Backend) handshake() error {
	if err := b.sendStartup(); err != nil {
		return err
	}

	for {
		pkt, err := b.stream.ReadPacket()
		if err != nil {
			return &dberrors.ConnectionError{Op: "read auth response", Err: err}
		}
		switch pkt.ID {
		case 'R': // authentication request
			done, err := b.handleAuth(pkt.Payload)
			if err != nil {
				return err
			}
			if done {
				continue
			}
		case 'S': // ParameterStatus, ignored
			continue
		case 'K': // BackendKeyData, ignored (no cancel-request support)
			continue
		case 'Z': // ReadyForQuery
			return nil
		case 'E':
			return coded("postgresql", pkt.Payload)
		default:
			b.logger.Debugf("postgres: ignoring unexpected startup packet %q", pkt.ID)
		}
	}
}

func (b *Backend) sendStartup() error {
	buf := wire.NewWriteBuffer()
	buf.WriteUint32(binary.BigEndian, 196608) // protocol version 3.0
	buf.WriteZeroTerminatedString("user")
	buf.WriteZeroTerminatedString(b.cfg.User)
	buf.WriteZeroTerminatedString("database")
	buf.WriteZeroTerminatedString(b.cfg.Database)
	buf.WriteByte(0)

	// The startup message has no type byte; length includes itself.
	payload := buf.Bytes()
	full := wire.NewWriteBuffer()
	full.WriteUint32(binary.BigEndian, uint32(len(payload)+4))
	full.WriteBytes(payload)
	_, err := b.conn.Write(full.Bytes())
	return err
}

// handleAuth dispatches on the authentication sub-type; returns true once
// authentication has fully completed (AuthenticationOk).
func (b *Backend) handleAuth(payload []byte) (bool, error) {
	buf := wire.NewBuffer(payload)
	kind, err := buf.ReadUint32(binary.BigEndian)
	if err != nil {
		return false, &dberrors.ConnectionError{Op: "decode auth kind", Err: err}
	}
	switch kind {
	case 0: // AuthenticationOk
		return true, nil
	case 5: // AuthenticationMD5Password
		salt, err := buf.ReadBytes(4)
		if err != nil {
			return false, &dberrors.ConnectionError{Op: "read md5 salt", Err: err}
		}
		return false, b.sendMD5Password(salt)
	default:
		return false, &dberrors.ConnectionError{Op: "authenticate", Err: fmt.Errorf("unsupported auth method %d", kind)}
	}
}

// sendMD5Password implements PostgreSQL's MD5 auth: md5(md5(password+user)+salt),
// hex-encoded and prefixed with "md5" (§7.1: the wire protocol mandates MD5
// here, so stdlib crypto/md5 is the correct, not a fallback, tool).
func (b *Backend) sendMD5Password(salt []byte) error {
	inner := md5.Sum([]byte(b.cfg.Password + b.cfg.User))
	outer := md5.Sum(append([]byte(hex.EncodeToString(inner[:])), salt...))
	password := "md5" + hex.EncodeToString(outer[:])

	buf := wire.NewWriteBuffer()
	buf.WriteZeroTerminatedString(password)
	return b.stream.WritePacket('p', buf.Bytes())
}

func coded(backend string, payload []byte) error {
	buf := wire.NewBuffer(payload)
	multi := &dberrors.MultiCodedError{}
	for {
		tag, err := buf.ReadByte()
		if err != nil || tag == 0 {
			break
		}
		msg, err := buf.ReadZeroTerminatedString()
		if err != nil {
			break
		}
		multi.Errors = append(multi.Errors, &dberrors.CodedError{Backend: backend, Code: string(tag), Message: msg})
	}
	if len(multi.Errors) == 1 {
		return multi.Errors[0]
	}
	return multi
}

// drainToReady consumes packets until ReadyForQuery, logging notices and
// surfacing the first ErrorResponse encountered (§7: drained-packet counts
// are logged, not raised).
func (b *Backend) drainToReady() error {
	var firstErr error
	drained := 0
	for {
		pkt, err := b.stream.ReadPacket()
		if err != nil {
			return &dberrors.ConnectionError{Op: "drain to ready", Err: err}
		}
		switch pkt.ID {
		case 'Z':
			if drained > 0 {
				b.logger.Debugf("postgres: drained %d packets before ReadyForQuery", drained)
			}
			return firstErr
		case 'E':
			if firstErr == nil {
				firstErr = coded("postgresql", pkt.Payload)
			}
		case 'N':
			b.logger.Warnf("postgres: notice: %s", string(pkt.Payload))
		default:
			drained++
		}
	}
}

// Query runs a simple-query-protocol statement and drains every response
// packet, returning only a connection/coded error.
func (b *Backend) Query(ctx context.Context, sql string) error {
	buf := wire.NewWriteBuffer()
	buf.WriteZeroTerminatedString(sql)
	if err := b.stream.WritePacket('Q', buf.Bytes()); err != nil {
		return &dberrors.ConnectionError{Op: "send query", Err: err}
	}
	return b.drainToReady()
}

// QuerySelect runs sql via the simple query protocol and decodes the
// RowDescription ('T') and DataRow ('D') packets into a schema.Result.
func (b *Backend) QuerySelect(ctx context.Context, sql string) (*schema.Result, error) {
	buf := wire.NewWriteBuffer()
	buf.WriteZeroTerminatedString(sql)
	if err := b.stream.WritePacket('Q', buf.Bytes()); err != nil {
		return nil, &dberrors.ConnectionError{Op: "send query", Err: err}
	}

	result := &schema.Result{Columns: map[string]int{}}
	var columnOIDs []uint32
	var firstErr error

	for {
		pkt, err := b.stream.ReadPacket()
		if err != nil {
			return nil, &dberrors.ConnectionError{Op: "read query response", Err: err}
		}
		switch pkt.ID {
		case 'T':
			columnOIDs = decodeRowDescription(pkt.Payload, result)
		case 'D':
			row, err := decodeDataRow(pkt.Payload, columnOIDs)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			result.Rows = append(result.Rows, row)
		case 'C': // CommandComplete
			continue
		case 'E':
			if firstErr == nil {
				firstErr = coded("postgresql", pkt.Payload)
			}
		case 'N':
			b.logger.Warnf("postgres: notice: %s", string(pkt.Payload))
		case 'Z':
			return result, firstErr
		}
	}
}

func decodeRowDescription(payload []byte, result *schema.Result) []uint32 {
	buf := wire.NewBuffer(payload)
	n, _ := buf.ReadUint16(binary.BigEndian)
	oids := make([]uint32, 0, n)
	for i := 0; i < int(n); i++ {
		name, _ := buf.ReadZeroTerminatedString()
		_, _ = buf.ReadUint32(binary.BigEndian) // table OID
		_, _ = buf.ReadUint16(binary.BigEndian) // column attr number
		oid, _ := buf.ReadUint32(binary.BigEndian)
		_, _ = buf.ReadUint16(binary.BigEndian) // type size
		_, _ = buf.ReadUint32(binary.BigEndian) // type modifier
		_, _ = buf.ReadUint16(binary.BigEndian) // format code
		result.Columns[name] = i
		oids = append(oids, oid)
	}
	return oids
}

// PostgreSQL OIDs for the built-in types this backend round-trips.
const (
	oidBool      = 16
	oidInt8      = 20
	oidInt2      = 21
	oidInt4      = 23
	oidText      = 25
	oidFloat4    = 700
	oidFloat8    = 701
	oidBpchar    = 1042
	oidVarchar   = 1043
	oidDate      = 1082
	oidTime      = 1083
	oidTimestamp = 1114
	oidBytea     = 17
)

func decodeDataRow(payload []byte, oids []uint32) ([]schema.Cell, error) {
	buf := wire.NewBuffer(payload)
	n, err := buf.ReadUint16(binary.BigEndian)
	if err != nil {
		return nil, err
	}
	cells := make([]schema.Cell, n)
	for i := 0; i < int(n); i++ {
		length, err := buf.ReadUint32(binary.BigEndian)
		if err != nil {
			return nil, err
		}
		if int32(length) == -1 {
			cells[i] = schema.Cell{Null: true}
			continue
		}
		raw, err := buf.ReadBytes(int(length))
		if err != nil {
			return nil, err
		}
		var oid uint32
		if i < len(oids) {
			oid = oids[i]
		}
		cells[i] = cellFromText(oid, string(raw))
	}
	return cells, nil
}

func cellFromText(oid uint32, text string) schema.Cell {
	switch oid {
	case oidBool:
		return schema.Cell{Bool: text == "t"}
	case oidInt8, oidInt2, oidInt4:
		v, _ := strconv.ParseInt(text, 10, 64)
		return schema.Cell{Int: v}
	case oidFloat4, oidFloat8:
		v, _ := strconv.ParseFloat(text, 64)
		return schema.Cell{Float: v}
	case oidDate:
		return schema.Cell{Date: text}
	case oidTime:
		return schema.Cell{Time: text}
	case oidTimestamp:
		return schema.Cell{DateTime: strings.Replace(text, " ", "T", 1)}
	case oidBytea:
		return schema.Cell{Binary: decodeBytea(text)}
	default:
		return schema.Cell{String: text}
	}
}

func decodeBytea(text string) []byte {
	if !strings.HasPrefix(text, "\\x") {
		return []byte(text)
	}
	raw, err := hex.DecodeString(text[2:])
	if err != nil {
		return nil
	}
	return raw
}

// GetTableInfo queries information_schema.columns for table's live shape,
// returning nil when the table does not exist.
func (b *Backend) GetTableInfo(ctx context.Context, table string) (map[string]schema.TableInfo, error) {
	sql := fmt.Sprintf(
		"select column_name, data_type, is_nullable, character_maximum_length, column_default "+
			"from information_schema.columns where table_name = %s",
		b.EscapeString(table),
	)
	result, err := b.QuerySelect(ctx, sql)
	if err != nil {
		return nil, err
	}
	if len(result.Rows) == 0 {
		return nil, nil
	}

	out := make(map[string]schema.TableInfo, len(result.Rows))
	for _, row := range result.Rows {
		name := row[result.Columns["column_name"]].String
		dataType := row[result.Columns["data_type"]].String
		nullable := row[result.Columns["is_nullable"]].String == "YES"
		var length uint
		if lc := row[result.Columns["character_maximum_length"]]; !lc.Null {
			length = uint(lc.Int)
		}
		var def string
		if dc := row[result.Columns["column_default"]]; !dc.Null {
			def = dc.String
		}
		out[name] = schema.TableInfo{
			Name:         name,
			Type:         flagForPGType(dataType),
			Length:       length,
			Nullable:     nullable,
			DefaultValue: def,
			Raw:          dataType,
		}
	}
	return out, nil
}

func flagForPGType(dataType string) types.Flag {
	switch dataType {
	case "boolean":
		return types.Bool
	case "smallint":
		return types.Short
	case "integer":
		return types.Int
	case "bigint":
		return types.Long
	case "real":
		return types.Float
	case "double precision", "numeric":
		return types.Double
	case "character", "character varying":
		return types.Char | types.String
	case "text":
		return types.String | types.Clob
	case "bytea":
		return types.Binary | types.Blob
	case "date":
		return types.Date
	case "time without time zone", "time with time zone":
		return types.Time
	case "timestamp without time zone", "timestamp with time zone":
		return types.DateTime
	default:
		return types.String
	}
}

// GenerateField renders one PostgreSQL column definition.
func (b *Backend) GenerateField(f entity.FieldSpec) string {
	def := fmt.Sprintf("%s %s", f.Name, pgType(f))
	if f.AutoIncrement {
		def = fmt.Sprintf("%s %s generated always as identity", f.Name, pgType(f))
	}
	if !f.Nullable {
		def += " not null"
	}
	if f.Unique {
		def += " unique"
	}
	if f.DefaultValue != "" {
		def += " default " + f.DefaultValue
	}
	return def
}

func pgType(f entity.FieldSpec) string {
	switch {
	case f.Type&types.Bool != 0:
		return "boolean"
	case f.Type&types.Byte != 0:
		return "smallint"
	case f.Type&types.Short != 0:
		return "smallint"
	case f.Type&types.Int != 0:
		return "integer"
	case f.Type&types.Long != 0:
		return "bigint"
	case f.Type&types.Float != 0:
		return "real"
	case f.Type&types.Double != 0:
		return "double precision"
	case f.Type&types.Binary != 0 || f.Type&types.Blob != 0:
		return "bytea"
	case f.Type&types.Clob != 0:
		return "text"
	case f.Type&types.Char != 0 && f.Length > 0:
		return fmt.Sprintf("character(%d)", f.Length)
	case f.Type&types.String != 0 && f.Length > 0:
		return fmt.Sprintf("character varying(%d)", f.Length)
	case f.Type&(types.Char|types.String) != 0:
		return "text"
	case f.Type&types.Date != 0:
		return "date"
	case f.Type&types.Time != 0:
		return "time"
	case f.Type&types.DateTime != 0:
		return "timestamp"
	default:
		return "text"
	}
}

// CreateTable renders and executes a CREATE TABLE statement.
func (b *Backend) CreateTable(ctx context.Context, table string, definitions []string) error {
	sql := fmt.Sprintf("create table %s (%s)", table, strings.Join(definitions, ", "))
	return b.Query(ctx, sql)
}

// AlterTableColumn renders the MODIFY-equivalent ALTER statements
// PostgreSQL requires as two separate clauses: TYPE and [DROP|SET] NOT NULL.
func (b *Backend) AlterTableColumn(ctx context.Context, table string, f entity.FieldSpec, typeChanged, nullableChanged bool) error {
	var stmts []string
	if typeChanged {
		stmts = append(stmts, fmt.Sprintf("alter table %s alter column %s type %s using %s::%s", table, f.Name, pgType(f), f.Name, pgType(f)))
	}
	if nullableChanged {
		clause := "set not null"
		if f.Nullable {
			clause = "drop not null"
		}
		stmts = append(stmts, fmt.Sprintf("alter table %s alter column %s %s", table, f.Name, clause))
	}
	for _, sql := range stmts {
		if err := b.Query(ctx, sql); err != nil {
			return err
		}
	}
	return nil
}

// AlterTableAddColumn adds f as a new column.
func (b *Backend) AlterTableAddColumn(ctx context.Context, table string, f entity.FieldSpec) error {
	return b.Query(ctx, fmt.Sprintf("alter table %s add column %s", table, b.GenerateField(f)))
}

// AlterTableDropColumn drops column from table.
func (b *Backend) AlterTableDropColumn(ctx context.Context, table, column string) error {
	return b.Query(ctx, fmt.Sprintf("alter table %s drop column %s", table, column))
}

// DropTable drops table, optionally guarded with IF EXISTS.
func (b *Backend) DropTable(ctx context.Context, table string, ifExists bool) error {
	if ifExists {
		return b.Query(ctx, fmt.Sprintf("drop table if exists %s", table))
	}
	return b.Query(ctx, fmt.Sprintf("drop table %s", table))
}

// InsertInto renders and executes an INSERT, optionally with a RETURNING
// clause for primaryKeys, decoding the returned row the same way
// QuerySelect does.
func (b *Backend) InsertInto(ctx context.Context, table string, names, values []string, primaryKeys []string) (*schema.Result, error) {
	sql := fmt.Sprintf("insert into %s (%s) values (%s)", table, strings.Join(names, ", "), strings.Join(values, ", "))
	if len(primaryKeys) == 0 {
		return nil, b.Query(ctx, sql)
	}
	sql += " returning " + strings.Join(primaryKeys, ", ")
	return b.QuerySelect(ctx, sql)
}

// RandomFunction returns PostgreSQL's random-ordering function.
func (b *Backend) RandomFunction() string { return "random()" }

// EscapeString quotes and escapes s for use as a SQL string literal,
// doubling embedded single quotes per the standard_conforming_strings
// convention (no backslash escaping).
func (b *Backend) EscapeString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// EscapeBinary renders v as a PostgreSQL bytea hex literal, uppercase per
// §8 property 4 (escapeBinary([0xDE,0xAD]) == "'\xDEAD'").
func (b *Backend) EscapeBinary(v []byte) string {
	return "'\\x" + strings.ToUpper(hex.EncodeToString(v)) + "'"
}
