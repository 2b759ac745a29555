// Package mysql implements the C7 backend: a hand-rolled client for the
// MySQL/MariaDB 4.1+ client/server wire protocol, satisfying schema.Backend.
// Like the postgres backend, it never delegates to database/sql or
// go-sql-driver/mysql — speaking COM_QUERY and the handshake itself is the
// point.
package mysql

import (
	"bytes"
	"context"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"
	"time"

	"shoal/internal/dberrors"
	"shoal/internal/entity"
	"shoal/internal/schema"
	"shoal/internal/types"
	"shoal/internal/wire"
)

// Config describes how to reach and authenticate against one
// MySQL/MariaDB server.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string

	DialTimeout time.Duration
}

// Logger is the minimal logging contract this backend accepts, the same
// shape as the postgres backend's. Connect stores it on the Backend; no
// code path of this backend writes a message to it.
type Logger interface {
	Warnf(format string, args ...any)
	Debugf(format string, args ...any)
}

type discardLogger struct{}

func (discardLogger) Warnf(string, ...any)  {}
func (discardLogger) Debugf(string, ...any) {}

// Backend is a live connection to one MySQL/MariaDB server.
type Backend struct {
	cfg    Config
	conn   net.Conn
	stream *wire.Stream
	logger Logger
}

const (
	capClientProtocol41     = 0x00000200
	capClientSecureConn     = 0x00008000
	capClientPluginAuth     = 0x00080000
	capClientConnectAttrs   = 0x00100000
	capClientPluginAuthData = 0x00200000
	capClientLongPassword   = 0x00000001
	capClientConnectDB      = 0x00000008
	capClientDeprecateEOF   = 0x01000000
)

// Connect dials cfg.Host:cfg.Port, performs the v10 handshake and auth, and
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
		stream: wire.NewStream(conn, wire.MySQL),
		logger: logger,
	}
	if err := b.handshake(); err != nil {
		conn.Close()
		return nil, err
	}
	return b, nil
}

// Close closes the underlying socket.
func (b *Backend) Close() error { return b.conn.Close() }

type handshakeV10 struct {
	authPlugin string
	authData   []byte
	capability uint32
}

func (b *Backend) handshake() error {
	pkt, err := b.stream.ReadPacket()
	if err != nil {
		return &dberrors.ConnectionError{Op: "read handshake", Err: err}
	}
	hs, err := parseHandshakeV10(pkt.Payload)
	if err != nil {
		return err
	}

	authResponse, err := authResponseFor(hs.authPlugin, b.cfg.Password, hs.authData)
	if err != nil {
		return err
	}

	if err := b.sendHandshakeResponse(hs, authResponse); err != nil {
		return err
	}
	return b.readAuthResult(hs, authResponse)
}

func parseHandshakeV10(payload []byte) (*handshakeV10, error) {
	buf := wire.NewBuffer(payload)
	protocolVersion, err := buf.ReadByte()
	if err != nil {
		return nil, &dberrors.ConnectionError{Op: "read protocol version", Err: err}
	}
	if protocolVersion != 10 {
		return nil, &dberrors.ConnectionError{Op: "handshake", Err: fmt.Errorf("unsupported protocol version %d", protocolVersion)}
	}
	if _, err := buf.ReadZeroTerminatedString(); err != nil { // server version
		return nil, err
	}
	if _, err := buf.ReadUint32(binary.LittleEndian); err != nil { // connection id
		return nil, err
	}
	authDataPart1, err := buf.ReadBytes(8)
	if err != nil {
		return nil, err
	}
	if _, err := buf.ReadByte(); err != nil { // filler
		return nil, err
	}
	capLow, err := buf.ReadUint16(binary.LittleEndian)
	if err != nil {
		return nil, err
	}
	if _, err := buf.ReadByte(); err != nil { // charset
		return nil, err
	}
	if _, err := buf.ReadUint16(binary.LittleEndian); err != nil { // status flags
		return nil, err
	}
	capHigh, err := buf.ReadUint16(binary.LittleEndian)
	if err != nil {
		return nil, err
	}
	capability := uint32(capLow) | uint32(capHigh)<<16

	authDataLen, err := buf.ReadByte()
	if err != nil {
		return nil, err
	}
	if _, err := buf.ReadBytes(10); err != nil { // reserved
		return nil, err
	}

	authData := authDataPart1
	plugin := "mysql_native_password"
	if capability&capClientSecureConn != 0 {
		rest := int(authDataLen) - 8
		if rest < 13 {
			rest = 13
		}
		part2, err := buf.ReadBytes(rest)
		if err != nil {
			return nil, err
		}
		authData = append(append([]byte{}, authData...), trimTrailingZero(part2)...)
	}
	if capability&capClientPluginAuth != 0 {
		name, err := buf.ReadZeroTerminatedString()
		if err == nil && name != "" {
			plugin = name
		}
	}

	return &handshakeV10{authPlugin: plugin, authData: authData, capability: capability}, nil
}

func trimTrailingZero(b []byte) []byte {
	return bytes.TrimRight(b, "\x00")
}

// authResponseFor hashes the password per the negotiated plugin. Both
// plugins are mandated by the wire protocol itself, so SHA-1/SHA-256 from
// the standard library are the correct tool, not a fallback (§7.1).
func authResponseFor(plugin, password string, seed []byte) ([]byte, error) {
	if password == "" {
		return nil, nil
	}
	switch plugin {
	case "mysql_native_password":
		return nativePasswordHash(password, seed), nil
	case "caching_sha2_password":
		return cachingSHA2Hash(password, seed), nil
	default:
		return nil, &dberrors.ConnectionError{Op: "authenticate", Err: fmt.Errorf("unsupported auth plugin %q", plugin)}
	}
}

// nativePasswordHash implements mysql_native_password:
// SHA1(password) XOR SHA1(seed + SHA1(SHA1(password))).
func nativePasswordHash(password string, seed []byte) []byte {
	stage1 := sha1.Sum([]byte(password))
	stage2 := sha1.Sum(stage1[:])
	combined := append(append([]byte{}, seed...), stage2[:]...)
	stage3 := sha1.Sum(combined)

	out := make([]byte, len(stage1))
	for i := range out {
		out[i] = stage1[i] ^ stage3[i]
	}
	return out
}

// cachingSHA2Hash implements the fast path of caching_sha2_password:
// SHA256(password) XOR SHA256(SHA256(SHA256(password)) + seed). Unlike
// mysql_native_password, the seed follows the double hash. The full
// RSA-encrypted exchange is not attempted; this matches the server's
// cached/fast-auth case.
func cachingSHA2Hash(password string, seed []byte) []byte {
	stage1 := sha256.Sum256([]byte(password))
	stage2 := sha256.Sum256(stage1[:])
	combined := append(append([]byte{}, stage2[:]...), seed...)
	stage3 := sha256.Sum256(combined)

	out := make([]byte, len(stage1))
	for i := range out {
		out[i] = stage1[i] ^ stage3[i]
	}
	return out
}

func (b *Backend) sendHandshakeResponse(hs *handshakeV10, authResponse []byte) error {
	capability := uint32(capClientProtocol41 | capClientSecureConn | capClientPluginAuth | capClientLongPassword)
	if b.cfg.Database != "" {
		capability |= capClientConnectDB
	}

	buf := wire.NewWriteBuffer()
	buf.WriteUint32(binary.LittleEndian, capability)
	buf.WriteUint32(binary.LittleEndian, 1<<24-1) // max packet size
	buf.WriteByte(45)                             // utf8mb4_general_ci
	buf.WriteBytes(make([]byte, 23))              // reserved
	buf.WriteZeroTerminatedString(b.cfg.User)

	buf.WriteByte(byte(len(authResponse)))
	buf.WriteBytes(authResponse)

	if b.cfg.Database != "" {
		buf.WriteZeroTerminatedString(b.cfg.Database)
	}
	buf.WriteZeroTerminatedString(hs.authPlugin)

	return b.stream.WritePacket(0, buf.Bytes())
}

func (b *Backend) readAuthResult(hs *handshakeV10, authResponse []byte) error {
	pkt, err := b.stream.ReadPacket()
	if err != nil {
		return &dberrors.ConnectionError{Op: "read auth result", Err: err}
	}
	if len(pkt.Payload) == 0 {
		return &dberrors.ConnectionError{Op: "auth", Err: fmt.Errorf("empty auth result packet")}
	}
	switch pkt.Payload[0] {
	case 0x00: // OK
		return nil
	case 0xFE: // auth switch request
		return b.handleAuthSwitch(pkt.Payload, authResponse)
	case 0x01: // caching_sha2_password fast-auth continuation
		if len(pkt.Payload) >= 2 && pkt.Payload[1] == 0x03 {
			final, err := b.stream.ReadPacket()
			if err != nil {
				return &dberrors.ConnectionError{Op: "read fast-auth result", Err: err}
			}
			if len(final.Payload) > 0 && final.Payload[0] == 0x00 {
				return nil
			}
			return errPacketToErr(final.Payload)
		}
		return &dberrors.ConnectionError{Op: "auth", Err: fmt.Errorf("unsupported auth continuation")}
	case 0xFF:
		return errPacketToErr(pkt.Payload)
	default:
		return &dberrors.ConnectionError{Op: "auth", Err: fmt.Errorf("unexpected auth result byte 0x%x", pkt.Payload[0])}
	}
}

func (b *Backend) handleAuthSwitch(payload []byte, previous []byte) error {
	buf := wire.NewBuffer(payload[1:])
	plugin, err := buf.ReadZeroTerminatedString()
	if err != nil {
		return &dberrors.ConnectionError{Op: "read auth switch plugin", Err: err}
	}
	seed, _ := buf.ReadBytes(buf.Remaining())

	response, err := authResponseFor(plugin, b.cfg.Password, seed)
	if err != nil {
		return err
	}
	if err := b.stream.WritePacket(0, response); err != nil {
		return &dberrors.ConnectionError{Op: "send auth switch response", Err: err}
	}

	pkt, err := b.stream.ReadPacket()
	if err != nil {
		return &dberrors.ConnectionError{Op: "read auth switch result", Err: err}
	}
	if len(pkt.Payload) > 0 && pkt.Payload[0] == 0x00 {
		return nil
	}
	return errPacketToErr(pkt.Payload)
}

func errPacketToErr(payload []byte) error {
	buf := wire.NewBuffer(payload)
	if _, err := buf.ReadByte(); err != nil { // 0xFF marker
		return &dberrors.ConnectionError{Op: "decode error packet", Err: err}
	}
	code, err := buf.ReadUint16(binary.LittleEndian)
	if err != nil {
		return &dberrors.ConnectionError{Op: "decode error packet", Err: err}
	}
	// optional SQL state marker '#' + 5-byte state, present under
	// CLIENT_PROTOCOL_41 which this client always negotiates.
	if rest := buf.Remaining(); rest >= 6 {
		marker, _ := buf.ReadByte()
		if marker == '#' {
			_, _ = buf.ReadBytes(5)
		}
	}
	msg, _ := buf.ReadBytes(buf.Remaining())
	return &dberrors.CodedError{Backend: "mysql", Code: strconv.Itoa(int(code)), Message: string(msg)}
}

// Query sends a COM_QUERY and drains the OK/ERR response.
func (b *Backend) Query(ctx context.Context, sql string) error {
	b.stream.ResetSequence()
	payload := append([]byte{0x03}, []byte(sql)...)
	if err := b.stream.WritePacket(0, payload); err != nil {
		return &dberrors.ConnectionError{Op: "send query", Err: err}
	}
	pkt, err := b.stream.ReadPacket()
	if err != nil {
		return &dberrors.ConnectionError{Op: "read query result", Err: err}
	}
	if len(pkt.Payload) > 0 && pkt.Payload[0] == 0xFF {
		return errPacketToErr(pkt.Payload)
	}
	return nil
}

// QuerySelect sends a COM_QUERY expected to return a result set: a column
// count, N column-definition packets, then data rows until EOF/OK.
func (b *Backend) QuerySelect(ctx context.Context, sql string) (*schema.Result, error) {
	b.stream.ResetSequence()
	payload := append([]byte{0x03}, []byte(sql)...)
	if err := b.stream.WritePacket(0, payload); err != nil {
		return nil, &dberrors.ConnectionError{Op: "send query", Err: err}
	}

	first, err := b.stream.ReadPacket()
	if err != nil {
		return nil, &dberrors.ConnectionError{Op: "read query response", Err: err}
	}
	if len(first.Payload) > 0 && first.Payload[0] == 0xFF {
		return nil, errPacketToErr(first.Payload)
	}
	if len(first.Payload) > 0 && first.Payload[0] == 0x00 {
		return &schema.Result{Columns: map[string]int{}}, nil
	}

	columnCount, err := wire.NewBuffer(first.Payload).ReadLengthEncodedInt()
	if err != nil {
		return nil, &dberrors.ConnectionError{Op: "decode column count", Err: err}
	}

	result := &schema.Result{Columns: map[string]int{}}
	var columnTypes []byte
	for i := 0; i < int(columnCount); i++ {
		pkt, err := b.stream.ReadPacket()
		if err != nil {
			return nil, &dberrors.ConnectionError{Op: "read column definition", Err: err}
		}
		name, colType := decodeColumnDefinition(pkt.Payload)
		result.Columns[name] = i
		columnTypes = append(columnTypes, colType)
	}

	// This client never advertises CLIENT_DEPRECATE_EOF, so the server
	// always sends a legacy EOF packet marking the end of column
	// definitions before the first row.
	if _, err := b.stream.ReadPacket(); err != nil {
		return nil, &dberrors.ConnectionError{Op: "read column-definition EOF", Err: err}
	}

	for {
		pkt, err := b.stream.ReadPacket()
		if err != nil {
			return nil, &dberrors.ConnectionError{Op: "read row", Err: err}
		}
		if len(pkt.Payload) > 0 && (pkt.Payload[0] == 0xFE || pkt.Payload[0] == 0x00) && len(pkt.Payload) < 9 {
			return result, nil
		}
		row, err := decodeTextRow(pkt.Payload, columnTypes)
		if err != nil {
			return nil, err
		}
		result.Rows = append(result.Rows, row)
	}
}

// MySQL column type codes this backend round-trips.
const (
	mysqlTypeDecimal   = 0x00
	mysqlTypeTiny      = 0x01
	mysqlTypeShort     = 0x02
	mysqlTypeLong      = 0x03
	mysqlTypeFloat     = 0x04
	mysqlTypeDouble    = 0x05
	mysqlTypeTimestamp = 0x07
	mysqlTypeLonglong  = 0x08
	mysqlTypeDate      = 0x0a
	mysqlTypeTime      = 0x0b
	mysqlTypeDatetime  = 0x0c
	mysqlTypeVarchar   = 0x0f
	mysqlTypeBlob      = 0xfc
	mysqlTypeVarString = 0xfd
	mysqlTypeString    = 0xfe
)

func decodeColumnDefinition(payload []byte) (name string, colType byte) {
	buf := wire.NewBuffer(payload)
	_, _ = buf.ReadLengthEncodedString() // catalog
	_, _ = buf.ReadLengthEncodedString() // schema
	_, _ = buf.ReadLengthEncodedString() // table
	_, _ = buf.ReadLengthEncodedString() // org_table
	name, _ = buf.ReadLengthEncodedString()
	_, _ = buf.ReadLengthEncodedString() // org_name
	_, _ = buf.ReadLengthEncodedInt()    // length of fixed fields (always 0x0c)
	_, _ = buf.ReadUint16(binary.LittleEndian) // charset
	_, _ = buf.ReadUint32(binary.LittleEndian) // column length
	t, _ := buf.ReadByte()
	return name, t
}

// decodeTextRow reads len(columnTypes) length-encoded values from a text
// resultset row. A 0xfb prefix is the NULL marker; every other value is a
// normal length-encoded string.
func decodeTextRow(payload []byte, columnTypes []byte) ([]schema.Cell, error) {
	buf := wire.NewBuffer(payload)
	cells := make([]schema.Cell, len(columnTypes))
	for i := range cells {
		if buf.Remaining() == 0 {
			break
		}
		if buf.PeekByte() == 0xfb {
			_, _ = buf.ReadByte()
			cells[i] = schema.Cell{Null: true}
			continue
		}
		text, err := buf.ReadLengthEncodedString()
		if err != nil {
			return nil, err
		}
		cells[i] = cellFromText(columnTypes[i], text)
	}
	return cells, nil
}

// GetTableInfo queries information_schema.columns for table's live shape.
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
			Type:         flagForMySQLType(dataType),
			Length:       length,
			Nullable:     nullable,
			DefaultValue: def,
			Raw:          dataType,
		}
	}
	return out, nil
}

func flagForMySQLType(dataType string) types.Flag {
	switch dataType {
	case "tinyint":
		return types.Byte | types.Bool
	case "smallint":
		return types.Short
	case "int", "mediumint":
		return types.Int
	case "bigint":
		return types.Long
	case "float":
		return types.Float
	case "double", "decimal":
		return types.Double
	case "char":
		return types.Char | types.String
	case "varchar":
		return types.String
	case "text", "tinytext", "mediumtext", "longtext":
		return types.String | types.Clob
	case "blob", "tinyblob", "mediumblob", "longblob", "binary", "varbinary":
		return types.Binary | types.Blob
	case "date":
		return types.Date
	case "time":
		return types.Time
	case "datetime", "timestamp":
		return types.DateTime
	default:
		return types.String
	}
}

func cellFromText(colType byte, text string) schema.Cell {
	switch colType {
	case mysqlTypeTiny, mysqlTypeShort, mysqlTypeLong, mysqlTypeLonglong:
		v, _ := strconv.ParseInt(text, 10, 64)
		return schema.Cell{Int: v}
	case mysqlTypeFloat, mysqlTypeDouble, mysqlTypeDecimal:
		v, _ := strconv.ParseFloat(text, 64)
		return schema.Cell{Float: v}
	case mysqlTypeDate:
		return schema.Cell{Date: text}
	case mysqlTypeTime:
		return schema.Cell{Time: text}
	case mysqlTypeDatetime, mysqlTypeTimestamp:
		return schema.Cell{DateTime: strings.Replace(text, " ", "T", 1)}
	case mysqlTypeBlob:
		return schema.Cell{Binary: []byte(text)}
	default:
		return schema.Cell{String: text}
	}
}

// GenerateField renders one MySQL column definition.
func (b *Backend) GenerateField(f entity.FieldSpec) string {
	def := fmt.Sprintf("%s %s", f.Name, mysqlType(f))
	if !f.Nullable {
		def += " not null"
	}
	if f.AutoIncrement {
		def += " auto_increment"
	}
	if f.Unique {
		def += " unique"
	}
	if f.DefaultValue != "" {
		def += " default " + f.DefaultValue
	}
	return def
}

func mysqlType(f entity.FieldSpec) string {
	switch {
	case f.Type&types.Bool != 0:
		return "tinyint(1)"
	case f.Type&types.Byte != 0:
		return "tinyint"
	case f.Type&types.Short != 0:
		return "smallint"
	case f.Type&types.Int != 0:
		return "int"
	case f.Type&types.Long != 0:
		return "bigint"
	case f.Type&types.Float != 0:
		return "float"
	case f.Type&types.Double != 0:
		return "double"
	case f.Type&types.Binary != 0 || f.Type&types.Blob != 0:
		return "blob"
	case f.Type&types.Clob != 0:
		return "text"
	case f.Type&types.Char != 0 && f.Length > 0:
		return fmt.Sprintf("char(%d)", f.Length)
	case f.Type&types.String != 0 && f.Length > 0:
		return fmt.Sprintf("varchar(%d)", f.Length)
	case f.Type&(types.Char|types.String) != 0:
		return "varchar(255)"
	case f.Type&types.Date != 0:
		return "date"
	case f.Type&types.Time != 0:
		return "time"
	case f.Type&types.DateTime != 0:
		return "datetime"
	default:
		return "varchar(255)"
	}
}

// CreateTable renders and executes a CREATE TABLE statement.
func (b *Backend) CreateTable(ctx context.Context, table string, definitions []string) error {
	sql := fmt.Sprintf("create table %s (%s)", table, strings.Join(definitions, ", "))
	return b.Query(ctx, sql)
}

// AlterTableColumn renders "alter table ... modify column ...", MySQL's
// single-clause form for both a type and nullability change.
func (b *Backend) AlterTableColumn(ctx context.Context, table string, f entity.FieldSpec, typeChanged, nullableChanged bool) error {
	return b.Query(ctx, fmt.Sprintf("alter table %s modify column %s", table, b.GenerateField(f)))
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

// InsertInto renders and executes an INSERT. MySQL has no RETURNING
// clause; when exactly one of primaryKeys was omitted from names (an
// auto-increment column left for the server to generate), the generated
// id is recovered via LAST_INSERT_ID() in a follow-up query.
func (b *Backend) InsertInto(ctx context.Context, table string, names, values []string, primaryKeys []string) (*schema.Result, error) {
	sql := fmt.Sprintf("insert into %s (%s) values (%s)", table, strings.Join(names, ", "), strings.Join(values, ", "))
	if err := b.Query(ctx, sql); err != nil {
		return nil, err
	}
	var omitted []string
	for _, pk := range primaryKeys {
		if !slices.Contains(names, pk) {
			omitted = append(omitted, pk)
		}
	}
	if len(omitted) != 1 {
		return nil, nil
	}
	return b.QuerySelect(ctx, fmt.Sprintf("select last_insert_id() as %s", omitted[0]))
}

// RandomFunction returns MySQL's random-ordering function.
func (b *Backend) RandomFunction() string { return "rand()" }

// EscapeString quotes s for use as a SQL string literal. The embedded-quote
// case follows §8 property 4's universal doubling rule
// (escapeString("ab'cd") == "'ab''cd'"), which MySQL's default
// (non-NO_BACKSLASH_ESCAPES) SQL mode accepts alongside backslash-escaping;
// a literal backslash is still backslash-escaped so it can't be
// misread as escaping the closing quote.
func (b *Backend) EscapeString(s string) string {
	var sb strings.Builder
	sb.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			sb.WriteString("''")
		case '\\':
			sb.WriteString("\\\\")
		case 0:
			sb.WriteString("\\0")
		case '\n':
			sb.WriteString("\\n")
		case '\r':
			sb.WriteString("\\r")
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}

// EscapeBinary renders v as a MySQL hex literal (0xHEX), uppercase per §8
// property 4 (escapeBinary([0xDE,0xAD]) == "0xDEAD").
func (b *Backend) EscapeBinary(v []byte) string {
	return "0x" + strings.ToUpper(hex.EncodeToString(v))
}
