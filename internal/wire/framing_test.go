package wire

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresFramingRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	s := NewStream(&buf, Postgres)

	require.NoError(t, s.WritePacket('Q', []byte("select 1")))

	reader := NewStream(&buf, Postgres)
	pkt, err := reader.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, byte('Q'), pkt.ID)
	assert.Equal(t, "select 1", string(pkt.Payload))
}

func TestMySQLFramingRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	s := NewStream(&buf, MySQL)

	payload := append([]byte{0x03}, []byte("select 1")...) // COM_QUERY
	require.NoError(t, s.WritePacket(0, payload))

	reader := NewStream(&buf, MySQL)
	pkt, err := reader.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, payload, pkt.Payload)
	assert.Equal(t, byte(0), pkt.Sequence)
}

func TestMySQLSequenceIncrementsAndResets(t *testing.T) {
	var buf bytes.Buffer
	s := NewStream(&buf, MySQL)

	require.NoError(t, s.WritePacket(0, []byte("a")))
	require.NoError(t, s.WritePacket(0, []byte("b")))

	reader := NewStream(&buf, MySQL)
	first, err := reader.ReadPacket()
	require.NoError(t, err)
	second, err := reader.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, byte(0), first.Sequence)
	assert.Equal(t, byte(1), second.Sequence)

	s.ResetSequence()
	require.NoError(t, s.WritePacket(0, []byte("c")))
	third, err := NewStream(&buf, MySQL).ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, byte(0), third.Sequence)
}

func TestStreamOverNetPipe(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	clientStream := NewStream(client, Postgres)
	serverStream := NewStream(server, Postgres)

	done := make(chan error, 1)
	go func() {
		done <- clientStream.WritePacket('Q', []byte("ping"))
	}()

	pkt, err := serverStream.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, "ping", string(pkt.Payload))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for write to complete")
	}
}

func TestBufferZeroTerminatedStringRoundTrip(t *testing.T) {
	w := NewWriteBuffer()
	w.WriteZeroTerminatedString("user")
	w.WriteZeroTerminatedString("")
	w.WriteByte(0xAB)

	r := NewBuffer(w.Bytes())
	s1, err := r.ReadZeroTerminatedString()
	require.NoError(t, err)
	assert.Equal(t, "user", s1)

	s2, err := r.ReadZeroTerminatedString()
	require.NoError(t, err)
	assert.Equal(t, "", s2)

	trailing, err := r.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(0xAB), trailing)
}

func TestBufferLengthEncodedIntRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 250, 65535, 1 << 20, 1 << 40} {
		w := NewWriteBuffer()
		w.WriteLengthEncodedInt(v)
		r := NewBuffer(w.Bytes())
		got, err := r.ReadLengthEncodedInt()
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}
