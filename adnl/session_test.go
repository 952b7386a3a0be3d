package adnl

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/opd-ai/liteclient/limits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionSendReceiveBothDirections(t *testing.T) {
	client, server := pipeHandshake(t, &Responder{Key: fixedServerKey()})
	defer client.Close()
	defer server.Close()

	messages := [][]byte{[]byte("one"), {}, bytes.Repeat([]byte{0x5a}, 10000), []byte("four")}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, m := range messages {
			assert.NoError(t, client.Send(m))
		}
	}()
	for _, want := range messages {
		got, err := server.Receive()
		require.NoError(t, err)
		assert.Equal(t, len(want), len(got))
		assert.True(t, bytes.Equal(want, got))
	}
	wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, server.Send([]byte("reply")))
	}()
	got, err := client.Receive()
	require.NoError(t, err)
	assert.Equal(t, []byte("reply"), got)
	wg.Wait()
}

func TestSessionIntegrityFailureClosesSession(t *testing.T) {
	keys := &SessionKeys{}
	_, err := rand.Read(keys.secret[:])
	require.NoError(t, err)

	clientIn, clientOut, err := keys.streams(true)
	require.NoError(t, err)
	_, serverOut, err := keys.streams(false)
	require.NoError(t, err)

	clientConn, serverConn := net.Pipe()
	defer serverConn.Close()
	client := newSession(clientConn, clientIn, clientOut, nil, rand.Reader)

	frame, err := EncodePacket(rand.Reader, []byte("tampered"))
	require.NoError(t, err)
	frame[len(frame)-1] ^= 0x01
	serverOut.XORKeyStream(frame, frame)
	go serverConn.Write(frame)

	payload, err := client.Receive()
	assert.Nil(t, payload)
	assert.ErrorIs(t, err, ErrIntegrityMismatch)
	assert.True(t, client.Closed())

	_, err = client.Receive()
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.ErrorIs(t, client.Send([]byte("x")), ErrSessionClosed)
}

func TestSessionReceiveAfterPeerClose(t *testing.T) {
	client, server := pipeHandshake(t, &Responder{Key: fixedServerKey()})
	server.Close()

	_, err := client.Receive()
	assert.Error(t, err)
	assert.True(t, client.Closed())
}

func TestSessionSendRejectsOversizedPayload(t *testing.T) {
	client, server := pipeHandshake(t, &Responder{Key: fixedServerKey()})
	defer client.Close()
	defer server.Close()

	err := client.Send(make([]byte, limits.MaxPayloadSize+1))
	assert.ErrorIs(t, err, limits.ErrPayloadTooLarge)
	assert.False(t, client.Closed())
}

func TestSessionCloseIdempotent(t *testing.T) {
	client, server := pipeHandshake(t, &Responder{Key: fixedServerKey()})
	defer server.Close()

	assert.NoError(t, client.Close())
	assert.NoError(t, client.Close())
	assert.True(t, client.Closed())
}

func TestSessionPing(t *testing.T) {
	client, server := pipeHandshake(t, &Responder{Key: fixedServerKey()})
	defer client.Close()
	defer server.Close()

	go func() {
		payload, err := server.Receive()
		if err != nil {
			return
		}
		id, err := ParsePing(payload)
		if err != nil {
			return
		}
		server.Send(MarshalPong(id))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rtt, err := client.Ping(ctx)
	require.NoError(t, err)
	assert.Greater(t, rtt, time.Duration(0))
}

func TestSessionPingMismatchedPong(t *testing.T) {
	client, server := pipeHandshake(t, &Responder{Key: fixedServerKey()})
	defer client.Close()
	defer server.Close()

	go func() {
		payload, err := server.Receive()
		if err != nil {
			return
		}
		id, _ := ParsePing(payload)
		server.Send(MarshalPong(id + 1))
	}()

	_, err := client.Ping(context.Background())
	assert.ErrorIs(t, err, ErrUnexpectedMessage)
}

func TestSessionPingTimeout(t *testing.T) {
	client, server := pipeHandshake(t, &Responder{Key: fixedServerKey()})
	defer client.Close()
	defer server.Close()

	go server.Receive()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.Ping(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPingPongEncoding(t *testing.T) {
	ping := MarshalPing(0x0102030405060708)
	assert.Equal(t, []byte{0x9a, 0x2b, 0x08, 0x4d, 8, 7, 6, 5, 4, 3, 2, 1}, ping)

	id, err := ParsePing(ping)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102030405060708), id)

	_, err = ParsePong(ping)
	assert.ErrorIs(t, err, ErrUnexpectedMessage)

	_, err = ParsePing(ping[:11])
	assert.ErrorIs(t, err, ErrUnexpectedMessage)
}

func TestSessionPingCancelledAfterPongKeepsSession(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	done := make(chan *Session, 1)
	go func() {
		s, _ := Accept(context.Background(), serverConn, fixedServerKey(), nil)
		done <- s
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	conn := &lateCancelConn{Conn: clientConn, cancel: func() {}}

	client, err := NewHandshaker().Handshake(context.Background(), conn, fixedServerKey().Public().(ed25519.PublicKey))
	require.NoError(t, err)
	defer client.Close()
	server := <-done
	require.NotNil(t, server)
	defer server.Close()

	go func() {
		for {
			payload, err := server.Receive()
			if err != nil {
				return
			}
			if id, err := ParsePing(payload); err == nil {
				payload = MarshalPong(id)
			}
			if server.Send(payload) != nil {
				return
			}
		}
	}()

	// Cancel as soon as the pong has been read.
	conn.read = 0
	conn.want = 4 + limits.MinFrameSize + pingSize
	conn.cancel = cancel

	_, err = client.Ping(ctx)
	require.NoError(t, err)

	conn.cancel = func() {}
	require.NoError(t, client.Send([]byte("still alive")))
	got, err := client.Receive()
	require.NoError(t, err)
	assert.Equal(t, []byte("still alive"), got)
}
