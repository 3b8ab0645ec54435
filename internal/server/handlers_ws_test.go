package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engmostafaayman001-hub/markode-ai/internal/collab"
)

func dialWS(t *testing.T, server *httptest.Server) *ws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *ws.Conn) collab.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var frame collab.Envelope
	require.NoError(t, json.Unmarshal(raw, &frame))
	return frame
}

func TestWebSocket_JoinAndRelay(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.srv.echo)
	t.Cleanup(server.Close)

	editor := dialWS(t, server)
	viewer := dialWS(t, server)

	for _, conn := range []*ws.Conn{editor, viewer} {
		payload, _ := json.Marshal(collab.Envelope{Type: collab.TypeJoinProject, ProjectID: "p1", UserID: "u"})
		require.NoError(t, conn.WriteMessage(ws.TextMessage, payload))
		frame := readEnvelope(t, conn)
		require.Equal(t, collab.TypeJoined, frame.Type)
	}

	data, _ := json.Marshal(map[string]string{"filename": "main.go", "content": "package main"})
	payload, _ := json.Marshal(collab.Envelope{Type: collab.TypeCodeChange, ProjectID: "p1", Data: data})
	require.NoError(t, editor.WriteMessage(ws.TextMessage, payload))

	frame := readEnvelope(t, viewer)
	assert.Equal(t, collab.TypeCodeChange, frame.Type)

	var received map[string]string
	require.NoError(t, json.Unmarshal(frame.Data, &received))
	assert.Equal(t, "package main", received["content"])
}

func TestWebSocket_PerIPConnectionLimit(t *testing.T) {
	env := newTestEnv(t)
	env.srv.connLimits = NewConnectionLimits(100, 1, 1000, 1000)

	server := httptest.NewServer(env.srv.echo)
	t.Cleanup(server.Close)

	dialWS(t, server)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	_, resp, err := ws.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 429, resp.StatusCode)
}
