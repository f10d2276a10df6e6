package websocket

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/piresc/geoquery/internal/pkg/constants"
	"github.com/piresc/geoquery/internal/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerEchoesAndTracksClients(t *testing.T) {
	manager := NewManager()
	e := echo.New()
	e.GET("/ws", func(c echo.Context) error {
		return manager.HandleConnection(c, "client-1", func(cl *Client) error {
			assert.Equal(t, "client-1", cl.ClientID)
			for {
				msg, err := cl.ReadMessage()
				if err != nil {
					if errors.Is(err, ErrInvalidMessage) {
						_ = cl.SendErrorMessage(constants.ErrorInvalidFormat, "bad message")
						continue
					}
					return nil
				}
				_ = cl.SendMessage(constants.EventPong, map[string]string{"echo": msg.Event})
			}
		})
	})
	server := httptest.NewServer(e)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return manager.Count() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(models.WSMessage{Event: constants.EventPing, Data: json.RawMessage(`{}`)}))
	var reply models.WSMessage
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, constants.EventPong, reply.Event)
	assert.JSONEq(t, `{"echo":"ping"}`, string(reply.Data))

	require.NoError(t, conn.WriteMessage(gws.TextMessage, []byte("not json")))
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, constants.EventError, reply.Event)
	var wsErr models.WSErrorMessage
	require.NoError(t, json.Unmarshal(reply.Data, &wsErr))
	assert.Equal(t, constants.ErrorInvalidFormat, wsErr.Code)

	manager.CloseAll()
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
	assert.Eventually(t, func() bool { return manager.Count() == 0 }, time.Second, 10*time.Millisecond)
	conn.Close()
}
