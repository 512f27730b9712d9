package server

import (
	"fmt"
	"net/http"
	"testing"

	"pawhome/internal/models"
	"pawhome/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetChatForRequestEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	requestID, chatRoomID := f.createRequestViaAPI(t)

	path := fmt.Sprintf("/api/chats/request/%d", requestID)

	resp := f.request(t, f.owner.ID, http.MethodGet, path, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var room models.ChatRoom
	decodeBody(t, resp, &room)
	assert.Equal(t, chatRoomID, room.ID)
	assert.Equal(t, requestID, room.AdoptionRequestID)

	stranger := &models.User{Name: "Sam Stranger", Email: "sam@example.com"}
	require.NoError(t, f.db.Create(stranger).Error)
	resp = f.request(t, stranger.ID, http.MethodGet, path, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestSendAndListMessagesEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	_, chatRoomID := f.createRequestViaAPI(t)

	sendPath := fmt.Sprintf("/api/chats/%d/messages", chatRoomID)

	resp := f.request(t, f.owner.ID, http.MethodPost, sendPath, map[string]any{
		"content": "She is! Come meet her.",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var msg models.Message
	decodeBody(t, resp, &msg)
	assert.Equal(t, f.owner.ID, msg.SenderID)
	assert.Equal(t, "She is! Come meet her.", msg.Content)

	// Empty content is rejected.
	resp = f.request(t, f.owner.ID, http.MethodPost, sendPath, map[string]any{"content": "  "})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// History is chronological: seed message first, then the reply.
	resp = f.request(t, f.adopter.ID, http.MethodGet, sendPath, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var page service.MessagePage
	decodeBody(t, resp, &page)
	assert.Equal(t, int64(2), page.Total)
	require.Len(t, page.Messages, 2)
	assert.Equal(t, f.adopter.ID, page.Messages[0].SenderID)
	assert.Equal(t, "She is! Come meet her.", page.Messages[1].Content)
}

func TestListMessagesEndpoint_BadCursor(t *testing.T) {
	f := newHandlerFixture(t)
	_, chatRoomID := f.createRequestViaAPI(t)

	path := fmt.Sprintf("/api/chats/%d/messages?before_id=3&before_time=not-a-time", chatRoomID)
	resp := f.request(t, f.owner.ID, http.MethodGet, path, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetChatsEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	_, chatRoomID := f.createRequestViaAPI(t)

	resp := f.request(t, f.owner.ID, http.MethodGet, "/api/chats", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var body struct {
		Chats []models.ChatRoom `json:"chats"`
	}
	decodeBody(t, resp, &body)
	require.Len(t, body.Chats, 1)
	assert.Equal(t, chatRoomID, body.Chats[0].ID)
}

func TestDeleteChatEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	_, chatRoomID := f.createRequestViaAPI(t)

	path := fmt.Sprintf("/api/chats/%d", chatRoomID)

	stranger := &models.User{Name: "Sam Stranger", Email: "sam@example.com"}
	require.NoError(t, f.db.Create(stranger).Error)
	resp := f.request(t, stranger.ID, http.MethodDelete, path, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = f.request(t, f.adopter.ID, http.MethodDelete, path, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = f.request(t, f.adopter.ID, http.MethodGet, path+"/messages", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
