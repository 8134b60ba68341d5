package server_test

import (
	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/infrastructure/http/server"
	"chat-hub/mocks"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestApp(t *testing.T) (*fiber.App, *mocks.MockIChatService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	service := mocks.NewMockIChatService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return server.NewApp(logger, service, server.Config{AllowedOrigins: "*"}), service
}

func doJSON(t *testing.T, app *fiber.App, method, target, body string) (int, map[string]any, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	request := httptest.NewRequest(method, target, reader)
	request.Header.Set("Content-Type", "application/json")
	response, err := app.Test(request, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	var decoded map[string]any
	_ = json.Unmarshal(raw, &decoded)
	return response.StatusCode, decoded, raw
}

func TestCreateChannel(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		mock           func(service *mocks.MockIChatService)
		expectedStatus int
	}{
		{
			name: "created",
			body: `{"name":"general"}`,
			mock: func(service *mocks.MockIChatService) {
				service.EXPECT().CreateChannel("general").Return(domain.NewChannel("general", false, nil, time.Now()), nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "duplicate",
			body: `{"name":"general"}`,
			mock: func(service *mocks.MockIChatService) {
				service.EXPECT().CreateChannel("general").Return(domain.Channel{}, errors.ErrDuplicateChannel)
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "missing name",
			body:           `{}`,
			mock:           func(service *mocks.MockIChatService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed body",
			body:           `{"name":`,
			mock:           func(service *mocks.MockIChatService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, service := newTestApp(t)
			tt.mock(service)

			status, body, _ := doJSON(t, app, http.MethodPost, "/api/channels/create", tt.body)

			require.Equal(t, tt.expectedStatus, status)
			if status == http.StatusCreated {
				require.Equal(t, "general", body["name"])
				require.Equal(t, []any{}, body["users"])
			} else {
				require.NotEmpty(t, body["message"])
			}
		})
	}
}

func TestListChannels_For_User(t *testing.T) {
	req := require.New(t)
	app, service := newTestApp(t)
	service.EXPECT().ListChannels("Alice").Return([]domain.Channel{
		domain.NewChannel("general", false, nil, time.Now()),
		domain.NewChannel("Alice-Bob", true, []string{"Alice", "Bob"}, time.Now()),
	}, nil)

	status, _, raw := doJSON(t, app, http.MethodGet, "/api/channels?username=Alice", "")

	req.Equal(http.StatusOK, status)
	var channels []server.ChannelResponse
	req.NoError(json.Unmarshal(raw, &channels))
	req.Len(channels, 2)
	req.True(channels[1].IsPrivate)
}

func TestDeleteChannel(t *testing.T) {
	req := require.New(t)
	app, service := newTestApp(t)
	service.EXPECT().DeleteChannel("general").Return(nil)
	service.EXPECT().DeleteChannel("ghost").Return(errors.ErrChannelNotFound)
	service.EXPECT().DeleteChannel("Alice-Bob").Return(errors.ErrAccessDenied)

	status, body, _ := doJSON(t, app, http.MethodDelete, "/api/channels/delete/general", "")
	req.Equal(http.StatusOK, status)
	req.Equal("Channel deleted successfully", body["message"])

	status, _, _ = doJSON(t, app, http.MethodDelete, "/api/channels/delete/ghost", "")
	req.Equal(http.StatusNotFound, status)

	status, _, _ = doJSON(t, app, http.MethodDelete, "/api/channels/delete/Alice-Bob", "")
	req.Equal(http.StatusForbidden, status)
}

func TestJoin_And_Quit_Channel(t *testing.T) {
	req := require.New(t)
	app, service := newTestApp(t)
	service.EXPECT().JoinChannel("general", "Alice").Return(nil)
	service.EXPECT().JoinChannel("Alice-Bob", "Carol").Return(errors.ErrAccessDenied)
	service.EXPECT().QuitChannel("general", "Bob").Return(errors.ErrNotAMember)
	service.EXPECT().QuitChannel("general", "Alice").Return(nil)

	status, body, _ := doJSON(t, app, http.MethodPost, "/api/channels/join", `{"name":"general","username":"Alice"}`)
	req.Equal(http.StatusOK, status)
	req.Equal("Joined channel: general", body["message"])

	status, _, _ = doJSON(t, app, http.MethodPost, "/api/channels/join", `{"name":"Alice-Bob","username":"Carol"}`)
	req.Equal(http.StatusForbidden, status)

	status, _, _ = doJSON(t, app, http.MethodPost, "/api/channels/quit", `{"name":"general","username":"Bob"}`)
	req.Equal(http.StatusBadRequest, status)

	status, body, _ = doJSON(t, app, http.MethodPost, "/api/channels/quit", `{"name":"general","username":"Alice"}`)
	req.Equal(http.StatusOK, status)
	req.Equal("User Alice quit channel: general", body["message"])
}

func TestFilterChannels(t *testing.T) {
	req := require.New(t)
	app, service := newTestApp(t)
	service.EXPECT().FilterChannels("gen").Return([]domain.Channel{domain.NewChannel("General", false, nil, time.Now())}, nil)
	service.EXPECT().FilterChannels("").Return([]domain.Channel{}, nil)

	status, _, raw := doJSON(t, app, http.MethodGet, "/api/channels/list/gen", "")
	req.Equal(http.StatusOK, status)
	req.Contains(string(raw), "General")

	status, _, raw = doJSON(t, app, http.MethodGet, "/api/channels/list", "")
	req.Equal(http.StatusOK, status)
	req.Equal("[]", string(raw))
}

func TestChannelUsers_And_Online(t *testing.T) {
	req := require.New(t)
	app, service := newTestApp(t)
	service.EXPECT().ChannelUsers("general").Return([]string{"Alice"}, nil)
	service.EXPECT().ChannelUsers("ghost").Return(nil, errors.ErrChannelNotFound)
	service.EXPECT().OnlineUsers().Return([]string{"Alice", "Bob"})

	status, body, _ := doJSON(t, app, http.MethodGet, "/api/channels/users/general", "")
	req.Equal(http.StatusOK, status)
	req.Equal([]any{"Alice"}, body["users"])

	status, _, _ = doJSON(t, app, http.MethodGet, "/api/channels/users/ghost", "")
	req.Equal(http.StatusNotFound, status)

	status, body, _ = doJSON(t, app, http.MethodGet, "/api/users/online", "")
	req.Equal(http.StatusOK, status)
	req.Equal([]any{"Alice", "Bob"}, body["users"])
}

func TestMessages(t *testing.T) {
	req := require.New(t)
	app, service := newTestApp(t)
	stored := domain.Message{Sender: "Alice", Text: "hi", Channel: "general", Timestamp: time.Now().UTC()}
	service.EXPECT().PostMessage("Alice", "hi", "general").Return(stored, nil)
	service.EXPECT().GetMessages("general").Return([]domain.Message{stored}, nil)

	status, body, _ := doJSON(t, app, http.MethodPost, "/api/messages", `{"sender":"Alice","text":"hi","channel":"general"}`)
	req.Equal(http.StatusCreated, status)
	req.Equal("hi", body["text"])

	status, _, _ = doJSON(t, app, http.MethodPost, "/api/messages", `{"sender":"Alice","channel":"general"}`)
	req.Equal(http.StatusBadRequest, status)

	status, _, raw := doJSON(t, app, http.MethodGet, "/api/messages/general", "")
	req.Equal(http.StatusOK, status)
	var messages []server.ChatMessageResponse
	req.NoError(json.Unmarshal(raw, &messages))
	req.Len(messages, 1)
	req.Equal("Alice", messages[0].Sender)
}

func TestHealth_And_WS_Upgrade_Required(t *testing.T) {
	req := require.New(t)
	app, _ := newTestApp(t)

	status, body, _ := doJSON(t, app, http.MethodGet, "/health", "")
	req.Equal(http.StatusOK, status)
	req.Equal("ok", body["status"])

	status, _, _ = doJSON(t, app, http.MethodGet, "/ws", "")
	req.Equal(http.StatusUpgradeRequired, status)
}
