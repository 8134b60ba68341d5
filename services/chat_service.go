//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/runtime"
	"context"
)

// IChatService is what the HTTP layer sees of the routing core.
type IChatService interface {
	CreateChannel(name string) (domain.Channel, error)
	ListChannels(username string) ([]domain.Channel, error)
	FilterChannels(filter string) ([]domain.Channel, error)
	DeleteChannel(name string) error
	JoinChannel(name, username string) error
	QuitChannel(name, username string) error
	ChannelUsers(name string) ([]string, error)
	OnlineUsers() []string
	GetMessages(channel string) ([]domain.Message, error)
	PostMessage(sender, text, channel string) (domain.Message, error)

	Connect(sink contract.EventSink) string
	Dispatch(ctx context.Context, connID string, cmd domain.Command) error
	Disconnect(ctx context.Context, connID string) error
}

type ChatService struct {
	orchestrator *runtime.Orchestrator
}

func NewChatService(o *runtime.Orchestrator) *ChatService {
	return &ChatService{orchestrator: o}
}

func (s *ChatService) CreateChannel(name string) (domain.Channel, error) {
	return s.orchestrator.Directory().Create(name, false, nil)
}

func (s *ChatService) ListChannels(username string) ([]domain.Channel, error) {
	return s.orchestrator.Directory().ListVisibleTo(username)
}

// FilterChannels matches channel names case-insensitively. An empty filter lists everything.
func (s *ChatService) FilterChannels(filter string) ([]domain.Channel, error) {
	return s.orchestrator.Directory().ListByNameFilter(filter, true)
}

func (s *ChatService) DeleteChannel(name string) error {
	return s.orchestrator.Directory().Delete(name)
}

func (s *ChatService) JoinChannel(name, username string) error {
	return s.orchestrator.Directory().AddMember(name, username)
}

func (s *ChatService) QuitChannel(name, username string) error {
	return s.orchestrator.Directory().RemoveMember(name, username)
}

func (s *ChatService) ChannelUsers(name string) ([]string, error) {
	return s.orchestrator.Directory().Members(name)
}

func (s *ChatService) OnlineUsers() []string {
	return s.orchestrator.Gateway().Online()
}

func (s *ChatService) GetMessages(channel string) ([]domain.Message, error) {
	return s.orchestrator.Router().History(channel)
}

// PostMessage stores a message without pushing it to connections.
func (s *ChatService) PostMessage(sender, text, channel string) (domain.Message, error) {
	return s.orchestrator.Router().Broadcast(sender, text, channel)
}

func (s *ChatService) Connect(sink contract.EventSink) string {
	return s.orchestrator.Gateway().Connect(sink)
}

func (s *ChatService) Dispatch(ctx context.Context, connID string, cmd domain.Command) error {
	return s.orchestrator.Gateway().Dispatch(ctx, connID, cmd)
}

func (s *ChatService) Disconnect(ctx context.Context, connID string) error {
	return s.orchestrator.Gateway().Disconnect(ctx, connID)
}
