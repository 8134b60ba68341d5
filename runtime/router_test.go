package runtime

import (
	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/mocks"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type badgerCensor struct{}

func (badgerCensor) Censor(text string) string { return strings.ReplaceAll(text, "badger", "******") }

func TestRouter_Broadcast_Persists_And_Appends(t *testing.T) {
	req := require.New(t)
	c := newCore(t)
	_, err := c.directory.Create("general", false, nil)
	req.NoError(err)

	message, err := c.router.Broadcast("Alice", "hello", "general")

	req.NoError(err)
	req.Equal("Alice", message.Sender)
	req.Equal(fixedNow, message.Timestamp)
	history, err := c.router.History("general")
	req.NoError(err)
	req.Len(history, 1)
	req.Equal(message.ID, history[0].ID)
}

func TestRouter_Broadcast_Empty_Field_Persists_Nothing(t *testing.T) {
	req := require.New(t)
	c := newCore(t)

	for _, args := range [][3]string{{"", "hi", "general"}, {"Alice", "", "general"}, {"Alice", "hi", ""}} {
		_, err := c.router.Broadcast(args[0], args[1], args[2])
		req.ErrorIs(err, errors.ErrEmptyField)
	}

	history, err := c.router.History("general")
	req.NoError(err)
	req.Empty(history)
}

func TestRouter_Broadcast_To_Unknown_Channel_Still_Persists(t *testing.T) {
	req := require.New(t)
	c := newCore(t)

	_, err := c.router.Broadcast("Alice", "hello", "nowhere")

	req.NoError(err)
	history, err := c.router.History("nowhere")
	req.NoError(err)
	req.Len(history, 1)
}

func TestRouter_History_Of_Unknown_Channel_Is_Empty(t *testing.T) {
	req := require.New(t)
	c := newCore(t)

	history, err := c.router.History("ghost")

	req.NoError(err)
	req.NotNil(history)
	req.Empty(history)
}

func TestRouter_SendPrivate(t *testing.T) {
	req := require.New(t)
	c := newCore(t)

	message, err := c.router.SendPrivate("Bob", "Alice", "psst")

	req.NoError(err)
	req.Equal("Alice-Bob", message.Channel)
	req.True(message.IsPrivate)
	req.Equal("Alice", message.Recipient)

	channel, err := c.directory.Find("Alice-Bob")
	req.NoError(err)
	req.True(channel.IsPrivate)
	req.ElementsMatch([]string{"Alice", "Bob"}, channel.Members)

	history, err := c.router.History("Alice-Bob")
	req.NoError(err)
	req.Len(history, 1)

	_, err = c.router.SendPrivate("Bob", "", "psst")
	req.ErrorIs(err, errors.ErrEmptyField)
}

func TestRouter_SendPrivate_Refuses_Public_Channel_With_Pair_Name(t *testing.T) {
	req := require.New(t)
	c := newCore(t)

	// Given a public channel that happens to carry the pair's name
	_, err := c.directory.Create("Alice-Bob", false, nil)
	req.NoError(err)

	// When Alice sends Bob a private message
	_, err = c.router.SendPrivate("Alice", "Bob", "secret")

	// Then it is refused and nothing is stored
	req.ErrorIs(err, errors.ErrPublicNameTaken)
	req.ErrorIs(err, errors.ErrConflict)
	history, err := c.router.History("Alice-Bob")
	req.NoError(err)
	req.Empty(history)

	// And the public channel is left as it was
	channel, err := c.directory.Find("Alice-Bob")
	req.NoError(err)
	req.False(channel.IsPrivate)
	req.Empty(channel.Members)

	// So an outsider joining it reads nothing private
	req.NoError(c.directory.AddMember("Alice-Bob", "Eve"))
	history, err = c.router.History("Alice-Bob")
	req.NoError(err)
	req.Empty(history)
}

func TestRouter_Censors_Before_Persisting(t *testing.T) {
	req := require.New(t)
	c := newCore(t)
	c.router.censor = badgerCensor{}

	message, err := c.router.Broadcast("Alice", "the badger", "general")

	req.NoError(err)
	req.Equal("the ******", message.Text)
	history, err := c.router.History("general")
	req.NoError(err)
	req.Equal("the ******", history[0].Text)
}

func TestRouter_Persistence_Failure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	messages := mocks.NewMockIMessageRepository(ctrl)
	router := NewRouter(slog.Default(), messages, nil, nil)

	messages.EXPECT().SaveMessage(gomock.Any()).Return(domain.Message{}, fmt.Errorf("disk full"))
	_, err := router.Broadcast("Alice", "hi", "general")
	req.ErrorIs(err, errors.ErrPersistence)

	messages.EXPECT().FindMessagesByChannel("general").Return(nil, fmt.Errorf("disk gone"))
	_, err = router.History("general")
	req.ErrorIs(err, errors.ErrPersistence)
}
