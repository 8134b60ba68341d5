package domain

// Command is the closed set of inbound events a connection can raise.
// The unexported marker keeps the set sealed to this package.
type Command interface {
	Name() string
	command()
}

type SetUsernameCommand struct {
	Nickname string
}

type JoinChannelCommand struct {
	Nickname string
	Channel  string
}

type LeaveChannelCommand struct {
	Nickname string
	Channel  string
}

type SendMessageCommand struct {
	Sender  string
	Text    string
	Channel string
}

type PrivateMessageCommand struct {
	Sender    string
	Recipient string
	Text      string
}

// DisconnectCommand is raised by the transport, never by the client.
type DisconnectCommand struct{}

func (SetUsernameCommand) Name() string    { return "setUsername" }
func (JoinChannelCommand) Name() string    { return "joinChannel" }
func (LeaveChannelCommand) Name() string   { return "leaveChannel" }
func (SendMessageCommand) Name() string    { return "sendMessage" }
func (PrivateMessageCommand) Name() string { return "privateMessage" }
func (DisconnectCommand) Name() string     { return "disconnect" }

func (SetUsernameCommand) command()    {}
func (JoinChannelCommand) command()    {}
func (LeaveChannelCommand) command()   {}
func (SendMessageCommand) command()    {}
func (PrivateMessageCommand) command() {}
func (DisconnectCommand) command()     {}
