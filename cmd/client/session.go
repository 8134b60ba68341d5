package main

import (
	"chat-hub/infrastructure/http/server"
	"encoding/json"
	"fmt"
	"strings"
)

// session turns typed lines into protocol frames for one nickname.
// It remembers the current channel so plain lines are sent there.
type session struct {
	nickname string
	channel  string
	nextID   int64
}

func (s *session) login() []server.InboundFrame {
	return []server.InboundFrame{
		s.frame("setUsername", map[string]string{"username": s.nickname}),
		s.frame("joinChannel", map[string]string{"username": s.nickname, "channelName": s.channel}),
	}
}

// parse understands "/join <channel>", "/leave [channel]", "/msg <user> <text>"
// and plain text. A nil frame means there is nothing to send.
func (s *session) parse(line string) (*server.InboundFrame, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}
	if !strings.HasPrefix(line, "/") {
		frame := s.frame("sendMessage", map[string]string{"sender": s.nickname, "text": line, "channel": s.channel})
		return &frame, nil
	}

	command, rest, _ := strings.Cut(line[1:], " ")
	rest = strings.TrimSpace(rest)
	switch command {
	case "join":
		if rest == "" {
			return nil, fmt.Errorf("usage: /join <channel>")
		}
		s.channel = rest
		frame := s.frame("joinChannel", map[string]string{"username": s.nickname, "channelName": rest})
		return &frame, nil
	case "leave":
		channel := rest
		if channel == "" {
			channel = s.channel
		}
		frame := s.frame("leaveChannel", map[string]string{"username": s.nickname, "channelName": channel})
		return &frame, nil
	case "msg":
		recipient, text, ok := strings.Cut(rest, " ")
		if !ok || strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("usage: /msg <user> <text>")
		}
		frame := s.frame("privateMessage", map[string]string{"sender": s.nickname, "recipient": recipient, "text": strings.TrimSpace(text)})
		return &frame, nil
	default:
		return nil, fmt.Errorf("unknown command %q", command)
	}
}

func (s *session) frame(name string, payload map[string]string) server.InboundFrame {
	s.nextID++
	id := s.nextID
	data, _ := json.Marshal(payload)
	return server.InboundFrame{Event: name, ID: &id, Data: data}
}
