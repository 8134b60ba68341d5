package main

import (
	"bufio"
	"chat-hub/infrastructure/http/server"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	fastws "github.com/fasthttp/websocket"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerURL string `env:"CHAT_SERVER_URL,default=ws://localhost:3000/ws"`
	Nickname  string `env:"CHAT_NICKNAME,required=true"`
	Channel   string `env:"CHAT_CHANNEL,default=general"`
	LogLevel  string `env:"LOG_LEVEL,default=INFO"`
	Colours   bool   `env:"CHAT_COLOURS,default=true"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run logs in, joins the configured channel, then relays stdin lines as commands
// until the server closes the socket or the user quits.
func run() (int, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, _, err := fastws.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", config.ServerURL, err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = conn.Close()
	}()

	session := &session{nickname: config.Nickname, channel: config.Channel}
	for _, frame := range session.login() {
		if err := conn.WriteJSON(frame); err != nil {
			return exitRuntime, fmt.Errorf("login failed: %w", err)
		}
	}
	log.Info("Connected", "server", config.ServerURL, "nickname", config.Nickname, "channel", config.Channel)

	readErr := make(chan error, 1)
	go func() {
		readErr <- receive(conn, log, config.Colours)
	}()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping client...")
			return exitOK, nil
		case err := <-readErr:
			if ctx.Err() != nil {
				return exitOK, nil
			}
			return exitRuntime, fmt.Errorf("read error: %w", err)
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			frame, err := session.parse(line)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			if frame == nil {
				continue
			}
			if err := conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				return exitRuntime, err
			}
			if err := conn.WriteJSON(frame); err != nil {
				return exitRuntime, fmt.Errorf("write error: %w", err)
			}
		}
	}
}

// receive prints every frame pushed by the server.
func receive(conn *fastws.Conn, log *slog.Logger, colours bool) error {
	for {
		var frame server.InboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return err
		}
		line, ok := render(frame)
		if !ok {
			log.Debug("Ignored frame", "event", frame.Event)
			continue
		}
		if colours {
			line = color.New(color.FgGreen).Render(line)
		}
		fmt.Println(line)
	}
}

func render(frame server.InboundFrame) (string, bool) {
	var data map[string]any
	if len(frame.Data) > 0 {
		if err := json.Unmarshal(frame.Data, &data); err != nil {
			return "", false
		}
	}
	now := time.Now().Format(time.TimeOnly)
	switch frame.Event {
	case "message":
		return fmt.Sprintf("[%s] #%v %v: %v", now, data["channel"], data["sender"], data["text"]), true
	case "joinChannel":
		return fmt.Sprintf("[%s] invited to #%v", now, data["channelName"]), true
	case "userDisconnected":
		return fmt.Sprintf("[%s] %v disconnected", now, data["username"]), true
	case "ack":
		if success, _ := data["success"].(bool); !success {
			return fmt.Sprintf("[%s] refused: %v", now, data["message"]), true
		}
	}
	return "", false
}
