package internal

import (
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func TestConfig_FromEnviron(t *testing.T) {
	req := require.New(t)

	// Given only the required variables
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("BADGER_FILEPATH", "/tmp/chat-hub")
	t.Setenv("BUFFER_SIZE", "128")
	t.Setenv("CONNECTION_BUFFER_SIZE", "16")
	t.Setenv("SINK_TIMEOUT", "500ms")
	t.Setenv("RESTART_INTERVAL", "1s")
	t.Setenv("LIMIT_MESSAGES", "50")
	t.Setenv("CENSORED_WORDS", " foo, bar ,,baz")

	// When the environment is unmarshalled
	var config Config
	_, err := env.UnmarshalFromEnviron(&config)

	// Then defaults fill the optional ones
	req.NoError(err)
	req.Equal("0.0.0.0:3000", config.Address())
	req.Equal(500*time.Millisecond, config.SinkTimeout)
	req.Equal(10*time.Second, config.ShutdownTimeout)
	req.NotNil(config.LimitMessages)
	req.Equal(50, *config.LimitMessages)
	req.Equal("*", config.CharReplacement)
	req.Equal([]string{"foo", "bar", "baz"}, config.Words())
	req.Empty(config.NatsURL)
}

func TestConfig_MissingRequired(t *testing.T) {
	req := require.New(t)

	// Given an environment without LOG_LEVEL
	envSet := env.EnvSet{"BADGER_FILEPATH": "/tmp/chat-hub"}

	// When it is unmarshalled
	var config Config
	err := env.Unmarshal(envSet, &config)

	// Then the required variable is reported
	req.Error(err)
}

func TestCharacterRune(t *testing.T) {
	req := require.New(t)

	r, err := CharacterRune("#")
	req.NoError(err)
	req.Equal('#', r)

	r, err = CharacterRune("€")
	req.NoError(err)
	req.Equal('€', r)

	_, err = CharacterRune("**")
	req.Error(err)
	_, err = CharacterRune("")
	req.Error(err)
}
