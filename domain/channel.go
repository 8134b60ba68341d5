// Package domain contains core concepts of the chat system.
// This file defines Channel entities and their membership invariants.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
)

const privateChannelSeparator = "-"

// Channel is a named group of users sharing a message stream.
// Members never contains the same username twice.
type Channel struct {
	Name      string
	IsPrivate bool
	Members   []string
	CreatedAt time.Time
}

func NewChannel(name string, isPrivate bool, members []string, at time.Time) Channel {
	return Channel{
		Name:      name,
		IsPrivate: isPrivate,
		Members:   lo.Uniq(lo.Compact(members)),
		CreatedAt: at,
	}
}

func (c Channel) HasMember(username string) bool {
	return lo.Contains(c.Members, username)
}

// WithMember returns a copy of the channel with username appended, unless already present.
func (c Channel) WithMember(username string) Channel {
	if c.HasMember(username) {
		return c
	}
	c.Members = append(slices.Clone(c.Members), username)
	return c
}

func (c Channel) WithoutMember(username string) Channel {
	c.Members = lo.Without(c.Members, username)
	return c
}

// VisibleTo reports whether the channel shows up in username's listing.
// An empty username only sees public channels.
func (c Channel) VisibleTo(username string) bool {
	if !c.IsPrivate {
		return true
	}
	return username != "" && c.HasMember(username)
}

// MatchesFilter reports whether the channel name contains the substring.
func (c Channel) MatchesFilter(substring string, caseInsensitive bool) bool {
	if caseInsensitive {
		return strings.Contains(strings.ToLower(c.Name), strings.ToLower(substring))
	}
	return strings.Contains(c.Name, substring)
}

// PrivateChannelName derives the channel shared by two users.
// The pair is sorted so both sides resolve the same name.
func PrivateChannelName(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, privateChannelSeparator)
}

// SortChannels orders channels by creation time, then by name.
func SortChannels(channels []Channel) {
	sort.SliceStable(channels, func(i, j int) bool {
		if !channels[i].CreatedAt.Equal(channels[j].CreatedAt) {
			return channels[i].CreatedAt.Before(channels[j].CreatedAt)
		}
		return channels[i].Name < channels[j].Name
	})
}
