package repositories

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Record is a human readable view of a stored key, used by the inspection tools.
type Record struct {
	Kind    string
	Channel string
	Detail  string
	At      time.Time
}

// Prefixes lists the key families worth inspecting.
func Prefixes() []string {
	return []string{channelPrefix, entryPrefix, messagePrefix}
}

// Inspect decodes a raw key/value pair. Unknown keys are reported with kind "RAW".
func Inspect(key string, val []byte) Record {
	switch {
	case strings.HasPrefix(key, channelPrefix):
		var disk DiskChannel
		if err := json.Unmarshal(val, &disk); err != nil {
			return undecodable("CHANNEL", err)
		}
		kind := "CHANNEL"
		if disk.IsPrivate {
			kind = "PRIVATE"
		}
		return Record{
			Kind:    kind,
			Channel: disk.Name,
			Detail:  strings.Join(disk.Users, ","),
			At:      time.Unix(0, disk.CreatedAt).UTC(),
		}
	case strings.HasPrefix(key, entryPrefix):
		var disk DiskEntry
		if err := json.Unmarshal(val, &disk); err != nil {
			return undecodable("ENTRY", err)
		}
		return Record{
			Kind:    "ENTRY",
			Channel: scopedName(key, entryPrefix),
			Detail:  fmt.Sprintf("%s: %s", disk.Sender, disk.Text),
			At:      time.Unix(0, disk.At).UTC(),
		}
	case strings.HasPrefix(key, messagePrefix):
		var disk DiskMessage
		if err := json.Unmarshal(val, &disk); err != nil {
			return undecodable("MESSAGE", err)
		}
		kind := "MESSAGE"
		if disk.IsPrivate {
			kind = "PRIVATE_MESSAGE"
		}
		return Record{
			Kind:    kind,
			Channel: disk.Channel,
			Detail:  fmt.Sprintf("%s: %s", disk.Sender, disk.Text),
			At:      time.Unix(0, disk.At).UTC(),
		}
	default:
		return Record{Kind: "RAW", Detail: fmt.Sprintf("%d bytes", len(val))}
	}
}

func undecodable(kind string, err error) Record {
	return Record{Kind: kind, Detail: fmt.Sprintf("Error: unmarshal failed: %v", err)}
}

// scopedName recovers the channel name from "{prefix}{hex(name)}:{seq}".
func scopedName(key, prefix string) string {
	encoded, _, _ := strings.Cut(strings.TrimPrefix(key, prefix), ":")
	name, err := hex.DecodeString(encoded)
	if err != nil {
		return encoded
	}
	return string(name)
}
