package models

import (
	"github.com/fouta-app/functions/internal/docstore"
)

// Chat is a conversation between participants
type Chat struct {
	ID           string           `json:"id"`
	Participants []string         `json:"participants"`
	UnreadCounts map[string]int64 `json:"unreadCounts"`
}

// ChatFromDocument decodes a chat document
func ChatFromDocument(doc *docstore.Document) Chat {
	c := Chat{
		ID:           doc.ID,
		Participants: doc.Strings("participants"),
		UnreadCounts: map[string]int64{},
	}
	for uid := range doc.Map("unreadCounts") {
		c.UnreadCounts[uid] = doc.Int("unreadCounts." + uid)
	}
	return c
}

// Recipient returns the first participant that is not sender
func (c Chat) Recipient(sender string) (string, bool) {
	for _, p := range c.Participants {
		if p != "" && p != sender {
			return p, true
		}
	}
	return "", false
}

// Message is a chat message
type Message struct {
	SenderID   string `json:"senderId" binding:"required"`
	SenderName string `json:"senderName"`
	Content    string `json:"content"`
}
