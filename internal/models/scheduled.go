package models

import (
	"time"

	"github.com/fouta-app/functions/internal/docstore"
)

// Visibility of a post
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityFollowers Visibility = "followers"
	VisibilityPrivate   Visibility = "private"
)

// Payload is the user-authored content of a scheduled post
type Payload struct {
	Content    string
	Media      []string
	Visibility Visibility
}

// PayloadFromMap reads a payload map. Missing fields stay zero; media
// entries that are not strings come back as "".
func PayloadFromMap(m map[string]interface{}) Payload {
	doc := &docstore.Document{Data: m}
	return Payload{
		Content:    doc.String("content"),
		Media:      doc.Strings("media"),
		Visibility: Visibility(doc.String("visibility")),
	}
}

// ToMap renders the payload as document data
func (p Payload) ToMap() map[string]interface{} {
	media := make([]interface{}, len(p.Media))
	for i, m := range p.Media {
		media[i] = m
	}
	return map[string]interface{}{
		"content":    p.Content,
		"media":      media,
		"visibility": string(p.Visibility),
	}
}

// ScheduledPost is a post waiting for its publish time. It lives at
// users/{UserID}/scheduled/{ID}.
type ScheduledPost struct {
	ID          string
	UserID      string
	Path        string
	PublishAt   time.Time
	Payload     Payload
	ProcessedAt *time.Time
}

// ScheduledPostFromDocument decodes a scheduled post of userID
func ScheduledPostFromDocument(userID string, doc *docstore.Document) ScheduledPost {
	sp := ScheduledPost{
		ID:      doc.ID,
		UserID:  userID,
		Path:    doc.Path,
		Payload: PayloadFromMap(doc.Map("payload")),
	}
	sp.PublishAt, _ = doc.Time("publishAt")
	if t, ok := doc.Time("processedAt"); ok {
		sp.ProcessedAt = &t
	}
	return sp
}

// ToMap renders the scheduled post as document data
func (sp ScheduledPost) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"publishAt":   sp.PublishAt,
		"payload":     sp.Payload.ToMap(),
		"processedAt": nil,
	}
	if sp.ProcessedAt != nil {
		m["processedAt"] = *sp.ProcessedAt
	}
	return m
}

// Key is the deterministic id used for whatever the scheduled post turns
// into, so a repeated publish overwrites instead of duplicating
func (sp ScheduledPost) Key() string {
	return sp.UserID + "_" + sp.ID
}

// Post is published content
type Post struct {
	Content     string
	Media       []string
	AuthorID    string
	Visibility  Visibility
	CreatedAt   time.Time
	ScheduledID string
}

// ToMap renders the post as document data
func (p Post) ToMap() map[string]interface{} {
	m := Payload{Content: p.Content, Media: p.Media, Visibility: p.Visibility}.ToMap()
	m["authorId"] = p.AuthorID
	m["createdAt"] = p.CreatedAt
	if p.ScheduledID != "" {
		m["scheduledId"] = p.ScheduledID
	}
	return m
}

// ModerationEntry quarantines a rejected scheduled post
type ModerationEntry struct {
	Payload     Payload
	Reason      string
	CreatedBy   string
	CreatedAt   time.Time
	ScheduledID string
}

// ToMap renders the entry as document data
func (e ModerationEntry) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"payload":     e.Payload.ToMap(),
		"reason":      e.Reason,
		"createdBy":   e.CreatedBy,
		"createdAt":   e.CreatedAt,
		"scheduledId": e.ScheduledID,
	}
}
