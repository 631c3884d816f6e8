package models

import (
	"encoding/json"
	"time"
)

// ContentTypeFragment is the only content type the service generates today.
// The column exists so sibling content kinds (exercises, backing tracks) can
// share the table.
const ContentTypeFragment = "fragment"

// GeneratedContent is the immutable persistence record for one accepted
// generation. Records are only ever created; there is no update path.
type GeneratedContent struct {
	ID        string    `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Fingerprint string `gorm:"uniqueIndex;not null" json:"fingerprint"`
	Type        string `gorm:"index;not null" json:"type"`

	// Request parameters, denormalized for querying
	Key        string  `gorm:"column:key_signature" json:"key"`
	Style      string  `json:"style,omitempty"`
	Difficulty string  `json:"difficulty,omitempty"`
	Tempo      float64 `json:"tempo"`

	// Generated payloads
	MusicData        json.RawMessage `gorm:"type:jsonb" json:"music_data"`
	NotationBlob     json.RawMessage `gorm:"type:jsonb" json:"notation_blob"`
	AudioTimelineRef string          `json:"audio_timeline_ref"`

	// Provenance
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
	Attempts int    `json:"attempts"`
}

// ContentResponse is the outbound JSON shape for generated content.
type ContentResponse struct {
	ID               string          `json:"id"`
	Type             string          `json:"type"`
	MusicData        json.RawMessage `json:"musicData"`
	NotationBlob     json.RawMessage `json:"notationBlob"`
	AudioTimelineRef string          `json:"audioTimelineRef"`
	Difficulty       string          `json:"difficulty,omitempty"`
	Key              string          `json:"key"`
	Tempo            float64         `json:"tempo"`
	Style            string          `json:"style,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// Response converts the persistence record to its outbound shape.
func (g *GeneratedContent) Response() ContentResponse {
	return ContentResponse{
		ID:               g.ID,
		Type:             g.Type,
		MusicData:        g.MusicData,
		NotationBlob:     g.NotationBlob,
		AudioTimelineRef: g.AudioTimelineRef,
		Difficulty:       g.Difficulty,
		Key:              g.Key,
		Tempo:            g.Tempo,
		Style:            g.Style,
		CreatedAt:        g.CreatedAt,
	}
}
