package model

import "time"

// Note is a free-form journal entry. Pinned or favorite notes survive the
// daily rollover; the rest are archived with it.
type Note struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Pinned    bool      `json:"pinned,omitempty"`
	Favorite  bool      `json:"favorite,omitempty"`
	IsDeleted bool      `json:"isDeleted,omitempty"`
}
