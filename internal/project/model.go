package project

import "time"

type Status string

const (
	StatusDraft      Status = "draft"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Scene is one beat of an advertisement storyboard. Order is 1-based
// and gives the storyboard position.
type Scene struct {
	ID          string `json:"id" firestore:"id"`
	Title       string `json:"title" firestore:"title"`
	Description string `json:"description" firestore:"description"`
	ImageURL    string `json:"imageUrl,omitempty" firestore:"imageUrl,omitempty"`
	Order       int    `json:"order" firestore:"order"`
}

type Project struct {
	ID          string    `json:"id" firestore:"-"`
	Title       string    `json:"title" firestore:"title"`
	Description string    `json:"description" firestore:"description"`
	Status      Status    `json:"status" firestore:"status"`
	OwnerID     string    `json:"userId" firestore:"userId"`
	Idea        string    `json:"idea,omitempty" firestore:"idea,omitempty"`
	Assets      []string  `json:"assets,omitempty" firestore:"assets,omitempty"`
	Scenes      []Scene   `json:"scenes,omitempty" firestore:"scenes,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty" firestore:"thumbnail,omitempty"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" firestore:"updatedAt"`
}
