package model

import "time"

// Post is a published article.
type Post struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Excerpt      string    `json:"excerpt,omitempty"`
	Author       *UserRef  `json:"author"`
	CreatedAt    time.Time `json:"createdAt"`
	CommentCount int       `json:"commentCount"`
	LikeCount    int       `json:"likeCount"`
}

// EditableBy reports whether u may edit or delete the post. This is a UI
// affordance only; the server re-enforces authorship on every mutation.
func (p *Post) EditableBy(u *User) bool {
	if u == nil || p.Author == nil {
		return false
	}
	return u.ID == p.Author.ID
}

// Summary returns the excerpt, falling back to content truncated to max
// runes.
func (p *Post) Summary(max int) string {
	s := p.Excerpt
	if s == "" {
		s = p.Content
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
