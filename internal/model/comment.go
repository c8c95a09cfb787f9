package model

import "time"

// Comment is a reply attached to a post.
type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"postId"`
	Content   string    `json:"content"`
	Author    *UserRef  `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

// DeletableBy reports whether u may delete the comment: its author, or any
// admin. Advisory only; the server re-checks.
func (c *Comment) DeletableBy(u *User) bool {
	if u == nil {
		return false
	}
	if u.Role == RoleAdmin {
		return true
	}
	return c.Author != nil && u.ID == c.Author.ID
}
