package confessions

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExternalConfession is the only confession shape sent to clients. It has no
// author field and exposes engagement as counts only.
type ExternalConfession struct {
	ID         uuid.UUID       `json:"id"`
	Title      string          `json:"title"`
	Body       string          `json:"body"`
	Category   string          `json:"category"`
	Tags       []string        `json:"tags"`
	Status     string          `json:"status"`
	AIAnalysis string          `json:"aiAnalysis"`
	Upvotes    int             `json:"upvotes"`
	ReplyCount int             `json:"replyCount"`
	Replies    []ExternalReply `json:"replies"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// ExternalReply replaces the responder reference with a display label.
type ExternalReply struct {
	ID            uuid.UUID `json:"id"`
	ResponderName string    `json:"responderName"`
	ResponderRole string    `json:"responderRole"`
	Text          string    `json:"text"`
	Helpful       int       `json:"helpful"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Sanitize projects a stored confession onto its external shape.
func Sanitize(c *Confession) ExternalConfession {
	out := ExternalConfession{
		ID:         c.ID,
		Title:      c.Title,
		Body:       c.Body,
		Category:   c.Category,
		Tags:       append([]string{}, c.Tags...),
		Status:     c.Status,
		AIAnalysis: c.AIAnalysis,
		Upvotes:    c.UpvoteCount,
		Replies:    make([]ExternalReply, 0, len(c.Replies)),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
	for i := range c.Replies {
		out.Replies = append(out.Replies, SanitizeReply(&c.Replies[i]))
	}
	out.ReplyCount = len(out.Replies)
	return out
}

func SanitizeAll(list []Confession) []ExternalConfession {
	out := make([]ExternalConfession, len(list))
	for i := range list {
		out[i] = Sanitize(&list[i])
	}
	return out
}

func SanitizeReply(r *Reply) ExternalReply {
	return ExternalReply{
		ID:            r.ID,
		ResponderName: ResponderName(r.ResponderRole, r.ResponderSpecializations),
		ResponderRole: r.ResponderRole,
		Text:          r.Text,
		Helpful:       r.HelpfulCount,
		CreatedAt:     r.CreatedAt,
	}
}

// ResponderName is the public label for a reply's author.
func ResponderName(role string, specializations []string) string {
	switch role {
	case RoleAI:
		return "NyayNow AI"
	case RoleLawyer:
		if len(specializations) == 0 {
			return "Adv. Lawyer"
		}
		return "Adv. " + strings.Join(specializations, ", ")
	default:
		return "Community Member"
	}
}

// AdminConfession is the stored record as returned to operators. AuthorID is
// copied out here because the model never serializes it.
type AdminConfession struct {
	*Confession
	AuthorID uuid.UUID `json:"author_id"`
}

func ToAdmin(c *Confession) AdminConfession {
	return AdminConfession{Confession: c, AuthorID: c.AuthorID}
}
