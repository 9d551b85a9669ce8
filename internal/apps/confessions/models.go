package confessions

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StatusOpen     = "open"
	StatusResolved = "resolved"
	StatusClosed   = "closed"
)

const (
	RoleLawyer = "lawyer"
	RoleClient = "client"
	RoleAI     = "ai"
)

const (
	MaxTitleLen  = 150
	MaxBodyLen   = 2000
	MaxReplyLen  = 1500
	MaxTags      = 10
	MaxTagLen    = 30
	MaxListLimit = 50
)

// Categories lists the accepted confession categories.
var Categories = []string{
	"Criminal", "Family", "Property", "Consumer", "Employment",
	"Cyber", "Tenant", "Business", "Financial", "Other",
}

// Confession is an anonymous legal problem. AuthorID is internal only.
type Confession struct {
	ID          uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorID    uuid.UUID                   `gorm:"type:uuid;not null;index" json:"-"`
	Title       string                      `gorm:"size:600;not null" json:"title"`
	Body        string                      `gorm:"type:text;not null" json:"body"`
	Category    string                      `gorm:"size:30;not null;index" json:"category"`
	Tags        datatypes.JSONSlice[string] `json:"tags"`
	Status      string                      `gorm:"size:20;not null;default:open;index" json:"status"`
	AIAnalysis  string                      `gorm:"type:text" json:"ai_analysis"`
	UpvoteCount int                         `gorm:"not null;default:0;index" json:"upvote_count"`
	ReplyCount  int                         `gorm:"not null;default:0" json:"reply_count"`
	Replies     []Reply                     `gorm:"foreignKey:ConfessionID" json:"replies"`
	CreatedAt   time.Time                   `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

func (c *Confession) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Reply is appended to a confession. Seq orders replies within one confession.
type Reply struct {
	ID                       uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	ConfessionID             uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:idx_reply_confession_seq" json:"confession_id"`
	Seq                      int                         `gorm:"not null;uniqueIndex:idx_reply_confession_seq" json:"seq"`
	ResponderID              *uuid.UUID                  `gorm:"type:uuid;index" json:"-"`
	ResponderRole            string                      `gorm:"size:20;not null" json:"responder_role"`
	ResponderSpecializations datatypes.JSONSlice[string] `json:"responder_specializations"`
	Text                     string                      `gorm:"type:text;not null" json:"text"`
	HelpfulCount             int                         `gorm:"not null;default:0" json:"helpful_count"`
	CreatedAt                time.Time                   `json:"created_at"`
}

func (Reply) TableName() string { return "confession_replies" }

func (r *Reply) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// ConfessionUpvote is one member of a confession's upvote set.
type ConfessionUpvote struct {
	ConfessionID uuid.UUID `gorm:"type:uuid;primaryKey"`
	VoterID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt    time.Time
}

// ReplyHelpfulMark is one member of a reply's helpful set.
type ReplyHelpfulMark struct {
	ReplyID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	VoterID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time
}

func validCategory(c string) bool {
	for _, cat := range Categories {
		if cat == c {
			return true
		}
	}
	return false
}

func validStatus(s string) bool {
	return s == StatusOpen || s == StatusResolved || s == StatusClosed
}
