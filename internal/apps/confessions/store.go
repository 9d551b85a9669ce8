package confessions

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store owns every confession mutation. Each mutation runs in one
// transaction that locks the confession row, so writes to one confession
// are serialized and writes to different confessions never contend.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// NewConfession is the validated input to Create.
type NewConfession struct {
	AuthorID uuid.UUID
	Title    string
	Body     string
	Category string
	Tags     []string
}

// Responder identifies who is replying.
type Responder struct {
	ID              uuid.UUID
	Role            string
	Specializations []string
}

// ListFilter narrows List. Zero values mean no filter, sort "new" and the
// maximum limit.
type ListFilter struct {
	Category string
	Status   string
	Sort     string
	Limit    int
}

func (s *Store) Create(ctx context.Context, in NewConfession) (*Confession, error) {
	if in.AuthorID == uuid.Nil {
		return nil, invalid("author", "is required")
	}
	title, err := boundedText("title", in.Title, MaxTitleLen)
	if err != nil {
		return nil, err
	}
	body, err := boundedText("body", in.Body, MaxBodyLen)
	if err != nil {
		return nil, err
	}
	category, err := normalizeCategory(in.Category)
	if err != nil {
		return nil, err
	}
	tags, err := normalizeTags(in.Tags)
	if err != nil {
		return nil, err
	}

	c := &Confession{
		AuthorID: in.AuthorID,
		Title:    title,
		Body:     body,
		Category: category,
		Tags:     tags,
		Status:   StatusOpen,
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, wrap("create", err)
	}
	return c, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Confession, error) {
	var c Confession
	err := s.db.WithContext(ctx).
		Preload("Replies", orderedReplies).
		First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrap("get", err)
	}
	return &c, nil
}

func (s *Store) List(ctx context.Context, f ListFilter) ([]Confession, error) {
	q := s.db.WithContext(ctx).Model(&Confession{})

	if f.Category != "" {
		category, err := normalizeCategory(f.Category)
		if err != nil {
			return nil, err
		}
		q = q.Where("category = ?", category)
	}
	if f.Status != "" {
		status := strings.ToLower(strings.TrimSpace(f.Status))
		if !validStatus(status) {
			return nil, invalid("status", "must be one of open, resolved, closed")
		}
		q = q.Where("status = ?", status)
	}

	if f.Sort == "top" {
		q = q.Order("upvote_count DESC").Order("created_at DESC")
	} else {
		q = q.Order("created_at DESC")
	}

	limit := f.Limit
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}

	var out []Confession
	if err := q.Limit(limit).Preload("Replies", orderedReplies).Find(&out).Error; err != nil {
		return nil, wrap("list", err)
	}
	return out, nil
}

// AppendReply adds a human reply at the end of the confession's sequence.
func (s *Store) AppendReply(ctx context.Context, id uuid.UUID, by Responder, text string) (*Reply, error) {
	if by.ID == uuid.Nil {
		return nil, invalid("responder", "is required")
	}
	if by.Role != RoleLawyer && by.Role != RoleClient {
		return nil, invalid("responder", "role must be lawyer or client")
	}
	text, err := boundedText("text", text, MaxReplyLen)
	if err != nil {
		return nil, err
	}

	var reply *Reply
	err = s.inConfession(ctx, "append reply", id, func(tx *gorm.DB, c *Confession) error {
		responderID := by.ID
		r := &Reply{
			ResponderID:   &responderID,
			ResponderRole: by.Role,
			Text:          text,
		}
		if by.Role == RoleLawyer {
			r.ResponderSpecializations = append([]string(nil), by.Specializations...)
		}
		if err := appendReply(tx, c, r); err != nil {
			return err
		}
		reply = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// WriteAIReply appends the AI reply and records the analysis. A confession
// gets at most one AI reply.
func (s *Store) WriteAIReply(ctx context.Context, id uuid.UUID, text string) error {
	return s.inConfession(ctx, "write ai reply", id, func(tx *gorm.DB, c *Confession) error {
		var existing int64
		if err := tx.Model(&Reply{}).
			Where("confession_id = ? AND responder_role = ?", id, RoleAI).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAnalysisExists
		}

		if err := appendReply(tx, c, &Reply{ResponderRole: RoleAI, Text: text}); err != nil {
			return err
		}
		return tx.Model(&Confession{}).Where("id = ?", id).Update("ai_analysis", text).Error
	})
}

func (s *Store) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	status = strings.ToLower(strings.TrimSpace(status))
	if !validStatus(status) {
		return invalid("status", "must be one of open, resolved, closed")
	}
	return s.inConfession(ctx, "set status", id, func(tx *gorm.DB, _ *Confession) error {
		return tx.Model(&Confession{}).Where("id = ?", id).Update("status", status).Error
	})
}

// Resolve marks the confession resolved. Only its author may do so.
func (s *Store) Resolve(ctx context.Context, id, requester uuid.UUID) error {
	return s.inConfession(ctx, "resolve", id, func(tx *gorm.DB, c *Confession) error {
		if c.AuthorID != requester {
			return ErrForbidden
		}
		return tx.Model(&Confession{}).Where("id = ?", id).Update("status", StatusResolved).Error
	})
}

// Exists reports whether a confession with id exists.
func (s *Store) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Confession{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// ReplyExists reports whether a reply with id exists.
func (s *Store) ReplyExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Reply{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// inConfession runs fn in a transaction holding the confession's row lock.
func (s *Store) inConfession(ctx context.Context, op string, id uuid.UUID, fn func(tx *gorm.DB, c *Confession) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c Confession
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return fn(tx, &c)
	})
	return wrap(op, err)
}

// appendReply must run under the confession lock: seq comes from the
// locked reply_count.
func appendReply(tx *gorm.DB, c *Confession, r *Reply) error {
	r.ConfessionID = c.ID
	r.Seq = c.ReplyCount + 1
	if err := tx.Create(r).Error; err != nil {
		return err
	}
	c.ReplyCount = r.Seq
	return tx.Model(&Confession{}).Where("id = ?", c.ID).
		Update("reply_count", gorm.Expr("reply_count + ?", 1)).Error
}

func orderedReplies(db *gorm.DB) *gorm.DB {
	return db.Order("seq ASC")
}

func boundedText(field, s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", invalid(field, "is required")
	}
	if n := utf8.RuneCountInString(s); n > max {
		return "", invalid(field, "must be at most %d characters", max)
	}
	return s, nil
}

func normalizeCategory(c string) (string, error) {
	c = strings.TrimSpace(c)
	if c == "" {
		return "Other", nil
	}
	for _, cat := range Categories {
		if strings.EqualFold(cat, c) {
			return cat, nil
		}
	}
	return "", invalid("category", "unknown category %q", c)
}

func normalizeTags(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		if utf8.RuneCountInString(t) > MaxTagLen {
			return nil, invalid("tags", "each tag must be at most %d characters", MaxTagLen)
		}
		seen[key] = true
		out = append(out, t)
	}
	if len(out) > MaxTags {
		return nil, invalid("tags", "at most %d tags", MaxTags)
	}
	return out, nil
}
