package confessions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ToggleState string

const (
	Added   ToggleState = "added"
	Removed ToggleState = "removed"
)

// ToggleResult is the voter's membership after a toggle and the new set size.
type ToggleResult struct {
	State ToggleState
	Count int
}

// ToggleUpvote flips voter's membership in the confession's upvote set.
// Calls are serialized per confession, so N calls by one voter leave the
// voter present iff N is odd.
func (s *Store) ToggleUpvote(ctx context.Context, id, voter uuid.UUID) (ToggleResult, error) {
	if voter == uuid.Nil {
		return ToggleResult{}, invalid("voter", "is required")
	}

	var res ToggleResult
	err := s.inConfession(ctx, "toggle upvote", id, func(tx *gorm.DB, _ *Confession) error {
		member := ConfessionUpvote{ConfessionID: id, VoterID: voter}
		state, err := toggleMember(tx, &member, "confession_id = ? AND voter_id = ?", id, voter)
		if err != nil {
			return err
		}

		var n int64
		if err := tx.Model(&ConfessionUpvote{}).Where("confession_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if err := tx.Model(&Confession{}).Where("id = ?", id).UpdateColumn("upvote_count", n).Error; err != nil {
			return err
		}
		res = ToggleResult{State: state, Count: int(n)}
		return nil
	})
	return res, err
}

// ToggleHelpful flips voter's membership in a reply's helpful set. The reply
// must belong to the confession.
func (s *Store) ToggleHelpful(ctx context.Context, id, replyID, voter uuid.UUID) (ToggleResult, error) {
	if voter == uuid.Nil {
		return ToggleResult{}, invalid("voter", "is required")
	}

	var res ToggleResult
	err := s.inConfession(ctx, "toggle helpful", id, func(tx *gorm.DB, _ *Confession) error {
		var reply Reply
		err := tx.Select("id").First(&reply, "id = ? AND confession_id = ?", replyID, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReplyNotFound
		}
		if err != nil {
			return err
		}

		member := ReplyHelpfulMark{ReplyID: replyID, VoterID: voter}
		state, err := toggleMember(tx, &member, "reply_id = ? AND voter_id = ?", replyID, voter)
		if err != nil {
			return err
		}

		var n int64
		if err := tx.Model(&ReplyHelpfulMark{}).Where("reply_id = ?", replyID).Count(&n).Error; err != nil {
			return err
		}
		if err := tx.Model(&Reply{}).Where("id = ?", replyID).UpdateColumn("helpful_count", n).Error; err != nil {
			return err
		}
		res = ToggleResult{State: state, Count: int(n)}
		return nil
	})
	return res, err
}

// toggleMember deletes the membership row if present, otherwise inserts it.
func toggleMember(tx *gorm.DB, member interface{}, where string, args ...interface{}) (ToggleState, error) {
	del := tx.Where(where, args...).Delete(member)
	if del.Error != nil {
		return "", del.Error
	}
	if del.RowsAffected > 0 {
		return Removed, nil
	}
	if err := tx.Create(member).Error; err != nil {
		return "", err
	}
	return Added, nil
}
