package event

import (
	"context"
	"fmt"
	"strings"

	"CampusEvents/internal/auth"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// canModerate reports whether caller may edit or delete content written
// by author.
func canModerate(caller auth.Caller, author primitive.ObjectID) bool {
	return author == caller.ID || caller.Role == auth.RoleMember || caller.Role == auth.RoleCoordinator
}

func (s *EventService) Comments(ctx context.Context, id primitive.ObjectID) ([]CommentView, error) {
	ev, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.commentViews(ctx, ev.Comments)
}

func (s *EventService) commentViews(ctx context.Context, comments []Comment) ([]CommentView, error) {
	seen := map[primitive.ObjectID]bool{}
	var ids []primitive.ObjectID
	add := func(id primitive.ObjectID) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, c := range comments {
		add(c.User)
		for _, r := range c.Replies {
			add(r.User)
		}
	}
	users, err := s.summaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	author := func(id primitive.ObjectID) auth.UserSummary {
		if u, ok := users[id]; ok {
			return u
		}
		return auth.UserSummary{ID: id}
	}

	out := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		view := CommentView{
			ID:        c.ID,
			Text:      c.Text,
			User:      author(c.User),
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
			Replies:   make([]ReplyView, 0, len(c.Replies)),
		}
		for _, r := range c.Replies {
			view.Replies = append(view.Replies, ReplyView{ID: r.ID, Text: r.Text, User: author(r.User), CreatedAt: r.CreatedAt})
		}
		out = append(out, view)
	}
	return out, nil
}

func (s *EventService) one(ctx context.Context, c Comment) (*CommentView, error) {
	views, err := s.commentViews(ctx, []Comment{c})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// commentText trims surrounding whitespace and rejects what is left empty.
func commentText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrTextRequired
	}
	return text, nil
}

func (s *EventService) AddComment(ctx context.Context, caller auth.Caller, id primitive.ObjectID, text string) (*CommentView, error) {
	text, err := commentText(text)
	if err != nil {
		return nil, err
	}
	comment := Comment{
		ID:        primitive.NewObjectID(),
		Text:      text,
		User:      caller.ID,
		CreatedAt: s.now(),
		Replies:   []Reply{},
	}
	ok, err := s.events.AddComment(ctx, id, comment)
	if err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}
	if !ok {
		return nil, ErrEventNotFound
	}
	return s.one(ctx, comment)
}

func (s *EventService) comment(ctx context.Context, id, commentID primitive.ObjectID) (*Comment, error) {
	ev, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	c := ev.findComment(commentID)
	if c == nil {
		return nil, ErrCommentNotFound
	}
	return c, nil
}

func (s *EventService) EditComment(ctx context.Context, caller auth.Caller, id, commentID primitive.ObjectID, text string) (*CommentView, error) {
	text, err := commentText(text)
	if err != nil {
		return nil, err
	}
	c, err := s.comment(ctx, id, commentID)
	if err != nil {
		return nil, err
	}
	if !canModerate(caller, c.User) {
		return nil, ErrNotCommentOwner
	}
	at := s.now()
	c.Text = text
	c.UpdatedAt = &at
	ok, err := s.events.EditComment(ctx, id, commentID, c.Text, at)
	if err != nil {
		return nil, fmt.Errorf("edit comment: %w", err)
	}
	if !ok {
		return nil, ErrCommentNotFound
	}
	return s.one(ctx, *c)
}

func (s *EventService) DeleteComment(ctx context.Context, caller auth.Caller, id, commentID primitive.ObjectID) error {
	c, err := s.comment(ctx, id, commentID)
	if err != nil {
		return err
	}
	if !canModerate(caller, c.User) {
		return ErrNotCommentOwner
	}
	ok, err := s.events.DeleteComment(ctx, id, commentID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if !ok {
		return ErrCommentNotFound
	}
	s.logger.Info("Comment deleted",
		zap.String("eventId", id.Hex()),
		zap.String("commentId", commentID.Hex()),
		zap.String("by", caller.ID.Hex()))
	return nil
}

// AddReply answers a top-level comment. Replies cannot be nested further.
func (s *EventService) AddReply(ctx context.Context, caller auth.Caller, id, commentID primitive.ObjectID, text string) (*CommentView, error) {
	text, err := commentText(text)
	if err != nil {
		return nil, err
	}
	c, err := s.comment(ctx, id, commentID)
	if err != nil {
		return nil, err
	}
	reply := Reply{
		ID:        primitive.NewObjectID(),
		Text:      text,
		User:      caller.ID,
		CreatedAt: s.now(),
	}
	ok, err := s.events.AddReply(ctx, id, commentID, reply)
	if err != nil {
		return nil, fmt.Errorf("add reply: %w", err)
	}
	if !ok {
		return nil, ErrCommentNotFound
	}
	c.Replies = append(c.Replies, reply)
	return s.one(ctx, *c)
}

func (s *EventService) DeleteReply(ctx context.Context, caller auth.Caller, id, commentID, replyID primitive.ObjectID) error {
	c, err := s.comment(ctx, id, commentID)
	if err != nil {
		return err
	}
	var reply *Reply
	for i := range c.Replies {
		if c.Replies[i].ID == replyID {
			reply = &c.Replies[i]
			break
		}
	}
	if reply == nil {
		return ErrReplyNotFound
	}
	if !canModerate(caller, reply.User) {
		return ErrNotCommentOwner
	}
	ok, err := s.events.DeleteReply(ctx, id, commentID, replyID)
	if err != nil {
		return fmt.Errorf("delete reply: %w", err)
	}
	if !ok {
		return ErrCommentNotFound
	}
	return nil
}

// QR returns the event's check-in code, issuing one for events that
// predate check-in ids.
func (s *EventService) QR(ctx context.Context, caller auth.Caller, id primitive.ObjectID) (*QRInfo, error) {
	ev, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireStaff(ctx, caller, ev); err != nil {
		return nil, err
	}
	if ev.CheckInID != "" && ev.CheckInQRCode != "" {
		return s.qrInfo(ev.CheckInID, ev.CheckInQRCode), nil
	}
	return s.issueQR(ctx, ev.ID, ev.CheckInID)
}

// RotateQR replaces the check-in id, invalidating printed codes.
func (s *EventService) RotateQR(ctx context.Context, caller auth.Caller, id primitive.ObjectID) (*QRInfo, error) {
	ev, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireStaff(ctx, caller, ev); err != nil {
		return nil, err
	}
	info, err := s.issueQR(ctx, ev.ID, "")
	if err != nil {
		return nil, err
	}
	s.logger.Info("Check-in code rotated", zap.String("eventId", id.Hex()), zap.String("by", caller.ID.Hex()))
	return info, nil
}

func (s *EventService) issueQR(ctx context.Context, id primitive.ObjectID, existing string) (*QRInfo, error) {
	checkInID, code, err := s.qr.GenerateEventQRCode(existing)
	if err != nil {
		return nil, err
	}
	updated, err := s.events.Update(ctx, id, bson.M{"checkInId": checkInID, "checkInQRCode": code})
	if err != nil {
		return nil, fmt.Errorf("store check-in code: %w", err)
	}
	if updated == nil {
		return nil, ErrEventNotFound
	}
	return s.qrInfo(checkInID, code), nil
}

func (s *EventService) qrInfo(checkInID, code string) *QRInfo {
	return &QRInfo{CheckInID: checkInID, CheckInQRCode: code, CheckInURL: s.qr.CheckInURL(checkInID)}
}
