// Package messages routes a message to exactly one channel or DM room and
// reads the time ordered log back.
package messages

import (
	"chatcord-backend/internal/apperr"
	"chatcord-backend/internal/authz"
	"chatcord-backend/internal/dm"
	"chatcord-backend/internal/models"
	"chatcord-backend/internal/profiles"
	"chatcord-backend/internal/snowflake"
	"chatcord-backend/internal/validator"
	"context"
	"database/sql"
	"errors"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

type TargetKind string

const (
	TargetChannel TargetKind = "channel"
	TargetDM      TargetKind = "dm"
)

const MaxPageSize = 100

const messageColumns = "id, author_id, author_name, avatar, content, channel_id, dm_room_id, created_at"

type SendMessageRequest struct {
	Content   string `json:"content" validate:"required,notblank,max=4000"`
	ChannelID *int64 `json:"channelID,string"`
	DMRoomID  *int64 `json:"dmRoomID,string"`
}

// Page selects messages older than Before, a message ID. Limit 0 means
// every message.
type Page struct {
	Before int64
	Limit  int
}

type Service struct {
	db       *sql.DB
	sugar    *zap.SugaredLogger
	ids      *snowflake.Generator
	gate     *authz.Gate
	dms      *dm.Service
	profiles *profiles.Service
}

func New(db *sql.DB, sugar *zap.SugaredLogger, ids *snowflake.Generator, gate *authz.Gate, dms *dm.Service, profiles *profiles.Service) *Service {
	return &Service{db: db, sugar: sugar, ids: ids, gate: gate, dms: dms, profiles: profiles}
}

// serverOfChannel returns sql.ErrNoRows unwrapped when the channel is missing.
func (s *Service) serverOfChannel(ctx context.Context, channelID int64) (int64, error) {
	var serverID int64
	err := s.db.QueryRowContext(ctx, "SELECT server_id FROM channels WHERE id = ?", channelID).Scan(&serverID)
	return serverID, err
}

func (s *Service) requireChannelAccess(ctx context.Context, channelID int64, userID int64) error {
	serverID, err := s.serverOfChannel(ctx, channelID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Newf(apperr.NotFound, "channel ID [%d] doesn't exist", channelID)
	} else if err != nil {
		return apperr.Wrapf(err, apperr.Store, "reading server of channel ID [%d]", channelID)
	}
	return s.gate.RequireMember(ctx, serverID, userID)
}

// Send stores a message addressed to exactly one channel or DM room. The
// author's current display name and avatar are copied onto the message.
func (s *Service) Send(ctx context.Context, authorID int64, request SendMessageRequest) (models.Message, error) {
	if err := validator.Struct(request); err != nil {
		return models.Message{}, err
	}
	if (request.ChannelID == nil) == (request.DMRoomID == nil) {
		return models.Message{}, apperr.New(apperr.Validation, "A message needs exactly one of channelID and dmRoomID")
	}

	if request.ChannelID != nil {
		if err := s.requireChannelAccess(ctx, *request.ChannelID, authorID); err != nil {
			return models.Message{}, err
		}
	} else {
		if _, err := s.dms.RequireParticipant(ctx, *request.DMRoomID, authorID); err != nil {
			return models.Message{}, err
		}
	}

	author, err := s.profiles.Get(ctx, authorID)
	if err != nil {
		return models.Message{}, err
	}

	messageID, err := s.ids.Generate()
	if err != nil {
		return models.Message{}, apperr.Wrap(err, apperr.Store, "generating message ID")
	}

	message := models.Message{
		ID:         messageID,
		AuthorID:   authorID,
		AuthorName: author.DisplayName,
		Avatar:     author.Avatar,
		Content:    strings.TrimSpace(request.Content),
		ChannelID:  request.ChannelID,
		DMRoomID:   request.DMRoomID,
		CreatedAt:  snowflake.Time(messageID),
	}

	_, err = s.db.ExecContext(ctx, "INSERT INTO messages ("+messageColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		message.ID, message.AuthorID, message.AuthorName, message.Avatar, message.Content,
		message.ChannelID, message.DMRoomID, snowflake.ExtractTimestamp(message.ID))
	if err != nil {
		return models.Message{}, apperr.Wrapf(err, apperr.Store, "storing message of user ID [%d]", authorID)
	}

	s.sugar.Debugf("User ID [%d] sent message ID [%d]", authorID, message.ID)
	return message, nil
}

// List returns the messages of a channel or DM room, oldest first.
// A malformed or unknown target yields an empty list, not an error.
func (s *Service) List(ctx context.Context, requesterID int64, kind TargetKind, rawTargetID string, page Page) ([]models.Message, error) {
	if page.Limit < 0 || page.Limit > MaxPageSize {
		return nil, apperr.Newf(apperr.Validation, "limit must be between 1 and %d", MaxPageSize)
	}
	if page.Before < 0 {
		return nil, apperr.New(apperr.Validation, "before must be a message ID")
	}

	targetID, err := strconv.ParseInt(rawTargetID, 10, 64)
	if err != nil || targetID <= 0 {
		return []models.Message{}, nil
	}

	var column string
	switch kind {
	case TargetChannel:
		column = "channel_id"
		err = s.requireChannelAccess(ctx, targetID, requesterID)
	case TargetDM:
		column = "dm_room_id"
		_, err = s.dms.RequireParticipant(ctx, targetID, requesterID)
	default:
		return nil, apperr.Newf(apperr.Validation, "unknown message target kind [%s]", kind)
	}
	if apperr.Is(err, apperr.NotFound) {
		return []models.Message{}, nil
	} else if err != nil {
		return nil, err
	}

	query := "SELECT " + messageColumns + " FROM messages WHERE " + column + " = ?"
	args := []any{targetID}
	if page.Before > 0 {
		query += " AND id < ?"
		args = append(args, page.Before)
	}
	// newest first so the limit keeps the latest page, reversed below
	query += " ORDER BY created_at DESC, id DESC"
	if page.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, page.Limit)
	}

	messages, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.Store, "listing messages of %s ID [%d]", kind, targetID)
	}

	slices.Reverse(messages)
	return messages, nil
}

func (s *Service) query(ctx context.Context, query string, args ...any) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.sugar.Error(err)
		}
	}()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		var channelID, dmRoomID sql.NullInt64
		var createdAt int64

		err := rows.Scan(&m.ID, &m.AuthorID, &m.AuthorName, &m.Avatar, &m.Content, &channelID, &dmRoomID, &createdAt)
		if err != nil {
			return nil, err
		}

		if channelID.Valid {
			m.ChannelID = &channelID.Int64
		}
		if dmRoomID.Valid {
			m.DMRoomID = &dmRoomID.Int64
		}
		m.CreatedAt = time.UnixMilli(createdAt).UTC()

		messages = append(messages, m)
	}

	return messages, rows.Err()
}

// Delete removes a channel message. Only the owner of the server the
// channel belongs to may do it, DM messages can't be deleted.
func (s *Service) Delete(ctx context.Context, messageID int64, serverID int64, requesterID int64) error {
	if err := s.gate.RequireOwner(ctx, serverID, requesterID); err != nil {
		return err
	}

	var channelID sql.NullInt64
	err := s.db.QueryRowContext(ctx, "SELECT channel_id FROM messages WHERE id = ?", messageID).Scan(&channelID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Newf(apperr.NotFound, "message ID [%d] doesn't exist", messageID)
	} else if err != nil {
		return apperr.Wrapf(err, apperr.Store, "reading message ID [%d]", messageID)
	}
	if !channelID.Valid {
		return apperr.New(apperr.Validation, "Direct messages can't be deleted")
	}

	channelServerID, err := s.serverOfChannel(ctx, channelID.Int64)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return apperr.Wrapf(err, apperr.Store, "reading server of channel ID [%d]", channelID.Int64)
	}
	if err != nil || channelServerID != serverID {
		return apperr.Newf(apperr.NotFound, "message ID [%d] isn't in server ID [%d]", messageID, serverID)
	}

	_, err = s.db.ExecContext(ctx, "DELETE FROM messages WHERE id = ?", messageID)
	if err != nil {
		return apperr.Wrapf(err, apperr.Store, "deleting message ID [%d]", messageID)
	}

	s.sugar.Infof("User ID [%d] deleted message ID [%d] in server ID [%d]", requesterID, messageID, serverID)
	return nil
}
