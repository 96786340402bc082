// Package dm derives the single direct-message room shared by two users.
package dm

import (
	"chatcord-backend/internal/apperr"
	"chatcord-backend/internal/database"
	"chatcord-backend/internal/models"
	"chatcord-backend/internal/snowflake"
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"
)

type Service struct {
	db    *sql.DB
	sugar *zap.SugaredLogger
	ids   *snowflake.Generator
}

func New(db *sql.DB, sugar *zap.SugaredLogger, ids *snowflake.Generator) *Service {
	return &Service{db: db, sugar: sugar, ids: ids}
}

// CanonicalPair orders two user IDs so that every unordered pair maps to
// one (low, high) key.
func CanonicalPair(a int64, b int64) (int64, int64) {
	if a < b {
		return a, b
	}
	return b, a
}

func scanRoom(row interface{ Scan(...any) error }) (models.DMRoom, error) {
	var room models.DMRoom
	var createdAt int64

	err := row.Scan(&room.ID, &room.UserOne, &room.UserTwo, &createdAt)
	room.CreatedAt = time.UnixMilli(createdAt).UTC()
	return room, err
}

func (s *Service) findByPair(ctx context.Context, low int64, high int64) (models.DMRoom, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, user_one, user_two, created_at FROM dm_rooms WHERE user_one = ? AND user_two = ?", low, high)
	return scanRoom(row)
}

// GetOrCreate returns the room of two users, creating it on first use.
// A concurrent caller that loses the insert race reads the winner's row.
func (s *Service) GetOrCreate(ctx context.Context, userA int64, userB int64) (models.DMRoom, error) {
	if userA == userB {
		return models.DMRoom{}, apperr.New(apperr.Validation, "You can't open a direct message with yourself")
	}

	low, high := CanonicalPair(userA, userB)

	room, err := s.findByPair(ctx, low, high)
	if err == nil {
		return room, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return models.DMRoom{}, apperr.Wrapf(err, apperr.Store, "looking up DM room of [%d] and [%d]", low, high)
	}

	for _, userID := range []int64{low, high} {
		exists, err := database.Exists(ctx, s.db, "SELECT 1 FROM profiles WHERE id = ?", userID)
		if err != nil {
			return models.DMRoom{}, apperr.Wrapf(err, apperr.Store, "checking profile of user ID [%d]", userID)
		}
		if !exists {
			return models.DMRoom{}, apperr.Newf(apperr.NotFound, "user ID [%d] doesn't exist", userID)
		}
	}

	roomID, err := s.ids.Generate()
	if err != nil {
		return models.DMRoom{}, apperr.Wrap(err, apperr.Store, "generating DM room ID")
	}

	room = models.DMRoom{
		ID:        roomID,
		UserOne:   low,
		UserTwo:   high,
		CreatedAt: snowflake.Time(roomID),
	}

	_, err = s.db.ExecContext(ctx, "INSERT INTO dm_rooms (id, user_one, user_two, created_at) VALUES (?, ?, ?, ?)",
		room.ID, room.UserOne, room.UserTwo, snowflake.ExtractTimestamp(room.ID))
	if database.IsUniqueViolation(err) {
		s.sugar.Debugf("DM room of [%d] and [%d] was created concurrently", low, high)

		room, err = s.findByPair(ctx, low, high)
		if err != nil {
			return models.DMRoom{}, apperr.Wrapf(err, apperr.Store, "reading concurrently created DM room of [%d] and [%d]", low, high)
		}
		return room, nil
	} else if err != nil {
		return models.DMRoom{}, apperr.Wrapf(err, apperr.Store, "creating DM room of [%d] and [%d]", low, high)
	}

	s.sugar.Debugf("Created DM room ID [%d] for [%d] and [%d]", room.ID, low, high)
	return room, nil
}

func (s *Service) Get(ctx context.Context, roomID int64) (models.DMRoom, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, user_one, user_two, created_at FROM dm_rooms WHERE id = ?", roomID)
	room, err := scanRoom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DMRoom{}, apperr.Newf(apperr.NotFound, "DM room ID [%d] doesn't exist", roomID)
	} else if err != nil {
		return models.DMRoom{}, apperr.Wrapf(err, apperr.Store, "reading DM room ID [%d]", roomID)
	}
	return room, nil
}

func IsParticipant(room models.DMRoom, userID int64) bool {
	return room.UserOne == userID || room.UserTwo == userID
}

// RequireParticipant fails with Unauthorized when the user isn't one of the
// two users of the room.
func (s *Service) RequireParticipant(ctx context.Context, roomID int64, userID int64) (models.DMRoom, error) {
	room, err := s.Get(ctx, roomID)
	if err != nil {
		return models.DMRoom{}, err
	}
	if !IsParticipant(room, userID) {
		s.sugar.Warnf("User ID [%d] tried to access DM room ID [%d] they aren't part of", userID, roomID)
		return models.DMRoom{}, apperr.New(apperr.Unauthorized, "You aren't part of this conversation")
	}
	return room, nil
}

// ListRooms returns every room of a user with the other participant's
// profile attached, newest room first.
func (s *Service) ListRooms(ctx context.Context, userID int64) ([]models.DMRoom, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			r.id, r.user_one, r.user_two, r.created_at,
			p.id, p.display_name, p.avatar, p.banner, p.status, p.status_text
		FROM
			dm_rooms r
		JOIN
			profiles p ON p.id = CASE WHEN r.user_one = ? THEN r.user_two ELSE r.user_one END
		WHERE
			r.user_one = ? OR r.user_two = ?
		ORDER BY
			r.created_at DESC, r.id DESC
		`, userID, userID, userID)
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.Store, "listing DM rooms of user ID [%d]", userID)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.sugar.Error(err)
		}
	}()

	rooms := []models.DMRoom{}
	for rows.Next() {
		var room models.DMRoom
		var createdAt int64
		other := &models.Profile{}

		err := rows.Scan(&room.ID, &room.UserOne, &room.UserTwo, &createdAt,
			&other.ID, &other.DisplayName, &other.Avatar, &other.Banner, &other.Status, &other.StatusText)
		if err != nil {
			return nil, apperr.Wrap(err, apperr.Store, "scanning DM room")
		}

		room.CreatedAt = time.UnixMilli(createdAt).UTC()
		room.Other = other
		rooms = append(rooms, room)
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(err, apperr.Store, "listing DM rooms")
	}
	return rooms, nil
}
