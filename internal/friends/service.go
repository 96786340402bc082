package friends

import (
	"chatcord-backend/internal/apperr"
	"chatcord-backend/internal/config"
	"chatcord-backend/internal/database"
	"chatcord-backend/internal/models"
	"context"
	"database/sql"

	"go.uber.org/zap"
)

// Service is the social graph. With the directed policy a request records
// one edge from the requester, with the symmetric policy both users become
// friends of each other at once.
type Service struct {
	db     *sql.DB
	sugar  *zap.SugaredLogger
	policy string
}

func New(db *sql.DB, sugar *zap.SugaredLogger, policy string) *Service {
	return &Service{db: db, sugar: sugar, policy: policy}
}

func addEdge(ctx context.Context, q database.Querier, userID int64, friendID int64) error {
	exists, err := database.Exists(ctx, q, "SELECT 1 FROM friends WHERE user_id = ? AND friend_id = ?", userID, friendID)
	if err != nil || exists {
		return err
	}

	_, err = q.ExecContext(ctx, "INSERT INTO friends (user_id, friend_id) VALUES (?, ?)", userID, friendID)
	if database.IsUniqueViolation(err) {
		return nil
	}
	return err
}

// SendRequest is idempotent, repeating a request doesn't add edges.
func (s *Service) SendRequest(ctx context.Context, userID int64, friendID int64) error {
	if userID == friendID {
		return apperr.New(apperr.Validation, "You can't befriend yourself")
	}

	exists, err := database.Exists(ctx, s.db, "SELECT 1 FROM profiles WHERE id = ?", friendID)
	if err != nil {
		return apperr.Wrapf(err, apperr.Store, "checking profile of user ID [%d]", friendID)
	}
	if !exists {
		return apperr.Newf(apperr.NotFound, "user ID [%d] doesn't exist", friendID)
	}

	if s.policy == config.FriendPolicySymmetric {
		err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
			if err := addEdge(ctx, tx, userID, friendID); err != nil {
				return err
			}
			return addEdge(ctx, tx, friendID, userID)
		})
	} else {
		err = addEdge(ctx, s.db, userID, friendID)
	}
	if err != nil {
		return apperr.Wrapf(err, apperr.Store, "adding friend ID [%d] for user ID [%d]", friendID, userID)
	}

	s.sugar.Debugf("User ID [%d] added friend ID [%d] with %s policy", userID, friendID, s.policy)
	return nil
}

// List resolves the user's outgoing edges to profiles, edges whose target
// profile is gone are skipped by the join.
func (s *Service) List(ctx context.Context, userID int64) ([]models.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			p.id, p.display_name, p.avatar, p.banner, p.status, p.status_text
		FROM
			friends f
		JOIN
			profiles p ON p.id = f.friend_id
		WHERE
			f.user_id = ?
		ORDER BY
			p.display_name, p.id
		`, userID)
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.Store, "listing friends of user ID [%d]", userID)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.sugar.Error(err)
		}
	}()

	friends := []models.Profile{}
	for rows.Next() {
		var p models.Profile
		err := rows.Scan(&p.ID, &p.DisplayName, &p.Avatar, &p.Banner, &p.Status, &p.StatusText)
		if err != nil {
			return nil, apperr.Wrap(err, apperr.Store, "scanning friend")
		}
		friends = append(friends, p)
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(err, apperr.Store, "listing friends")
	}
	return friends, nil
}
