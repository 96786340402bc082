package servers

import (
	"chatcord-backend/internal/apperr"
	"chatcord-backend/internal/authz"
	"chatcord-backend/internal/database"
	"chatcord-backend/internal/models"
	"chatcord-backend/internal/snowflake"
	"chatcord-backend/internal/validator"
	"context"
	"database/sql"
	"strings"
	"time"

	"go.uber.org/zap"
)

const DefaultChannelName = "general"

type CreateServerRequest struct {
	Name string `json:"name" validate:"required,notblank,max=64"`
}

type RenameServerRequest struct {
	Name string `json:"name" validate:"required,notblank,max=64"`
}

type CreateChannelRequest struct {
	ServerID int64  `json:"serverID,string" validate:"required"`
	Name     string `json:"name" validate:"required"`
}

type Service struct {
	db    *sql.DB
	sugar *zap.SugaredLogger
	ids   *snowflake.Generator
	gate  *authz.Gate
}

func New(db *sql.DB, sugar *zap.SugaredLogger, ids *snowflake.Generator, gate *authz.Gate) *Service {
	return &Service{db: db, sugar: sugar, ids: ids, gate: gate}
}

func (s *Service) serverExists(ctx context.Context, serverID int64) error {
	exists, err := database.Exists(ctx, s.db, "SELECT 1 FROM servers WHERE id = ?", serverID)
	if err != nil {
		return apperr.Wrapf(err, apperr.Store, "checking server ID [%d]", serverID)
	}
	if !exists {
		return apperr.Newf(apperr.NotFound, "server ID [%d] doesn't exist", serverID)
	}
	return nil
}

func addServerMember(ctx context.Context, q database.Querier, serverID int64, userID int64) error {
	_, err := q.ExecContext(ctx, "INSERT INTO server_members (server_id, user_id) VALUES (?, ?)", serverID, userID)
	return err
}

// CreateServer stores the server, the owner's membership and the default
// general channel in one transaction, so a server never exists without them.
func (s *Service) CreateServer(ctx context.Context, ownerID int64, request CreateServerRequest) (models.Server, error) {
	if err := validator.Struct(request); err != nil {
		return models.Server{}, err
	}

	serverID, err := s.ids.Generate()
	if err != nil {
		return models.Server{}, apperr.Wrap(err, apperr.Store, "generating server ID")
	}
	channelID, err := s.ids.Generate()
	if err != nil {
		return models.Server{}, apperr.Wrap(err, apperr.Store, "generating channel ID")
	}

	server := models.Server{
		ID:        serverID,
		OwnerID:   ownerID,
		Name:      strings.TrimSpace(request.Name),
		CreatedAt: snowflake.Time(serverID),
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO servers (id, owner_id, name, created_at) VALUES (?, ?, ?, ?)",
			server.ID, server.OwnerID, server.Name, snowflake.ExtractTimestamp(server.ID))
		if err != nil {
			return err
		}

		err = addServerMember(ctx, tx, server.ID, ownerID)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, "INSERT INTO channels (id, server_id, name) VALUES (?, ?, ?)", channelID, server.ID, DefaultChannelName)
		return err
	})
	if err != nil {
		return models.Server{}, apperr.Wrapf(err, apperr.Store, "creating server for user ID [%d]", ownerID)
	}

	s.sugar.Infof("User ID [%d] created server ID [%d]", ownerID, server.ID)
	return server, nil
}

// ListMine joins through the servers table, memberships pointing at a
// missing server never show up.
func (s *Service) ListMine(ctx context.Context, userID int64) ([]models.Server, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			s.id, s.owner_id, s.name, s.created_at
		FROM
			servers s
		JOIN
			server_members m ON s.id = m.server_id
		WHERE
			m.user_id = ?
		ORDER BY
			s.id
		`, userID)
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.Store, "listing servers of user ID [%d]", userID)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.sugar.Error(err)
		}
	}()

	servers := []models.Server{}
	for rows.Next() {
		var server models.Server
		var createdAt int64

		err := rows.Scan(&server.ID, &server.OwnerID, &server.Name, &createdAt)
		if err != nil {
			return nil, apperr.Wrap(err, apperr.Store, "scanning server")
		}

		server.CreatedAt = time.UnixMilli(createdAt).UTC()
		servers = append(servers, server)
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(err, apperr.Store, "listing servers")
	}
	return servers, nil
}

func (s *Service) Join(ctx context.Context, serverID int64, userID int64) error {
	if err := s.serverExists(ctx, serverID); err != nil {
		return err
	}

	isMember, err := s.gate.IsMember(ctx, serverID, userID)
	if err != nil {
		return err
	}
	if isMember {
		return apperr.New(apperr.AlreadyMember, "You are already a member of this server")
	}

	err = addServerMember(ctx, s.db, serverID, userID)
	if database.IsUniqueViolation(err) {
		return apperr.New(apperr.AlreadyMember, "You are already a member of this server")
	} else if err != nil {
		return apperr.Wrapf(err, apperr.Store, "adding user ID [%d] to server ID [%d]", userID, serverID)
	}

	s.sugar.Debugf("User ID [%d] joined server ID [%d]", userID, serverID)
	return nil
}

// Leave removes the caller's own membership. Owners have to delete the
// server instead.
func (s *Service) Leave(ctx context.Context, serverID int64, userID int64) error {
	isOwner, err := s.gate.IsOwner(ctx, serverID, userID)
	if err != nil {
		return err
	}
	if isOwner {
		return apperr.New(apperr.Validation, "The owner can't leave their server, delete it instead")
	}

	return s.removeMember(ctx, serverID, userID)
}

func (s *Service) removeMember(ctx context.Context, serverID int64, userID int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM server_members WHERE server_id = ? AND user_id = ?", serverID, userID)
	if err != nil {
		return apperr.Wrapf(err, apperr.Store, "removing user ID [%d] from server ID [%d]", userID, serverID)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperr.Wrap(err, apperr.Store, "reading affected rows")
	}
	if affected == 0 {
		return apperr.Newf(apperr.NotFound, "user ID [%d] isn't a member of server ID [%d]", userID, serverID)
	}
	return nil
}

// Kick removes another member. Only the owner may kick, and the owner
// can't kick themselves.
func (s *Service) Kick(ctx context.Context, serverID int64, targetID int64, requesterID int64) error {
	if err := s.gate.RequireOwner(ctx, serverID, requesterID); err != nil {
		return err
	}
	if targetID == requesterID {
		return apperr.New(apperr.Validation, "The owner can't be kicked")
	}

	if err := s.removeMember(ctx, serverID, targetID); err != nil {
		return err
	}

	s.sugar.Infof("User ID [%d] kicked user ID [%d] from server ID [%d]", requesterID, targetID, serverID)
	return nil
}

func (s *Service) Rename(ctx context.Context, serverID int64, requesterID int64, request RenameServerRequest) error {
	if err := validator.Struct(request); err != nil {
		return err
	}
	if err := s.gate.RequireOwner(ctx, serverID, requesterID); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, "UPDATE servers SET name = ? WHERE id = ?", strings.TrimSpace(request.Name), serverID)
	if err != nil {
		return apperr.Wrapf(err, apperr.Store, "renaming server ID [%d]", serverID)
	}
	return nil
}

// Delete removes a server and everything it owns, children before parents:
// channel messages, channels, memberships and finally the server row.
func (s *Service) Delete(ctx context.Context, serverID int64, requesterID int64) error {
	if err := s.gate.RequireOwner(ctx, serverID, requesterID); err != nil {
		return err
	}

	cascade := []string{
		"DELETE FROM messages WHERE channel_id IN (SELECT id FROM channels WHERE server_id = ?)",
		"DELETE FROM channels WHERE server_id = ?",
		"DELETE FROM server_members WHERE server_id = ?",
		"DELETE FROM servers WHERE id = ?",
	}

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, statement := range cascade {
			if _, err := tx.ExecContext(ctx, statement, serverID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperr.Wrapf(err, apperr.Store, "deleting server ID [%d]", serverID)
	}

	s.gate.Forget(ctx, serverID)

	s.sugar.Infof("User ID [%d] deleted server ID [%d]", requesterID, serverID)
	return nil
}
