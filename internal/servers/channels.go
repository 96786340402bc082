package servers

import (
	"chatcord-backend/internal/apperr"
	"chatcord-backend/internal/models"
	"chatcord-backend/internal/validator"
	"context"
)

func (s *Service) ListChannels(ctx context.Context, serverID int64) ([]models.Channel, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, server_id, name FROM channels WHERE server_id = ? ORDER BY id", serverID)
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.Store, "listing channels of server ID [%d]", serverID)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.sugar.Error(err)
		}
	}()

	channels := []models.Channel{}
	for rows.Next() {
		var channel models.Channel

		err := rows.Scan(&channel.ID, &channel.ServerID, &channel.Name)
		if err != nil {
			return nil, apperr.Wrap(err, apperr.Store, "scanning channel")
		}

		channels = append(channels, channel)
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(err, apperr.Store, "listing channels")
	}
	return channels, nil
}

// CreateChannel is open to every member of the server.
func (s *Service) CreateChannel(ctx context.Context, requesterID int64, request CreateChannelRequest) (models.Channel, error) {
	if err := validator.Struct(request); err != nil {
		return models.Channel{}, err
	}

	name, err := validator.ChannelName(request.Name)
	if err != nil {
		return models.Channel{}, apperr.Wrap(err, apperr.Validation, "invalid channel name")
	}

	if err := s.serverExists(ctx, request.ServerID); err != nil {
		return models.Channel{}, err
	}
	if err := s.gate.RequireMember(ctx, request.ServerID, requesterID); err != nil {
		return models.Channel{}, err
	}

	channelID, err := s.ids.Generate()
	if err != nil {
		return models.Channel{}, apperr.Wrap(err, apperr.Store, "generating channel ID")
	}

	channel := models.Channel{
		ID:       channelID,
		ServerID: request.ServerID,
		Name:     name,
	}

	_, err = s.db.ExecContext(ctx, "INSERT INTO channels (id, server_id, name) VALUES (?, ?, ?)", channel.ID, channel.ServerID, channel.Name)
	if err != nil {
		return models.Channel{}, apperr.Wrapf(err, apperr.Store, "creating channel in server ID [%d]", request.ServerID)
	}

	s.sugar.Debugf("User ID [%d] created channel ID [%d] in server ID [%d]", requesterID, channel.ID, channel.ServerID)
	return channel, nil
}

func (s *Service) ListMembers(ctx context.Context, serverID int64) ([]models.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			profiles.id,
			profiles.display_name,
			profiles.avatar,
			profiles.banner,
			profiles.status,
			profiles.status_text
		FROM
			server_members
		JOIN
			profiles ON server_members.user_id = profiles.id
		WHERE
			server_members.server_id = ?
		ORDER BY
			profiles.display_name, profiles.id
		`, serverID)
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.Store, "listing members of server ID [%d]", serverID)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.sugar.Error(err)
		}
	}()

	members := []models.Profile{}
	for rows.Next() {
		var p models.Profile
		err := rows.Scan(&p.ID, &p.DisplayName, &p.Avatar, &p.Banner, &p.Status, &p.StatusText)
		if err != nil {
			return nil, apperr.Wrap(err, apperr.Store, "scanning member")
		}

		members = append(members, p)
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(err, apperr.Store, "listing members")
	}
	return members, nil
}
