package profiles

import (
	"chatcord-backend/internal/apperr"
	"chatcord-backend/internal/database"
	"chatcord-backend/internal/models"
	"chatcord-backend/internal/validator"
	"context"
	"database/sql"
	"errors"
	"math/rand/v2"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const profileColumns = "id, display_name, avatar, banner, status, status_text"

type UpdateRequest struct {
	DisplayName *string `json:"displayName" validate:"omitempty,notblank,max=64"`
	Avatar      *string `json:"avatar" validate:"omitempty,max=255"`
	Banner      *string `json:"banner" validate:"omitempty,max=255"`
	Status      *string `json:"status" validate:"omitempty,oneof=online idle dnd invisible"`
	StatusText  *string `json:"statusText" validate:"omitempty,max=128"`
}

// Service is the identity store, a profile exists for every caller that
// has been seen at least once.
type Service struct {
	db            *sql.DB
	sugar         *zap.SugaredLogger
	defaultAvatar string
	randomSuffix  func() int
}

func New(db *sql.DB, sugar *zap.SugaredLogger, defaultAvatar string) *Service {
	return &Service{
		db:            db,
		sugar:         sugar,
		defaultAvatar: defaultAvatar,
		randomSuffix:  func() int { return 1000 + rand.IntN(9000) },
	}
}

func scanProfile(row interface{ Scan(...any) error }) (models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.ID, &p.DisplayName, &p.Avatar, &p.Banner, &p.Status, &p.StatusText)
	return p, err
}

func (s *Service) Get(ctx context.Context, userID int64) (models.Profile, error) {
	p, err := scanProfile(s.db.QueryRowContext(ctx, "SELECT "+profileColumns+" FROM profiles WHERE id = ?", userID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, apperr.Newf(apperr.NotFound, "profile of user ID [%d] doesn't exist", userID)
	} else if err != nil {
		return models.Profile{}, apperr.Wrapf(err, apperr.Store, "reading profile of user ID [%d]", userID)
	}
	return p, nil
}

func (s *Service) Exists(ctx context.Context, userID int64) (bool, error) {
	exists, err := database.Exists(ctx, s.db, "SELECT 1 FROM profiles WHERE id = ?", userID)
	if err != nil {
		return false, apperr.Wrapf(err, apperr.Store, "checking profile of user ID [%d]", userID)
	}
	return exists, nil
}

// GetOrCreate provisions a profile named "User" plus four random digits the
// first time a user ID is seen. Concurrent first calls end up with the same row,
// the loser of the insert race reads the winner's profile.
func (s *Service) GetOrCreate(ctx context.Context, userID int64) (models.Profile, error) {
	p, err := s.Get(ctx, userID)
	if err == nil || !apperr.Is(err, apperr.NotFound) {
		return p, err
	}

	p = models.Profile{
		ID:          userID,
		DisplayName: "User" + strconv.Itoa(s.randomSuffix()),
		Avatar:      s.defaultAvatar,
	}

	_, err = s.db.ExecContext(ctx, "INSERT INTO profiles ("+profileColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		p.ID, p.DisplayName, p.Avatar, p.Banner, p.Status, p.StatusText)
	if database.IsUniqueViolation(err) {
		s.sugar.Debugf("Profile of user ID [%d] was created concurrently", userID)
		return s.Get(ctx, userID)
	} else if err != nil {
		return models.Profile{}, apperr.Wrapf(err, apperr.Store, "creating profile of user ID [%d]", userID)
	}

	s.sugar.Infof("Created profile [%s] for user ID [%d]", p.DisplayName, userID)
	return p, nil
}

// Update changes only the fields that are set in the request.
func (s *Service) Update(ctx context.Context, userID int64, request UpdateRequest) error {
	if err := validator.Struct(request); err != nil {
		return err
	}

	exists, err := s.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.Newf(apperr.NotFound, "profile of user ID [%d] doesn't exist", userID)
	}

	var sets []string
	var args []any
	add := func(column string, value *string) {
		if value != nil {
			sets = append(sets, column+" = ?")
			args = append(args, strings.TrimSpace(*value))
		}
	}
	add("display_name", request.DisplayName)
	add("avatar", request.Avatar)
	add("banner", request.Banner)
	add("status", request.Status)
	add("status_text", request.StatusText)

	if len(sets) == 0 {
		return nil
	}

	args = append(args, userID)
	_, err = s.db.ExecContext(ctx, "UPDATE profiles SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return apperr.Wrapf(err, apperr.Store, "updating profile of user ID [%d]", userID)
	}
	return nil
}

// SearchByDisplayName returns the oldest profile with exactly that display name.
func (s *Service) SearchByDisplayName(ctx context.Context, displayName string) (models.Profile, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return models.Profile{}, apperr.New(apperr.Validation, "display name can't be empty")
	}

	p, err := scanProfile(s.db.QueryRowContext(ctx, "SELECT "+profileColumns+" FROM profiles WHERE display_name = ? ORDER BY id LIMIT 1", displayName))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, apperr.Newf(apperr.NotFound, "no user is called [%s]", displayName)
	} else if err != nil {
		return models.Profile{}, apperr.Wrap(err, apperr.Store, "searching profiles")
	}
	return p, nil
}
