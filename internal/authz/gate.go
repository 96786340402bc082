// Package authz is the single place that decides whether a caller owns or
// belongs to a server. Destructive and administrative operations must pass
// RequireOwner before they mutate anything.
package authz

import (
	"chatcord-backend/internal/apperr"
	"chatcord-backend/internal/database"
	"chatcord-backend/internal/keyValue"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const ownerCacheTTL = 15 * time.Minute

type Gate struct {
	db    *sql.DB
	kv    *keyValue.Store
	sugar *zap.SugaredLogger
}

func NewGate(db *sql.DB, kv *keyValue.Store, sugar *zap.SugaredLogger) *Gate {
	return &Gate{db: db, kv: kv, sugar: sugar}
}

func ownerKey(serverID int64) string {
	return fmt.Sprintf("server_owner:%d", serverID)
}

// OwnerOf returns the owner of a server. Owners never change, so the
// answer is cached until the server is deleted.
func (g *Gate) OwnerOf(ctx context.Context, serverID int64) (int64, error) {
	key := ownerKey(serverID)

	cached, err := g.kv.Get(ctx, key)
	if err != nil {
		// the cache is an optimization, fall back to the database
		g.sugar.Warnf("Couldn't read owner of server ID [%d] from cache: %v", serverID, err)
	} else if cached != "" {
		ownerID, err := strconv.ParseInt(cached, 10, 64)
		if err == nil {
			return ownerID, nil
		}
		g.sugar.Warnf("Cached owner [%s] of server ID [%d] is malformed", cached, serverID)
	}

	var ownerID int64
	err = g.db.QueryRowContext(ctx, "SELECT owner_id FROM servers WHERE id = ?", serverID).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperr.Newf(apperr.NotFound, "server ID [%d] doesn't exist", serverID)
	} else if err != nil {
		return 0, apperr.Wrapf(err, apperr.Store, "reading owner of server ID [%d]", serverID)
	}

	err = g.kv.Set(ctx, key, strconv.FormatInt(ownerID, 10), ownerCacheTTL)
	if err != nil {
		g.sugar.Warnf("Couldn't cache owner of server ID [%d]: %v", serverID, err)
	}

	return ownerID, nil
}

func (g *Gate) IsOwner(ctx context.Context, serverID int64, userID int64) (bool, error) {
	ownerID, err := g.OwnerOf(ctx, serverID)
	if err != nil {
		return false, err
	}
	return ownerID == userID, nil
}

func (g *Gate) RequireOwner(ctx context.Context, serverID int64, userID int64) error {
	isOwner, err := g.IsOwner(ctx, serverID, userID)
	if err != nil {
		return err
	}
	if !isOwner {
		g.sugar.Warnf("User ID [%d] tried an owner only operation in server ID [%d] they don't own", userID, serverID)
		return apperr.New(apperr.Unauthorized, "You don't own this server")
	}
	return nil
}

func (g *Gate) IsMember(ctx context.Context, serverID int64, userID int64) (bool, error) {
	isMember, err := database.Exists(ctx, g.db, "SELECT 1 FROM server_members WHERE server_id = ? AND user_id = ?", serverID, userID)
	if err != nil {
		return false, apperr.Wrapf(err, apperr.Store, "checking membership of user ID [%d] in server ID [%d]", userID, serverID)
	}
	return isMember, nil
}

func (g *Gate) RequireMember(ctx context.Context, serverID int64, userID int64) error {
	isMember, err := g.IsMember(ctx, serverID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		g.sugar.Debugf("User ID [%d] isn't a member of server ID [%d]", userID, serverID)
		return apperr.New(apperr.Unauthorized, "You aren't a member of this server")
	}
	return nil
}

// Forget drops the cached owner, called once a server is deleted.
func (g *Gate) Forget(ctx context.Context, serverID int64) {
	err := g.kv.Del(ctx, ownerKey(serverID))
	if err != nil {
		g.sugar.Warnf("Couldn't remove cached owner of server ID [%d]: %v", serverID, err)
	}
}
