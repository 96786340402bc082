package authz_test

import (
	"chatcord-backend/internal/apperr"
	"chatcord-backend/internal/authz"
	"chatcord-backend/internal/keyValue"
	"chatcord-backend/internal/testutil"
	"context"
	"database/sql"
	"testing"
)

func newGate(t *testing.T) (*authz.Gate, *sql.DB) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	db := testutil.DB(t)
	kv := keyValue.New(ctx, testutil.Logger(), nil)

	testutil.InsertProfile(t, db, 1, "owner")
	testutil.InsertProfile(t, db, 2, "member")
	testutil.InsertProfile(t, db, 3, "stranger")

	mustExec(t, db, "INSERT INTO servers (id, owner_id, name, created_at) VALUES (?, ?, ?, ?)", 10, 1, "test", 0)
	mustExec(t, db, "INSERT INTO server_members (server_id, user_id) VALUES (?, ?), (?, ?)", 10, 1, 10, 2)

	return authz.NewGate(db, kv, testutil.Logger()), db
}

func mustExec(t *testing.T, db *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatal(err)
	}
}

func TestRequireOwner(t *testing.T) {
	gate, _ := newGate(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		serverID int64
		userID   int64
		wantKind apperr.Kind
	}{
		{name: "Owner passes", serverID: 10, userID: 1},
		{name: "Member is refused", serverID: 10, userID: 2, wantKind: apperr.Unauthorized},
		{name: "Stranger is refused", serverID: 10, userID: 3, wantKind: apperr.Unauthorized},
		{name: "Missing server", serverID: 99, userID: 1, wantKind: apperr.NotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := gate.RequireOwner(ctx, tc.serverID, tc.userID)

			if tc.wantKind == "" {
				if err != nil {
					t.Errorf("RequireOwner failed unexpectedly: %v", err)
				}
				return
			}
			if !apperr.Is(err, tc.wantKind) {
				t.Errorf("RequireOwner returned %v, want kind %q", err, tc.wantKind)
			}
		})
	}
}

func TestOwnerIsCachedUntilForgotten(t *testing.T) {
	gate, db := newGate(t)
	ctx := context.Background()

	if _, err := gate.OwnerOf(ctx, 10); err != nil {
		t.Fatal(err)
	}

	// remove the row behind the cache's back
	mustExec(t, db, "DELETE FROM server_members WHERE server_id = ?", 10)
	mustExec(t, db, "DELETE FROM servers WHERE id = ?", 10)

	ownerID, err := gate.OwnerOf(ctx, 10)
	if err != nil {
		t.Fatalf("cached owner wasn't used: %v", err)
	}
	if ownerID != 1 {
		t.Errorf("owner = %d, want 1", ownerID)
	}

	gate.Forget(ctx, 10)

	_, err = gate.OwnerOf(ctx, 10)
	if !apperr.Is(err, apperr.NotFound) {
		t.Errorf("OwnerOf after Forget returned %v, want not found", err)
	}
}

func TestRequireMember(t *testing.T) {
	gate, _ := newGate(t)
	ctx := context.Background()

	if err := gate.RequireMember(ctx, 10, 2); err != nil {
		t.Errorf("member was refused: %v", err)
	}
	if err := gate.RequireMember(ctx, 10, 3); !apperr.Is(err, apperr.Unauthorized) {
		t.Errorf("stranger got %v, want unauthorized", err)
	}
}
