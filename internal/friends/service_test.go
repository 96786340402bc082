package friends_test

import (
	"chatcord-backend/internal/apperr"
	"chatcord-backend/internal/config"
	"chatcord-backend/internal/friends"
	"chatcord-backend/internal/testutil"
	"context"
	"testing"
)

func TestSendRequestPolicies(t *testing.T) {
	tests := []struct {
		policy         string
		wantAliceCount int
		wantBobFriends int
	}{
		{policy: config.FriendPolicyDirected, wantAliceCount: 1, wantBobFriends: 0},
		{policy: config.FriendPolicySymmetric, wantAliceCount: 1, wantBobFriends: 1},
	}

	for _, tc := range tests {
		t.Run(tc.policy, func(t *testing.T) {
			db := testutil.DB(t)
			testutil.InsertProfile(t, db, 1, "alice")
			testutil.InsertProfile(t, db, 2, "bob")
			s := friends.New(db, testutil.Logger(), tc.policy)
			ctx := context.Background()

			// repeating the request must not duplicate anything
			for range 2 {
				if err := s.SendRequest(ctx, 1, 2); err != nil {
					t.Fatal(err)
				}
			}

			aliceFriends, err := s.List(ctx, 1)
			if err != nil {
				t.Fatal(err)
			}
			if len(aliceFriends) != tc.wantAliceCount || aliceFriends[0].DisplayName != "bob" {
				t.Errorf("alice's friends = %+v", aliceFriends)
			}

			bobFriends, err := s.List(ctx, 2)
			if err != nil {
				t.Fatal(err)
			}
			if len(bobFriends) != tc.wantBobFriends {
				t.Errorf("bob has %d friends, want %d", len(bobFriends), tc.wantBobFriends)
			}
		})
	}
}

func TestSendRequestRejects(t *testing.T) {
	db := testutil.DB(t)
	testutil.InsertProfile(t, db, 1, "alice")
	s := friends.New(db, testutil.Logger(), config.FriendPolicySymmetric)
	ctx := context.Background()

	if err := s.SendRequest(ctx, 1, 1); !apperr.Is(err, apperr.Validation) {
		t.Errorf("self request returned %v, want validation", err)
	}
	if err := s.SendRequest(ctx, 1, 99); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("request to unknown user returned %v, want not found", err)
	}
}

func TestListEmpty(t *testing.T) {
	db := testutil.DB(t)
	s := friends.New(db, testutil.Logger(), config.FriendPolicyDirected)

	got, err := s.List(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("List = %#v, want empty non-nil slice", got)
	}
}
