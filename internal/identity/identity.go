// Package identity carries the caller's verified identity into every core operation.
//
// The authentication collaborator in front of this service verifies credentials
// and forwards the result as gRPC metadata; nothing here re-checks them.
package identity

import (
	"context"
	"fmt"
	"strconv"

	"google.golang.org/grpc/metadata"

	"github.com/oggyb/hire-match/internal/db"
)

// Metadata keys set by the authentication collaborator.
const (
	HeaderUserID  = "x-user-id"
	HeaderLevelID = "x-user-level-id"
	HeaderType    = "x-user-type"
)

// Identity is the verified (user_id, user_level_id, user_type) triple.
type Identity struct {
	UserID  uint64
	LevelID uint64
	Type    db.UserType
}

// IsAdmin reports whether the caller has the admin level.
func (i Identity) IsAdmin() bool {
	return i.LevelID == db.LevelAdmin
}

// CanActFor reports whether the caller may act on resources owned by userID.
func (i Identity) CanActFor(userID uint64) bool {
	return i.UserID == userID || i.IsAdmin()
}

// FromIncoming reads the identity from incoming gRPC metadata.
func FromIncoming(ctx context.Context) (Identity, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return Identity{}, fmt.Errorf("missing metadata")
	}

	userID, err := strconv.ParseUint(first(md, HeaderUserID), 10, 64)
	if err != nil || userID == 0 {
		return Identity{}, fmt.Errorf("%s must be a positive integer", HeaderUserID)
	}

	levelID := db.LevelUser
	if v := first(md, HeaderLevelID); v != "" {
		if levelID, err = strconv.ParseUint(v, 10, 64); err != nil {
			return Identity{}, fmt.Errorf("%s must be an integer", HeaderLevelID)
		}
	}

	userType, err := db.ParseUserType(first(md, HeaderType))
	if err != nil {
		return Identity{}, err
	}

	return Identity{UserID: userID, LevelID: levelID, Type: userType}, nil
}

// Outgoing attaches id to an outgoing client context. Used by clients and tests.
func Outgoing(ctx context.Context, id Identity) context.Context {
	return metadata.AppendToOutgoingContext(ctx,
		HeaderUserID, strconv.FormatUint(id.UserID, 10),
		HeaderLevelID, strconv.FormatUint(id.LevelID, 10),
		HeaderType, string(id.Type),
	)
}

func first(md metadata.MD, key string) string {
	if v := md.Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}
