package server_test

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/oggyb/hire-match/internal/db"
	"github.com/oggyb/hire-match/internal/identity"
	"github.com/oggyb/hire-match/internal/logger"
	"github.com/oggyb/hire-match/internal/server"
	"github.com/oggyb/hire-match/internal/service"
	"github.com/oggyb/hire-match/internal/service/matching"
	"github.com/oggyb/hire-match/internal/service/notification"
	"github.com/oggyb/hire-match/internal/testutil"
)

// dial serves every registrar on an in-memory listener and returns a client
// connection speaking the json codec.
func dial(t *testing.T) *grpc.ClientConn {
	t.Helper()
	env := testutil.Setup(t)
	env.Candidate(t, 1)
	env.Candidate(t, 2)

	lis := bufconn.Listen(1 << 20)
	srv := server.NewGRPCServer(logger.Discard(), service.New(env.App).Registrars()...)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(server.CodecName)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func as(id uint64) context.Context {
	return identity.Outgoing(context.Background(), identity.Identity{
		UserID: id, LevelID: db.LevelUser, Type: db.UserCandidate,
	})
}

func method(service, name string) string {
	return "/" + service + "/" + name
}

func TestGRPC_SwipeToMatch(t *testing.T) {
	conn := dial(t)

	var first matching.RecordSwipeResponse
	var header metadata.MD
	err := conn.Invoke(as(1), method(matching.ServiceName, "RecordSwipe"),
		&matching.RecordSwipeRequest{SwipedID: 2, Direction: "right", SwipeType: "candidate"},
		&first, grpc.Header(&header))
	require.NoError(t, err)
	assert.NotZero(t, first.Swipe.ID)
	assert.Nil(t, first.Match)
	assert.NotEmpty(t, header.Get(server.HeaderRequestID))

	var second matching.RecordSwipeResponse
	err = conn.Invoke(as(2), method(matching.ServiceName, "RecordSwipe"),
		&matching.RecordSwipeRequest{SwipedID: 1, Direction: "right", SwipeType: "candidate"}, &second)
	require.NoError(t, err)
	require.NotNil(t, second.Match)
	assert.Equal(t, uint64(2), second.Match.User1ID)

	var count notification.CountResponse
	err = conn.Invoke(as(1), method(notification.ServiceName, "CountNotifications"),
		&notification.CountRequest{UserID: 1}, &count)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count.Count)

	var list notification.ListResponse
	err = conn.Invoke(as(1), method(notification.ServiceName, "ListNotifications"),
		&notification.ListRequest{UserID: 1}, &list)
	require.NoError(t, err)
	require.Len(t, list.Notifications, 1)
	assert.Equal(t, "user2", list.Notifications[0].Counterpart.Username)
}

func TestGRPC_ErrorCodes(t *testing.T) {
	conn := dial(t)

	cases := map[string]struct {
		ctx    context.Context
		method string
		req    any
		want   codes.Code
	}{
		"missing identity": {
			context.Background(), method(matching.ServiceName, "RecordSwipe"),
			&matching.RecordSwipeRequest{SwipedID: 2, Direction: "right", SwipeType: "candidate"},
			codes.Unauthenticated,
		},
		"bad direction": {
			as(1), method(matching.ServiceName, "RecordSwipe"),
			&matching.RecordSwipeRequest{SwipedID: 2, Direction: "up", SwipeType: "candidate"},
			codes.InvalidArgument,
		},
		"job swipe without job": {
			as(1), method(matching.ServiceName, "RecordSwipe"),
			&matching.RecordSwipeRequest{SwipedID: 2, Direction: "right", SwipeType: "job"},
			codes.InvalidArgument,
		},
		"self swipe": {
			as(1), method(matching.ServiceName, "RecordSwipe"),
			&matching.RecordSwipeRequest{SwipedID: 1, Direction: "right", SwipeType: "candidate"},
			codes.InvalidArgument,
		},
		"delete missing match": {
			as(1), method(matching.ServiceName, "DeleteMatch"),
			&matching.IDRequest{ID: 404},
			codes.NotFound,
		},
		"other user's swipes": {
			as(1), method(matching.ServiceName, "ListSwipes"),
			&matching.UserRequest{UserID: 2},
			codes.PermissionDenied,
		},
		"create match without admin": {
			as(1), method(matching.ServiceName, "CreateMatch"),
			&matching.CreateMatchRequest{InitiatorID: 1, OtherID: 2, MatchType: "candidate"},
			codes.PermissionDenied,
		},
		"unknown method": {
			as(1), method(matching.ServiceName, "Nope"),
			&matching.IDRequest{ID: 1},
			codes.Unimplemented,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var out map[string]any
			err := conn.Invoke(tc.ctx, tc.method, tc.req, &out)
			require.Error(t, err)
			assert.Equal(t, tc.want, status.Code(err), err.Error())
		})
	}
}

func TestGRPC_Health(t *testing.T) {
	conn := dial(t)

	// health uses the default proto codec
	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{},
		grpc.CallContentSubtype("proto"))
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
