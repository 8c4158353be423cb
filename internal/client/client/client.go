package client

import (
	"context"

	"github.com/dmitrijs2005/peeksync/internal/protocol"
)

type Client interface {
	// FetchItems returns every live server item, or only those updated
	// after since when since is set and positive.
	FetchItems(ctx context.Context, since *int64) ([]protocol.ServerItem, error)
	PushItem(ctx context.Context, req protocol.PushRequest) (*protocol.PushResponse, error)
	Ping(ctx context.Context) error
}
