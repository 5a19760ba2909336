// Package notion wraps the Notion API as the call-sheet document store:
// collections of call-sheet pages, their content blocks, and the tables
// embedded in them.
package notion

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client defines the low-level Notion API operations used by this application.
type Client interface {
	SearchDatabases(ctx context.Context, cursor notionapi.Cursor) (*notionapi.SearchResponse, error)
	QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	GetPage(ctx context.Context, pageID string) (*notionapi.Page, error)
	GetBlockChildren(ctx context.Context, blockID string, pagination *notionapi.Pagination) (*notionapi.GetChildrenResponse, error)
	AppendBlockChildren(ctx context.Context, blockID string, children []notionapi.Block) error
	DeleteBlock(ctx context.Context, blockID string) error
}

// ClientOption configures the Notion client.
type ClientOption func(*notionClient)

// WithRateLimit overrides the default Notion rate limit (3 req/s).
func WithRateLimit(rps float64) ClientOption {
	return func(c *notionClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// notionClient implements Client by wrapping a *notionapi.Client.
type notionClient struct {
	inner   *notionapi.Client
	limiter *rate.Limiter
}

// NewClient creates a new Notion client with the given integration token.
// By default, API calls are throttled to 3 req/s (Notion's rate limit).
func NewClient(token string, opts ...ClientOption) Client {
	c := &notionClient{
		inner:   notionapi.NewClient(notionapi.Token(token)),
		limiter: rate.NewLimiter(3, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// wait blocks until the rate limiter allows one event, or ctx is cancelled.
func (c *notionClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *notionClient) SearchDatabases(ctx context.Context, cursor notionapi.Cursor) (*notionapi.SearchResponse, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "notion: rate limit")
	}
	resp, err := c.inner.Search.Do(ctx, &notionapi.SearchRequest{
		StartCursor: cursor,
		Filter: notionapi.SearchFilter{
			Value:    "database",
			Property: "object",
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "notion: search databases")
	}
	return resp, nil
}

func (c *notionClient) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "notion: rate limit")
	}
	resp, err := c.inner.Database.Query(ctx, notionapi.DatabaseID(dbID), req)
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("notion: query database %s", dbID))
	}
	return resp, nil
}

func (c *notionClient) GetPage(ctx context.Context, pageID string) (*notionapi.Page, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "notion: rate limit")
	}
	page, err := c.inner.Page.Get(ctx, notionapi.PageID(pageID))
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("notion: get page %s", pageID))
	}
	return page, nil
}

func (c *notionClient) GetBlockChildren(ctx context.Context, blockID string, pagination *notionapi.Pagination) (*notionapi.GetChildrenResponse, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "notion: rate limit")
	}
	resp, err := c.inner.Block.GetChildren(ctx, notionapi.BlockID(blockID), pagination)
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("notion: get children of %s", blockID))
	}
	return resp, nil
}

func (c *notionClient) AppendBlockChildren(ctx context.Context, blockID string, children []notionapi.Block) error {
	if err := c.wait(ctx); err != nil {
		return eris.Wrap(err, "notion: rate limit")
	}
	_, err := c.inner.Block.AppendChildren(ctx, notionapi.BlockID(blockID), &notionapi.AppendBlockChildrenRequest{
		Children: children,
	})
	if err != nil {
		return eris.Wrap(err, fmt.Sprintf("notion: append children to %s", blockID))
	}
	return nil
}

func (c *notionClient) DeleteBlock(ctx context.Context, blockID string) error {
	if err := c.wait(ctx); err != nil {
		return eris.Wrap(err, "notion: rate limit")
	}
	if _, err := c.inner.Block.Delete(ctx, notionapi.BlockID(blockID)); err != nil {
		return eris.Wrap(err, fmt.Sprintf("notion: delete block %s", blockID))
	}
	return nil
}
