package notion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// BlockType classifies the content blocks the call-sheet parser consumes.
// Everything that is not a heading or a table is reported as BlockOther.
type BlockType string

const (
	BlockHeading1 BlockType = "heading_1"
	BlockHeading2 BlockType = "heading_2"
	BlockTable    BlockType = "table"
	BlockOther    BlockType = "other"
)

// Block is one content block of a call-sheet page. Text carries the heading
// payload for heading blocks; TableID and Rows carry the table identity and
// cell text for table blocks.
type Block struct {
	Type    BlockType
	Text    string
	TableID string
	Rows    [][]string
}

// Collection is a database of call-sheet items.
type Collection struct {
	ID    string
	Title string
}

// Item is one call-sheet page: its identity, title, flattened properties and
// ordered content blocks.
type Item struct {
	ID         string
	Title      string
	Properties map[string]any
	Content    []Block
}

// Store is the document-store surface consumed by the call-sheet core.
type Store interface {
	ListCollections(ctx context.Context) ([]Collection, error)
	GetItems(ctx context.Context, collectionID string) ([]Item, error)
	GetItem(ctx context.Context, itemID string) (*Item, error)
	GetTable(ctx context.Context, tableID string) ([][]string, error)
	PutTable(ctx context.Context, tableID string, rows [][]string) error
}

// docStore implements Store on top of the low-level Client.
type docStore struct {
	client Client
}

// NewStore creates a document store backed by the given Notion client.
func NewStore(client Client) Store {
	return &docStore{client: client}
}

func (s *docStore) ListCollections(ctx context.Context) ([]Collection, error) {
	var out []Collection
	var cursor notionapi.Cursor
	for {
		resp, err := s.client.SearchDatabases(ctx, cursor)
		if err != nil {
			return nil, eris.Wrap(err, "notion: list collections")
		}
		for _, obj := range resp.Results {
			db, ok := obj.(*notionapi.Database)
			if !ok {
				continue
			}
			out = append(out, Collection{
				ID:    string(db.ID),
				Title: plainText(db.Title),
			})
		}
		if !resp.HasMore {
			return out, nil
		}
		cursor = resp.NextCursor
	}
}

func (s *docStore) GetItems(ctx context.Context, collectionID string) ([]Item, error) {
	var items []Item

	req := &notionapi.DatabaseQueryRequest{}
	for {
		resp, err := s.client.QueryDatabase(ctx, collectionID, req)
		if err != nil {
			return nil, eris.Wrap(err, fmt.Sprintf("notion: get items of %s", collectionID))
		}
		for i := range resp.Results {
			item, err := s.pageToItem(ctx, &resp.Results[i])
			if err != nil {
				return nil, err
			}
			items = append(items, *item)
		}
		if !resp.HasMore {
			return items, nil
		}
		req = &notionapi.DatabaseQueryRequest{StartCursor: resp.NextCursor}
	}
}

func (s *docStore) GetItem(ctx context.Context, itemID string) (*Item, error) {
	page, err := s.client.GetPage(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return s.pageToItem(ctx, page)
}

func (s *docStore) GetTable(ctx context.Context, tableID string) ([][]string, error) {
	blocks, err := s.childBlocks(ctx, tableID)
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("notion: get table %s", tableID))
	}
	var rows [][]string
	for _, b := range blocks {
		row, ok := b.(*notionapi.TableRowBlock)
		if !ok {
			continue
		}
		cells := make([]string, len(row.TableRow.Cells))
		for i, cell := range row.TableRow.Cells {
			cells[i] = plainText(cell)
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// PutTable replaces the table's rows: the existing table_row children are
// deleted and the new rows appended as fresh table_row blocks.
func (s *docStore) PutTable(ctx context.Context, tableID string, rows [][]string) error {
	existing, err := s.childBlocks(ctx, tableID)
	if err != nil {
		return eris.Wrap(err, fmt.Sprintf("notion: put table %s", tableID))
	}
	for _, b := range existing {
		row, ok := b.(*notionapi.TableRowBlock)
		if !ok {
			continue
		}
		if err := s.client.DeleteBlock(ctx, string(row.ID)); err != nil {
			return eris.Wrap(err, fmt.Sprintf("notion: put table %s", tableID))
		}
	}

	children := make([]notionapi.Block, 0, len(rows))
	for _, row := range rows {
		cells := make([][]notionapi.RichText, len(row))
		for i, cell := range row {
			cells[i] = []notionapi.RichText{{
				Type:      notionapi.ObjectTypeText,
				Text:      &notionapi.Text{Content: cell},
				PlainText: cell,
			}}
		}
		children = append(children, &notionapi.TableRowBlock{
			BasicBlock: notionapi.BasicBlock{
				Object: notionapi.ObjectTypeBlock,
				Type:   notionapi.BlockTypeTableRowBlock,
			},
			TableRow: notionapi.TableRow{Cells: cells},
		})
	}
	if err := s.client.AppendBlockChildren(ctx, tableID, children); err != nil {
		return eris.Wrap(err, fmt.Sprintf("notion: put table %s", tableID))
	}
	return nil
}

// pageToItem flattens a page into an Item, fetching its content blocks and
// the rows of every embedded table.
func (s *docStore) pageToItem(ctx context.Context, page *notionapi.Page) (*Item, error) {
	item := &Item{
		ID:         string(page.ID),
		Title:      pageTitle(page),
		Properties: flattenProperties(page.Properties),
	}

	blocks, err := s.childBlocks(ctx, string(page.ID))
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("notion: get content of %s", page.ID))
	}
	for _, b := range blocks {
		switch blk := b.(type) {
		case *notionapi.Heading1Block:
			item.Content = append(item.Content, Block{Type: BlockHeading1, Text: plainText(blk.Heading1.RichText)})
		case *notionapi.Heading2Block:
			item.Content = append(item.Content, Block{Type: BlockHeading2, Text: plainText(blk.Heading2.RichText)})
		case *notionapi.TableBlock:
			tableID := string(blk.ID)
			rows, err := s.GetTable(ctx, tableID)
			if err != nil {
				return nil, err
			}
			item.Content = append(item.Content, Block{Type: BlockTable, TableID: tableID, Rows: rows})
		default:
			item.Content = append(item.Content, Block{Type: BlockOther})
		}
	}
	return item, nil
}

// childBlocks fetches all children of a block, following pagination.
func (s *docStore) childBlocks(ctx context.Context, blockID string) ([]notionapi.Block, error) {
	var all []notionapi.Block
	pagination := &notionapi.Pagination{PageSize: 100}
	for {
		resp, err := s.client.GetBlockChildren(ctx, blockID, pagination)
		if err != nil {
			return nil, err
		}
		all = append(all, resp.Results...)
		if !resp.HasMore {
			return all, nil
		}
		pagination = &notionapi.Pagination{PageSize: 100, StartCursor: notionapi.Cursor(resp.NextCursor)}
	}
}

// plainText joins the plain-text content of a rich-text array.
func plainText(rts []notionapi.RichText) string {
	var sb strings.Builder
	for _, rt := range rts {
		sb.WriteString(rt.PlainText)
	}
	return sb.String()
}

// pageTitle finds the page's title property.
func pageTitle(page *notionapi.Page) string {
	for _, prop := range page.Properties {
		if tp, ok := prop.(*notionapi.TitleProperty); ok {
			return plainText(tp.Title)
		}
	}
	return ""
}

// flattenProperties reduces Notion property objects to plain string/bool/
// float64 values keyed by the lower_snake form of the property name. Only
// the property kinds a call sheet uses are handled; anything else is dropped.
func flattenProperties(props notionapi.Properties) map[string]any {
	out := make(map[string]any, len(props))
	for name, prop := range props {
		key := propertyKey(name)
		switch p := prop.(type) {
		case *notionapi.TitleProperty:
			out[key] = plainText(p.Title)
		case *notionapi.RichTextProperty:
			out[key] = plainText(p.RichText)
		case *notionapi.NumberProperty:
			out[key] = p.Number
		case *notionapi.CheckboxProperty:
			out[key] = p.Checkbox
		case *notionapi.SelectProperty:
			out[key] = p.Select.Name
		case *notionapi.PhoneNumberProperty:
			out[key] = p.PhoneNumber
		case *notionapi.DateProperty:
			if p.Date != nil && p.Date.Start != nil {
				out[key] = time.Time(*p.Date.Start).Format("2006-01-02")
			}
		}
	}
	return out
}

// propertyKey normalizes a property name: "Closed Set" becomes "closed_set".
func propertyKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}
