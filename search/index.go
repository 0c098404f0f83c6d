// Package search maintains a full-text index of persisted messages and
// answers search queries scoped to a user's own conversations.
package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/blugelabs/bluge"
	"github.com/google/uuid"

	"chattin/domain"
	"chattin/repositories"
)

// Index wraps a Bluge writer. Indexing is a side channel of the relay
// pipeline: a failure here is logged upstream and never blocks a message.
type Index struct {
	log    *slog.Logger
	writer *bluge.Writer
}

// Query scopes a search to the requesting user. When With is set, only
// the dialog with that user is searched; otherwise every conversation the
// requester participates in.
type Query struct {
	Requester string
	With      string
	Terms     string
	Limit     int
}

const defaultLimit = 20

func Open(log *slog.Logger, path string) (*Index, error) {
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(path))
	if err != nil {
		return nil, err
	}
	return &Index{log: log, writer: writer}, nil
}

func (i *Index) Close() error {
	return i.writer.Close()
}

// Index adds one persisted message to the search index. The detected
// language is kept as a keyword so result sets stay filterable later.
func (i *Index) Index(message domain.Message) error {
	lang := whatlanggo.LangToString(whatlanggo.Detect(message.Content).Lang)

	doc := bluge.NewDocument(message.ID.String())
	doc.AddField(bluge.NewTextField("content", message.Content).StoreValue())
	doc.AddField(bluge.NewKeywordField("sender", message.SenderID).StoreValue())
	doc.AddField(bluge.NewKeywordField("recipient", message.RecipientID).StoreValue())
	doc.AddField(bluge.NewKeywordField("conversation",
		repositories.ConversationKey(message.SenderID, message.RecipientID)))
	doc.AddField(bluge.NewKeywordField("lang", lang))
	doc.AddField(bluge.NewDateTimeField("created_at", message.CreatedAt).Sortable())
	doc.AddField(bluge.NewStoredOnlyField("at",
		[]byte(message.CreatedAt.Format(time.RFC3339Nano))))

	return i.writer.Update(doc.ID(), doc)
}

// Search runs a match query over message content, restricted to
// conversations the requester takes part in, newest first.
func (i *Index) Search(ctx context.Context, query Query) ([]domain.Message, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	q := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(query.Terms).SetField("content"))

	if query.With != "" {
		q.AddMust(bluge.NewTermQuery(
			repositories.ConversationKey(query.Requester, query.With)).
			SetField("conversation"))
	} else {
		participant := bluge.NewBooleanQuery().
			AddShould(bluge.NewTermQuery(query.Requester).SetField("sender")).
			AddShould(bluge.NewTermQuery(query.Requester).SetField("recipient")).
			SetMinShould(1)
		q.AddMust(participant)
	}

	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			i.log.Warn("closing index reader failed", "error", err)
		}
	}()

	request := bluge.NewTopNSearch(limit, q).SortBy([]string{"-created_at"})
	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var messages []domain.Message
	match, err := iterator.Next()
	for err == nil && match != nil {
		var message domain.Message
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				message.ID, _ = uuid.Parse(string(value))
			case "content":
				message.Content = string(value)
			case "sender":
				message.SenderID = string(value)
			case "recipient":
				message.RecipientID = string(value)
			case "at":
				message.CreatedAt, _ = time.Parse(time.RFC3339Nano, string(value))
			}
			return true
		})
		if visitErr != nil {
			return nil, visitErr
		}
		messages = append(messages, message)
		match, err = iterator.Next()
	}
	if err != nil {
		return nil, err
	}

	return messages, nil
}
