package sink

import (
	"context"
	"fmt"

	"github.com/levonmo/toff/conts"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/olivere/elastic"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Elastic indexes oplog entries into one Elasticsearch index. Entries that
// still carry ts are indexed under "<t>_<i>", so exporting the same range
// twice overwrites instead of duplicating.
type Elastic struct {
	client *elastic.Client
	index  string
}

func NewElastic(client *elastic.Client, index string) *Elastic {
	return &Elastic{client: client, index: index}
}

// DocID returns the Elasticsearch id of an entry, or "" to let the cluster
// pick one.
func DocID(doc bson.D) string {
	for _, e := range doc {
		if e.Key != "ts" {
			continue
		}
		if ts, ok := e.Value.(primitive.Timestamp); ok {
			return fmt.Sprintf("%d_%d", ts.T, ts.I)
		}
	}
	return ""
}

// Write bulk-indexes docs in batches and returns how many were stored.
func (s *Elastic) Write(ctx context.Context, docs []bson.D) (int, error) {
	stored := 0
	for start := 0; start < len(docs); start += conts.MaxExportBatchCount {
		end := start + conts.MaxExportBatchCount
		if end > len(docs) {
			end = len(docs)
		}
		n, err := s.writeBatch(ctx, docs[start:end])
		stored += n
		if err != nil {
			return stored, err
		}
	}
	grip.Info(message.Fields{
		"message": "exported oplog entries",
		"index":   s.index,
		"total":   len(docs),
		"stored":  stored,
	})
	return stored, nil
}

func (s *Elastic) writeBatch(ctx context.Context, docs []bson.D) (int, error) {
	bulk := s.client.Bulk()
	for _, doc := range docs {
		b, err := bson.MarshalExtJSON(doc, false, false)
		if err != nil {
			return 0, errors.Wrap(err, "rendering oplog entry")
		}
		req := elastic.NewBulkIndexRequest().Index(s.index).Type("_doc").Doc(string(b))
		if id := DocID(doc); id != "" {
			req = req.Id(id)
		}
		bulk.Add(req)
	}
	resp, err := bulk.Do(ctx)
	if err != nil {
		return 0, errors.Wrapf(err, "bulk indexing %d entries into '%s'", len(docs), s.index)
	}
	failed := resp.Failed()
	for _, v := range failed {
		grip.Warning(message.Fields{
			"message": "oplog entry was not indexed",
			"index":   v.Index,
			"id":      v.Id,
			"error":   v.Error,
		})
	}
	return len(docs) - len(failed), nil
}
