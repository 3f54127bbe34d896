package repo

import (
	"github.com/olivere/elastic"
	"github.com/pkg/errors"
)

var client *elastic.Client

func GetElasticClient() *elastic.Client {
	return client
}

// InitElastic connects to the cluster at url. Username may be empty.
func InitElastic(url, username, password string) error {
	opts := []elastic.ClientOptionFunc{elastic.SetSniff(false), elastic.SetURL(url)}
	if username != "" {
		opts = append(opts, elastic.SetBasicAuth(username, password))
	}
	cli, err := elastic.NewClient(opts...)
	if err != nil {
		return errors.Wrapf(err, "connecting to elasticsearch at '%s'", url)
	}
	client = cli
	return nil
}
