// Package search wraps the Meilisearch instance that mirrors a subset of
// the database content. Caretaker only ever needs one operation from it:
// clearing the index in lockstep with a full database wipe.
package search

import (
	"context"
	"strings"
	"time"

	"github.com/caretaker-tools/caretaker/pkg/config"
	"github.com/meilisearch/meilisearch-go"
	"github.com/pkg/errors"
)

// Client wraps a Meilisearch connection scoped to this application's
// index prefix.
type Client struct {
	sm     meilisearch.ServiceManager
	prefix string
}

// Connect creates a Meilisearch client and verifies the instance is
// reachable and healthy.
func Connect(cfg *config.Search) (*Client, error) {
	sm := meilisearch.New(cfg.Host, meilisearch.WithAPIKey(cfg.Key.Expose()))
	if !sm.IsHealthy() {
		return nil, errors.Errorf("Meilisearch at %s is not reachable or not healthy", cfg.Host)
	}

	return &Client{sm: sm, prefix: cfg.IndexPrefix}, nil
}

// Clear deletes every index belonging to this application (matched by the
// configured prefix) and waits for each deletion task to finish. Returns
// the number of indexes deleted.
//
// This intentionally takes no lock: clearing the index only runs when no
// concurrent index mutation is in flight, by convention of the operator
// invoking it right after a database clear.
func (c *Client) Clear(ctx context.Context) (int, error) {
	indexes, err := c.sm.ListIndexesWithContext(ctx, &meilisearch.IndexesQuery{Limit: 1000})
	if err != nil {
		return 0, errors.Wrap(err, "failed to list search indexes")
	}

	deleted := 0
	for _, index := range indexes.Results {
		if !strings.HasPrefix(index.UID, c.prefix) {
			continue
		}

		info, err := c.sm.DeleteIndexWithContext(ctx, index.UID)
		if err != nil {
			return deleted, errors.Wrapf(err, "failed to delete search index '%s'", index.UID)
		}

		task, err := c.sm.WaitForTaskWithContext(ctx, info.TaskUID, 50*time.Millisecond)
		if err != nil {
			return deleted, errors.Wrapf(err, "failed waiting for deletion of search index '%s'", index.UID)
		}
		if task.Status != meilisearch.TaskStatusSucceeded {
			return deleted, errors.Errorf(
				"deletion of search index '%s' finished with status %q: %s",
				index.UID, task.Status, task.Error.Message,
			)
		}

		deleted++
	}

	return deleted, nil
}
