package snapshots

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/gemindex/internal/index"
)

// Capture reads the three views concurrently. Each view runs on its own
// connection, so the views are individually consistent but not taken in a
// single transaction.
func Capture(ctx context.Context, q *index.Query) (*Views, error) {
	var views Views
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		names, err := q.Names(ctx)
		views.Names = names
		return err
	})
	g.Go(func() error {
		versions, err := q.VersionList(ctx)
		views.Versions = versions
		return err
	})
	g.Go(func() error {
		deps, err := q.DepsFor(ctx, nil)
		views.Deps = deps
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &views, nil
}

// Digest fingerprints each view with xxhash over its JSON encoding. Invalid
// UTF-8 is hashed the way it reads back from a snapshot file.
func (v *Views) Digest() (Digests, error) {
	names, err := digest(v.Names)
	if err != nil {
		return Digests{}, err
	}
	versions, err := digest(v.Versions)
	if err != nil {
		return Digests{}, err
	}
	deps, err := digest(v.Deps)
	if err != nil {
		return Digests{}, err
	}
	return Digests{Names: names, Versions: versions, Deps: deps}, nil
}

// replacementEscape is what encoding/json writes for each invalid UTF-8 byte.
var replacementEscape = []byte(`\ufffd`)

func digest[T any](view T) (string, error) {
	data, err := json.Marshal(view)
	if err != nil {
		return "", fmt.Errorf("failed to encode view: %w", err)
	}
	if bytes.Contains(data, replacementEscape) {
		var decoded T
		if err := json.Unmarshal(data, &decoded); err != nil {
			return "", fmt.Errorf("failed to normalize view: %w", err)
		}
		if data, err = json.Marshal(decoded); err != nil {
			return "", fmt.Errorf("failed to encode view: %w", err)
		}
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(data)), nil
}

// LiveDigests captures the current views and returns their digests.
func (m *Manager) LiveDigests(ctx context.Context) (Digests, error) {
	views, err := Capture(ctx, m.query)
	if err != nil {
		return Digests{}, err
	}
	return views.Digest()
}
