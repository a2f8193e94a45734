package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore implements Store on top of Cloud Firestore.
type Firestore struct {
	client *firestore.Client
}

// NewFirestore connects to the Firestore database of the given project.
func NewFirestore(ctx context.Context, projectID string, opts ...option.ClientOption) (*Firestore, error) {
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return &Firestore{client: client}, nil
}

func (f *Firestore) Close() error {
	return f.client.Close()
}

func (f *Firestore) Get(ctx context.Context, collection, id string) (Document, error) {
	snap, err := f.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return snapshotDocument(snap), nil
}

func (f *Firestore) Create(ctx context.Context, collection string, data interface{}) (string, error) {
	ref := f.client.Collection(collection).NewDoc()
	if _, err := ref.Set(ctx, data); err != nil {
		return "", fmt.Errorf("failed to create document in %s: %w", collection, err)
	}
	return ref.ID, nil
}

func (f *Firestore) Set(ctx context.Context, collection, id string, data interface{}) error {
	if _, err := f.client.Collection(collection).Doc(id).Set(ctx, data); err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (f *Firestore) Update(ctx context.Context, collection, id string, updates []Update) error {
	fsUpdates := make([]firestore.Update, 0, len(updates))
	for _, u := range updates {
		fsUpdates = append(fsUpdates, firestore.Update{Path: u.Path, Value: translateValue(u.Value)})
	}
	_, err := f.client.Collection(collection).Doc(id).Update(ctx, fsUpdates)
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	return nil
}

func (f *Firestore) Delete(ctx context.Context, collection, id string) error {
	if _, err := f.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (f *Firestore) Query(ctx context.Context, collection string, filters []Filter) ([]Document, error) {
	iter := f.buildQuery(collection, filters).Documents(ctx)
	defer iter.Stop()

	var docs []Document
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query %s: %w", collection, err)
		}
		docs = append(docs, snapshotDocument(snap))
	}
	return docs, nil
}

func (f *Firestore) Watch(ctx context.Context, collection string, filters []Filter) (<-chan []Document, error) {
	snaps := f.buildQuery(collection, filters).Snapshots(ctx)
	out := make(chan []Document)

	go func() {
		defer close(out)
		defer snaps.Stop()
		for {
			snap, err := snaps.Next()
			if err != nil {
				if ctx.Err() == nil {
					logrus.WithError(err).Warnf("query watch on %s ended", collection)
				}
				return
			}
			var docs []Document
			for {
				d, err := snap.Documents.Next()
				if err == iterator.Done {
					break
				}
				if err != nil {
					logrus.WithError(err).Warnf("query watch on %s failed to read snapshot", collection)
					return
				}
				docs = append(docs, snapshotDocument(d))
			}
			select {
			case out <- docs:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (f *Firestore) WatchDoc(ctx context.Context, collection, id string) (<-chan Document, error) {
	snaps := f.client.Collection(collection).Doc(id).Snapshots(ctx)
	out := make(chan Document)

	go func() {
		defer close(out)
		defer snaps.Stop()
		for {
			snap, err := snaps.Next()
			if err != nil {
				if ctx.Err() == nil {
					logrus.WithError(err).Warnf("document watch on %s/%s ended", collection, id)
				}
				return
			}
			doc := Document{ID: id, Exists: snap.Exists()}
			if snap.Exists() {
				doc = snapshotDocument(snap)
			}
			select {
			case out <- doc:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (f *Firestore) buildQuery(collection string, filters []Filter) firestore.Query {
	q := f.client.Collection(collection).Query
	for _, filter := range filters {
		q = q.Where(filter.Path, filter.Op, filter.Value)
	}
	return q
}

func snapshotDocument(snap *firestore.DocumentSnapshot) Document {
	return Document{
		ID:     snap.Ref.ID,
		Exists: true,
		decode: snap.DataTo,
	}
}

// translateValue maps the store sentinels onto their Firestore equivalents.
func translateValue(v interface{}) interface{} {
	switch tv := v.(type) {
	case serverTimestamp:
		return firestore.ServerTimestamp
	case arrayUnion:
		return firestore.ArrayUnion(tv.values...)
	case arrayRemove:
		return firestore.ArrayRemove(tv.values...)
	default:
		return v
	}
}
