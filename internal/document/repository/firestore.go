package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/gogotex/pdfstore/internal/document"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreRepo stores one Firestore document per record, keyed by the record id.
// Firestore has no substring query, so List filters titles after the ordered read.
type FirestoreRepo struct {
	col *firestore.CollectionRef
}

func NewFirestoreRepo(client *firestore.Client, collection string) *FirestoreRepo {
	return &FirestoreRepo{col: client.Collection(collection)}
}

func (f *FirestoreRepo) Create(ctx context.Context, doc *document.Document) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", document.ErrDuplicateOrInvalid)
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	if _, err := f.col.Doc(doc.ID).Create(ctx, doc); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("%w: id %s already exists", document.ErrDuplicateOrInvalid, doc.ID)
		}
		return fmt.Errorf("failed to create document record: %w", err)
	}
	return nil
}

func (f *FirestoreRepo) Get(ctx context.Context, id string) (*document.Document, error) {
	snap, err := f.col.Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var d document.Document
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	return &d, nil
}

func (f *FirestoreRepo) List(ctx context.Context, keyword string) ([]*document.Document, error) {
	iter := f.col.OrderBy("createdAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()
	out := []*document.Document{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		var d document.Document
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", snap.Ref.ID, err)
		}
		if titleMatches(d.Title, keyword) {
			out = append(out, &d)
		}
	}
	return out, nil
}

func (f *FirestoreRepo) Update(ctx context.Context, id string, p document.Patch) (*document.Document, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p = p.Normalize()
	updates := []firestore.Update{{Path: "updatedAt", Value: time.Now().UTC()}}
	if p.Title != nil {
		updates = append(updates, firestore.Update{Path: "title", Value: *p.Title})
	}
	if p.PageCount != nil {
		updates = append(updates, firestore.Update{Path: "pageCount", Value: *p.PageCount})
	}
	if _, err := f.col.Doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f.Get(ctx, id)
}

func (f *FirestoreRepo) Delete(ctx context.Context, id string) error {
	if _, err := f.col.Doc(id).Delete(ctx, firestore.Exists); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return err
	}
	return nil
}
