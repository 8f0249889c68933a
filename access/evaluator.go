// Package access decides whether a user may read a book.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/readnwin/bookaccess/models"
)

// GrantSource answers whether stored state (library entry, paid order,
// authorship) entitles a user to a book.
type GrantSource interface {
	GetAccessGrant(ctx context.Context, userID, bookID int64) (models.AccessType, error)
}

// Evaluator implements the access policy: free and public books are open to
// everyone, anything else requires an identity with a stored grant.
type Evaluator struct {
	grants GrantSource
}

// NewEvaluator creates a new Evaluator.
func NewEvaluator(grants GrantSource) *Evaluator {
	return &Evaluator{grants: grants}
}

// Evaluate returns the access type for the given user and book.
// userID is nil for anonymous requests. On a grant lookup failure the
// evaluator fails closed: the result is AccessDenied and the error is
// propagated so the caller reports an internal error rather than a 403.
func (e *Evaluator) Evaluate(ctx context.Context, userID *int64, book *models.Book) (models.AccessType, error) {
	if book == nil {
		return models.AccessDenied, errors.New("access: nil book")
	}

	if book.Price == 0 {
		return models.AccessFree, nil
	}
	if book.Visibility == models.VisibilityPublic {
		return models.AccessPublic, nil
	}
	if userID == nil {
		return models.AccessDenied, nil
	}

	grant, err := e.grants.GetAccessGrant(ctx, *userID, book.ID)
	if err != nil {
		return models.AccessDenied, fmt.Errorf("access grant lookup for user %d, book %d: %w", *userID, book.ID, err)
	}
	return grant, nil
}
