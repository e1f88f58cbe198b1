package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"

	domain "github.com/hanko-field/orders/internal/domain"
	pfirestore "github.com/hanko-field/orders/internal/platform/firestore"
	"github.com/hanko-field/orders/internal/repositories"
)

const customersCollection = "users"

// AuthUserLookup loads a Firebase Auth user record. It backs customers who have signed in but
// have no profile document yet.
type AuthUserLookup func(ctx context.Context, uid string) (*firebaseauth.UserRecord, error)

type customerDocument struct {
	DisplayName string    `firestore:"displayName"`
	Email       string    `firestore:"email"`
	PhoneNumber string    `firestore:"phoneNumber"`
	IsActive    *bool     `firestore:"isActive"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

// CustomerRepository resolves customers from the users collection maintained by the storefront,
// falling back to Firebase Auth when a lookup function is configured.
type CustomerRepository struct {
	base       *pfirestore.BaseRepository[customerDocument]
	authLookup AuthUserLookup
}

var _ repositories.CustomerRepository = (*CustomerRepository)(nil)

// NewCustomerRepository constructs a Firestore-backed customer repository. lookup may be nil.
func NewCustomerRepository(provider *pfirestore.Provider, lookup AuthUserLookup) (*CustomerRepository, error) {
	if provider == nil {
		return nil, errors.New("customer repository requires firestore provider")
	}
	return &CustomerRepository{
		base:       pfirestore.NewBaseRepository[customerDocument](provider, customersCollection, nil, nil),
		authLookup: lookup,
	}, nil
}

// FindByID loads the customer by UID. Deactivated profiles are reported as not found.
func (r *CustomerRepository) FindByID(ctx context.Context, customerID string) (domain.Customer, error) {
	if r == nil || r.base == nil {
		return domain.Customer{}, errors.New("customer repository not initialised")
	}
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return domain.Customer{}, errors.New("customer id is required")
	}

	doc, err := r.base.Get(ctx, customerID)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() && r.authLookup != nil {
			return r.fromAuth(ctx, customerID)
		}
		return domain.Customer{}, err
	}
	if doc.Data.IsActive != nil && !*doc.Data.IsActive {
		return domain.Customer{}, pfirestore.NotFound("customers.find")
	}

	customer := domain.Customer{
		ID:        doc.ID,
		Name:      strings.TrimSpace(doc.Data.DisplayName),
		Email:     strings.ToLower(strings.TrimSpace(doc.Data.Email)),
		Phone:     strings.TrimSpace(doc.Data.PhoneNumber),
		CreatedAt: doc.Data.CreatedAt,
		UpdatedAt: doc.Data.UpdatedAt,
	}
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = doc.CreateTime
	}
	if customer.UpdatedAt.IsZero() {
		customer.UpdatedAt = doc.UpdateTime
	}
	return customer, nil
}

func (r *CustomerRepository) fromAuth(ctx context.Context, uid string) (domain.Customer, error) {
	record, err := r.authLookup(ctx, uid)
	if err != nil {
		if firebaseauth.IsUserNotFound(err) {
			return domain.Customer{}, pfirestore.NotFound("customers.auth_lookup")
		}
		return domain.Customer{}, err
	}
	if record == nil || record.UserInfo == nil || record.Disabled {
		return domain.Customer{}, pfirestore.NotFound("customers.auth_lookup")
	}
	customer := domain.Customer{
		ID:    record.UID,
		Name:  strings.TrimSpace(record.DisplayName),
		Email: strings.ToLower(strings.TrimSpace(record.Email)),
		Phone: strings.TrimSpace(record.PhoneNumber),
	}
	if meta := record.UserMetadata; meta != nil && meta.CreationTimestamp > 0 {
		customer.CreatedAt = time.UnixMilli(meta.CreationTimestamp).UTC()
		customer.UpdatedAt = customer.CreatedAt
	}
	return customer, nil
}
