package interfaces

import (
	"context"

	"geoassist/internal/entities"
)

// AccountStore is the persistent user table. Implementations must make
// IncrementUsage an atomic check-and-increment: it only counts while the
// account's payment_done flag is still false.
type AccountStore interface {
	Create(ctx context.Context, username, passwordHash, role string) (int, error)
	GetByUsername(ctx context.Context, username string) (*entities.User, error)
	GetByID(ctx context.Context, id int) (*entities.User, error)
	List(ctx context.Context) ([]entities.User, error)
	Update(ctx context.Context, id int, username, passwordHash string) error
	Delete(ctx context.Context, id int) error
	IncrementUsage(ctx context.Context, id int) error
	GetUsage(ctx context.Context, id int) (int, error)
	ResetUsage(ctx context.Context, id int) error
	SetPaymentDone(ctx context.Context, id int) error
	GetPaymentDone(ctx context.Context, id int) (bool, error)
	Close()
}

// AIClient is a language-model completion service.
type AIClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Geocoder turns an address or place name into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (lat, lon float64, err error)
}

// POI is a named point of interest returned by a POISource.
type POI struct {
	Lat  float64
	Lon  float64
	Name string
}

type POISource interface {
	Nearby(ctx context.Context, lat, lon float64, radiusM int) ([]POI, error)
}

// PageRef identifies an encyclopedia article found via full-text search.
type PageRef struct {
	ID    int
	Title string
}

// Encyclopedia is a reference article search/fetch service. Extract returns
// the plaintext article body; its error is classified into the
// ErrReferenceAmbiguous / ErrReferenceNotFound / ErrReferenceOther taxonomy.
type Encyclopedia interface {
	Search(ctx context.Context, term string) ([]PageRef, error)
	Extract(ctx context.Context, title string) (string, error)
	PageURL(pageID int) string
	ArticleURL(title string) string
}
