// exposes a Store interface that is passed to API calls w/ param requirements
package db

import (
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lumen-labs/iris/internal/model"
)

// HistoryFilter narrows an assignment history listing. Nil fields match
// everything; filters combine with AND.
type HistoryFilter struct {
	DisplayID *int
	Action    *string
	ActorID   *int
	Limit     int
}

type Store interface {
	// user functions
	CreateUser(email, hashedPassword string, name *string) (int, error)
	GetUserByEmail(email string) (*model.User, error)
	GetUserByID(id int) (*model.User, error)
	UpdateUserProfile(id int, email string, name *string) error

	// display functions
	CreateDisplay(name string, location *string, showInfoOverlay bool, createdBy int) (model.Display, error)
	GetDisplayByID(id int) (model.Display, error)
	GetDisplayByName(name string) (model.Display, error)
	GetDisplayByDeviceID(deviceID string) (model.Display, error)
	ListDisplays() ([]model.Display, error)
	GetDisplaysUsingSlideshow(slideshowID int) ([]model.Display, error)
	UpdateDisplay(id int, name, location *string, showInfoOverlay *bool) error
	DeleteDisplay(id int) error
	PairDisplay(id int, deviceID string) error
	TouchDisplay(name string, seenAt time.Time) error

	// slideshow functions
	CreateSlideshow(name string, description *string, defaultItemDuration int, transition string, createdBy int) (model.Slideshow, error)
	GetSlideshowByID(id int) (model.Slideshow, error)
	ListSlideshows() ([]model.Slideshow, error)
	UpdateSlideshow(id int, name, description *string, defaultItemDuration *int, transition *string, active, isDefault *bool) error
	DeleteSlideshow(id int) error

	// slideshow item functions
	AddSlideshowItem(slideshowID int, itemType string, title, contentURL, contentText *string, duration, scale *int) (model.SlideshowItem, error)
	GetSlideshowItemByID(itemID int) (model.SlideshowItem, error)
	ListSlideshowItems(slideshowID int) ([]model.SlideshowItem, error)
	UpdateSlideshowItem(itemID int, title *string, duration, scale *int) error
	RemoveSlideshowItem(itemID int) error
	ReorderSlideshowItems(slideshowID int, itemIDs []int) error

	// assignment + audit history functions
	AssignSlideshow(displayID int, previousID, newID *int, action string, reason *string, actorID int) (model.AssignmentHistory, error)
	ListAssignmentHistory(filter HistoryFilter) ([]model.AssignmentHistoryEntry, error)
}

type pgStore struct {
	db *sqlx.DB
}

// compile-time check that pgStore implements Store
var _ Store = (*pgStore)(nil)

func NewStore(conn *sqlx.DB) Store {
	return &pgStore{db: conn}
}
