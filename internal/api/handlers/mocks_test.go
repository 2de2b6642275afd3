package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jacqueschris/ownerlist/internal/models"
	"github.com/jacqueschris/ownerlist/internal/services"
)

// --- Mocks ---

// MockPropertyService
type MockPropertyService struct {
	mock.Mock
}

func (m *MockPropertyService) SearchProperties(ctx context.Context, filters *models.Filters, page, limit int) (*models.SearchResult, error) {
	args := m.Called(ctx, filters, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SearchResult), args.Error(1)
}

func (m *MockPropertyService) FindPropertyByID(ctx context.Context, id string) (*models.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyService) CreateProperty(ctx context.Context, ownerID int64, p *models.Property) (*models.Property, error) {
	args := m.Called(ctx, ownerID, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyService) UpdateProperty(ctx context.Context, id string, ownerID int64, updates map[string]interface{}) (*models.Property, error) {
	args := m.Called(ctx, id, ownerID, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyService) DeleteProperty(ctx context.Context, id string, ownerID int64) (*models.Property, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyService) SetVisibility(ctx context.Context, id string, ownerID int64, active bool) error {
	args := m.Called(ctx, id, ownerID, active)
	return args.Error(0)
}

func (m *MockPropertyService) ListByOwner(ctx context.Context, ownerID int64) ([]models.PropertySummary, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PropertySummary), args.Error(1)
}

func (m *MockPropertyService) AddImageToProperty(ctx context.Context, id string, imageKey string) error {
	args := m.Called(ctx, id, imageKey)
	return args.Error(0)
}

func (m *MockPropertyService) MatchesFilters(ctx context.Context, filters *models.Filters, propertyID string) (bool, error) {
	args := m.Called(ctx, filters, propertyID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPropertyService) DeactivateExpired(ctx context.Context, now int64) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPropertyService) CurrentPropertyIndex(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockUserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, id int64, name, username string) (*models.User, error) {
	args := m.Called(ctx, id, name, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) DeleteUser(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockFavoriteService
type MockFavoriteService struct {
	mock.Mock
}

func (m *MockFavoriteService) AddFavorite(ctx context.Context, userID int64, propertyID string) error {
	args := m.Called(ctx, userID, propertyID)
	return args.Error(0)
}

func (m *MockFavoriteService) RemoveFavorite(ctx context.Context, userID int64, propertyID string) error {
	args := m.Called(ctx, userID, propertyID)
	return args.Error(0)
}

func (m *MockFavoriteService) ListFavoriteIDs(ctx context.Context, userID int64) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockFavoriteService) ListFavoriteProperties(ctx context.Context, userID int64) ([]models.PropertySummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PropertySummary), args.Error(1)
}

// MockViewingService
type MockViewingService struct {
	mock.Mock
}

func (m *MockViewingService) CreateViewing(ctx context.Context, sourceUser int64, propertyID string, date int64) (*models.Viewing, error) {
	args := m.Called(ctx, sourceUser, propertyID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Viewing), args.Error(1)
}

func (m *MockViewingService) ListViewings(ctx context.Context, userID int64) ([]models.ViewingDetail, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ViewingDetail), args.Error(1)
}

func (m *MockViewingService) UpdateViewingStatus(ctx context.Context, id string, userID int64, status string) (*models.Viewing, error) {
	args := m.Called(ctx, id, userID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Viewing), args.Error(1)
}

func (m *MockViewingService) DeleteViewing(ctx context.Context, id string, userID int64) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

// MockAlertService
type MockAlertService struct {
	mock.Mock
}

func (m *MockAlertService) CreateAlert(ctx context.Context, userID int64, name string, filters models.Filters) (*models.SearchAlert, error) {
	args := m.Called(ctx, userID, name, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SearchAlert), args.Error(1)
}

func (m *MockAlertService) ListAlerts(ctx context.Context, userID int64) ([]models.SearchAlert, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SearchAlert), args.Error(1)
}

func (m *MockAlertService) ToggleAlert(ctx context.Context, id string, userID int64, active bool) error {
	args := m.Called(ctx, id, userID, active)
	return args.Error(0)
}

func (m *MockAlertService) DeleteAlert(ctx context.Context, id string, userID int64) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockAlertService) MatchAlertsForProperty(ctx context.Context, propertyService services.IPropertyService, property *models.Property) ([]models.SearchAlert, error) {
	args := m.Called(ctx, propertyService, property)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SearchAlert), args.Error(1)
}

func (m *MockAlertService) AdvanceAlertIndex(ctx context.Context, alertID string, index int64) error {
	args := m.Called(ctx, alertID, index)
	return args.Error(0)
}
