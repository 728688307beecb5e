package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConnectorRepository defines decoupled operations for connector persistence.
type ConnectorRepository interface {
	Put(ctx context.Context, c *Connector) error
	GetByID(ctx context.Context, id string) (*Connector, error)
	List(ctx context.Context) ([]Connector, error)
	Delete(ctx context.Context, id string) error
}

// DeviceRepository defines decoupled operations for the device registry.
type DeviceRepository interface {
	Upsert(ctx context.Context, d *Device) error
	Get(ctx context.Context, connectorID, deviceID string) (*Device, error)
	List(ctx context.Context) ([]Device, error)
	ListByConnector(ctx context.Context, connectorID string) ([]Device, error)
	DeleteByConnector(ctx context.Context, connectorID string) error
}

// EventRepository defines decoupled operations for the event feed.
type EventRepository interface {
	Append(ctx context.Context, e *Event) error
	ListRecent(ctx context.Context, limit int) ([]Event, error)
	ListByConnector(ctx context.Context, connectorID string, limit int) ([]Event, error)
}

// gormConnectorRepo is a GORM-backed implementation of ConnectorRepository.
// Use constructor NewConnectorRepository to obtain an instance.
type gormConnectorRepo struct{ db *gorm.DB }

// gormDeviceRepo is a GORM-backed implementation of DeviceRepository.
type gormDeviceRepo struct{ db *gorm.DB }

// gormEventRepo is a GORM-backed implementation of EventRepository.
type gormEventRepo struct{ db *gorm.DB }

// NewConnectorRepository creates a ConnectorRepository. Accepts *gorm.DB to avoid global access.
func NewConnectorRepository(db *gorm.DB) ConnectorRepository { return &gormConnectorRepo{db: db} }

// NewDeviceRepository creates a DeviceRepository. Accepts *gorm.DB to avoid global access.
func NewDeviceRepository(db *gorm.DB) DeviceRepository { return &gormDeviceRepo{db: db} }

// NewEventRepository creates an EventRepository. Accepts *gorm.DB to avoid global access.
func NewEventRepository(db *gorm.DB) EventRepository { return &gormEventRepo{db: db} }

func (r *gormConnectorRepo) Put(ctx context.Context, c *Connector) error {
	if r.db == nil {
		return fmt.Errorf("repository not initialized")
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(c).Error
}

func (r *gormConnectorRepo) GetByID(ctx context.Context, id string) (*Connector, error) {
	if r.db == nil {
		return nil, fmt.Errorf("repository not initialized")
	}
	var connector Connector
	err := r.db.WithContext(ctx).First(&connector, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &connector, nil
}

func (r *gormConnectorRepo) List(ctx context.Context) ([]Connector, error) {
	if r.db == nil {
		return nil, fmt.Errorf("repository not initialized")
	}
	var connectors []Connector
	if err := r.db.WithContext(ctx).Order("created_at").Find(&connectors).Error; err != nil {
		return nil, err
	}
	return connectors, nil
}

func (r *gormConnectorRepo) Delete(ctx context.Context, id string) error {
	if r.db == nil {
		return fmt.Errorf("repository not initialized")
	}
	return r.db.WithContext(ctx).Delete(&Connector{}, "id = ?", id).Error
}

func (r *gormDeviceRepo) Upsert(ctx context.Context, d *Device) error {
	if r.db == nil {
		return fmt.Errorf("repository not initialized")
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "connector_id"}, {Name: "device_id"}},
		UpdateAll: true,
	}).Create(d).Error
}

func (r *gormDeviceRepo) Get(ctx context.Context, connectorID, deviceID string) (*Device, error) {
	if r.db == nil {
		return nil, fmt.Errorf("repository not initialized")
	}
	var device Device
	err := r.db.WithContext(ctx).First(&device, "connector_id = ? AND device_id = ?", connectorID, deviceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &device, nil
}

func (r *gormDeviceRepo) List(ctx context.Context) ([]Device, error) {
	if r.db == nil {
		return nil, fmt.Errorf("repository not initialized")
	}
	var devices []Device
	if err := r.db.WithContext(ctx).Order("name").Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

func (r *gormDeviceRepo) ListByConnector(ctx context.Context, connectorID string) ([]Device, error) {
	if r.db == nil {
		return nil, fmt.Errorf("repository not initialized")
	}
	var devices []Device
	if err := r.db.WithContext(ctx).Where("connector_id = ?", connectorID).Order("name").Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

func (r *gormDeviceRepo) DeleteByConnector(ctx context.Context, connectorID string) error {
	if r.db == nil {
		return fmt.Errorf("repository not initialized")
	}
	return r.db.WithContext(ctx).Delete(&Device{}, "connector_id = ?", connectorID).Error
}

func (r *gormEventRepo) Append(ctx context.Context, e *Event) error {
	if r.db == nil {
		return fmt.Errorf("repository not initialized")
	}
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *gormEventRepo) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	if r.db == nil {
		return nil, fmt.Errorf("repository not initialized")
	}
	if limit <= 0 {
		limit = 50
	}
	var events []Event
	if err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *gormEventRepo) ListByConnector(ctx context.Context, connectorID string, limit int) ([]Event, error) {
	if r.db == nil {
		return nil, fmt.Errorf("repository not initialized")
	}
	if limit <= 0 {
		limit = 50
	}
	var events []Event
	if err := r.db.WithContext(ctx).Where("connector_id = ?", connectorID).Order("id DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
