package connector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/austin-smith/fusion-bridge/db"
	"github.com/austin-smith/fusion-bridge/pkg/pool"
	"github.com/austin-smith/fusion-bridge/yolink"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CategoryYoLink is the connector category this service manages.
const CategoryYoLink = "yolink"

var (
	ErrConnectorNotFound = errors.New("connector not found")
	ErrDeviceNotFound    = errors.New("device not found")
)

// Service orchestrates connectors: it owns config persistence (including
// tokens refreshed mid-call), the device registry, and the event feed. The
// platform client itself never persists anything; this service is what sits
// behind its OnConfigUpdated hook.
type Service struct {
	Connectors db.ConnectorRepository
	Devices    db.DeviceRepository
	Events     db.EventRepository
	API        DeviceAPI
}

// NewService is the constructor for the connector service.
func NewService(connectors db.ConnectorRepository, devices db.DeviceRepository, events db.EventRepository, api DeviceAPI) *Service {
	return &Service{
		Connectors: connectors,
		Devices:    devices,
		Events:     events,
		API:        api,
	}
}

// SyncOptions controls a device sync.
type SyncOptions struct {
	WithState bool
	Workers   int
	// OnDeviceDone, when set, is called once per device after its state
	// fetch finishes. Used by the CLI to drive a progress bar.
	OnDeviceDone func()
}

// SyncResult summarizes one device sync.
type SyncResult struct {
	Total         int
	StatesFetched int
	StateErrors   int
}

// Register creates a connector, verifies it by fetching the account's home
// id, and persists the verified configuration. On verification failure the
// connector row is removed again and an error returned.
func (s *Service) Register(ctx context.Context, name, clientID, clientSecret string) (*db.Connector, error) {
	if name == "" {
		return nil, fmt.Errorf("connector name cannot be empty")
	}
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("client ID and client secret cannot be empty")
	}

	cfg := yolink.Config{ClientID: clientID, ClientSecret: clientSecret}
	encoded, err := encodeConfig(cfg)
	if err != nil {
		return nil, err
	}

	conn := &db.Connector{
		ID:       uuid.NewString(),
		Name:     name,
		Category: CategoryYoLink,
		Config:   encoded,
	}
	if err := s.Connectors.Put(ctx, conn); err != nil {
		return nil, fmt.Errorf("failed to save connector: %w", err)
	}

	homeID, err := s.API.GetHomeInfo(ctx, conn.ID, cfg)
	if err != nil {
		// Roll the row back; an unverifiable connector is not kept.
		if delErr := s.Connectors.Delete(ctx, conn.ID); delErr != nil {
			log.Error().Err(delErr).Str("connector_id", conn.ID).Msg("Failed to remove unverified connector")
		}
		return nil, fmt.Errorf("failed to verify connector credentials: %w", err)
	}

	// The verification call may have persisted refreshed tokens through the
	// OnConfigUpdated hook; fold the home id into whatever is stored now.
	stored, storedCfg, err := s.loadConnector(ctx, conn.ID)
	if err != nil {
		return nil, err
	}
	storedCfg.HomeID = homeID
	if err := s.saveConfig(ctx, stored, storedCfg); err != nil {
		return nil, err
	}

	log.Info().Str("connector_id", conn.ID).Str("home_id", homeID).Msg("Connector registered")
	return stored, nil
}

// Remove deletes a connector together with its device registry entries.
func (s *Service) Remove(ctx context.Context, connectorID string) error {
	conn, err := s.Connectors.GetByID(ctx, connectorID)
	if err != nil {
		return fmt.Errorf("failed to load connector: %w", err)
	}
	if conn == nil {
		return ErrConnectorNotFound
	}
	if err := s.Devices.DeleteByConnector(ctx, connectorID); err != nil {
		return fmt.Errorf("failed to remove connector devices: %w", err)
	}
	if err := s.Connectors.Delete(ctx, connectorID); err != nil {
		return fmt.Errorf("failed to remove connector: %w", err)
	}
	log.Info().Str("connector_id", connectorID).Msg("Connector removed")
	return nil
}

// PersistConfig stores an updated platform configuration for a connector.
// Wire this as the platform client's OnConfigUpdated hook.
func (s *Service) PersistConfig(connectorID string, cfg yolink.Config) {
	ctx := context.Background()
	conn, err := s.Connectors.GetByID(ctx, connectorID)
	if err != nil || conn == nil {
		log.Warn().Err(err).Str("connector_id", connectorID).Msg("Cannot persist refreshed config for unknown connector")
		return
	}
	if err := s.saveConfig(ctx, conn, cfg); err != nil {
		log.Error().Err(err).Str("connector_id", connectorID).Msg("Failed to persist refreshed config")
		return
	}
	log.Debug().Str("connector_id", connectorID).Msg("Persisted refreshed connector config")
}

// TestConnection checks a connector's credentials against the platform and
// records the outcome in the event feed.
func (s *Service) TestConnection(ctx context.Context, connectorID string) (bool, error) {
	conn, cfg, err := s.loadConnector(ctx, connectorID)
	if err != nil {
		return false, err
	}

	ok := s.API.TestConnection(ctx, conn.ID, cfg)
	s.appendEvent(ctx, conn.ID, "", db.EventConnectionTest, fmt.Sprintf(`{"ok":%t}`, ok))
	return ok, nil
}

// SyncDevices pulls the platform's device list into the registry. With
// opts.WithState it additionally reads each supported device's current state
// through a bounded worker pool.
func (s *Service) SyncDevices(ctx context.Context, connectorID string, opts SyncOptions) (*SyncResult, error) {
	conn, cfg, err := s.loadConnector(ctx, connectorID)
	if err != nil {
		return nil, err
	}

	rawDevices, err := s.API.GetDeviceList(ctx, conn.ID, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch device list: %w", err)
	}

	for _, raw := range rawDevices {
		device := &db.Device{
			ConnectorID: conn.ID,
			DeviceID:    raw.DeviceID,
			Name:        raw.Name,
			Type:        raw.Type,
			ModelName:   raw.ModelName,
			Token:       raw.Token,
		}
		if err := s.Devices.Upsert(ctx, device); err != nil {
			return nil, fmt.Errorf("failed to save device %s: %w", raw.DeviceID, err)
		}
	}

	result := &SyncResult{Total: len(rawDevices)}
	if opts.WithState {
		s.syncStates(ctx, conn.ID, rawDevices, opts, result)
	}

	s.appendEvent(ctx, conn.ID, "", db.EventSyncCompleted,
		fmt.Sprintf(`{"total":%d,"statesFetched":%d}`, result.Total, result.StatesFetched))
	log.Info().Str("connector_id", conn.ID).Int("total", result.Total).Msg("Device sync completed")
	return result, nil
}

// syncStates reads device states concurrently. Each worker re-loads the
// stored config so a token refreshed by one worker is visible to the next.
func (s *Service) syncStates(ctx context.Context, connectorID string, rawDevices []yolink.RawDevice, opts SyncOptions, result *SyncResult) {
	workers := opts.Workers
	if workers < 1 {
		workers = 4
	}

	var fetched atomic.Int64
	errs := pool.RunWithProgress(ctx, rawDevices, workers, func(ctx context.Context, raw yolink.RawDevice) error {
		_, cfg, err := s.loadConnector(ctx, connectorID)
		if err != nil {
			return err
		}
		data, err := s.API.GetDeviceState(ctx, connectorID, cfg, raw.DeviceID, raw.Token, raw.Type)
		if err != nil {
			if yolink.IsConfigurationError(err) {
				// Unsupported device type; states simply aren't readable.
				return nil
			}
			return fmt.Errorf("state read failed for device %s: %w", raw.DeviceID, err)
		}
		if err := s.storeDeviceState(ctx, connectorID, raw.DeviceID, data); err != nil {
			return err
		}
		fetched.Add(1)
		return nil
	}, func(yolink.RawDevice) {
		if opts.OnDeviceDone != nil {
			opts.OnDeviceDone()
		}
	})

	result.StatesFetched = int(fetched.Load())
	result.StateErrors = len(errs)
	for _, err := range errs {
		log.Warn().Err(err).Str("connector_id", connectorID).Msg("Device state sync error")
	}
}

// SetDeviceState drives a registered device to the given state, updates the
// stored device row, and records a state.changed event.
func (s *Service) SetDeviceState(ctx context.Context, connectorID, deviceID, state string) (json.RawMessage, error) {
	conn, cfg, device, err := s.loadDevice(ctx, connectorID, deviceID)
	if err != nil {
		return nil, err
	}

	data, err := s.API.SetDeviceState(ctx, conn.ID, cfg, device.DeviceID, device.Token, device.Type, state)
	if err != nil {
		return nil, err
	}

	if err := s.storeDeviceState(ctx, conn.ID, device.DeviceID, data); err != nil {
		log.Warn().Err(err).Str("device_id", device.DeviceID).Msg("Failed to store device state")
	}
	s.appendEvent(ctx, conn.ID, device.DeviceID, db.EventStateChanged, fmt.Sprintf(`{"state":%q}`, state))
	return data, nil
}

// GetDeviceState reads a registered device's current state from the platform
// and refreshes the stored device row.
func (s *Service) GetDeviceState(ctx context.Context, connectorID, deviceID string) (json.RawMessage, error) {
	conn, cfg, device, err := s.loadDevice(ctx, connectorID, deviceID)
	if err != nil {
		return nil, err
	}

	data, err := s.API.GetDeviceState(ctx, conn.ID, cfg, device.DeviceID, device.Token, device.Type)
	if err != nil {
		return nil, err
	}

	if err := s.storeDeviceState(ctx, conn.ID, device.DeviceID, data); err != nil {
		log.Warn().Err(err).Str("device_id", device.DeviceID).Msg("Failed to store device state")
	}
	s.appendEvent(ctx, conn.ID, device.DeviceID, db.EventStateRead, string(data))
	return data, nil
}

func (s *Service) loadConnector(ctx context.Context, connectorID string) (*db.Connector, yolink.Config, error) {
	conn, err := s.Connectors.GetByID(ctx, connectorID)
	if err != nil {
		return nil, yolink.Config{}, fmt.Errorf("failed to load connector: %w", err)
	}
	if conn == nil {
		return nil, yolink.Config{}, ErrConnectorNotFound
	}
	cfg, err := decodeConfig(conn.Config)
	if err != nil {
		return nil, yolink.Config{}, err
	}
	return conn, cfg, nil
}

func (s *Service) loadDevice(ctx context.Context, connectorID, deviceID string) (*db.Connector, yolink.Config, *db.Device, error) {
	conn, cfg, err := s.loadConnector(ctx, connectorID)
	if err != nil {
		return nil, yolink.Config{}, nil, err
	}
	device, err := s.Devices.Get(ctx, conn.ID, deviceID)
	if err != nil {
		return nil, yolink.Config{}, nil, fmt.Errorf("failed to load device: %w", err)
	}
	if device == nil {
		return nil, yolink.Config{}, nil, ErrDeviceNotFound
	}
	return conn, cfg, device, nil
}

func (s *Service) saveConfig(ctx context.Context, conn *db.Connector, cfg yolink.Config) error {
	encoded, err := encodeConfig(cfg)
	if err != nil {
		return err
	}
	conn.Config = encoded
	if err := s.Connectors.Put(ctx, conn); err != nil {
		return fmt.Errorf("failed to save connector config: %w", err)
	}
	return nil
}

func (s *Service) storeDeviceState(ctx context.Context, connectorID, deviceID string, state json.RawMessage) error {
	device, err := s.Devices.Get(ctx, connectorID, deviceID)
	if err != nil || device == nil {
		return err
	}
	device.State = string(state)
	return s.Devices.Upsert(ctx, device)
}

func (s *Service) appendEvent(ctx context.Context, connectorID, deviceID, eventType, payload string) {
	err := s.Events.Append(ctx, &db.Event{
		ConnectorID: connectorID,
		DeviceID:    deviceID,
		Type:        eventType,
		Payload:     payload,
	})
	if err != nil {
		log.Warn().Err(err).Str("type", eventType).Msg("Failed to append event")
	}
}

func encodeConfig(cfg yolink.Config) (string, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to encode connector config: %w", err)
	}
	return string(data), nil
}

func decodeConfig(raw string) (yolink.Config, error) {
	var cfg yolink.Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return yolink.Config{}, fmt.Errorf("failed to decode connector config: %w", err)
	}
	return cfg, nil
}
