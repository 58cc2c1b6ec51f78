// Package storage defines the persistence interface for events, audio tracks, and alerts.
package storage

import (
	"context"

	"github.com/bonkai/bonkai/internal/models"
)

// Storage defines persistence operations for accepted content and alerts.
type Storage interface {
	// Event operations
	CreateEvent(ctx context.Context, event *models.Event) error
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	ListEvents(ctx context.Context, offset, limit int) ([]*models.Event, error)
	DeleteEvent(ctx context.Context, id string) error

	// Audio track operations
	CreateTrack(ctx context.Context, track *models.AudioTrack) error
	GetTrack(ctx context.Context, id string) (*models.AudioTrack, error)
	ListTracks(ctx context.Context, offset, limit int) ([]*models.AudioTrack, error)
	DeleteTrack(ctx context.Context, id string) error

	// Alert operations
	CreateAlert(ctx context.Context, alert *models.Alert) error
	GetAlert(ctx context.Context, id string) (*models.Alert, error)
	ListAlerts(ctx context.Context) ([]*models.Alert, error)
	UpdateAlert(ctx context.Context, alert *models.Alert) error
	DeleteAlert(ctx context.Context, id string) error

	// Stats
	CountEvents(ctx context.Context) (int64, error)
	CountTracks(ctx context.Context) (int64, error)
	CountAlerts(ctx context.Context) (int64, error)

	Close() error
}
