package models

import (
	"time"

	"github.com/google/uuid"
)

// Camera status values.
const (
	CameraStatusActive      = "active"
	CameraStatusInactive    = "inactive"
	CameraStatusMaintenance = "maintenance"
)

// Camera represents a surveillance camera and its network source.
type Camera struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Location         string    `json:"location"`
	IPAddress        string    `json:"ip_address,omitempty"`
	RTSPPort         int       `json:"rtsp_port"`
	RTSPUsername     string    `json:"rtsp_username,omitempty"`
	RTSPPassword     string    `json:"-"`
	RTSPPath         string    `json:"rtsp_path"`
	IsRestrictedZone bool      `json:"is_restricted_zone"`
	Status           string    `json:"status"`
	UserID           uuid.UUID `json:"user_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ConnectionParams holds everything needed to reach the camera's RTSP endpoint.
type ConnectionParams struct {
	Address  string
	Port     int
	Path     string
	Username string
	Password string
}

// Connection returns the camera's RTSP connection parameters with defaults applied.
func (c *Camera) Connection() ConnectionParams {
	port := c.RTSPPort
	if port == 0 {
		port = 554
	}
	path := c.RTSPPath
	if path == "" {
		path = "/stream1"
	}
	return ConnectionParams{
		Address:  c.IPAddress,
		Port:     port,
		Path:     path,
		Username: c.RTSPUsername,
		Password: c.RTSPPassword,
	}
}
