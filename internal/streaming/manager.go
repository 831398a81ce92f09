package streaming

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/asmita-kamble/smart-cctv-app/internal/models"
)

// State is the lifecycle state of a camera's stream session.
type State string

const (
	StateStopped  State = "stopped"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopping State = "stopping"
	StateFailed   State = "failed"
)

var (
	// ErrNotStreaming is returned when playlist or segment reads hit a
	// session that is not running.
	ErrNotStreaming = errors.New("camera is not streaming")
	// ErrManifestTimeout is returned when ffmpeg never produced a playlist.
	ErrManifestTimeout = errors.New("stream manifest was not produced in time")
	// ErrBadSegment is returned for segment names that fail validation.
	ErrBadSegment = errors.New("invalid segment name")
	// ErrStartAborted is returned by Start when a concurrent Stop cancelled
	// the session before its manifest appeared.
	ErrStartAborted = errors.New("stream start aborted by stop")
)

const playlistName = "playlist.m3u8"

var segmentRe = regexp.MustCompile(`^[A-Za-z0-9_-]+\.ts$`)

// Info is a point-in-time snapshot of a session.
type Info struct {
	CameraID   uuid.UUID  `json:"camera_id"`
	State      State      `json:"state"`
	Viewers    int        `json:"viewers"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	LastAccess *time.Time `json:"last_access,omitempty"`
}

// CommandBuilder constructs the transcoder process for a session. Injectable
// so tests can substitute a harmless process.
type CommandBuilder func(rtspURL, outDir string) *exec.Cmd

// Config holds stream manager tunables.
type Config struct {
	Dir             string        // root directory for per-camera HLS output
	FFmpegPath      string        // ffmpeg binary
	SegmentSeconds  int           // HLS segment length
	PlaylistSize    int           // rolling window size
	ManifestTimeout time.Duration // how long to wait for the first playlist
	StopGrace       time.Duration // SIGTERM grace before SIGKILL
	IdleGrace       time.Duration // unaccessed sessions older than this are reaped
}

type session struct {
	mu         sync.Mutex
	state      State
	cmd        *exec.Cmd
	dir        string
	viewers    int
	startedAt  time.Time
	lastAccess time.Time
	done       chan struct{} // closed when the process exits

	// stopReq lets Stop abort a start that is still waiting on its
	// manifest. Guarded by stopMu, not mu, because the starting goroutine
	// holds mu for the whole wait.
	stopMu  sync.Mutex
	stopReq chan struct{}
}

// Manager owns all live stream sessions, one per camera.
type Manager struct {
	cfg      Config
	buildCmd CommandBuilder
	logger   *zap.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*session

	// notify, when set, is called on state transitions for live broadcast.
	notify func(cameraID uuid.UUID, state State)
}

// NewManager creates a stream session manager.
func NewManager(cfg Config, logger *zap.Logger) *Manager {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.Dir == "" {
		cfg.Dir = "streams"
	}
	if cfg.SegmentSeconds < 1 {
		cfg.SegmentSeconds = 2
	}
	if cfg.PlaylistSize < 1 {
		cfg.PlaylistSize = 5
	}
	if cfg.ManifestTimeout <= 0 {
		cfg.ManifestTimeout = 15 * time.Second
	}
	if cfg.StopGrace <= 0 {
		cfg.StopGrace = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		cfg:      cfg,
		logger:   logger,
		sessions: make(map[uuid.UUID]*session),
	}
	m.buildCmd = m.defaultCommand
	return m
}

// SetCommandBuilder overrides transcoder process construction.
func (m *Manager) SetCommandBuilder(b CommandBuilder) { m.buildCmd = b }

// SetNotifier registers a callback invoked on session state changes.
func (m *Manager) SetNotifier(fn func(cameraID uuid.UUID, state State)) { m.notify = fn }

func (m *Manager) defaultCommand(rtspURL, outDir string) *exec.Cmd {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-rtsp_transport", "tcp",
		"-i", rtspURL,
		"-c:v", "libx264", "-preset", "veryfast", "-tune", "zerolatency",
		"-c:a", "aac",
		"-f", "hls",
		"-hls_time", strconv.Itoa(m.cfg.SegmentSeconds),
		"-hls_list_size", strconv.Itoa(m.cfg.PlaylistSize),
		"-hls_flags", "delete_segments",
		"-hls_segment_filename", filepath.Join(outDir, "segment_%03d.ts"),
		filepath.Join(outDir, playlistName),
	}
	return exec.Command(m.cfg.FFmpegPath, args...)
}

// RTSPURL builds the camera's source URL with credentials embedded.
func RTSPURL(cam *models.Camera) string {
	conn := cam.Connection()
	u := url.URL{
		Scheme: "rtsp",
		Host:   fmt.Sprintf("%s:%d", conn.Address, conn.Port),
		Path:   conn.Path,
	}
	if conn.Username != "" {
		u.User = url.UserPassword(conn.Username, conn.Password)
	}
	return u.String()
}

func (m *Manager) session(cameraID uuid.UUID) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[cameraID]
	if !ok {
		s = &session{state: StateStopped}
		m.sessions[cameraID] = s
	}
	return s
}

func (m *Manager) setState(cameraID uuid.UUID, s *session, next State) {
	s.state = next
	if m.notify != nil {
		m.notify(cameraID, next)
	}
}

// Start ensures a live session exists for the camera. Idempotent: if one is
// already running it only bumps the viewer count. Operations on one camera
// serialize on the session mutex, so concurrent starts spawn one process.
func (m *Manager) Start(ctx context.Context, cam *models.Camera) (*Info, error) {
	s := m.session(cam.ID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateRunning {
		s.viewers++
		s.lastAccess = time.Now()
		return snapshot(cam.ID, s), nil
	}

	// A session that crashed leaves its output behind. Clear it so a stale
	// playlist from the previous process cannot satisfy the manifest wait.
	dir := filepath.Join(m.cfg.Dir, cam.ID.String())
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("clear stream dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create stream dir: %w", err)
	}

	cmd := m.buildCmd(RTSPURL(cam), dir)
	m.setState(cam.ID, s, StateStarting)
	if err := cmd.Start(); err != nil {
		m.setState(cam.ID, s, StateFailed)
		os.RemoveAll(dir)
		return nil, fmt.Errorf("start transcoder: %w", err)
	}

	s.cmd = cmd
	s.dir = dir
	s.done = make(chan struct{})
	done := s.done

	stop := make(chan struct{})
	s.stopMu.Lock()
	s.stopReq = stop
	s.stopMu.Unlock()
	defer func() {
		s.stopMu.Lock()
		s.stopReq = nil
		s.stopMu.Unlock()
	}()

	// Supervisor: a process that dies while the session is live flips it
	// to failed. An expected exit during Stopping is left alone.
	go func() {
		err := cmd.Wait()
		close(done)
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.state == StateRunning || s.state == StateStarting {
			m.logger.Warn("stream process exited unexpectedly",
				zap.String("camera_id", cam.ID.String()), zap.Error(err))
			m.setState(cam.ID, s, StateFailed)
		}
	}()

	if err := m.waitManifest(ctx, dir, done, stop); err != nil {
		_ = cmd.Process.Kill()
		<-done
		os.RemoveAll(dir)
		s.cmd = nil
		s.dir = ""
		if errors.Is(err, ErrStartAborted) {
			m.logger.Info("stream start aborted by stop",
				zap.String("camera_id", cam.ID.String()))
			m.setState(cam.ID, s, StateStopped)
		} else {
			m.logger.Warn("stream never produced a manifest, killing",
				zap.String("camera_id", cam.ID.String()), zap.Error(err))
			m.setState(cam.ID, s, StateFailed)
		}
		return nil, err
	}

	now := time.Now()
	s.viewers = 1
	s.startedAt = now
	s.lastAccess = now
	m.setState(cam.ID, s, StateRunning)
	m.logger.Info("stream started",
		zap.String("camera_id", cam.ID.String()), zap.String("dir", dir))
	return snapshot(cam.ID, s), nil
}

// waitManifest polls for the playlist until it appears, the process dies,
// a stop is requested, the manifest timeout elapses, or ctx is cancelled.
func (m *Manager) waitManifest(ctx context.Context, dir string, done, stop <-chan struct{}) error {
	deadline := time.NewTimer(m.cfg.ManifestTimeout)
	defer deadline.Stop()
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		if _, err := os.Stat(filepath.Join(dir, playlistName)); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
			return fmt.Errorf("%w: transcoder exited", ErrManifestTimeout)
		case <-stop:
			return ErrStartAborted
		case <-deadline.C:
			return ErrManifestTimeout
		case <-tick.C:
		}
	}
}

// Stop tears down the camera's session. Idempotent: stopping a stopped or
// unknown camera is a no-op. A stop issued while the session is still
// starting aborts the start.
func (m *Manager) Stop(ctx context.Context, cameraID uuid.UUID) error {
	m.mu.Lock()
	s, ok := m.sessions[cameraID]
	m.mu.Unlock()
	if !ok {
		return nil
	}

	// A start still waiting on its manifest holds the session mutex. Signal
	// it to bail out rather than queueing behind the full wait.
	s.stopMu.Lock()
	if s.stopReq != nil {
		close(s.stopReq)
		s.stopReq = nil
	}
	s.stopMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	return m.stopLocked(cameraID, s)
}

func (m *Manager) stopLocked(cameraID uuid.UUID, s *session) error {
	switch s.state {
	case StateStopped, StateStopping:
		return nil
	case StateFailed:
		// Process already gone, just clean the output dir.
		m.cleanup(cameraID, s)
		m.setState(cameraID, s, StateStopped)
		return nil
	}

	m.setState(cameraID, s, StateStopping)
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Signal(syscall.SIGTERM)
		select {
		case <-s.done:
		case <-time.After(m.cfg.StopGrace):
			m.logger.Warn("stream did not exit in grace period, killing",
				zap.String("camera_id", cameraID.String()))
			_ = s.cmd.Process.Kill()
			<-s.done
		}
	}
	m.cleanup(cameraID, s)
	m.setState(cameraID, s, StateStopped)
	m.logger.Info("stream stopped", zap.String("camera_id", cameraID.String()))
	return nil
}

func (m *Manager) cleanup(cameraID uuid.UUID, s *session) {
	if s.dir != "" {
		if err := os.RemoveAll(s.dir); err != nil {
			m.logger.Warn("failed to remove stream dir",
				zap.String("camera_id", cameraID.String()), zap.Error(err))
		}
	}
	s.cmd = nil
	s.dir = ""
	s.viewers = 0
}

// Status returns a snapshot of the camera's session without side effects.
func (m *Manager) Status(cameraID uuid.UUID) *Info {
	m.mu.Lock()
	s, ok := m.sessions[cameraID]
	m.mu.Unlock()
	if !ok {
		return &Info{CameraID: cameraID, State: StateStopped}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(cameraID, s)
}

func snapshot(cameraID uuid.UUID, s *session) *Info {
	info := &Info{CameraID: cameraID, State: s.state, Viewers: s.viewers}
	if !s.startedAt.IsZero() {
		t := s.startedAt
		info.StartedAt = &t
	}
	if !s.lastAccess.IsZero() {
		t := s.lastAccess
		info.LastAccess = &t
	}
	return info
}

// Playlist returns the current HLS playlist for a running session.
func (m *Manager) Playlist(cameraID uuid.UUID) ([]byte, error) {
	return m.readFile(cameraID, playlistName)
}

// Segment returns one HLS segment for a running session. The name is
// validated so requests cannot reach outside the session directory.
func (m *Manager) Segment(cameraID uuid.UUID, name string) ([]byte, error) {
	if !segmentRe.MatchString(name) || name != filepath.Base(name) {
		return nil, ErrBadSegment
	}
	return m.readFile(cameraID, name)
}

func (m *Manager) readFile(cameraID uuid.UUID, name string) ([]byte, error) {
	m.mu.Lock()
	s, ok := m.sessions[cameraID]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotStreaming
	}
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return nil, ErrNotStreaming
	}
	s.lastAccess = time.Now()
	dir := s.dir
	s.mu.Unlock()
	return os.ReadFile(filepath.Join(dir, name))
}

// RunningCount returns the number of sessions currently running.
func (m *Manager) RunningCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sessions {
		s.mu.Lock()
		if s.state == StateRunning {
			n++
		}
		s.mu.Unlock()
	}
	return n
}

// StopAll tears down every session. Used on shutdown.
func (m *Manager) StopAll(ctx context.Context) {
	m.mu.Lock()
	ids := make([]uuid.UUID, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	for _, id := range ids {
		if err := m.Stop(ctx, id); err != nil {
			m.logger.Warn("stop on shutdown failed", zap.String("camera_id", id.String()), zap.Error(err))
		}
	}
}

// Run reaps idle sessions until ctx is done. Sessions whose playlist has not
// been read for the idle grace are stopped to free the transcoder.
func (m *Manager) Run(ctx context.Context) {
	if m.cfg.IdleGrace <= 0 {
		<-ctx.Done()
		return
	}
	interval := m.cfg.IdleGrace / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.reap()
		}
	}
}

func (m *Manager) reap() {
	m.mu.Lock()
	ids := make([]uuid.UUID, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	cutoff := time.Now().Add(-m.cfg.IdleGrace)
	for _, id := range ids {
		m.mu.Lock()
		s := m.sessions[id]
		m.mu.Unlock()
		s.mu.Lock()
		idle := s.state == StateRunning && s.lastAccess.Before(cutoff)
		if idle {
			m.logger.Info("reaping idle stream", zap.String("camera_id", id.String()))
			_ = m.stopLocked(id, s)
		}
		s.mu.Unlock()
	}
}
