// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"strconv"
	"sync"
	"time"

	"github.com/j-veylop/blockrun-report/internal/services"
	"github.com/j-veylop/blockrun-report/internal/services/presentation"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

// LoadingNotificationID is the fixed ID for the loading notification.
const LoadingNotificationID = "__loading__"

// maxNotifications caps the toast stack.
const maxNotifications = 10

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	case NotificationLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	ID        string
	Type      NotificationType
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// State is shared between the root model and the tabs. The selected period
// indexes Report.Sections: the global period first, then days most recent
// first.
type State struct {
	mu sync.RWMutex

	report   *services.Report
	palette  presentation.Palette
	selected int
	loading  bool
	lastErr  error

	lastUpdated time.Time

	notifications   []Notification
	notificationSeq int
}

// NewState creates an empty state that is loading its first report.
func NewState() *State {
	return &State{
		loading:       true,
		notifications: make([]Notification, 0),
	}
}

// SetReport replaces the report. The selection stays on the same period ID
// when it still exists and falls back to the global period otherwise.
func (s *State) SetReport(rep *services.Report, palette presentation.Palette) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prevID := ""
	if s.report != nil {
		if secs := s.report.Sections(); s.selected < len(secs) {
			prevID = secs[s.selected].ID()
		}
	}

	s.report = rep
	s.palette = palette
	s.loading = false
	s.lastErr = nil
	s.lastUpdated = time.Now()
	s.selected = 0

	if rep == nil || prevID == "" {
		return
	}
	for i, sec := range rep.Sections() {
		if sec.ID() == prevID {
			s.selected = i
			return
		}
	}
}

// SetError records a failed load.
func (s *State) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.lastErr = err
}

// Err returns the last load error, if the most recent load failed.
func (s *State) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Report returns the current report, or nil before the first load.
func (s *State) Report() *services.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// Palette returns the palette of the current report's theme.
func (s *State) Palette() presentation.Palette {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.palette
}

// PeriodCount returns the number of browsable periods.
func (s *State) PeriodCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.report == nil {
		return 0
	}
	return len(s.report.Days) + 1
}

// Selected returns the index of the selected period.
func (s *State) Selected() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Step moves the selection by delta, wrapping at both ends, and returns the
// new index.
func (s *State) Step(delta int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.report == nil {
		return 0
	}
	n := len(s.report.Days) + 1
	s.selected = ((s.selected+delta)%n + n) % n
	return s.selected
}

// Select moves the selection to index, clamped to the available periods,
// and returns the new index.
func (s *State) Select(index int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.report == nil {
		return 0
	}
	s.selected = min(max(index, 0), len(s.report.Days))
	return s.selected
}

// Current returns the selected section.
func (s *State) Current() (services.Section, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.report == nil {
		return services.Section{}, false
	}
	secs := s.report.Sections()
	if s.selected >= len(secs) {
		return services.Section{}, false
	}
	return secs[s.selected], true
}

// SetLoading marks a reload in progress.
func (s *State) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

// IsLoading reports whether a load is in progress.
func (s *State) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// LastUpdated returns when the report was last replaced.
func (s *State) LastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	id := "n" + strconv.Itoa(s.notificationSeq)

	s.notifications = append(s.notifications, Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	})

	if len(s.notifications) > maxNotifications {
		s.notifications = s.notifications[len(s.notifications)-maxNotifications:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	return active
}

// SetLoadingNotification sets the loading notification message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *State) ClearLoadingNotification() {
	s.RemoveNotification(LoadingNotificationID)
}
