package domain

import "time"

// PresenceWindow bounds how old a heartbeat may be and still count as
// "online". Anything older simply drops out of the result set; nothing is
// deleted.
const PresenceWindow = 45 * time.Second

type Location struct {
	City    string  `json:"city"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Region  string  `json:"region,omitempty"`
}

// PresenceDoc is one heartbeat document from the presence collection, as the
// client app writes it.
type PresenceDoc struct {
	UserID       string
	Email        string
	IP           string
	LastSeen     time.Time
	SessionStart *time.Time
}

// PresenceRecord is one online user as reported to the dashboard.
type PresenceRecord struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	LastSeen          time.Time  `json:"lastSeen"`
	SessionStart      *time.Time `json:"sessionStart"`
	SessionDurationMs *int64     `json:"sessionDurationMs"`
	Online            bool       `json:"online"`
	Location          *Location  `json:"location"`
}

type UserLocation struct {
	UID      string    `json:"uid"`
	Email    string    `json:"email"`
	Online   bool      `json:"online"`
	Location *Location `json:"location"`
}

// UserSessionAggregate tracks one user across the snapshots of a single day.
type UserSessionAggregate struct {
	Snapshots int    `json:"snapshots"`
	FirstSeen string `json:"firstSeen"`
	LastSeen  string `json:"lastSeen"`
}

// PresenceLogEntry is the per-day activity document. ActiveEmails only ever
// grows within a day: merges union, they never overwrite.
type PresenceLogEntry struct {
	Date         string                          `json:"date"`
	ActiveCount  int                             `json:"activeCount"`
	ActiveEmails []string                        `json:"activeEmails"`
	UserSessions map[string]UserSessionAggregate `json:"userSessions"`
	CreatedAt    string                          `json:"createdAt"`
	LastUpdated  string                          `json:"lastUpdated"`
}
