package domain

// UserMeta is the per-user metadata document. The location fields are the
// persisted side of the in-process location cache, so a restart does not
// re-geolocate everybody.
type UserMeta struct {
	UserID            string    `json:"userId"`
	Email             string    `json:"email"`
	Plan              string    `json:"plan"`
	LastKnownLocation *Location `json:"lastKnownLocation"`
	LastKnownIP       string    `json:"lastKnownIP"`
}

// ProjectMeta is a project document from either project collection. OwnerID
// is a legacy alias for UserID kept by the older collection.
type ProjectMeta struct {
	ID      string `json:"id"`
	UserID  string `json:"userId"`
	OwnerID string `json:"ownerId"`
}

// AuthUser is a record from the authentication directory.
type AuthUser struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}
