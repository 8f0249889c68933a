package models

// AccessType records how a (user, book) pair came to be granted access.
type AccessType string

const (
	AccessDenied    AccessType = "denied"
	AccessFree      AccessType = "free"
	AccessPublic    AccessType = "public"
	AccessLibrary   AccessType = "library"
	AccessPurchased AccessType = "purchased"
	AccessCreator   AccessType = "creator"
)

// Granted reports whether the access type permits reading.
func (t AccessType) Granted() bool {
	return t != "" && t != AccessDenied
}
