package store

// Persisted key namespace. Every key the application writes durably is
// enumerated here; BackupKeys derives the managed backup set from it.
const (
	// KeyCollections holds the map of all bookmark collections.
	KeyCollections = "Collections"

	// KeyLists holds the map of all account lists.
	KeyLists = "Lists"

	// KeyPreferenceList holds the user's selected topic preferences.
	KeyPreferenceList = "PreferenceList"

	// KeyVerifiedOnly holds whether the timeline should only show
	// tweets from verified users.
	KeyVerifiedOnly = "ShouldShowTimelineFromVerifiedUsersOnly"

	// KeyInitialPreferencesSet marks the first-run preference flow as done.
	KeyInitialPreferencesSet = "AreInitialPreferencesSet"

	// KeyDeviceCanaryID is the installation identifier correlating local
	// state with a remote backup snapshot.
	KeyDeviceCanaryID = "DeviceCanaryId"

	// KeyDeviceBackupURL is the shareable restore link derived from the
	// canary id.
	KeyDeviceBackupURL = "DeviceBackupUrl"

	// KeyAppReloaded marks that the process restart was requested by a
	// completed restore or clear. Read and reset at boot.
	KeyAppReloaded = "IsAppReloaded"

	// KeyRedirectModalHidden holds whether the external-redirect
	// confirmation has been permanently dismissed.
	KeyRedirectModalHidden = "IsRedirectModalHidden"

	// KeyShareCardHidden holds whether the timeline share card has been
	// dismissed.
	KeyShareCardHidden = "IsShareCardHidden"
)

// AllKeys returns every managed key.
func AllKeys() []string {
	return []string{
		KeyCollections,
		KeyLists,
		KeyPreferenceList,
		KeyVerifiedOnly,
		KeyInitialPreferencesSet,
		KeyDeviceCanaryID,
		KeyDeviceBackupURL,
		KeyAppReloaded,
		KeyRedirectModalHidden,
		KeyShareCardHidden,
	}
}

// backupIgnored lists keys that must not round-trip through a backup.
// The device identity must never restore onto a different device, and
// the reload marker is transient by definition.
var backupIgnored = map[string]bool{
	KeyDeviceCanaryID:  true,
	KeyDeviceBackupURL: true,
	KeyAppReloaded:     true,
}

// BackupKeys returns the managed keys included in a backup snapshot.
func BackupKeys() []string {
	keys := make([]string, 0, len(AllKeys()))
	for _, k := range AllKeys() {
		if !backupIgnored[k] {
			keys = append(keys, k)
		}
	}
	return keys
}

// CacheKeys returns the whitelist of keys hydrated into the in-memory
// cache at boot, before any consumer reads from it.
func CacheKeys() []string {
	return []string{
		KeyPreferenceList,
		KeyVerifiedOnly,
		KeyInitialPreferencesSet,
		KeyDeviceCanaryID,
		KeyDeviceBackupURL,
		KeyRedirectModalHidden,
		KeyShareCardHidden,
	}
}
