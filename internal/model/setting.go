package model

// Setting is a generic key/value row in the `settings` table. The only
// instance today is "registration_enabled" ("1"/"0"), which gates whether the
// self-service register endpoint is open.
type Setting struct {
	ID    uint64 // settings.id
	Key   string // settings.setting_key
	Value string // settings.setting_value
}

// RegistrationEnabledKey is the settings row gating self-registration.
const RegistrationEnabledKey = "registration_enabled"
