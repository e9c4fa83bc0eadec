package models

// Settings keys in the host key-value store
const (
	SettingDeleteAfterDaysSwitch = "delete_after_days_switch"
	SettingDeleteAfterDaysDays   = "delete_after_days_days"
)

// DefaultRetainDays is used until an administrator stores another value
const DefaultRetainDays = 30

// RetentionSettings controls the retention sweep
type RetentionSettings struct {
	Enabled    bool `json:"enabled"`
	RetainDays int  `json:"retain_days"`
}

// DefaultRetentionSettings returns the settings written on install
func DefaultRetentionSettings() RetentionSettings {
	return RetentionSettings{
		Enabled:    false,
		RetainDays: DefaultRetainDays,
	}
}
