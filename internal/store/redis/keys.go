package redis

import "strconv"

const (
	// KeyPrefixSnooze is the prefix for per-alarm snooze state keys.
	KeyPrefixSnooze = "wakebell:snooze:"
	// KeyAllSnooze is the set of alarm ids with persisted snooze state.
	KeyAllSnooze = "wakebell:snooze:all"
	// KeySelection is the single selection record (day cache + history).
	KeySelection = "wakebell:selection"
	// KeyPrefixAlarmMeta is the prefix for per-alarm engine-owned metadata.
	KeyPrefixAlarmMeta = "wakebell:alarm:meta:"
	// KeyAllAlarmMeta is the set of alarm ids with persisted metadata.
	KeyAllAlarmMeta = "wakebell:alarm:meta:all"
	// KeyPrefixUsage is the prefix for per-content usage records.
	KeyPrefixUsage = "wakebell:usage:"
	// KeyAllUsage is the set of content numbers with usage records.
	KeyAllUsage = "wakebell:usage:all"
)

// SnoozeKey returns the Redis key for an alarm's snooze state.
func SnoozeKey(alarmID int64) string {
	return KeyPrefixSnooze + strconv.FormatInt(alarmID, 10)
}

// AlarmMetaKey returns the Redis key for an alarm's metadata overlay.
func AlarmMetaKey(alarmID int64) string {
	return KeyPrefixAlarmMeta + strconv.FormatInt(alarmID, 10)
}

// UsageKey returns the Redis key for a content item's usage record.
func UsageKey(number int) string {
	return KeyPrefixUsage + strconv.Itoa(number)
}
