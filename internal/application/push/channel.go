package push

import "strings"

// Android notification channel ids the mobile client registers. The channel
// decides sound and visibility on the device, so every outbound payload must
// carry one.
const (
	ChannelOrders         = "orders_channel"
	ChannelWarning        = "warning_channel"
	ChannelAlert          = "alert_channel"
	ChannelPromotions     = "promotions_channel"
	ChannelInfo           = "info_channel"
	ChannelHighImportance = "high_importance_channel"
)

// clickAction tells the client runtime to route notification taps into the app.
const clickAction = "FLUTTER_NOTIFICATION_CLICK"

// defaultScreen is where a tap lands when the sender did not pick a screen.
const defaultScreen = "Notifications"

// Classify maps a notification type to its delivery channel and default
// priority. Total over all inputs: anything unrecognized falls through to the
// generic high-importance channel, not to the info channel.
func Classify(notifType string) (channel string, highPriority bool) {
	switch strings.ToLower(strings.TrimSpace(notifType)) {
	case "order":
		return ChannelOrders, true
	case "warning":
		return ChannelWarning, true
	case "alert", "error":
		return ChannelAlert, true
	case "promotion", "promo", "discount", "sale":
		return ChannelPromotions, false
	case "info":
		return ChannelInfo, false
	default:
		return ChannelHighImportance, true
	}
}

// enrich injects the channel id, the click-action marker, and the default
// screen/tab routing pair into data. Caller-supplied screen and tab values
// are preserved; these are defaults, not overrides.
func enrich(data map[string]string, channel string) map[string]string {
	if data == nil {
		data = make(map[string]string)
	}
	data["channel_id"] = channel
	data["click_action"] = clickAction
	if _, ok := data["screen"]; !ok {
		data["screen"] = defaultScreen
	}
	if _, ok := data["tab"]; !ok {
		data["tab"] = defaultScreen
	}
	return data
}
