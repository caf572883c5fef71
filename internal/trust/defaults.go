package trust

import "github.com/and161185/trust-backend/model"

// Stable keys of the default metric items.
const (
	KeyRating    = "rating"
	KeyShipments = "shipments"
	KeyDownloads = "downloads"
	KeyUptime    = "uptime"
)

func icon(name string) *string { return &name }

// DefaultItems returns the items seeded into an empty store, in display order.
// Labels are in the storefront's default locale.
func DefaultItems() []model.MetricItem {
	return []model.MetricItem{
		{Key: KeyRating, Label: "تقييم العملاء", Value: "4.9/5", Icon: icon("Star")},
		{Key: KeyShipments, Label: "عمليات الشحن", Value: "120K+", Icon: icon("Zap")},
		{Key: KeyDownloads, Label: "عدد التحميلات", Value: "85K+", Icon: icon("Download")},
		{Key: KeyUptime, Label: "زمن الاستجابة", Value: "1.2s", Icon: icon("Gauge")},
	}
}
