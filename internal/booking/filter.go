package booking

import "github.com/iliyamo/service-booking/internal/model"

// Filter selects bookings for a view.  Zero-valued fields match anything,
// so the zero Filter is the unscoped admin view.
type Filter struct {
	ProviderID   uint64
	CustomerID   uint64
	CustomerName string
	Status       model.Status
}

// All matches every booking.
func All() Filter { return Filter{} }

// ByProvider matches the bookings addressed to providerID.
func ByProvider(providerID uint64) Filter { return Filter{ProviderID: providerID} }

// ByCustomer matches the bookings created by customerID.
func ByCustomer(customerID uint64) Filter { return Filter{CustomerID: customerID} }

// Match reports whether b satisfies every set field of f.
func (f Filter) Match(b model.Booking) bool {
	if f.ProviderID != 0 && b.ProviderID != f.ProviderID {
		return false
	}
	if f.CustomerID != 0 && b.CustomerID != f.CustomerID {
		return false
	}
	if f.CustomerName != "" && b.CustomerName != f.CustomerName {
		return false
	}
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	return true
}
