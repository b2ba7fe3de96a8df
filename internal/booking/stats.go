package booking

import (
	"time"

	"github.com/iliyamo/service-booking/internal/model"
)

// StatsMonths is how many calendar months Store.Stats breaks down.
const StatsMonths = 6

// Stats is the aggregate shown on the dashboards.  Active counts the
// bookings still in progress (requested or accepted).
type Stats struct {
	Total     int                  `json:"total"`
	Active    int                  `json:"active"`
	Completed int                  `json:"completed"`
	ByStatus  map[model.Status]int `json:"by_status"`
	Monthly   []MonthCount         `json:"monthly"`
}

// MonthCount is the number of bookings created in one calendar month,
// formatted as YYYY-MM.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// Summarize counts bs.  Monthly is left empty.
func Summarize(bs []model.Booking) Stats {
	st := Stats{ByStatus: make(map[model.Status]int, len(model.Statuses)), Monthly: []MonthCount{}}
	for _, s := range model.Statuses {
		st.ByStatus[s] = 0
	}
	for _, b := range bs {
		st.Total++
		st.ByStatus[b.Status]++
		switch b.Status {
		case model.StatusRequested, model.StatusAccepted:
			st.Active++
		case model.StatusCompleted:
			st.Completed++
		}
	}
	return st
}

// Monthly counts the bookings of bs created in each of the n calendar
// months ending with the month of now, oldest first.  Months are UTC.
func Monthly(bs []model.Booking, now time.Time, n int) []MonthCount {
	if n <= 0 {
		return []MonthCount{}
	}
	now = now.UTC()
	first := time.Date(now.Year(), now.Month()-time.Month(n-1), 1, 0, 0, 0, 0, time.UTC)
	out := make([]MonthCount, n)
	for i := range out {
		out[i].Month = first.AddDate(0, i, 0).Format("2006-01")
	}
	for _, b := range bs {
		c := b.CreatedAt.UTC()
		i := (c.Year()-first.Year())*12 + int(c.Month()) - int(first.Month())
		if i >= 0 && i < n {
			out[i].Count++
		}
	}
	return out
}
