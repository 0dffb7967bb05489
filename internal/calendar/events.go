package calendar

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/moneymagic/internal/domain"
	"github.com/dvloznov/moneymagic/internal/money"
	"github.com/dvloznov/moneymagic/internal/pipeline"
)

const (
	KindSubscription = "subscription"
	KindOneTime      = "one_time"

	DefaultHorizonDays = 90

	googleCalendarBase = "https://calendar.google.com/calendar/render"
)

// Event is one upcoming payment, with a link that pre-fills a Google
// Calendar entry for it.
type Event struct {
	Date              string  `json:"date"`
	Title             string  `json:"title"`
	Merchant          string  `json:"merchant"`
	Amount            float64 `json:"amount"`
	Kind              string  `json:"kind"`
	GoogleCalendarURL string  `json:"google_calendar_url"`
}

// Events projects subscription charges forward from each next_charge_date,
// every interval_days, for horizonDays. One-time future payments become a
// single event each. Subscriptions without a usable date or interval are
// skipped.
func Events(subs []domain.Subscription, txs []domain.Transaction, horizonDays int) []Event {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}

	events := make([]Event, 0)
	for _, sub := range subs {
		start, ok := domain.ParseDate(sub.NextChargeDate)
		if !ok || sub.IntervalDays < 1 {
			continue
		}
		end := start.AddDays(horizonDays)
		charge := ChargeAmount(sub)
		title := fmt.Sprintf("%s renewal", sub.Merchant)
		details := fmt.Sprintf("Estimated charge: %s every %d days.", money.Dollars(charge), sub.IntervalDays)

		for d := start; !d.After(end); d = d.AddDays(sub.IntervalDays) {
			events = append(events, Event{
				Date:              d.String(),
				Title:             title,
				Merchant:          sub.Merchant,
				Amount:            charge,
				Kind:              KindSubscription,
				GoogleCalendarURL: GoogleCalendarURL(title, details, d),
			})
		}
	}

	for _, tx := range txs {
		if tx.Source != domain.SourceOneTimeFuturePayment {
			continue
		}
		d, ok := tx.ParsedDate()
		if !ok {
			continue
		}
		title := fmt.Sprintf("%s payment", tx.Merchant)
		details := strings.TrimSpace(tx.Description)
		if details == "" {
			details = fmt.Sprintf("One-time payment of %s.", money.Dollars(tx.Amount))
		}
		events = append(events, Event{
			Date:              d.String(),
			Title:             title,
			Merchant:          tx.Merchant,
			Amount:            tx.Amount,
			Kind:              KindOneTime,
			GoogleCalendarURL: GoogleCalendarURL(title, details, d),
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date < events[j].Date
		}
		return events[i].Title < events[j].Title
	})
	return events
}

// ChargeAmount converts a subscription's 30-day cost back to what a single
// charge costs at its own interval.
func ChargeAmount(sub domain.Subscription) float64 {
	if sub.IntervalDays <= 0 {
		return sub.MonthlyCost
	}
	return pipeline.Round2(sub.MonthlyCost * float64(sub.IntervalDays) / 30)
}

// GoogleCalendarURL builds an all-day event template link for date.
func GoogleCalendarURL(title, details string, date civil.Date) string {
	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", title)
	q.Set("dates", compact(date)+"/"+compact(date.AddDays(1)))
	q.Set("details", details)
	return googleCalendarBase + "?" + q.Encode()
}

func compact(d civil.Date) string {
	return fmt.Sprintf("%04d%02d%02d", d.Year, int(d.Month), d.Day)
}
