package intent

import (
	"CarePortalGolang/internal/entity"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	providerRe   = regexp.MustCompile(`(?:dr|doctor)\s+([a-z]+)`)
	clockRe      = regexp.MustCompile(`\bat\s+(\d{1,2})(?:[\s:.]+(\d{2}))?\s*(am|a m|pm|p m)?\b`)
	reasonRe     = regexp.MustCompile(`\bfor\s+([a-z][a-z ]*)$`)
	monthDayRe   = regexp.MustCompile(`\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2})\b`)
	strengthRe   = regexp.MustCompile(`\b(\d+(?:\.\d+)?)\s*(mg|mcg|g|ml|units?)\b`)
	dosageRe     = regexp.MustCompile(`\b(\d+)\s*(tablets?|pills?|capsules?|puffs?|drops?)\b`)
	medNameRe    = regexp.MustCompile(`(?:taking|prescribe|start taking|patient on|called|medication)\s+([a-z]+)`)
	countRe      = regexp.MustCompile(`\b(?:next|last)\s+(\d+)\b`)
	monthQueryRe = regexp.MustCompile(`\bfor\s+(january|february|march|april|may|june|july|august|september|october|november|december)\b`)
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var months = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

var frequencyPhrases = []struct {
	phrase string
	norm   string
}{
	{"twice a day", "twice daily"},
	{"twice daily", "twice daily"},
	{"two times a day", "twice daily"},
	{"three times a day", "three times daily"},
	{"once a day", "daily"},
	{"once daily", "daily"},
	{"every day", "daily"},
	{"daily", "daily"},
	{"every morning", "every morning"},
	{"every night", "every night"},
	{"at bedtime", "at bedtime"},
	{"as needed", "as needed"},
	{"with meals", "with meals"},
	{"every week", "weekly"},
	{"weekly", "weekly"},
}

func extractAppointment(_ *Classifier, text string, _ entity.OperatingContext, now time.Time, in *entity.Intent) bool {
	in.Appointment = &entity.AppointmentPayload{
		Provider: extractProvider(text),
		Date:     extractDate(text, now),
		Time:     extractClockTime(text),
		Reason:   extractReason(text),
	}
	return true
}

func extractAppointmentQuery(_ *Classifier, text string, _ entity.OperatingContext, _ time.Time, in *entity.Intent) bool {
	in.Query = &entity.AppointmentQueryPayload{Limit: extractLimit(text)}
	return true
}

func extractMedication(_ *Classifier, text string, _ entity.OperatingContext, _ time.Time, in *entity.Intent) bool {
	in.Medication = &entity.MedicationPayload{
		Name:      extractMedicationName(text),
		Strength:  extractStrength(text),
		Dosage:    extractDosage(text),
		Frequency: extractFrequency(text),
	}
	return true
}

func extractBillingQuery(_ *Classifier, text string, _ entity.OperatingContext, now time.Time, in *entity.Intent) bool {
	in.Billing = &entity.BillingQueryPayload{Period: extractPeriod(text, now)}
	return true
}

func extractProvider(text string) string {
	m := providerRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.Title(m[1])
}

// extractDate resolves relative day references against the given reference
// time and returns an ISO date, or "" when the utterance names no day.
func extractDate(text string, now time.Time) string {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch {
	case strings.Contains(text, "day after tomorrow"):
		return today.AddDate(0, 0, 2).Format("2006-01-02")
	case strings.Contains(text, "tomorrow"):
		return today.AddDate(0, 0, 1).Format("2006-01-02")
	case strings.Contains(text, "today"):
		return today.Format("2006-01-02")
	}

	for _, word := range strings.Fields(text) {
		day, ok := weekdays[word]
		if !ok {
			continue
		}
		// "next occurrence", never today itself
		offset := (int(day) - int(today.Weekday()) + 7) % 7
		if offset == 0 {
			offset = 7
		}
		return today.AddDate(0, 0, offset).Format("2006-01-02")
	}

	if m := monthDayRe.FindStringSubmatch(text); m != nil {
		month := months[m[1]]
		dayNum, _ := strconv.Atoi(m[2])
		date := time.Date(now.Year(), month, dayNum, 0, 0, 0, 0, now.Location())
		if date.Before(today) {
			date = date.AddDate(1, 0, 0)
		}
		return date.Format("2006-01-02")
	}

	return ""
}

// extractClockTime returns a 24h "15:04" time. Bare small hours lean to the
// afternoon, since a clinic utterance like "at 3" almost always means 3 PM.
func extractClockTime(text string) string {
	m := clockRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}

	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if hour > 23 || minute > 59 {
		return ""
	}

	meridiem := strings.ReplaceAll(m[3], " ", "")
	switch meridiem {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	default:
		if hour >= 1 && hour <= 7 {
			hour += 12
		}
	}

	return fmt.Sprintf("%02d:%02d", hour, minute)
}

func extractReason(text string) string {
	m := reasonRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}

	reason := strings.TrimSpace(m[1])
	for word := range weekdays {
		if reason == word {
			return ""
		}
	}
	return reason
}

func extractMedicationName(text string) string {
	stopwords := map[string]bool{
		"a": true, "an": true, "the": true, "my": true, "some": true,
		"new": true, "this": true, "that": true, "called": true,
	}

	rest := text
	for {
		loc := medNameRe.FindStringSubmatchIndex(rest)
		if loc == nil {
			return ""
		}
		word := rest[loc[2]:loc[3]]
		if !stopwords[word] {
			return strings.Title(word)
		}
		rest = rest[loc[2]:]
	}
}

func extractStrength(text string) string {
	m := strengthRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1] + m[2]
}

func extractDosage(text string) string {
	m := dosageRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1] + " " + m[2]
}

func extractFrequency(text string) string {
	for _, f := range frequencyPhrases {
		if strings.Contains(text, f.phrase) {
			return f.norm
		}
	}
	return ""
}

func extractLimit(text string) int {
	if m := countRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	if strings.Contains(text, "next appointment") {
		return 1
	}
	return 0
}

func extractPeriod(text string, now time.Time) string {
	switch {
	case strings.Contains(text, "last month"):
		return now.AddDate(0, -1, 0).Format("2006-01")
	case strings.Contains(text, "this month"):
		return now.Format("2006-01")
	}

	if m := monthQueryRe.FindStringSubmatch(text); m != nil {
		month := months[m[1]]
		year := now.Year()
		if month > now.Month() {
			year--
		}
		return fmt.Sprintf("%04d-%02d", year, int(month))
	}

	return ""
}
