// Package calendar renders iCalendar exports of a participant's
// registrations.
package calendar

import (
	"strings"
	"time"
)

// VEvent holds the fields of a single VEVENT entry.
type VEvent struct {
	UID            string
	Title          string
	Description    string
	Location       string
	Start          time.Time
	End            time.Time
	URL            string
	OrganizerEmail string
}

// escapeText escapes commas, semicolons, and newlines per RFC 5545.
func escapeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\n")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	return s
}

// formatDate renders a timestamp as YYYYMMDDTHHMMSSZ in UTC.
func formatDate(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// Render produces the VEVENT block for e.
func (e VEvent) Render(now time.Time) string {
	lines := []string{
		"BEGIN:VEVENT",
		"UID:" + e.UID,
		"DTSTAMP:" + formatDate(now),
		"DTSTART:" + formatDate(e.Start),
		"DTEND:" + formatDate(e.End),
	}
	if e.OrganizerEmail != "" {
		lines = append(lines, "ORGANIZER:mailto:"+e.OrganizerEmail)
	}
	title := e.Title
	if title == "" {
		title = "Event"
	}
	lines = append(lines, "SUMMARY:"+escapeText(title))
	if e.Description != "" {
		lines = append(lines, "DESCRIPTION:"+escapeText(e.Description))
	}
	if e.Location != "" {
		lines = append(lines, "LOCATION:"+escapeText(e.Location))
	}
	if e.URL != "" {
		lines = append(lines, "URL:"+e.URL)
	}
	lines = append(lines, "END:VEVENT")
	return strings.Join(lines, "\r\n")
}

// WrapCalendar wraps rendered VEVENT blocks in a VCALENDAR envelope.
func WrapCalendar(events []string) string {
	parts := []string{"BEGIN:VCALENDAR", "VERSION:2.0", "PRODID:-//Felicity//EN"}
	parts = append(parts, events...)
	parts = append(parts, "END:VCALENDAR")
	return strings.Join(parts, "\r\n")
}
