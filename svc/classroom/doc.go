// Package classroom manages classrooms and their rosters. A teacher creates
// a classroom and shares its join code (or the QR rendering of it); students
// join by code. Roster growth is capped by the seat limit on the owning
// teacher's subscription, with unlimited seats expressed as -1.
//
// Join codes are short-lived lookups on the hot path, so resolution goes
// through Redis first and falls back to Postgres on a miss.
package classroom
