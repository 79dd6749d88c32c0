// Package records persists attendance as one append-only CSV file per calendar day
// and renders a day's entries as a text table.
//
// Files are named attendance_<YYYY-MM-DD>.<ext> inside the records directory. The
// first row is the Name,Time,Date header; later appends never rewrite earlier rows.
package records
