// Package assignment connects the curriculum to classrooms: a teacher
// assigns a topic at a grade band to one of their classrooms, optionally
// with a due date. Students see assignments for the classrooms they are
// enrolled in; progress tracking hangs off the assignment ID.
package assignment
