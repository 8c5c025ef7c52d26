// Package content manages the systems-thinking curriculum: topics, and for
// each topic one lesson per grade band so the same concept reads right for a
// second grader and a high schooler. Admins author; teachers and students
// read. Published state gates visibility, so drafts never reach classrooms.
package content
