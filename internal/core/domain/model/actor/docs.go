// Package actor describes who is acting on an order: the principal identifier, its
// role and, for department-scoped principals, the department they manage.
package actor
