// Package service contains the business operations between the HTTP
// handlers and the stores: registration and credential checks, allow-listed
// partial updates, the task-deletion cascade, and token lifecycle.
package service
