// Package api contains the HTTP handlers, request/response models, and
// error-to-status mapping for the user and task endpoints. Handlers decode
// and validate input, delegate to the service layer, and translate service
// errors into safe client responses.
package api
