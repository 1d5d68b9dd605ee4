package blobstore

import (
	"errors"

	"github.com/zeebo/errs"
)

// Error wraps every failed upload, delete or listing call.
var Error = errs.Class("blob operation failed")

// Common backend errors.
var (
	// ErrNotFound is returned by backends for a missing key or folder.
	// Delete swallows it; listings surface it.
	ErrNotFound = errors.New("not found")
	// ErrFolderNotEmpty is returned when deleting a folder that still has content.
	ErrFolderNotEmpty = errors.New("folder not empty")
	// ErrUnauthorized is returned when the store rejects the credentials.
	ErrUnauthorized = errors.New("unauthorized: check storage credentials")
)
