package storage

import "errors"

var (
	ErrCollectionNotFound  = errors.New("collection not found")
	ErrContentNotFound     = errors.New("content not found")
	ErrAssociationNotFound = errors.New("collection content association not found")
	ErrTermNotFound        = errors.New("vocabulary term not found")
	ErrConflict            = errors.New("unique constraint violation")
)

var (
	ErrFileTooLarge    = errors.New("file size exceeds limit")
	ErrInvalidFileType = errors.New("invalid file type")
	ErrFileNotFound    = errors.New("file not found")
)
