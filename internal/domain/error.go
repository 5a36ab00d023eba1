package domain

import "errors"

var (
	// Session lifecycle errors
	ErrSessionNotFound = errors.New("session not found or expired")
	ErrNoDocument      = errors.New("no document uploaded")
	ErrLockTimeout     = errors.New("session table lock timeout")

	// Input validation errors
	ErrInvalidArgument = errors.New("invalid argument")
	ErrEmptyFile       = errors.New("empty file")
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")

	// Collaborator failures, translated at the ingestion/query boundary
	ErrExtraction  = errors.New("document extraction failed")
	ErrIndexBuild  = errors.New("index build failed")
	ErrGeneration  = errors.New("answer generation failed")
	ErrRateLimited = errors.New("generation rate limited")

	// Unexpected defects
	ErrInternal = errors.New("internal fault")
)
