package matconv

import "errors"

// Conversion errors. Every operation reports failures synchronously by
// wrapping one of these; match them with errors.Is. Nothing is retried.
var (
	// ErrNullParameter is returned when the compute queue is missing.
	ErrNullParameter = errors.New("matconv: null parameter")

	// ErrAllocationFailure is returned when a device buffer or image cannot be created.
	ErrAllocationFailure = errors.New("matconv: device allocation failed")

	// ErrUnsupportedConversion is returned for mismatched pixel layouts,
	// mismatched device residency and operations that are not implemented.
	ErrUnsupportedConversion = errors.New("matconv: conversion not supported")

	// ErrInsufficientCapacity is returned when the staging buffer is smaller
	// than the byte count a transfer needs.
	ErrInsufficientCapacity = errors.New("matconv: staging buffer smaller than transfer")

	// ErrMapFailure is returned when the staging buffer cannot be mapped.
	ErrMapFailure = errors.New("matconv: buffer map failed")

	// ErrUnmapFailure is returned when the staging buffer cannot be unmapped.
	ErrUnmapFailure = errors.New("matconv: buffer unmap failed")

	// ErrKernelCompilation is returned when the runtime fails to build a kernel.
	ErrKernelCompilation = errors.New("matconv: kernel compilation failed")

	// ErrInvalidParameter is returned for inconsistent dims, crop rectangles
	// or host buffers that are too small.
	ErrInvalidParameter = errors.New("matconv: invalid parameter")

	// ErrBindFailure is returned when a kernel argument cannot be set.
	ErrBindFailure = errors.New("matconv: kernel argument binding failed")

	// ErrDispatchFailure is returned when a kernel cannot be enqueued or the
	// queue cannot be drained.
	ErrDispatchFailure = errors.New("matconv: kernel dispatch failed")

	// ErrClosed is returned when a Converter is used after Close.
	ErrClosed = errors.New("matconv: converter is closed")
)
